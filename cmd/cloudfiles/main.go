package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cfsdk"
	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles"
)

type globalFlags struct {
	envFile string
	verbose bool
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}
	var logger *zap.Logger

	root := &cobra.Command{
		Use:           "cloudfiles",
		Short:         "Work with Rackspace Cloud Files containers and objects",
		Long:          "cloudfiles manages containers, objects and CDN settings of a Cloud Files account. Credentials are read from CLOUDFILES_* environment variables or a .env file.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(flags.envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			l, err := newLogger(flags.verbose)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "dotenv file loaded before reading CLOUDFILES_* variables")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log requests at debug level")

	clientFn := func() (*cloudfiles.Client, error) {
		client, mode, err := cfsdk.NewFromEnv(cloudfiles.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		logger.Debug("client ready", zap.String("mode", mode))
		return client, nil
	}
	loggerFn := func() *zap.Logger { return logger }

	root.AddCommand(
		newContainersCommand(clientFn),
		newListCommand(clientFn),
		newPutCommand(clientFn),
		newGetCommand(clientFn),
		newRemoveCommand(clientFn),
		newMkpathCommand(clientFn),
		newMetaCommand(clientFn),
		newPublishCommand(clientFn),
		newUnpublishCommand(clientFn),
		newCDNCommand(clientFn),
		newSandboxCommand(loggerFn),
	)
	return root
}

// loadEnvFile loads path into the environment without overriding variables
// already set. A missing default file is not an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
