package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Ratio1/cloudfiles_sdk_go/internal/devseed"
	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles/mock"
)

type failConfig struct {
	rate float64
	code int
}

type sandboxFlags struct {
	addr     string
	seed     string
	latency  time.Duration
	fail     string
	username string
	apiKey   string
}

func newSandboxCommand(logger func() *zap.Logger) *cobra.Command {
	flags := &sandboxFlags{}
	cmd := &cobra.Command{
		Use:   "sandbox",
		Short: "Serve an in-memory Cloud Files account over HTTP",
		Long:  "sandbox serves the v1.0 auth endpoint, the storage API and the CDN management API from memory, with optional latency and failure injection.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runSandbox(ctx, cmd.OutOrStdout(), logger(), flags)
		},
	}
	cmd.Flags().StringVar(&flags.addr, "addr", ":8787", "listen address")
	cmd.Flags().StringVar(&flags.seed, "seed", "", "path to a JSON seed for the account")
	cmd.Flags().DurationVar(&flags.latency, "latency", 0, "artificial latency to inject per request")
	cmd.Flags().StringVar(&flags.fail, "fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	cmd.Flags().StringVar(&flags.username, "user", "", "accept only this user name")
	cmd.Flags().StringVar(&flags.apiKey, "key", "", "accept only this API key")
	return cmd
}

func runSandbox(ctx context.Context, out io.Writer, logger *zap.Logger, flags *sandboxFlags) error {
	m := mock.New()
	if flags.seed != "" {
		seed, err := devseed.Load(afero.NewOsFs(), flags.seed)
		if err != nil {
			return err
		}
		if err := m.Seed(seed); err != nil {
			return fmt.Errorf("apply seed: %w", err)
		}
	}
	if flags.username != "" {
		m.SetCredentials(flags.username, flags.apiKey)
	}

	failCfg, err := parseFailConfig(flags.fail)
	if err != nil {
		return fmt.Errorf("parse fail flag: %w", err)
	}

	server := &http.Server{
		Addr:              flags.addr,
		Handler:           withMiddleware(flags.latency, failCfg, logger, m.Handler()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	host := flags.addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	user := flags.username
	if user == "" {
		user = "sandbox"
	}
	key := flags.apiKey
	if key == "" {
		key = "sandbox"
	}
	logger.Info("cloudfiles sandbox listening", zap.String("addr", flags.addr))
	fmt.Fprintln(out)
	fmt.Fprintln(out, "export CLOUDFILES_RUNTIME_MODE=http")
	fmt.Fprintf(out, "export CLOUDFILES_AUTH_URL=http://%s%s\n", host, mock.AuthPath)
	fmt.Fprintf(out, "export CLOUDFILES_USERNAME=%s\n", user)
	fmt.Fprintf(out, "export CLOUDFILES_API_KEY=%s\n", key)
	fmt.Fprintln(out)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	}
}

func withMiddleware(delay time.Duration, failCfg failConfig, logger *zap.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger.Debug("sandbox request", zap.String("method", r.Method), zap.String("path", r.URL.Path))
		if delay > 0 {
			time.Sleep(delay)
		}
		if failCfg.rate > 0 && rand.Float64() < failCfg.rate {
			status := failCfg.code
			if status == 0 {
				status = http.StatusInternalServerError
			}
			http.Error(w, "failure injected", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func parseFailConfig(raw string) (failConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return failConfig{}, nil
	}
	cfg := failConfig{code: http.StatusInternalServerError}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, val, ok := strings.Cut(part, "=")
		if !ok {
			return failConfig{}, fmt.Errorf("invalid fail segment %q", part)
		}
		val = strings.TrimSpace(val)
		switch strings.TrimSpace(key) {
		case "rate":
			rate, err := strconv.ParseFloat(val, 64)
			if err != nil {
				return failConfig{}, err
			}
			if rate < 0 || rate > 1 {
				return failConfig{}, fmt.Errorf("fail rate %v must be within [0,1]", rate)
			}
			cfg.rate = rate
		case "code":
			code, err := strconv.Atoi(val)
			if err != nil {
				return failConfig{}, err
			}
			cfg.code = code
		default:
			return failConfig{}, fmt.Errorf("unknown fail key %q", key)
		}
	}
	return cfg, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
