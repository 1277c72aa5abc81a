package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/Ratio1/cloudfiles_sdk_go/pkg/cloudfiles"
)

type clientFunc func() (*cloudfiles.Client, error)

func containerFor(newClient clientFunc, name string) (*cloudfiles.Container, error) {
	client, err := newClient()
	if err != nil {
		return nil, err
	}
	return client.Container(name)
}

func addFilterFlags(cmd *cobra.Command, f *cloudfiles.ListFilter) {
	cmd.Flags().IntVar(&f.Limit, "limit", 0, "maximum number of entries")
	cmd.Flags().StringVar(&f.Marker, "marker", "", "list entries after this name")
	cmd.Flags().StringVar(&f.Prefix, "prefix", "", "list entries starting with this prefix")
}

func filterChanged(cmd *cobra.Command) bool {
	f := cmd.Flags()
	return f.Changed("limit") || f.Changed("marker") || f.Changed("prefix")
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printLines(w io.Writer, lines []string) {
	for _, l := range lines {
		fmt.Fprintln(w, l)
	}
}

func newContainersCommand(newClient clientFunc) *cobra.Command {
	filter := &cloudfiles.ListFilter{}
	var format string
	cmd := &cobra.Command{
		Use:   "containers",
		Short: "List the containers of the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			switch format {
			case "", "plain":
				names, err := client.ListContainers(cmd.Context(), filter)
				if err != nil {
					return err
				}
				printLines(cmd.OutOrStdout(), names)
				return nil
			case "json":
				records, err := client.ContainerRecords(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), records)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	addFilterFlags(cmd, filter)
	cmd.Flags().StringVar(&format, "format", "plain", "output format: plain or json")
	return cmd
}

func newListCommand(newClient clientFunc) *cobra.Command {
	filter := &cloudfiles.ListFilter{}
	var format string
	cmd := &cobra.Command{
		Use:   "ls CONTAINER",
		Short: "List the objects of a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := containerFor(newClient, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch format {
			case "", "plain":
				names, err := c.ListObjects(cmd.Context(), filter)
				if err != nil {
					return err
				}
				printLines(out, names)
			case "json":
				records, err := c.ObjectRecords(cmd.Context(), filter)
				if err != nil {
					return err
				}
				return writeJSON(out, records)
			case "xml":
				if filterChanged(cmd) {
					return fmt.Errorf("--limit, --marker and --prefix are not supported with --format xml")
				}
				raw, err := c.ObjectListSerialized(cmd.Context(), cloudfiles.FormatXML)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, raw)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			return nil
		},
	}
	addFilterFlags(cmd, filter)
	cmd.Flags().StringVar(&format, "format", "plain", "output format: plain, json or xml")
	return cmd
}

func newPutCommand(newClient clientFunc) *cobra.Command {
	var quiet bool
	cmd := &cobra.Command{
		Use:   "put CONTAINER LOCAL_FILE [OBJECT]",
		Short: "Upload a local file",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := containerFor(newClient, args[0])
			if err != nil {
				return err
			}
			name := ""
			if len(args) == 3 {
				name = args[2]
			}
			var progress cloudfiles.ProgressFunc
			if !quiet {
				errOut := cmd.ErrOrStderr()
				progress = func(n int64) { fmt.Fprintf(errOut, "\r%d bytes", n) }
			}
			etag, err := c.PutFile(cmd.Context(), afero.NewOsFs(), args[1], name, progress)
			if progress != nil {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), etag)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "do not report progress")
	return cmd
}

func newGetCommand(newClient clientFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "get CONTAINER OBJECT [LOCAL_FILE]",
		Short: "Download an object",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := containerFor(newClient, args[0])
			if err != nil {
				return err
			}
			local := path.Base(args[1])
			if len(args) == 3 {
				local = args[2]
			}
			n, err := c.GetFile(cmd.Context(), afero.NewOsFs(), args[1], local)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d bytes\n", local, n)
			return nil
		},
	}
}

func newRemoveCommand(newClient clientFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "rm CONTAINER OBJECT...",
		Short: "Delete objects",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := containerFor(newClient, args[0])
			if err != nil {
				return err
			}
			for _, name := range args[1:] {
				if err := c.DeleteObject(cmd.Context(), name); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newMkpathCommand(newClient clientFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "mkpath CONTAINER PATH",
		Short: "Create directory marker objects for every level of PATH",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := containerFor(newClient, args[0])
			if err != nil {
				return err
			}
			return c.EnsureDirectoryPath(cmd.Context(), args[1])
		},
	}
}

func newMetaCommand(newClient clientFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "meta CONTAINER OBJECT [KEY=VALUE...]",
		Short: "Show or replace object metadata",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := containerFor(newClient, args[0])
			if err != nil {
				return err
			}
			if len(args) == 2 {
				item, err := c.HeadObject(cmd.Context(), args[1])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "content-type: %s\ncontent-length: %d\n", item.ContentType(), item.ContentLength())
				meta := item.Metadata()
				for _, k := range sortedKeys(meta) {
					fmt.Fprintf(out, "%s: %s\n", k, meta[k])
				}
				return nil
			}
			meta := make(map[string]string, len(args)-2)
			for _, kv := range args[2:] {
				k, v, ok := strings.Cut(kv, "=")
				if !ok || k == "" {
					return fmt.Errorf("metadata %q must be KEY=VALUE", kv)
				}
				meta[k] = v
			}
			return c.SetObjectMetadata(cmd.Context(), args[1], meta)
		},
	}
}

func newPublishCommand(newClient clientFunc) *cobra.Command {
	var ttl int
	cmd := &cobra.Command{
		Use:   "publish CONTAINER",
		Short: "Enable CDN delivery for a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := containerFor(newClient, args[0])
			if err != nil {
				return err
			}
			uri, err := c.PublishToCdn(cmd.Context(), ttl)
			if err != nil {
				return err
			}
			if uri != nil {
				fmt.Fprintln(cmd.OutOrStdout(), uri.String())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&ttl, "ttl", cloudfiles.NoTTL, "CDN TTL in seconds; the service default applies when unset")
	return cmd
}

func newUnpublishCommand(newClient clientFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "unpublish CONTAINER",
		Short: "Disable CDN delivery for a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := containerFor(newClient, args[0])
			if err != nil {
				return err
			}
			return c.UnpublishFromCdn(cmd.Context())
		},
	}
}

func newCDNCommand(newClient clientFunc) *cobra.Command {
	details := cloudfiles.CDNDetails{}
	cmd := &cobra.Command{
		Use:   "cdn CONTAINER",
		Short: "Show or update the CDN settings of a published container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := containerFor(newClient, args[0])
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("log") || flags.Changed("ttl") || flags.Changed("referrer-acl") || flags.Changed("user-agent-acl") {
				if err := c.SetCdnDetails(cmd.Context(), details); err != nil {
					return err
				}
			}
			info, err := c.RefreshCDN(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "enabled: %t\nuri: %s\nttl: %d\nlog retention: %t\n", info.Enabled, info.URI, info.TTL, info.LogRetention)
			if info.ReferrerACL != "" {
				fmt.Fprintf(out, "referrer acl: %s\n", info.ReferrerACL)
			}
			if info.UserAgentACL != "" {
				fmt.Fprintf(out, "user agent acl: %s\n", info.UserAgentACL)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&details.LoggingEnabled, "log", false, "enable CDN access log retention")
	cmd.Flags().IntVar(&details.TTL, "ttl", cloudfiles.NoTTL, "CDN TTL in seconds")
	cmd.Flags().StringVar(&details.ReferrerACL, "referrer-acl", "", "referrer ACL")
	cmd.Flags().StringVar(&details.UserAgentACL, "user-agent-acl", "", "user agent ACL")
	return cmd
}
