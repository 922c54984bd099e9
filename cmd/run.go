package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/annotation/stamd/cmd/internal/env"
	"github.com/annotation/stamd/runtime"
)

func init() {
	var namespaces []string
	params := runtime.NewParams()

	runCommand := &cobra.Command{
		Use:   "run",
		Short: "Start the stamd HTTP server",
		Long: `Start an instance of stamd.

stamd serves an HTTP API onto a pool of on-disk STAM annotation stores
rooted at --basedir. Stores are loaded lazily on first access and evicted
after --unload-time of inactivity, with changes written back to disk.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := env.CmdFlags.CheckEnvironmentVariables(cmd); err != nil {
				return err
			}

			ns, err := parseNamespaces(namespaces)
			if err != nil {
				return err
			}
			params.Namespaces = ns
			if params.BaseURL == "" {
				params.BaseURL = runtime.DeriveBaseURL(params.Addr)
			}

			ctx := context.Background()
			rt, err := runtime.NewRuntime(ctx, params)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
				os.Exit(1)
			}
			if err := rt.StartServer(ctx); err != nil {
				os.Exit(1)
			}
			return nil
		},
	}

	runCommand.Flags().StringVar(&params.Addr, "bind", params.Addr, "address to listen on, e.g. 127.0.0.1:8080")
	runCommand.Flags().StringVar(&params.BaseDir, "basedir", params.BaseDir, "directory holding annotation store files")
	runCommand.Flags().StringVar(&params.BaseURL, "baseurl", params.BaseURL, "externally visible base URL used in JSON-LD IRIs (default derived from --bind)")
	runCommand.Flags().StringVar(&params.Extension, "extension", params.Extension, "store file extension")
	runCommand.Flags().DurationVar(&params.UnloadTime, "unload-time", params.UnloadTime, "idle duration before a store is evicted from memory")
	runCommand.Flags().BoolVar(&params.ReadOnly, "readonly", params.ReadOnly, "reject all mutating requests")
	runCommand.Flags().BoolVar(&params.Debug, "debug", params.Debug, "enable debug logging and debug HTTP mode")
	runCommand.Flags().StringArrayVar(&params.ExtraContexts, "add-context", nil, "additional JSON-LD @context URI to include (repeatable)")
	runCommand.Flags().StringArrayVar(&namespaces, "ns", nil, "namespace binding as name:uri (repeatable)")
	runCommand.Flags().BoolVar(&params.NoExtraTarget, "no-extra-target", params.NoExtraTarget, "stored in each store's Web-Annotation config; does not change any response")
	runCommand.Flags().StringVar(&params.Logging.Level, "log-level", params.Logging.Level, "set log level: debug, info, error")
	runCommand.Flags().StringVar(&params.Logging.Format, "log-format", params.Logging.Format, "set log format: text, json")
	runCommand.Flags().IntVar(&params.GracefulShutdownPeriod, "shutdown-grace-period", params.GracefulShutdownPeriod, "seconds to wait for in-flight requests to finish on shutdown")

	RootCommand.AddCommand(runCommand)
}

// parseNamespaces turns repeated "name:uri" flag values into a map.
func parseNamespaces(raw []string) (map[string]string, error) {
	out := make(map[string]string, len(raw))
	for _, entry := range raw {
		parts := strings.SplitN(entry, ":", 2)
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("invalid --ns value %q, expected name:uri", entry)
		}
		out[parts[0]] = parts[1]
	}
	return out, nil
}
