// Package cli implements the convodoc command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

// VersionInfo is set at build time.
type VersionInfo struct {
	Version string
	Commit  string
}

type rootFlags struct {
	configPath string
	verbose    bool
}

// NewRootCommand builds the convodoc command tree.
func NewRootCommand(info VersionInfo) *cobra.Command {
	flags := &rootFlags{}
	root := &cobra.Command{
		Use:           "convodoc",
		Short:         "Turn chat conversation exports into documentation",
		Long:          "convodoc imports a chat export, runs the five analysis agents over it and writes the report in every configured format. The HTTP server lives in cmd/api.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "Path to config.yaml (defaults to CONFIG_PATH or ./config.yaml)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Enable debug logging on stderr")

	root.AddCommand(newAnalyzeCommand(flags))
	root.AddCommand(newAgentsCommand(flags))
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "convodoc %s\n", info.Version)
			fmt.Fprintf(out, "  Commit:     %s\n", info.Commit)
			fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
		},
	})
	return root
}

func (f *rootFlags) logOutput(cmd *cobra.Command) (io.Writer, string) {
	if f.verbose {
		return cmd.ErrOrStderr(), "debug"
	}
	return io.Discard, "info"
}

// Execute runs the command tree and exits non-zero on error.
func Execute(info VersionInfo) {
	cmd := NewRootCommand(info)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
