package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/convodoc/internal/app"
	"github.com/bryanwahyu/convodoc/internal/logging"
)

func newAgentsCommand(root *rootFlags) *cobra.Command {
	var db string
	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List the analysis agents in execution order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			cfg, err := loadConfig(root, db)
			if err != nil {
				return err
			}
			w, level := root.logOutput(cmd)
			logger, err := logging.New(w, level, cfg.Log.Format)
			if err != nil {
				return err
			}
			a, err := app.New(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.Agents.List(ctx)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tENABLED\tLAST RUN")
			for _, ag := range list {
				last := "-"
				if ag.LastRunAt != nil {
					last = ag.LastRunAt.Format("2006-01-02 15:04:05")
				}
				fmt.Fprintf(tw, "%s\t%s\t%t\t%s\n", ag.ID, ag.Type, ag.Enabled, last)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&db, "db", "", "SQLite file to read agents from (defaults when empty)")
	return cmd
}
