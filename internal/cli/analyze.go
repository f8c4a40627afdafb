package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/convodoc/internal/app"
	"github.com/bryanwahyu/convodoc/internal/application/analysis"
	"github.com/bryanwahyu/convodoc/internal/application/output"
	"github.com/bryanwahyu/convodoc/internal/config"
	"github.com/bryanwahyu/convodoc/internal/domain/auditlog"
	"github.com/bryanwahyu/convodoc/internal/domain/runs"
	"github.com/bryanwahyu/convodoc/internal/logging"
)

type analyzeFlags struct {
	db      string
	out     string
	title   string
	formats []string
}

func newAnalyzeCommand(root *rootFlags) *cobra.Command {
	flags := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Analyze a conversation export and write the report files",
		Long: `Imports a JSON export or a "role: content" transcript, runs the analysis
pipeline synchronously and writes one report file per produced format.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, root, flags, args[0])
		},
	}
	cmd.Flags().StringVar(&flags.db, "db", "", "SQLite file to persist into (in-memory when empty)")
	cmd.Flags().StringVarP(&flags.out, "out", "o", "convodoc-out", "Directory for the report files")
	cmd.Flags().StringVar(&flags.title, "title", "", "Document title (defaults to the file name)")
	cmd.Flags().StringSliceVar(&flags.formats, "formats", nil, "Optional formats to add: html, latex, wiki (core formats are always written)")
	return cmd
}

// loadConfig reads config and applies the CLI store overrides.
func loadConfig(root *rootFlags, db string) (*config.Config, error) {
	path := root.configPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	switch {
	case db != "":
		cfg.Database.Driver, cfg.Database.DSN = config.DriverSQLite, db
	case cfg.Database.Driver != config.DriverSQLite:
		cfg.Database.Driver, cfg.Database.DSN = config.DriverMemory, ""
	}
	return cfg, nil
}

func runAnalyze(cmd *cobra.Command, root *rootFlags, flags *analyzeFlags, file string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root, flags.db)
	if err != nil {
		return err
	}
	if len(flags.formats) > 0 {
		cfg.Output.Formats = flags.formats
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

	title := flags.title
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	}
	doc, err := a.Analysis.Import(ctx, analysis.ImportCommand{Title: title, Source: filepath.Base(file), Data: data})
	if err != nil {
		return err
	}
	run, err := a.Analysis.RequestAnalysis(ctx, doc.ID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	runErr := a.Analysis.Run(ctx, run.ID)
	final, err := a.Analysis.Get(ctx, run.ID)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "run %s: %s (%d messages)\n", final.ID, final.Status, doc.MessageCount)

	logs, err := a.Analysis.Logs(ctx, run.ID, 0)
	if err == nil {
		for _, e := range logs {
			if e.Level != auditlog.LevelInfo {
				fmt.Fprintf(out, "  %s: %s\n", e.Level, e.Message)
			}
		}
	}
	if runErr != nil {
		return fmt.Errorf("analysis failed: %w", runErr)
	}
	if final.Status != runs.StatusCompleted {
		return fmt.Errorf("analysis ended %s", final.Status)
	}

	if err := os.MkdirAll(flags.out, 0o755); err != nil {
		return err
	}
	arts, err := a.Analysis.ListArtifacts(ctx, run.ID)
	if err != nil {
		return err
	}
	for _, art := range arts {
		path := filepath.Join(flags.out, "report."+output.Extension(art.Format))
		if err := os.WriteFile(path, []byte(art.Content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		fmt.Fprintf(out, "  wrote %s\n", path)
	}
	return nil
}
