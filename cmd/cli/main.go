package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"trustdebt/adapters/excel"
	"trustdebt/adapters/file"
	"trustdebt/app"
	"trustdebt/domain/category"
	"trustdebt/domain/snapshot"
	"trustdebt/internal"
	"trustdebt/internal/config"
	"trustdebt/internal/container"
	"trustdebt/internal/testkit"
	"trustdebt/ports"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "trustdebt-cli",
		Short:         "Measure trust debt between documented intent and implemented reality",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newAssessCmd(),
		newBatchCmd(),
		newGradeCmd(),
		newOrderCmd(),
		newGenerateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newAssessCmd() *cobra.Command {
	var input, project, output string

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Balance categories, build the presence matrix and grade it",
		Long: `Run one assessment on a snapshot file (.yaml, .yml, .json or .xlsx).

Example: trustdebt-cli assess --input snapshot.yaml --output report.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			rep, err := svc.AssessSource(cmd.Context(), sourceFor(input, project))
			if err != nil {
				return err
			}
			return writeJSON(output, rep)
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "Snapshot file")
	cmd.Flags().StringVar(&project, "project", "", "Project name (overrides the file)")
	cmd.Flags().StringVar(&output, "output", "", "Write the report here instead of stdout")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func newBatchCmd() *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Assess every snapshot in a directory in parallel",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			svc, err := newService()
			if err != nil {
				return err
			}
			snaps, err := file.LoadDir(cmd.Context(), dir)
			if err != nil {
				return err
			}
			items, err := app.NewBatchService(svc, cfg.Engine.BatchWorkers, internal.DefaultLogger).AssessAll(cmd.Context(), snaps)
			if err != nil {
				return err
			}

			failed := 0
			for _, item := range items {
				if item.Err != nil {
					failed++
					fmt.Fprintf(cmd.OutOrStdout(), "%-24s error  %v\n", item.Project, item.Err)
					continue
				}
				r := item.Report.Result
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-6s %10.2f units  unresolved=%t\n",
					item.Project, r.Grade, r.TotalUnits, item.Report.Balance.Unresolved)
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d assessments failed", failed, len(items))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "Directory of snapshot files")
	return cmd
}

func newGradeCmd() *cobra.Command {
	var total, prior float64

	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Map a trust debt total onto the grade table",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newService()
			if err != nil {
				return err
			}
			calc := svc.Calculator()
			g, err := calc.Grade(total)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "grade: %s (table %s)\n", g, calc.Boundaries())
			if cmd.Flags().Changed("prior") {
				t, err := calc.Trajectory(prior, total)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "trajectory: %s (delta %+.2f)\n", t, total-prior)
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&total, "total", 0, "Total trust debt units")
	cmd.Flags().Float64Var(&prior, "prior", 0, "Previous run's total")
	_ = cmd.MarkFlagRequired("total")
	return cmd
}

func newOrderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order [ids...]",
		Short: "Print category ids in ShortLex order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, id := range args {
				if !category.ValidID(id) {
					return fmt.Errorf("invalid category id %q", id)
				}
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(category.SortIDs(args), " "))
			return nil
		},
	}
}

func newGenerateCmd() *cobra.Command {
	gen := testkit.DefaultSignalConfig()
	var output, project string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a synthetic snapshot for trying the engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			cats, table := testkit.NewSignalGenerator(gen).Generate()
			snap := testkit.Snapshot(project, cats, table)
			return writeSnapshot(output, snap)
		},
	}

	cmd.Flags().IntVar(&gen.RootCount, "roots", gen.RootCount, "Root categories")
	cmd.Flags().IntVar(&gen.ChildrenPerRoot, "children", gen.ChildrenPerRoot, "Children per root")
	cmd.Flags().IntVar(&gen.KeywordsPerLeaf, "keywords", gen.KeywordsPerLeaf, "Keywords per category")
	cmd.Flags().IntVar(&gen.SampleCount, "samples", gen.SampleCount, "Signal samples")
	cmd.Flags().Float64Var(&gen.SharedSignalRate, "shared", gen.SharedSignalRate, "Share of signal common to all keywords")
	cmd.Flags().Int64Var(&gen.Seed, "seed", gen.Seed, "Random seed for deterministic output")
	cmd.Flags().StringVar(&project, "project", "synthetic", "Project name")
	cmd.Flags().StringVar(&output, "output", "", "Write to this .yaml, .json or .xlsx file instead of stdout")
	return cmd
}

func newService() (*app.AssessmentService, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := internal.NewLoggerWithMode(internal.ParseLogLevel(cfg.Log.Level), cfg.Log.Mode)
	internal.DefaultLogger = logger

	settings, err := container.SettingsFrom(cfg.Engine)
	if err != nil {
		return nil, err
	}
	return app.NewAssessmentService(settings, logger)
}

type projectOverride struct {
	ports.SignalSource
	project string
}

func (p projectOverride) Load(ctx context.Context) (*snapshot.Snapshot, error) {
	snap, err := p.SignalSource.Load(ctx)
	if err == nil {
		snap.Project = p.project
	}
	return snap, err
}

func sourceFor(path, project string) ports.SignalSource {
	var src ports.SignalSource
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		cfg := excel.DefaultSourceConfig(path)
		cfg.Project = project
		src = excel.NewSource(cfg, internal.DefaultLogger)
	} else {
		src = file.NewSource(path)
	}
	if project != "" {
		return projectOverride{SignalSource: src, project: project}
	}
	return src
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if path == "" {
		_, err = fmt.Println(string(data))
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func writeSnapshot(path string, snap *snapshot.Snapshot) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return excel.WriteSnapshot(snap, excel.DefaultSourceConfig(path))
	case ".json":
		data, err := file.Encode(snap, file.FormatJSON)
		if err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return err
	}
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
