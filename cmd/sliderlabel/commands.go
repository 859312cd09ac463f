package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"sliderlabel/pkg/config"
	"sliderlabel/pkg/db"
	"sliderlabel/pkg/geo"
	"sliderlabel/pkg/logging"
	"sliderlabel/pkg/map/labels"
	"sliderlabel/pkg/store"
)

func newPlaceCmd(configPath func() string) *cobra.Command {
	var (
		out     string
		seed    uint64
		noStore bool
	)
	cmd := &cobra.Command{
		Use:   "place <input>",
		Short: "Label the points of a GeoJSON or shapefile",
		Long: `Reads points from a .geojson/.json FeatureCollection or a .shp point
shapefile, anneals their labels and writes the result as GeoJSON. Without
--out the result goes to <output.dir>/<run id>.geojson.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runPlace(ctx, configPath(), args[0], out, seed, noStore, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output GeoJSON file")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "random seed (0 uses the configured seed)")
	cmd.Flags().BoolVar(&noStore, "no-store", false, "do not record the run in the database")
	return cmd
}

func runPlace(ctx context.Context, configPath, input, out string, seed uint64, noStore bool, w io.Writer) error {
	cfg, cleanup, err := setup(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	points, err := geo.LoadPoints(input)
	if err != nil {
		return err
	}
	slog.Info("Loaded points", "file", input, "count", len(points))

	var st store.RunStore
	if !noStore {
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()
		st = s
	}

	run, err := labels.NewManager(st, cfg).Place(ctx, labels.Request{Points: points, Seed: seed})
	if run == nil {
		return err
	}

	if out == "" {
		out = filepath.Join(cfg.Output.Dir, run.ID+".geojson")
	}
	if werr := geo.WritePlacementsFile(out, run.Placements, run.Width, run.Height); werr != nil {
		return werr
	}

	fmt.Fprintf(w, "Run %s: %s after %d iterations in %d stages\n", run.ID, run.Outcome, run.Iterations, run.Stages)
	fmt.Fprintf(w, "  Labeled: %d of %d (%.1f%%), removed %d, residual overlaps %d\n",
		run.Placed(), len(run.Placements), run.LabeledRatio*100, run.Removed, run.Overlaps)
	fmt.Fprintf(w, "  Seed: %d  Policy: %s\n", run.Seed, run.Policy)
	fmt.Fprintf(w, "  Written to %s\n", out)
	return err
}

func newRunsCmd(configPath func() string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded placement runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRuns(cmd.Context(), configPath(), limit, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show (0 for all)")
	return cmd
}

func runRuns(ctx context.Context, configPath string, limit int, w io.Writer) error {
	cfg, cleanup, err := setup(configPath)
	if err != nil {
		return err
	}
	defer cleanup()

	s, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.ListRuns(ctx, limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCREATED\tPOINTS\tREMOVED\tLABELED\tOUTCOME")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%.1f%%\t%s\n",
			r.ID, r.CreatedAt.Local().Format("2006-01-02 15:04:05"), r.Points, r.Removed, r.LabeledRatio*100, r.Outcome)
	}
	return tw.Flush()
}

func newInitConfigCmd(configPath func() string) *cobra.Command {
	return &cobra.Command{
		Use:   "init-config",
		Short: "Write a default config file if none exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath()
			if err := config.GenerateDefault(path); err != nil {
				return fmt.Errorf("failed to generate config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config file generated: %s\n", path)
			return nil
		},
	}
}

// setup loads the config and starts logging.
func setup(configPath string) (*config.Config, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cleanup, err := logging.Init(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}
	return cfg, cleanup, nil
}

func openStore(cfg *config.Config) (*store.SQLiteStore, error) {
	d, err := db.Init(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to init db: %w", err)
	}
	return store.NewSQLiteStore(d), nil
}
