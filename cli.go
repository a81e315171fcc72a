package main

import (
	"context"
	"io"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chazu/msbr/pkg/errors"
	"github.com/chazu/msbr/pkg/tessellate"
)

// newLogger creates a timestamped logger writing to w.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

type ctxKey int

const appKey ctxKey = 0

func withApp(ctx context.Context, a *App) context.Context {
	return context.WithValue(ctx, appKey, a)
}

// appFromContext returns the App installed by the root command, or one
// logging to the default logger.
func appFromContext(ctx context.Context) *App {
	if a, ok := ctx.Value(appKey).(*App); ok {
		return a
	}
	return NewApp(log.Default())
}

// newRootCmd builds the command tree. Running the root command with no
// subcommand is build-and-plot.
func newRootCmd(stderr io.Writer) *cobra.Command {
	var (
		verbose bool
		src     Source
	)

	root := &cobra.Command{
		Use:           "msbr",
		Short:         "Build, export and plot a molten-salt reactor core model",
		Long:          `msbr assembles a CSG model of a graphite-moderated molten-salt reactor core, writes it as the transport solver's geometry.xml and plots a cross-section.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := log.InfoLevel
			if verbose {
				level = log.DebugLevel
			}
			cmd.SetContext(withApp(cmd.Context(), NewApp(newLogger(stderr, level))))
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuildAndPlot(cmd.Context(), src)
		},
	}

	flags := root.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.StringVarP(&src.ConfigPath, "config", "c", "", "core config file (.toml, .yaml or .json)")
	flags.StringVarP(&src.ScriptPath, "script", "s", "", "core description script")
	flags.StringVarP(&src.Preset, "preset", "p", "circular", "built-in core when no config or script is given: circular, faceted")
	flags.StringVarP(&src.OutDir, "out", "o", "", "output directory (overrides output.dir)")

	root.AddCommand(newBuildAndPlotCmd(&src))
	root.AddCommand(newInspectCmd(&src))
	root.AddCommand(newMeshCmd(&src))
	return root
}

func newBuildAndPlotCmd(src *Source) *cobra.Command {
	return &cobra.Command{
		Use:   "build-and-plot",
		Short: "Build the core, export geometry.xml and plot a slice",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuildAndPlot(cmd.Context(), *src)
		},
	}
}

func runBuildAndPlot(ctx context.Context, src Source) error {
	a := appFromContext(ctx)
	cfg, err := a.LoadConfig(ctx, src)
	if err != nil {
		return err
	}
	res, err := a.BuildAndPlot(ctx, cfg)
	if err != nil {
		return err
	}
	a.logger.Debug("Done", "geometry", res.GeometryPath, "plot", res.PlotPath)
	return nil
}

func newInspectCmd(src *Source) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Build the core and print its lattice map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFromContext(cmd.Context())
			cfg, err := a.LoadConfig(cmd.Context(), *src)
			if err != nil {
				return err
			}
			g, err := a.Build(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			s := newStyles(lipgloss.NewRenderer(out))
			_, err = io.WriteString(out, renderSummary(s, g)+"\n"+renderLattice(s, g))
			return err
		},
	}
}

type meshOpts struct {
	output   string
	slots    bool
	envelope bool
	cells    int
	slab     []float64
}

func newMeshCmd(src *Source) *cobra.Command {
	var opts meshOpts

	cmd := &cobra.Command{
		Use:   "mesh",
		Short: "Tessellate the core cells to a JSON mesh file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := appFromContext(cmd.Context())
			cfg, err := a.LoadConfig(cmd.Context(), *src)
			if err != nil {
				return err
			}
			g, err := a.Build(cfg)
			if err != nil {
				return err
			}
			mo := MeshOptions{
				Tessellate: tessellate.Options{Slots: opts.slots, Envelope: opts.envelope},
				Cells:      opts.cells,
			}
			if len(opts.slab) > 0 {
				if len(opts.slab) != 2 {
					return stageError(StageConfig, errors.New(errors.ErrCodeConfiguration, "--slab takes zmin,zmax, got %v", opts.slab))
				}
				mo.Tessellate.Slab = [2]float64{opts.slab[0], opts.slab[1]}
			}
			path := opts.output
			if path == "" {
				path = filepath.Join(cfg.Output.Dir, "mesh.json")
			}
			return a.MeshToFile(cmd.Context(), g, mo, path)
		},
	}

	cmd.Flags().StringVar(&opts.output, "file", "", "mesh file (default <out>/mesh.json)")
	cmd.Flags().BoolVar(&opts.slots, "slots", false, "place a copy of each universe at every lattice slot")
	cmd.Flags().BoolVar(&opts.envelope, "envelope", false, "add the core boundary envelope")
	cmd.Flags().IntVar(&opts.cells, "cells", 0, "marching cubes resolution (default 200)")
	cmd.Flags().Float64SliceVar(&opts.slab, "slab", nil, "axial extent zmin,zmax in cm (default the core height)")
	return cmd
}
