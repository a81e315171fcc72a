package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/chazu/msbr/pkg/config"
	"github.com/chazu/msbr/pkg/csg"
	"github.com/chazu/msbr/pkg/engine"
	"github.com/chazu/msbr/pkg/errors"
	"github.com/chazu/msbr/pkg/export"
	"github.com/chazu/msbr/pkg/geometry"
	"github.com/chazu/msbr/pkg/kernel"
	"github.com/chazu/msbr/pkg/kernel/sdfx"
	"github.com/chazu/msbr/pkg/plot"
	"github.com/chazu/msbr/pkg/tessellate"
)

// Stage names one step of the pipeline. Failures report the stage.
type Stage string

const (
	StageConfig Stage = "config"
	StageBuild  Stage = "build"
	StageExport Stage = "export"
	StagePlot   Stage = "plot"
	StageMesh   Stage = "mesh"
)

// StageError is a pipeline failure tagged with the stage that raised it.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Stage, errors.UserMessage(e.Err))
}

func (e *StageError) Unwrap() error { return e.Err }

func stageError(s Stage, err error) error {
	if err == nil {
		return nil
	}
	return &StageError{Stage: s, Err: err}
}

// Source selects where the core description comes from. At most one of
// ConfigPath and ScriptPath may be set; with neither, Preset is used.
type Source struct {
	ConfigPath string
	ScriptPath string
	Preset     string
	OutDir     string // overrides output.dir when set
}

// App runs the build, export and plot pipeline.
type App struct {
	logger   *log.Logger
	engine   *engine.Engine
	kernel   kernel.Kernel
	exporter export.Exporter
}

// NewApp creates an App with a script engine, the sdfx kernel and the XML
// exporter.
func NewApp(logger *log.Logger) *App {
	return &App{
		logger:   logger,
		engine:   engine.NewEngine(),
		kernel:   sdfx.New(),
		exporter: export.XML{Indent: "  "},
	}
}

// Result reports what BuildAndPlot produced.
type Result struct {
	Geometry     *geometry.Geometry
	GeometryPath string
	PlotPath     string
}

// progress logs the elapsed time of one stage.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(msg, append(keyvals, "elapsed", time.Since(p.start).Round(time.Millisecond))...)
}

// LoadConfig resolves src into a configuration.
func (a *App) LoadConfig(ctx context.Context, src Source) (config.Config, error) {
	cfg, err := a.loadConfig(ctx, src)
	if err != nil {
		return config.Config{}, stageError(StageConfig, err)
	}
	if src.OutDir != "" {
		cfg.Output.Dir = src.OutDir
	}
	return cfg, nil
}

func (a *App) loadConfig(ctx context.Context, src Source) (config.Config, error) {
	switch {
	case src.ConfigPath != "" && src.ScriptPath != "":
		return config.Config{}, errors.New(errors.ErrCodeConfiguration, "use a config file or a script, not both")
	case src.ScriptPath != "":
		a.logger.Debug("Evaluating script", "path", src.ScriptPath)
		cfg, evalErrs, err := a.engine.EvaluateFile(ctx, src.ScriptPath)
		if err != nil {
			return config.Config{}, err
		}
		if len(evalErrs) > 0 {
			msgs := make([]string, len(evalErrs))
			for i, e := range evalErrs {
				msgs[i] = e.Error()
			}
			return config.Config{}, errors.New(errors.ErrCodeConfiguration, "script %s: %s", src.ScriptPath, strings.Join(msgs, "; "))
		}
		return *cfg, nil
	case src.ConfigPath != "":
		a.logger.Debug("Loading config", "path", src.ConfigPath)
		return config.Load(src.ConfigPath)
	}
	return config.Preset(src.Preset)
}

// Build assembles the geometry and logs its warnings.
func (a *App) Build(cfg config.Config) (*geometry.Geometry, error) {
	p := newProgress(a.logger)
	g, err := geometry.Build(cfg, cfg.MaterialProvider())
	if err != nil {
		return nil, stageError(StageBuild, err)
	}
	for _, w := range g.Warnings {
		a.logger.Warn(w.Message, "subject", w.Subject)
	}
	p.done("Built geometry", "name", g.Name, "id", g.ID, "universes", len(g.Universes()))
	return g, nil
}

// BuildAndPlot runs build, export and plot in sequence. Nothing is written
// unless the build succeeds, and the plot is drawn only after the export.
func (a *App) BuildAndPlot(ctx context.Context, cfg config.Config) (*Result, error) {
	g, err := a.Build(cfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &Result{
		Geometry:     g,
		GeometryPath: cfg.Output.GeometryPath(),
		PlotPath:     cfg.Output.PlotPath(),
	}

	p := newProgress(a.logger)
	if err := export.WriteFile(a.exporter, res.GeometryPath, g); err != nil {
		return nil, stageError(StageExport, err)
	}
	p.done("Exported geometry", "path", res.GeometryPath)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p = newProgress(a.logger)
	plotter := plot.PNG{Config: plotConfig(cfg.Plot)}
	if err := plot.WriteFile(plotter, res.PlotPath, g); err != nil {
		return nil, stageError(StagePlot, err)
	}
	p.done("Plotted slice", "path", res.PlotPath, "pixels", fmt.Sprintf("%dx%d", cfg.Plot.Pixels[0], cfg.Plot.Pixels[1]))
	return res, nil
}

func plotConfig(p config.Plot) plot.Config {
	return plot.Config{
		Width:   p.Width,
		Pixels:  p.Pixels,
		Origin:  csg.Vec3{X: p.Origin[0], Y: p.Origin[1], Z: p.Origin[2]},
		ColorBy: plot.ColorBy(p.ColorBy),
	}
}

// MeshFile is the JSON document written by the mesh command.
type MeshFile struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Meshes []*kernel.Mesh `json:"meshes"`
}

// MeshOptions configures Mesh.
type MeshOptions struct {
	Tessellate tessellate.Options
	Cells      int // marching cubes resolution; zero keeps the kernel default
}

// Mesh tessellates g and writes the meshes as JSON. Meshes without a
// material colour take palette colours in order.
func (a *App) Mesh(ctx context.Context, g *geometry.Geometry, opts MeshOptions, w io.Writer) error {
	k := a.kernel
	if _, ok := k.(*sdfx.SdfxKernel); ok && opts.Cells > 0 {
		k = &sdfx.SdfxKernel{MeshCells: opts.Cells}
	}

	p := newProgress(a.logger)
	meshes, err := tessellate.Tessellate(g, k, opts.Tessellate)
	if err != nil {
		return stageError(StageMesh, err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for i, m := range meshes {
		if m.Color == "" {
			m.Color = plot.Palette[i%len(plot.Palette)]
		}
	}
	p.done("Tessellated geometry", "meshes", len(meshes))

	doc := MeshFile{ID: g.ID.String(), Name: g.Name, Meshes: meshes}
	enc := json.NewEncoder(w)
	if err := enc.Encode(doc); err != nil {
		return stageError(StageMesh, errors.Wrap(errors.ErrCodeExport, err, "encode meshes"))
	}
	return nil
}

// MeshToFile is Mesh writing to path.
func (a *App) MeshToFile(ctx context.Context, g *geometry.Geometry, opts MeshOptions, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return stageError(StageMesh, errors.Wrap(errors.ErrCodeExport, err, "create %s", dir))
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return stageError(StageMesh, errors.Wrap(errors.ErrCodeExport, err, "create %s", path))
	}
	if err := a.Mesh(ctx, g, opts, f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return stageError(StageMesh, errors.Wrap(errors.ErrCodeExport, err, "close %s", path))
	}
	a.logger.Info("Wrote meshes", "path", path)
	return nil
}
