package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/specialistvlad/measgrid/internal/config"
	"github.com/specialistvlad/measgrid/internal/ctxlog"
	"github.com/specialistvlad/measgrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	outW       io.Writer
	logger     *slog.Logger
	config     *Config
	registry   *registry.Registry
	model      *config.Model
	httpServer *http.Server
}

// NewApp is the constructor for the main application. It loads the
// measurement and registers the task modules. When no modules are given the
// core modules are used. Load and validation failures are fatal startup
// errors and panic.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, cfg.MeasurementPath)
	if err != nil {
		panic(fmt.Errorf("failed to load measurement: %w", err))
	}
	logger.Debug("Measurement loaded.", "top_level_tasks", len(model.Tasks), "root_values", len(model.Values))

	reg := registry.New()
	if len(modules) == 0 {
		modules = CoreModules(outW, cfg.Color)
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All Go modules registered.", "count", len(modules))

	// A task type unknown to the binary is a mismatch between code and
	// measurement, so we panic.
	if err := reg.Validate(ctx, model); err != nil {
		panic(err)
	}

	return &App{
		ctx:      ctx,
		outW:     outW,
		logger:   logger,
		config:   cfg,
		registry: reg,
		model:    model,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded measurement.
func (a *App) Model() *config.Model {
	return a.model
}
