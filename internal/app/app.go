package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/fgdeps/internal/config"
	"github.com/specialistvlad/fgdeps/internal/ctxlog"
	"github.com/specialistvlad/fgdeps/internal/diag"
)

// App encapsulates the driver's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	model  *config.Model
	diags  *diag.Collector
}

// NewApp is the constructor for the driver. Results are written to outW and
// logs to logW. A configuration that fails to load is a fatal startup error
// and panics.
func NewApp(outW, logW io.Writer, appConfig *Config, loader config.Loader) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, logW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	model, err := loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	if appConfig.StateDir != "" {
		model.Module.StateDir = appConfig.StateDir
	}
	logger.Debug("Configuration loaded.", "module", model.Module.Name, "inputs", len(model.Inputs), "state_dir", model.Module.StateDir)

	return &App{
		outW:   outW,
		logger: logger,
		model:  model,
		diags:  &diag.Collector{},
	}
}

// Model returns the loaded configuration. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}

// Diagnostics returns every diagnostic emitted so far.
func (a *App) Diagnostics() []diag.Diagnostic {
	return a.diags.Diagnostics()
}

func (a *App) sink() diag.Sink {
	return diag.Multi{diag.LogSink{Logger: a.logger}, a.diags}
}
