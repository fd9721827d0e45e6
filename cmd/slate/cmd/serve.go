package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/slatehq/slate/internal/component"
	"github.com/slatehq/slate/internal/config"
	"github.com/slatehq/slate/internal/layout"
	"github.com/slatehq/slate/internal/observability"
	"github.com/slatehq/slate/internal/provider"
	"github.com/slatehq/slate/internal/render"
	"github.com/slatehq/slate/internal/schema"
	"github.com/slatehq/slate/internal/transport"
	"github.com/slatehq/slate/model"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the layout HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cobraCmd *cobra.Command) error {
	// Step 1: Load configuration. When the default path is absent, fall
	// back to built-in defaults so a bare binary still starts.
	cfg, err := loadConfig(cobraCmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return err
	}

	// Step 2: Initialize logger and metrics.
	logger, err := observability.NewLogger(cfg.Observability.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	metrics := observability.InitMetrics(prometheus.DefaultRegisterer)

	// Step 3: Build the component registry (builtins plus optional manifest).
	components := component.NewRegistry()
	if err := component.RegisterBuiltins(components); err != nil {
		logger.Error("builtin component registration failed", zap.Error(err))
		return err
	}
	if cfg.Components.Manifest != "" {
		n, err := component.LoadManifest(components, cfg.Components.Manifest)
		if err != nil {
			logger.Error("component manifest load failed",
				zap.String("path", cfg.Components.Manifest), zap.Error(err))
			return err
		}
		logger.Info("component manifest loaded",
			zap.String("path", cfg.Components.Manifest), zap.Int("components", n))
	}

	// Step 4: Load and validate layout schemas.
	validator := schema.NewValidator(components, schema.DefaultOptions())
	configs, err := loadLayouts(cfg, validator, metrics, logger)
	if err != nil {
		return err
	}
	registry := layout.NewRegistry(configs)

	// Startup completeness check: every referenced component must resolve.
	// Validation already flags these per schema, this catches manifest drift.
	for _, issue := range components.CheckLayouts(registry.All()) {
		logger.Warn("layout references unregistered component",
			zap.String("path", issue.Path), zap.String("detail", issue.Message))
	}

	// Step 5: Build the renderer.
	renderer := render.NewRenderer(components, render.Options{
		CacheTTL:                cfg.Render.CacheTTL,
		CacheMaxEntries:         cfg.Render.CacheMaxEntries,
		VirtualizationThreshold: cfg.Render.VirtualizationThreshold,
		Validator:               validator,
		Metrics:                 metrics,
	}, logger)

	// Step 6: Build the persistence store and layout providers.
	store, err := buildStore(cfg.Persistence, logger)
	if err != nil {
		logger.Error("persistence store initialization failed", zap.Error(err))
		return err
	}
	defer store.Close()

	providers := provider.NewManager(registry, store, logger)
	providers.SetMetrics(metrics)

	// Step 7: Build the HTTP router.
	health := observability.NewHealth()
	health.AddCheck("layouts", func() bool { return registry.Len() > 0 })
	health.AddCheck("components", func() bool { return components.Len() > 0 })
	router := transport.NewRouter(transport.Dependencies{
		Config:     cfg,
		Logger:     logger,
		Layouts:    registry,
		Components: components,
		Validator:  validator,
		Renderer:   renderer,
		Providers:  providers,
		Health:     health,
		Metrics:    metrics,
	})

	// Step 8: Start the hot-reload watcher when enabled.
	if cfg.Layouts.HotReload {
		reload := func() error {
			next, err := loadLayouts(cfg, validator, metrics, logger)
			if err != nil {
				metrics.RecordLayoutReload("error")
				return err
			}
			registry.Replace(next)
			renderer.ClearCache()
			providers.RefreshAll()
			metrics.RecordLayoutReload("ok")
			logger.Info("layouts reloaded",
				zap.Int("layouts", len(next)), zap.String("checksum", registry.Checksum()))
			return nil
		}
		watcher := layout.NewWatcher(cfg.Layouts.Directories, reload, logger)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				logger.Error("layout watcher stopped", zap.Error(err))
			}
		}()
	}

	// Step 9: Start the HTTP server.
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("server started",
		zap.Int("port", cfg.Server.Port),
		zap.String("version", version),
		zap.Int("layouts", registry.Len()),
		zap.Int("components", components.Len()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	health.SetReady(true)

	select {
	case <-ctx.Done():
		logger.Info("shutdown initiated")
	case err := <-errCh:
		logger.Error("server error", zap.Error(err))
		return err
	}

	// Graceful shutdown: stop accepting connections, drain in-flight requests.
	shutdownTimeout := cfg.Server.ShutdownTimeout
	if shutdownTimeout == 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	health.SetReady(false)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	logger.Info("shutdown complete")
	return nil
}

// loadConfig resolves the --config flag. A missing file is an error only
// when the flag was set explicitly.
func loadConfig(cobraCmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !cobraCmd.Flags().Changed("config") {
			return config.Defaults(), nil
		}
		return nil, err
	}
	return cfg, nil
}

// loadLayouts loads every schema under the configured directories, validates
// the batch, and returns the configurations that passed. Invalid schemas are
// fatal when layouts.fail_on_invalid is set, otherwise they are skipped.
func loadLayouts(cfg *config.Config, validator *schema.Validator, metrics *observability.Metrics, logger *zap.Logger) ([]model.LayoutConfiguration, error) {
	docs, err := layout.NewLoader().LoadAll(cfg.Layouts.Directories)
	if err != nil {
		logger.Error("layout loading failed", zap.Error(err))
		return nil, err
	}

	report := validator.ValidateAll(docs)
	var configs []model.LayoutConfiguration
	invalid := 0
	for i, result := range report.Results {
		if !result.Valid || docs[i].Config == nil {
			invalid++
			for _, issue := range result.Errors {
				logger.Error("layout validation error",
					zap.String("source", docs[i].SourceFile),
					zap.String("path", issue.Path),
					zap.String("code", issue.Code),
					zap.String("detail", issue.Message))
			}
			continue
		}
		configs = append(configs, *docs[i].Config)
	}
	metrics.SetSchemasLoaded(len(configs), invalid)

	if invalid > 0 && cfg.Layouts.FailOnInvalid {
		return nil, fmt.Errorf("%d invalid layout schemas", invalid)
	}
	logger.Info("layouts loaded",
		zap.Int("valid", len(configs)), zap.Int("invalid", invalid))
	return configs, nil
}

// buildStore creates the layout-choice store for the configured driver.
func buildStore(cfg config.PersistenceConfig, logger *zap.Logger) (provider.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		store, err := provider.NewSQLStore(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("sqlite store: %w", err)
		}
		logger.Info("using sqlite layout store", zap.String("path", cfg.Path))
		return store, nil
	default:
		logger.Info("using in-memory layout store")
		return provider.NewMemStore(), nil
	}
}
