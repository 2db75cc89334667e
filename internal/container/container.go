package container

import (
	"context"
	"fmt"
	"net/http"

	"go-plant-inspector/internal/artifact"
	"go-plant-inspector/internal/clock"
	"go-plant-inspector/internal/config"
	"go-plant-inspector/internal/factory"
	"go-plant-inspector/internal/logger"
	"go-plant-inspector/internal/observer"
	"go-plant-inspector/internal/report"
	"go-plant-inspector/internal/service"
	"go-plant-inspector/internal/storage"
	"go-plant-inspector/internal/transport"
	"go-plant-inspector/internal/vision"

	"github.com/sirupsen/logrus"
)

// Container holds all application dependencies
type Container struct {
	config    *config.Config
	model     vision.Model
	publisher *observer.EventPublisher
	metrics   *observer.MetricsObserver
	store     *storage.ReportStore
	reaper    *artifact.Reaper
	reports   *artifact.Manager
	service   service.PlantService
	handler   http.Handler
}

// NewContainer builds the model client for the configured provider and the
// rest of the dependency graph
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}

	opts := vision.DefaultOptions().
		WithAPIKey(cfg.APIKey()).
		WithModel(cfg.ModelName)
	if cfg.ModelProvider == config.ProviderOpenAI {
		opts = opts.WithBaseURL(cfg.OpenAIBaseURL)
	}

	model, err := factory.NewModelFactory().CreateModel(ctx, factory.ProviderType(cfg.ModelProvider), opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create vision model: %w", err)
	}
	return NewContainerWithModel(cfg, model)
}

// NewContainerWithModel builds the graph around an existing model client
func NewContainerWithModel(cfg *config.Config, model vision.Model) (*Container, error) {
	publisher := observer.NewEventPublisher()
	metrics := observer.NewMetricsObserver()
	publisher.Subscribe(observer.NewLoggingObserver(logger.Logger))
	publisher.Subscribe(metrics)

	store := storage.NewReportStore(cfg.ReportsDir)
	if err := store.EnsureDir(); err != nil {
		return nil, err
	}
	clk := clock.SystemClock{}
	if cfg.StaleReportAge > 0 {
		removed, err := store.SweepStale(clk.Now(), cfg.StaleReportAge)
		if err != nil {
			logger.WithError(err).Warn("Stale report sweep failed")
		} else if removed > 0 {
			logger.WithFields(logrus.Fields{
				"dir":     store.Dir(),
				"removed": removed,
			}).Info("Removed stale report files")
		}
	}

	reaper := artifact.NewReaper(store, cfg.CleanupDelay, publisher)
	renderer := report.NewRenderer(report.DefaultOptions())
	reports := artifact.NewManager(store, renderer, reaper, clk, publisher)
	svc := service.NewPlantService(model, reports, publisher, cfg.AnalysisTimeout)
	handler := transport.NewHandler(svc, metrics, cfg)

	logger.WithFields(logrus.Fields{
		"provider":    cfg.ModelProvider,
		"model":       model.Name(),
		"reports_dir": store.Dir(),
	}).Info("Container initialized")

	return &Container{
		config:    cfg,
		model:     model,
		publisher: publisher,
		metrics:   metrics,
		store:     store,
		reaper:    reaper,
		reports:   reports,
		service:   svc,
		handler:   handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Metrics returns the lifecycle counters
func (c *Container) Metrics() map[string]int64 {
	return c.metrics.GetMetrics()
}

// Close deletes report files still waiting for their cleanup delay
func (c *Container) Close() {
	c.reaper.Close()
}
