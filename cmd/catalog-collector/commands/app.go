package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/maltedev/motor-catalog-collector/internal/api"
	"github.com/maltedev/motor-catalog-collector/internal/assets"
	"github.com/maltedev/motor-catalog-collector/internal/browser"
	"github.com/maltedev/motor-catalog-collector/internal/config"
	"github.com/maltedev/motor-catalog-collector/internal/database"
	"github.com/maltedev/motor-catalog-collector/internal/events"
	"github.com/maltedev/motor-catalog-collector/internal/metrics"
	"github.com/maltedev/motor-catalog-collector/internal/parser"
	"github.com/maltedev/motor-catalog-collector/internal/pipeline"
	"github.com/maltedev/motor-catalog-collector/internal/ratelimit"
	"github.com/maltedev/motor-catalog-collector/internal/scraper"
	"github.com/maltedev/motor-catalog-collector/pkg/logger"
	"github.com/spf13/cobra"
)

// app holds the components built from one config load.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *api.Client
	metrics *metrics.Metrics
	closers []func()
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level, format := cfg.Logging.Level, cfg.Logging.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	log := logger.NewWithWriter(cmd.ErrOrStderr(), level, format)
	slog.SetDefault(log)

	col := cfg.Collector
	client := api.NewClient(api.Options{
		BaseURL:        col.APIBaseURL,
		Headers:        col.Headers,
		ConnectTimeout: col.ConnectTimeout(),
		ReadTimeout:    col.ReadTimeout(),
	}, log)

	return &app{
		cfg:     cfg,
		logger:  log,
		client:  client,
		metrics: metrics.New(),
	}, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func (a *app) bomScraper() *scraper.BOMScraper {
	opts := browser.DefaultOptions()
	opts.Headless = a.cfg.Browser.Headless
	opts.NavTimeout = a.cfg.Browser.NavTimeout
	opts.SettleDelay = a.cfg.Browser.SettleDelay
	opts.ConsentTimeout = a.cfg.Browser.ConsentTimeout
	if ua, ok := a.cfg.Collector.Headers["User-Agent"]; ok {
		opts.UserAgent = ua
	}

	launcher := browser.NewLauncher(opts, a.logger)
	return scraper.NewBOMScraper(scraper.NewBrowserOpener(launcher), a.cfg.Collector.StartURL, a.logger)
}

func (a *app) downloader() *assets.Downloader {
	return assets.NewDownloader(a.client, a.cfg.Collector.AssetsDir(), a.logger)
}

// startMetrics serves /metrics and /health when METRICS_ADDR is set.
func (a *app) startMetrics() {
	if a.cfg.Metrics.Addr == "" {
		return
	}

	server := metrics.NewServer(a.cfg.Metrics.Addr, a.metrics, a.logger)
	server.Start()
	a.closers = append(a.closers, func() {
		if err := server.Shutdown(context.Background()); err != nil {
			a.logger.Error("metrics server shutdown failed", "error", err)
		}
	})
}

// sinks connects the optional Postgres and Redis sinks. A sink that cannot be
// reached is left out and the run continues with files only.
func (a *app) sinks(ctx context.Context) []pipeline.Sink {
	var sinks []pipeline.Sink

	if a.cfg.Database.URL != "" {
		db, err := database.New(ctx, database.Config{
			URL:      a.cfg.Database.URL,
			MaxConns: a.cfg.Database.MaxConns,
		})
		if err != nil {
			a.logger.Error("postgres sink disabled", "error", err)
		} else if err := db.EnsureSchema(ctx); err != nil {
			a.logger.Error("postgres sink disabled", "error", err)
			db.Close()
		} else {
			a.closers = append(a.closers, db.Close)
			sinks = append(sinks, pipeline.NewDatabaseSink(db))
			a.logger.Info("postgres sink enabled")
		}
	}

	if a.cfg.Redis.Addr != "" {
		client, err := events.NewRedisClient(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
		if err != nil {
			a.logger.Error("redis sink disabled", "error", err)
		} else {
			publisher := events.NewPublisher(client, a.cfg.Redis.Stream, a.logger)
			a.closers = append(a.closers, func() { publisher.Close() })
			sinks = append(sinks, pipeline.NewEventSink(publisher))
			a.logger.Info("redis sink enabled", "stream", a.cfg.Redis.Stream)
		}
	}

	return sinks
}

func (a *app) pipeline(ctx context.Context) *pipeline.Pipeline {
	col := a.cfg.Collector
	a.startMetrics()

	return pipeline.New(pipeline.Options{
		Query: api.ListingQuery{
			CategoryID:    col.CategoryID,
			TotalExpected: col.TotalExpected,
			PageSize:      col.PageSize,
		},
		SampleSize:   col.SamplesToExtract,
		SamplePath:   col.OutputPath,
		ProductsDir:  col.ProductsDir(),
		LinksPath:    col.LinksPath(),
		StartURL:     col.StartURL,
		ProductLimit: col.ProductLimit,
	}, pipeline.Deps{
		Fetcher: a.client,
		Mapper:  parser.NewEntryMapper(col.ImageURL),
		BOM:     a.bomScraper(),
		Assets:  a.downloader(),
		Limiter: ratelimit.NewAdaptiveRateLimiter(millis(col.DelayMinMs), millis(col.DelayMaxMs)),
		Sinks:   a.sinks(ctx),
		Metrics: a.metrics,
	}, a.logger)
}

func millis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
