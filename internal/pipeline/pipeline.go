package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/maltedev/motor-catalog-collector/internal/api"
	"github.com/maltedev/motor-catalog-collector/internal/assets"
	"github.com/maltedev/motor-catalog-collector/internal/metrics"
	"github.com/maltedev/motor-catalog-collector/internal/models"
	"github.com/maltedev/motor-catalog-collector/internal/parser"
	"github.com/maltedev/motor-catalog-collector/internal/ratelimit"
	"github.com/maltedev/motor-catalog-collector/internal/sampler"
	"github.com/maltedev/motor-catalog-collector/internal/storage"
)

type Fetcher interface {
	FetchProducts(ctx context.Context, q api.ListingQuery) api.FetchReport
}

type BOMScraper interface {
	Scrape(ctx context.Context, productID string) models.Result[[]models.BOMItem]
}

type AssetDownloader interface {
	Download(ctx context.Context, productID string) assets.Report
}

type Options struct {
	Query        api.ListingQuery
	SampleSize   int
	SamplePath   string
	ProductsDir  string
	LinksPath    string
	StartURL     string
	ProductLimit int
}

// Deps are the stages the pipeline drives. Limiter, Sinks and Metrics are optional.
type Deps struct {
	Fetcher Fetcher
	Sampler *sampler.Sampler
	Mapper  parser.Mapper
	BOM     BOMScraper
	Assets  AssetDownloader
	Limiter ratelimit.RateLimiter
	Sinks   []Sink
	Metrics *metrics.Metrics
}

type Pipeline struct {
	opts   Options
	deps   Deps
	runID  string
	logger *slog.Logger
}

func New(opts Options, deps Deps, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Sampler == nil {
		deps.Sampler = sampler.NewDefault()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewSimpleRateLimiter(0, 0)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	runID := uuid.New().String()
	return &Pipeline{
		opts:   opts,
		deps:   deps,
		runID:  runID,
		logger: logger.With("component", "pipeline", "run_id", runID),
	}
}

func (p *Pipeline) RunID() string {
	return p.runID
}

// Run fetches the listing, persists a sample and enriches it. The sample is
// re-read from disk so enrichment always works from the persisted file.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	summary, err := p.Fetch(ctx)
	if err != nil {
		return summary, err
	}

	sample, err := ReadSample(p.opts.SamplePath)
	if err != nil {
		return summary, err
	}

	enriched, err := p.Enrich(ctx, sample)
	summary.Written = enriched.Written
	summary.BOMFailures = enriched.BOMFailures
	summary.AssetFailures = enriched.AssetFailures
	return summary, err
}

// Fetch requests all listing pages, writes the links file, deduplicates by
// product code and writes a random sample to the sample file.
func (p *Pipeline) Fetch(ctx context.Context) (Summary, error) {
	var summary Summary

	p.logger.Info("fetching product listing",
		"category_id", p.opts.Query.CategoryID,
		"total_expected", p.opts.Query.TotalExpected,
		"page_size", p.opts.Query.PageSize)

	report := p.deps.Fetcher.FetchProducts(ctx, p.opts.Query)
	summary.Pages = len(report.Pages)
	summary.PagesFailed = report.FailedPages()
	summary.Fetched = len(report.Products)

	p.deps.Metrics.PagesFetched.Add(float64(summary.Pages - summary.PagesFailed))
	p.deps.Metrics.PagesFailed.Add(float64(summary.PagesFailed))
	p.deps.Metrics.ProductsFetched.Add(float64(summary.Fetched))

	if err := ctx.Err(); err != nil {
		return summary, err
	}

	unique, err := sampler.Dedupe(report.Products)
	if err != nil {
		return summary, err
	}
	summary.Unique = len(unique)

	if p.opts.LinksPath != "" {
		codes := make([]string, 0, len(unique))
		for _, entry := range unique {
			code, _ := entry.Code()
			codes = append(codes, code)
		}
		if err := storage.WriteLinks(p.opts.LinksPath, storage.BuildLinks(p.opts.StartURL, codes)); err != nil {
			return summary, err
		}
	}

	sample := p.deps.Sampler.Sample(unique, p.opts.SampleSize)
	summary.Sampled = len(sample)

	if err := storage.WriteJSON(p.opts.SamplePath, sample); err != nil {
		return summary, fmt.Errorf("failed to save sample: %w", err)
	}

	p.logger.Info("sample saved",
		"path", p.opts.SamplePath,
		"fetched", summary.Fetched,
		"unique", summary.Unique,
		"sampled", summary.Sampled,
		"pages_failed", summary.PagesFailed)

	return summary, nil
}

func ReadSample(path string) ([]models.RawProductEntry, error) {
	var sample []models.RawProductEntry
	if err := storage.ReadJSON(path, &sample); err != nil {
		return nil, fmt.Errorf("failed to read sample: %w", err)
	}
	return sample, nil
}

// Enrich maps each sampled entry, attaches its bill of materials and drawings,
// and writes one record per product. Degraded BOM or asset results still
// produce a record; a malformed entry or a failed write stops the run.
func (p *Pipeline) Enrich(ctx context.Context, sample []models.RawProductEntry) (Summary, error) {
	summary := Summary{Sampled: len(sample)}

	for i, entry := range sample {
		if p.opts.ProductLimit > 0 && i >= p.opts.ProductLimit {
			p.logger.Info("product limit reached", "limit", p.opts.ProductLimit)
			break
		}

		if err := p.deps.Limiter.Wait(ctx); err != nil {
			return summary, err
		}

		product, err := p.deps.Mapper.Map(entry)
		if err != nil {
			return summary, fmt.Errorf("failed to map sample entry %d: %w", i, err)
		}

		degraded, err := p.enrichProduct(ctx, product, &summary)
		if err != nil {
			return summary, err
		}

		if recorder, ok := p.deps.Limiter.(ratelimit.Recorder); ok {
			if degraded {
				recorder.RecordError()
			} else {
				recorder.RecordSuccess()
			}
		}
	}

	p.logger.Info("enrichment finished",
		"written", summary.Written,
		"bom_failures", summary.BOMFailures,
		"asset_failures", summary.AssetFailures)

	return summary, nil
}

func (p *Pipeline) enrichProduct(ctx context.Context, product *models.NormalizedProduct, summary *Summary) (bool, error) {
	start := time.Now()
	logger := p.logger.With("product_id", product.ProductID)
	degraded := false

	logger.Info("enriching product", "name", product.Name)

	bom := p.deps.BOM.Scrape(ctx, product.ProductID)
	if bom.Failed() {
		logger.Warn("bill of materials degraded to empty", "error", bom.Err())
		summary.BOMFailures++
		p.deps.Metrics.BOMFailures.Inc()
		degraded = true
	}
	product.BOM = bom.Value()
	p.deps.Metrics.BOMItems.Add(float64(len(product.BOM)))

	report := p.deps.Assets.Download(ctx, product.ProductID)
	if report.Assets.Failed() {
		logger.Warn("assets degraded to empty", "error", report.Assets.Err())
		p.deps.Metrics.AssetFailures.Inc()
		degraded = true
	}
	if report.Assets.Failed() || report.FileFailures > 0 {
		summary.AssetFailures++
	}
	p.deps.Metrics.AssetFailures.Add(float64(report.FileFailures))
	p.deps.Metrics.AssetsDownloaded.Add(float64(report.Downloaded))

	downloaded := report.Assets.Value()
	downloaded.Image = product.Assets.Image
	product.Assets = downloaded

	path := filepath.Join(p.opts.ProductsDir, product.ProductID+".json")
	if err := storage.WriteJSON(path, product); err != nil {
		return degraded, fmt.Errorf("failed to save product %s: %w", product.ProductID, err)
	}
	summary.Written++
	p.deps.Metrics.ProductsWritten.Inc()

	for _, sink := range p.deps.Sinks {
		if err := sink.Store(ctx, p.runID, product); err != nil {
			logger.Error("failed to hand product to sink", "sink", sink.Name(), "error", err)
			p.deps.Metrics.SinkFailures.WithLabelValues(sink.Name()).Inc()
		}
	}

	p.deps.Metrics.ProductDuration.Observe(time.Since(start).Seconds())
	logger.Info("product saved",
		"path", path,
		"bom_items", len(product.BOM),
		"assets", product.Assets.Count(),
		"duration", time.Since(start))

	return degraded, nil
}
