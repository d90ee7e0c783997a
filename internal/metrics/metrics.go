package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "catalog_collector"

// Metrics holds the collector's counters on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	PagesFetched     prometheus.Counter
	PagesFailed      prometheus.Counter
	ProductsFetched  prometheus.Counter
	ProductsWritten  prometheus.Counter
	BOMFailures      prometheus.Counter
	BOMItems         prometheus.Counter
	AssetsDownloaded prometheus.Counter
	AssetFailures    prometheus.Counter
	SinkFailures     *prometheus.CounterVec
	ProductDuration  prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		PagesFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_fetched_total",
			Help:      "Listing pages fetched successfully",
		}),
		PagesFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_failed_total",
			Help:      "Listing pages skipped after an error",
		}),
		ProductsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_fetched_total",
			Help:      "Product entries received from the listing, duplicates included",
		}),
		ProductsWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_written_total",
			Help:      "Normalized product records written",
		}),
		BOMFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bom_failures_total",
			Help:      "Products whose parts table could not be scraped",
		}),
		BOMItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bom_items_total",
			Help:      "Bill of materials rows scraped",
		}),
		AssetsDownloaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assets_downloaded_total",
			Help:      "Drawing files saved",
		}),
		AssetFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "asset_failures_total",
			Help:      "Drawing manifests or files that failed",
		}),
		SinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Failed hand-offs to optional sinks",
		}, []string{"sink"}),
		ProductDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "product_duration_seconds",
			Help:      "Time spent enriching one product",
			Buckets:   []float64{1, 2, 5, 10, 20, 30, 60, 120},
		}),
	}

	m.registry.MustRegister(
		m.PagesFetched,
		m.PagesFailed,
		m.ProductsFetched,
		m.ProductsWritten,
		m.BOMFailures,
		m.BOMItems,
		m.AssetsDownloaded,
		m.AssetFailures,
		m.SinkFailures,
		m.ProductDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
