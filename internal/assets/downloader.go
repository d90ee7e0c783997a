package assets

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/maltedev/motor-catalog-collector/internal/models"
)

type DrawingsClient interface {
	FetchDrawings(ctx context.Context, productID string) ([]models.Drawing, error)
	DownloadDrawing(ctx context.Context, productID, number, dest string) error
}

// Report is the outcome of one product's asset download. Assets is failed only
// when the manifest itself could not be read; individual file failures are
// counted in FileFailures.
type Report struct {
	Assets       models.Result[models.Assets]
	Downloaded   int
	FileFailures int
}

type Downloader struct {
	client    DrawingsClient
	assetsDir string
	logger    *slog.Logger
}

func NewDownloader(client DrawingsClient, assetsDir string, logger *slog.Logger) *Downloader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Downloader{
		client:    client,
		assetsDir: assetsDir,
		logger:    logger.With("component", "asset_downloader"),
	}
}

// FileName is the on-disk name of a drawing.
func FileName(productID string, category models.AssetCategory, number string) string {
	return fmt.Sprintf("%s_%s_%s.pdf", productID, category, number)
}

func (d *Downloader) Download(ctx context.Context, productID string) Report {
	logger := d.logger.With("product_id", productID)

	if err := models.CheckFileName(productID); err != nil {
		logger.Warn("refusing to download assets", "error", err)
		return Report{
			Assets: models.Failed(models.NewAssets(""), fmt.Errorf("invalid product id: %w", err)),
		}
	}

	drawings, err := d.client.FetchDrawings(ctx, productID)
	if err != nil {
		logger.Warn("failed to fetch drawings manifest", "error", err)
		return Report{
			Assets: models.Failed(models.NewAssets(""), fmt.Errorf("failed to fetch drawings for %s: %w", productID, err)),
		}
	}

	report := Report{}
	assets := models.NewAssets("")
	productDir := filepath.Join(d.assetsDir, productID)

	for _, drawing := range drawings {
		category, ok := models.ParseAssetCategory(drawing.Kind)
		if !ok {
			logger.Debug("skipping drawing of unknown kind", "kind", drawing.Kind, "number", drawing.Number)
			continue
		}

		number := drawing.Number.String()
		if err := models.CheckFileName(number); err != nil {
			logger.Warn("skipping drawing with unusable number", "kind", category, "error", err)
			report.FileFailures++
			continue
		}
		dest := filepath.Join(productDir, FileName(productID, category, number))

		if err := os.MkdirAll(productDir, 0755); err != nil {
			logger.Error("failed to create asset directory", "dir", productDir, "error", err)
			report.FileFailures++
			continue
		}

		if err := d.client.DownloadDrawing(ctx, productID, number, dest); err != nil {
			logger.Warn("failed to download drawing",
				"kind", category,
				"number", number,
				"error", err)
			report.FileFailures++
			continue
		}

		assets.Add(category, dest)
		report.Downloaded++
	}

	logger.Info("assets downloaded",
		"downloaded", report.Downloaded,
		"failed", report.FileFailures,
		"manifest_entries", len(drawings))

	report.Assets = models.Ok(assets)
	return report
}
