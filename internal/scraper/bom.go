package scraper

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maltedev/motor-catalog-collector/internal/browser"
	"github.com/maltedev/motor-catalog-collector/internal/models"
	"github.com/maltedev/motor-catalog-collector/internal/parser"
	"github.com/maltedev/motor-catalog-collector/internal/storage"
)

const partsTabFragment = "#tab=%22parts%22"

// Session is a loaded product page.
type Session interface {
	TableRows() ([][]string, error)
	HTML() (string, error)
	Close() error
}

type SessionOpener interface {
	Open(ctx context.Context, url string) (Session, error)
}

type launcherOpener struct {
	launcher *browser.Launcher
}

// NewBrowserOpener opens sessions in a real browser.
func NewBrowserOpener(launcher *browser.Launcher) SessionOpener {
	return launcherOpener{launcher: launcher}
}

func (o launcherOpener) Open(ctx context.Context, url string) (Session, error) {
	s, err := o.launcher.Open(ctx, url)
	if err != nil {
		return nil, err
	}
	return s, nil
}

type BOMScraper struct {
	opener   SessionOpener
	startURL string
	logger   *slog.Logger
}

func NewBOMScraper(opener SessionOpener, startURL string, logger *slog.Logger) *BOMScraper {
	if logger == nil {
		logger = slog.Default()
	}
	return &BOMScraper{
		opener:   opener,
		startURL: startURL,
		logger:   logger.With("component", "bom_scraper"),
	}
}

// PartsURL is the catalog page of a product with the parts tab selected.
func PartsURL(startURL, productID string) string {
	return storage.CatalogURL(startURL, productID) + partsTabFragment
}

// Scrape reads the parts table of one product. Every failure yields an empty
// BOM alongside the error; the session is always released.
func (s *BOMScraper) Scrape(ctx context.Context, productID string) models.Result[[]models.BOMItem] {
	pageURL := PartsURL(s.startURL, productID)
	logger := s.logger.With("product_id", productID)

	logger.Debug("opening parts page", "url", pageURL)

	session, err := s.opener.Open(ctx, pageURL)
	if err != nil {
		logger.Warn("failed to open parts page", "error", err)
		return models.Failed([]models.BOMItem{}, fmt.Errorf("failed to open parts page for %s: %w", productID, err))
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("failed to close browser session", "error", err)
		}
	}()

	rows, err := s.rows(session)
	if err != nil {
		logger.Warn("failed to read parts table", "error", err)
		return models.Failed([]models.BOMItem{}, fmt.Errorf("failed to read parts table for %s: %w", productID, err))
	}

	bom := parser.BOMFromRows(rows)
	logger.Info("bill of materials scraped", "rows", len(rows), "items", len(bom))

	return models.Ok(bom)
}

// rows prefers the accessibility tree and falls back to the page markup when
// no row role is exposed.
func (s *BOMScraper) rows(session Session) ([][]string, error) {
	rows, err := session.TableRows()
	if err != nil {
		return nil, err
	}
	if len(rows) > 0 {
		return rows, nil
	}

	html, err := session.HTML()
	if err != nil {
		return nil, err
	}
	return parser.RowsFromHTML(html)
}
