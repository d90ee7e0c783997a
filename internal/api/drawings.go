package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/maltedev/motor-catalog-collector/internal/models"
)

// FetchDrawings returns the drawings manifest for a product.
func (c *Client) FetchDrawings(ctx context.Context, productID string) ([]models.Drawing, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get(drawingsPath(productID))
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	var drawings []models.Drawing
	if err := json.Unmarshal(resp.Body(), &drawings); err != nil {
		return nil, fmt.Errorf("failed to decode drawings manifest: %w", err)
	}

	return drawings, nil
}

// DownloadDrawing streams one drawing to dest. A partially written file is
// removed when the download fails.
func (c *Client) DownloadDrawing(ctx context.Context, productID, number, dest string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetOutput(dest).
		Get(drawingsPath(productID) + "/" + url.PathEscape(number))
	if err != nil {
		os.Remove(dest)
		return fmt.Errorf("request failed: %w", err)
	}

	if resp.IsError() {
		os.Remove(dest)
		return fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	return nil
}

func drawingsPath(productID string) string {
	return productsPath + "/" + url.PathEscape(productID) + "/drawings"
}
