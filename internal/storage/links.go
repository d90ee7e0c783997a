package storage

import (
	"fmt"
	"net/url"
	"strings"
)

// ProductLink points at a product's catalog page.
type ProductLink struct {
	Code string `json:"code"`
	URL  string `json:"url"`
}

func CatalogURL(startURL, code string) string {
	return strings.TrimRight(startURL, "/") + "/" + url.PathEscape(code)
}

func BuildLinks(startURL string, codes []string) []ProductLink {
	links := make([]ProductLink, 0, len(codes))
	for _, code := range codes {
		links = append(links, ProductLink{Code: code, URL: CatalogURL(startURL, code)})
	}
	return links
}

func WriteLinks(path string, links []ProductLink) error {
	if err := WriteJSON(path, links); err != nil {
		return fmt.Errorf("failed to save links: %w", err)
	}
	return nil
}
