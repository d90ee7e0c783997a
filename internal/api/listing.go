package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/maltedev/motor-catalog-collector/internal/models"
)

const productsPath = "/products"

// maxPrealloc caps the capacity reserved up front for the listing.
const maxPrealloc = 10_000

type ListingQuery struct {
	CategoryID    string
	TotalExpected int
	PageSize      int
}

// PageResult records the outcome of one listing page.
type PageResult struct {
	Index int
	Count int
	Err   error
}

type FetchReport struct {
	Products []models.RawProductEntry
	Pages    []PageResult
}

func (r FetchReport) FailedPages() int {
	failed := 0
	for _, p := range r.Pages {
		if p.Err != nil {
			failed++
		}
	}
	return failed
}

type listingResponse struct {
	Results *struct {
		Matches []models.RawProductEntry `json:"matches"`
	} `json:"results"`
}

// PageCount returns ceil(total/pageSize).
func PageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// FetchProducts requests every listing page in order. A failing page is
// recorded in the report and skipped; the loop only stops early when ctx is done.
func (c *Client) FetchProducts(ctx context.Context, q ListingQuery) FetchReport {
	pages := PageCount(q.TotalExpected, q.PageSize)
	report := FetchReport{
		Products: make([]models.RawProductEntry, 0, max(0, min(q.TotalExpected, maxPrealloc))),
		Pages:    make([]PageResult, 0, min(pages, maxPrealloc)),
	}

	for index := 0; index < pages; index++ {
		if ctx.Err() != nil {
			c.logger.Warn("listing fetch cancelled", "page", index+1, "pages", pages, "error", ctx.Err())
			break
		}

		matches, err := c.fetchPage(ctx, q, index)
		if err != nil {
			c.logger.Error("failed to fetch listing page", "page", index+1, "pages", pages, "error", err)
			report.Pages = append(report.Pages, PageResult{Index: index, Err: err})
			continue
		}

		report.Products = append(report.Products, matches...)
		report.Pages = append(report.Pages, PageResult{Index: index, Count: len(matches)})
		c.logger.Info("listing page collected", "page", index+1, "pages", pages, "products", len(matches))
	}

	return report
}

func (c *Client) fetchPage(ctx context.Context, q ListingQuery, index int) ([]models.RawProductEntry, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"include":   "results",
			"language":  "en-US",
			"category":  q.CategoryID,
			"pageSize":  strconv.Itoa(q.PageSize),
			"pageIndex": strconv.Itoa(index),
		}).
		Get(productsPath)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.IsError() {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode())
	}

	var body listingResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, fmt.Errorf("failed to decode listing response: %w", err)
	}

	if body.Results == nil {
		return nil, fmt.Errorf("listing response has no results object")
	}

	if body.Results.Matches == nil {
		return []models.RawProductEntry{}, nil
	}

	return body.Results.Matches, nil
}
