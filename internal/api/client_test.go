package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(baseURL string) *Client {
	return NewClient(Options{
		BaseURL:        baseURL,
		Headers:        map[string]string{"Accept": "application/json", "User-Agent": "collector-test"},
		ConnectTimeout: 2 * time.Second,
		ReadTimeout:    2 * time.Second,
	}, slog.Default())
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		total, size, want int
	}{
		{total: 3, size: 2, want: 2},
		{total: 4, size: 2, want: 2},
		{total: 1, size: 50, want: 1},
		{total: 0, size: 50, want: 0},
		{total: 101, size: 10, want: 11},
		{total: 10, size: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.total, tt.size), func(t *testing.T) {
			assert.Equal(t, tt.want, PageCount(tt.total, tt.size))
		})
	}
}

func TestFetchProducts(t *testing.T) {
	var (
		mu      sync.Mutex
		indexes []string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		assert.Equal(t, "collector-test", r.Header.Get("User-Agent"))

		q := r.URL.Query()
		assert.Equal(t, "results", q.Get("include"))
		assert.Equal(t, "en-US", q.Get("language"))
		assert.Equal(t, "42", q.Get("category"))
		assert.Equal(t, "2", q.Get("pageSize"))

		mu.Lock()
		indexes = append(indexes, q.Get("pageIndex"))
		mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		switch q.Get("pageIndex") {
		case "0":
			fmt.Fprint(w, `{"results":{"matches":[{"code":"A"},{"code":"B"}]}}`)
		case "1":
			fmt.Fprint(w, `{"results":{"matches":[{"code":"C"}]}}`)
		}
	}))
	defer server.Close()

	report := newTestClient(server.URL).FetchProducts(context.Background(), ListingQuery{
		CategoryID:    "42",
		TotalExpected: 3,
		PageSize:      2,
	})

	assert.Equal(t, []string{"0", "1"}, indexes)
	require.Len(t, report.Pages, 2)
	assert.Equal(t, 2, report.Pages[0].Count)
	assert.Equal(t, 1, report.Pages[1].Count)
	assert.Zero(t, report.FailedPages())

	require.Len(t, report.Products, 3)
	code, ok := report.Products[2].Code()
	assert.True(t, ok)
	assert.Equal(t, "C", code)
}

func TestFetchProducts_SkipsFailedPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		index, _ := strconv.Atoi(r.URL.Query().Get("pageIndex"))
		switch index {
		case 0:
			http.Error(w, "boom", http.StatusInternalServerError)
		case 1:
			fmt.Fprint(w, `{"results":{"matches":[{"code":"X"}`)
		case 2:
			fmt.Fprint(w, `{"results":{}}`)
		case 3:
			fmt.Fprint(w, `{"other":true}`)
		default:
			fmt.Fprint(w, `{"results":{"matches":[{"code":"Y"},{"code":"Y"}]}}`)
		}
	}))
	defer server.Close()

	report := newTestClient(server.URL).FetchProducts(context.Background(), ListingQuery{
		CategoryID:    "1",
		TotalExpected: 5,
		PageSize:      1,
	})

	require.Len(t, report.Pages, 5)
	assert.Error(t, report.Pages[0].Err)
	assert.Error(t, report.Pages[1].Err)
	assert.NoError(t, report.Pages[2].Err)
	assert.Zero(t, report.Pages[2].Count)
	assert.Error(t, report.Pages[3].Err)
	assert.Equal(t, 3, report.FailedPages())

	// duplicates across and within pages are kept at this stage
	assert.Len(t, report.Products, 2)
}

func TestFetchProducts_StopsOnCancel(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		fmt.Fprint(w, `{"results":{"matches":[]}}`)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := newTestClient(server.URL).FetchProducts(ctx, ListingQuery{TotalExpected: 10, PageSize: 2})
	assert.Zero(t, calls)
	assert.Empty(t, report.Pages)
}

func TestFetchDrawings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/M1/drawings", r.URL.Path)
		fmt.Fprint(w, `[{"kind":"Literature","number":"LIT-1"},{"kind":"DimensionSheet","number":7}]`)
	}))
	defer server.Close()

	drawings, err := newTestClient(server.URL).FetchDrawings(context.Background(), "M1")
	require.NoError(t, err)
	require.Len(t, drawings, 2)
	assert.Equal(t, "Literature", drawings[0].Kind)
	assert.Equal(t, "LIT-1", drawings[0].Number.String())
	assert.Equal(t, "7", drawings[1].Number.String())
}

func TestFetchDrawings_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products/BAD/drawings" {
			fmt.Fprint(w, `not json`)
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.FetchDrawings(context.Background(), "BAD")
	assert.Error(t, err)

	_, err = client.FetchDrawings(context.Background(), "MISSING")
	assert.Error(t, err)
}

func TestDownloadDrawing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/M1/drawings/D1":
			w.Header().Set("Content-Type", "application/pdf")
			fmt.Fprint(w, "%PDF-1.4 test")
		default:
			http.Error(w, "gone", http.StatusGone)
		}
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	dir := t.TempDir()

	dest := filepath.Join(dir, "M1", "M1_DimensionSheet_D1.pdf")
	require.NoError(t, client.DownloadDrawing(context.Background(), "M1", "D1", dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(data))

	failed := filepath.Join(dir, "M1", "M1_Literature_D2.pdf")
	assert.Error(t, client.DownloadDrawing(context.Background(), "M1", "D2", failed))
	_, err = os.Stat(failed)
	assert.True(t, os.IsNotExist(err))
}

func TestFetchProducts_HugeTotalExpected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":{"matches":[{"code":"A"}]}}`)
	}))
	defer server.Close()

	var report FetchReport
	require.NotPanics(t, func() {
		report = newTestClient(server.URL).FetchProducts(context.Background(), ListingQuery{
			TotalExpected: 1 << 40,
			PageSize:      1 << 40,
		})
	})
	require.Len(t, report.Pages, 1)
	assert.Len(t, report.Products, 1)
}

// stallingServer sends the headers and the first bytes of a body, then stops
// writing until the client goes away.
func stallingServer(t *testing.T, prefix string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "4096")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, prefix)
		w.(http.Flusher).Flush()

		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	}))
}

func TestClient_BodyReadTimeout(t *testing.T) {
	newClient := func(baseURL string) *Client {
		return NewClient(Options{
			BaseURL:        baseURL,
			ConnectTimeout: 200 * time.Millisecond,
			ReadTimeout:    200 * time.Millisecond,
		}, slog.Default())
	}

	t.Run("drawing download", func(t *testing.T) {
		server := stallingServer(t, "%PDF-")
		defer server.Close()

		dest := filepath.Join(t.TempDir(), "M1", "M1_Literature_L1.pdf")

		start := time.Now()
		err := newClient(server.URL).DownloadDrawing(context.Background(), "M1", "L1", dest)
		elapsed := time.Since(start)

		assert.Error(t, err)
		assert.Less(t, elapsed, 2*time.Second)
		assert.NoFileExists(t, dest)
	})

	t.Run("listing page", func(t *testing.T) {
		server := stallingServer(t, `{"results":{"matches":[`)
		defer server.Close()

		start := time.Now()
		report := newClient(server.URL).FetchProducts(context.Background(), ListingQuery{
			CategoryID:    "1",
			TotalExpected: 1,
			PageSize:      1,
		})
		elapsed := time.Since(start)

		require.Len(t, report.Pages, 1)
		assert.Error(t, report.Pages[0].Err)
		assert.Less(t, elapsed, 2*time.Second)
	})
}
