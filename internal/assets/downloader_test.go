package assets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/maltedev/motor-catalog-collector/internal/api"
	"github.com/maltedev/motor-catalog-collector/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockDrawingsClient struct {
	mock.Mock
}

func (m *MockDrawingsClient) FetchDrawings(ctx context.Context, productID string) ([]models.Drawing, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Drawing), args.Error(1)
}

func (m *MockDrawingsClient) DownloadDrawing(ctx context.Context, productID, number, dest string) error {
	args := m.Called(ctx, productID, number, dest)
	return args.Error(0)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "M1_DimensionSheet_42.pdf", FileName("M1", models.DimensionSheet, "42"))
}

func TestDownload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/products/M1/drawings":
			fmt.Fprint(w, `[
				{"kind":"DimensionSheet","number":"D1"},
				{"kind":"Brochure","number":"B1"},
				{"kind":"Literature","number":501},
				{"kind":"ConnectionDiagram","number":"C1"},
				{"kind":"Literature","number":"L2"}
			]`)
		case "/products/M1/drawings/C1":
			http.Error(w, "missing", http.StatusNotFound)
		default:
			fmt.Fprint(w, "%PDF")
		}
	}))
	defer server.Close()

	client := api.NewClient(api.Options{
		BaseURL:        server.URL,
		ConnectTimeout: 2 * time.Second,
		ReadTimeout:    2 * time.Second,
	}, nil)
	dir := t.TempDir()

	report := NewDownloader(client, dir, nil).Download(context.Background(), "M1")

	require.False(t, report.Assets.Failed())
	assets := report.Assets.Value()

	productDir := filepath.Join(dir, "M1")
	assert.Equal(t, []string{filepath.Join(productDir, "M1_DimensionSheet_D1.pdf")}, assets.DimensionSheet)
	assert.Equal(t, []string{}, assets.ConnectionDiagram)
	assert.Equal(t, []string{
		filepath.Join(productDir, "M1_Literature_501.pdf"),
		filepath.Join(productDir, "M1_Literature_L2.pdf"),
	}, assets.Literature)
	assert.Equal(t, 3, report.Downloaded)
	assert.Equal(t, 1, report.FileFailures)

	_, err := os.Stat(filepath.Join(productDir, "M1_ConnectionDiagram_C1.pdf"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(productDir, "M1_Brochure_B1.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestDownload_LiteratureOnly(t *testing.T) {
	client := new(MockDrawingsClient)
	dir := t.TempDir()
	dest := filepath.Join(dir, "M2", "M2_Literature_L1.pdf")

	client.On("FetchDrawings", mock.Anything, "M2").
		Return([]models.Drawing{{Kind: "Literature", Number: "L1"}}, nil)
	client.On("DownloadDrawing", mock.Anything, "M2", "L1", dest).Return(nil)

	report := NewDownloader(client, dir, nil).Download(context.Background(), "M2")

	require.NoError(t, report.Assets.Err())
	assets := report.Assets.Value()
	assert.Empty(t, assets.DimensionSheet)
	assert.NotNil(t, assets.DimensionSheet)
	assert.Empty(t, assets.ConnectionDiagram)
	assert.NotNil(t, assets.ConnectionDiagram)
	assert.Equal(t, []string{dest}, assets.Literature)

	client.AssertExpectations(t)
}

func TestDownload_ManifestFailure(t *testing.T) {
	client := new(MockDrawingsClient)
	client.On("FetchDrawings", mock.Anything, "M3").Return(nil, errors.New("503"))

	report := NewDownloader(client, t.TempDir(), nil).Download(context.Background(), "M3")

	require.True(t, report.Assets.Failed())
	assert.Contains(t, report.Assets.Err().Error(), "M3")
	assert.Equal(t, models.NewAssets(""), report.Assets.Value())
	assert.Zero(t, report.Downloaded)

	client.AssertNotCalled(t, "DownloadDrawing", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestDownload_EmptyManifest(t *testing.T) {
	client := new(MockDrawingsClient)
	client.On("FetchDrawings", mock.Anything, "M4").Return([]models.Drawing{}, nil)

	report := NewDownloader(client, t.TempDir(), nil).Download(context.Background(), "M4")

	require.False(t, report.Assets.Failed())
	assert.Zero(t, report.Assets.Value().Count())
}

func TestDownload_RejectsUnsafeNumbers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/products/M1/drawings" {
			fmt.Fprint(w, `[
				{"kind":"Literature","number":"../../../escaped"},
				{"kind":"Literature","number":"A/B"},
				{"kind":"Literature","number":"L1"}
			]`)
			return
		}
		fmt.Fprint(w, "%PDF")
	}))
	defer server.Close()

	client := api.NewClient(api.Options{
		BaseURL:        server.URL,
		ConnectTimeout: 2 * time.Second,
		ReadTimeout:    2 * time.Second,
	}, nil)
	root := t.TempDir()
	assetsDir := filepath.Join(root, "out", "assets")

	report := NewDownloader(client, assetsDir, nil).Download(context.Background(), "M1")

	require.False(t, report.Assets.Failed())
	assert.Equal(t, 1, report.Downloaded)
	assert.Equal(t, 2, report.FileFailures)
	assert.Equal(t, []string{filepath.Join(assetsDir, "M1", "M1_Literature_L1.pdf")}, report.Assets.Value().Literature)

	var files []string
	require.NoError(t, filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, path)
		}
		return err
	}))
	assert.Equal(t, []string{filepath.Join(assetsDir, "M1", "M1_Literature_L1.pdf")}, files)
}

func TestDownload_RejectsUnsafeProductID(t *testing.T) {
	for _, id := range []string{"../M1", "A/B", "..", ""} {
		t.Run(id, func(t *testing.T) {
			client := new(MockDrawingsClient)
			dir := t.TempDir()

			report := NewDownloader(client, dir, nil).Download(context.Background(), id)

			require.True(t, report.Assets.Failed())
			assert.ErrorIs(t, report.Assets.Err(), models.ErrUnsafeFileName)
			assert.Equal(t, models.NewAssets(""), report.Assets.Value())
			client.AssertNotCalled(t, "FetchDrawings", mock.Anything, mock.Anything)
		})
	}
}
