package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseConfig = `{
	// vendor listing settings
	"headers": {"User-Agent": "Mozilla/5.0", "Accept": "application/json"},
	"timeout": [5, 15],
	"total_expected": 120,
	"page_size": 50,
	"category_id": 1234,
	"samples_to_extract": 10,
	"output_path": "output/sample.json",
}`

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", baseConfig)

	cfg, err := Load(path)
	require.NoError(t, err)

	col := cfg.Collector
	assert.Equal(t, "1234", col.CategoryID)
	assert.Equal(t, 120, col.TotalExpected)
	assert.Equal(t, 50, col.PageSize)
	assert.Equal(t, 10, col.SamplesToExtract)
	assert.Equal(t, "Mozilla/5.0", col.Headers["User-Agent"])
	assert.Equal(t, 5*time.Second, col.ConnectTimeout())
	assert.Equal(t, 15*time.Second, col.ReadTimeout())

	assert.Equal(t, "https://www.baldor.com/catalog", col.StartURL)
	assert.Equal(t, "https://www.baldor.com/api", col.APIBaseURL)
	assert.Equal(t, filepath.Join("output", "products"), col.ProductsDir())
	assert.Equal(t, filepath.Join("output", "assets"), col.AssetsDir())
	assert.Equal(t, filepath.Join("output", "links.json"), col.LinksPath())
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, 15*time.Second, cfg.Browser.NavTimeout)
}

func TestLoad_LocalOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", baseConfig)
	writeFile(t, dir, "config.local.json", `{"samples_to_extract": 2, "category_id": "abc", "headless": true}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Collector.SamplesToExtract)
	assert.Equal(t, "abc", cfg.Collector.CategoryID)
	assert.Equal(t, 50, cfg.Collector.PageSize)
	assert.True(t, cfg.Browser.Headless)
}

func TestLoad_LocalOverrideWithZeroValues(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{
		"headers": {"User-Agent": "Mozilla/5.0"},
		"timeout": [5, 15],
		"total_expected": 120,
		"page_size": 50,
		"category_id": 1234,
		"samples_to_extract": 10,
		"output_path": "output/sample.json",
		"product_limit": 5,
		"delay_min_ms": 0,
		"delay_max_ms": 3000,
	}`)
	writeFile(t, dir, "config.local.json", `{"product_limit": 0, "delay_max_ms": 0, "headers": {"Accept": "text/html"}}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Zero(t, cfg.Collector.ProductLimit)
	assert.Zero(t, cfg.Collector.DelayMaxMs)
	assert.Equal(t, 10, cfg.Collector.SamplesToExtract)
	assert.Equal(t, map[string]string{"User-Agent": "Mozilla/5.0", "Accept": "text/html"}, cfg.Collector.Headers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", baseConfig)

	t.Setenv("BROWSER_HEADLESS", "true")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "stream:catalog_products", cfg.Redis.Stream)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_MissingKey(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.json", `{
		"headers": {},
		"timeout": [5, 15],
		"total_expected": 10,
		"page_size": 5,
		"category_id": "1",
		"output_path": "sample.json"
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingKey))
	assert.Contains(t, err.Error(), "samples_to_extract")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Collector: CollectorConfig{
			Timeout:          []float64{5, 15},
			PageSize:         10,
			TotalExpected:    100,
			SamplesToExtract: 3,
		}}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "one timeout value", mutate: func(c *Config) { c.Collector.Timeout = []float64{5} }, wantErr: true},
		{name: "zero read timeout", mutate: func(c *Config) { c.Collector.Timeout = []float64{5, 0} }, wantErr: true},
		{name: "zero page size", mutate: func(c *Config) { c.Collector.PageSize = 0 }, wantErr: true},
		{name: "negative sample size", mutate: func(c *Config) { c.Collector.SamplesToExtract = -1 }, wantErr: true},
		{name: "inverted delay", mutate: func(c *Config) { c.Collector.DelayMinMs = 10 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
