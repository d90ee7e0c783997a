package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/titanous/json5"
)

const DefaultPath = "config/config.json"

var ErrMissingKey = errors.New("missing required config key")

// requiredKeys must be present in the merged config file.
var requiredKeys = []string{
	"headers",
	"timeout",
	"total_expected",
	"page_size",
	"category_id",
	"samples_to_extract",
	"output_path",
}

type Config struct {
	Collector CollectorConfig
	Browser   BrowserConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Metrics   MetricsConfig
	Logging   LoggingConfig
}

// CollectorConfig holds the settings read from the config file.
type CollectorConfig struct {
	StartURL         string            `json:"start_url"`
	OutputDir        string            `json:"output_dir"`
	AssetsSubdir     string            `json:"assets_subdir"`
	LinksFile        string            `json:"links_file"`
	ProductLimit     int               `json:"product_limit"`
	Headers          map[string]string `json:"headers"`
	Timeout          []float64         `json:"timeout"`
	TotalExpected    int               `json:"total_expected"`
	PageSize         int               `json:"page_size"`
	CategoryID       string            `json:"-"`
	SamplesToExtract int               `json:"samples_to_extract"`
	OutputPath       string            `json:"output_path"`
	APIBaseURL       string            `json:"api_base_url"`
	ImageURL         string            `json:"image_url"`
	Headless         *bool             `json:"headless"`
	DelayMinMs       int               `json:"delay_min_ms"`
	DelayMaxMs       int               `json:"delay_max_ms"`
}

type BrowserConfig struct {
	Headless       bool
	NavTimeout     time.Duration
	SettleDelay    time.Duration
	ConsentTimeout time.Duration
}

type DatabaseConfig struct {
	URL      string
	MaxConns int32
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Stream   string
}

type MetricsConfig struct {
	Addr string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads the config file at path, merges <name>.local.<ext> over it when
// present, and fills ambient settings from the environment (and .env).
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	collector, err := readCollectorConfig(path)
	if err != nil {
		return nil, err
	}
	if err := collector.applyDefaults(); err != nil {
		return nil, err
	}

	headless := false
	if collector.Headless != nil {
		headless = *collector.Headless
	}

	cfg := &Config{
		Collector: collector,
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", headless),
			NavTimeout:     getDurationOrDefault("BROWSER_NAV_TIMEOUT", 15*time.Second),
			SettleDelay:    getDurationOrDefault("BROWSER_SETTLE_DELAY", time.Second),
			ConsentTimeout: getDurationOrDefault("BROWSER_CONSENT_TIMEOUT", 3*time.Second),
		},
		Database: DatabaseConfig{
			URL:      getEnvOrDefault("DATABASE_URL", ""),
			MaxConns: int32(getIntOrDefault("DB_MAX_CONNS", 4)),
		},
		Redis: RedisConfig{
			Addr:     getEnvOrDefault("REDIS_ADDR", ""),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getIntOrDefault("REDIS_DB", 0),
			Stream:   getEnvOrDefault("REDIS_STREAM", "stream:catalog_products"),
		},
		Metrics: MetricsConfig{
			Addr: getEnvOrDefault("METRICS_ADDR", ""),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	col := c.Collector

	if len(col.Timeout) != 2 {
		return fmt.Errorf("timeout must have exactly two elements (connect, read), got %d", len(col.Timeout))
	}

	if col.Timeout[0] <= 0 || col.Timeout[1] <= 0 {
		return fmt.Errorf("timeout values must be positive")
	}

	if col.PageSize < 1 {
		return fmt.Errorf("page_size must be at least 1")
	}

	if col.TotalExpected < 0 {
		return fmt.Errorf("total_expected cannot be negative")
	}

	if col.SamplesToExtract < 0 {
		return fmt.Errorf("samples_to_extract cannot be negative")
	}

	if col.DelayMinMs > col.DelayMaxMs {
		return fmt.Errorf("delay_min_ms cannot be greater than delay_max_ms")
	}

	return nil
}

func (c CollectorConfig) ConnectTimeout() time.Duration {
	return secondsToDuration(c.Timeout[0])
}

func (c CollectorConfig) ReadTimeout() time.Duration {
	return secondsToDuration(c.Timeout[1])
}

func (c CollectorConfig) ProductsDir() string {
	return filepath.Join(c.OutputDir, "products")
}

func (c CollectorConfig) AssetsDir() string {
	return filepath.Join(c.OutputDir, c.AssetsSubdir)
}

func (c CollectorConfig) LinksPath() string {
	return filepath.Join(c.OutputDir, c.LinksFile)
}

var collectorDefaults = CollectorConfig{
	StartURL:     "https://www.baldor.com/catalog",
	OutputDir:    "output",
	AssetsSubdir: "assets",
	LinksFile:    "links.json",
	APIBaseURL:   "https://www.baldor.com/api",
	ImageURL:     "https://www.baldor.com/AssetImage.axd?id=",
}

// applyDefaults fills the location settings left empty by the config files.
func (c *CollectorConfig) applyDefaults() error {
	if err := mergo.Merge(c, collectorDefaults); err != nil {
		return fmt.Errorf("failed to apply config defaults: %w", err)
	}
	c.StartURL = strings.TrimRight(c.StartURL, "/")
	c.APIBaseURL = strings.TrimRight(c.APIBaseURL, "/")
	return nil
}

func readCollectorConfig(path string) (CollectorConfig, error) {
	var out CollectorConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return out, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	keys, err := decodeFile(data, &out)
	if err != nil {
		return out, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	localPath := localVariant(path)
	localData, err := os.ReadFile(localPath)
	if err != nil && !os.IsNotExist(err) {
		return out, fmt.Errorf("failed to read config file %s: %w", localPath, err)
	}
	if len(localData) > 0 {
		// decoding onto the base config replaces exactly the keys the local
		// file sets, explicit zero values included
		localKeys, err := decodeFile(localData, &out)
		if err != nil {
			return out, fmt.Errorf("failed to parse config file %s: %w", localPath, err)
		}
		for k := range localKeys {
			keys[k] = struct{}{}
		}
		slog.Info("merging config with local overrides", "local", localPath)
	}

	for _, key := range requiredKeys {
		if _, ok := keys[key]; !ok {
			return out, fmt.Errorf("%w: %s", ErrMissingKey, key)
		}
	}

	return out, nil
}

// decodeFile unmarshals data into out and reports which top-level keys it has.
func decodeFile(data []byte, out *CollectorConfig) (map[string]struct{}, error) {
	var raw map[string]any
	if err := json5.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if err := json5.Unmarshal(data, out); err != nil {
		return nil, err
	}

	// category_id is accepted as a string or a number
	switch v := raw["category_id"].(type) {
	case string:
		out.CategoryID = v
	case float64:
		out.CategoryID = strconv.FormatFloat(v, 'f', -1, 64)
	}

	keys := make(map[string]struct{}, len(raw))
	for k, v := range raw {
		if v != nil {
			keys[k] = struct{}{}
		}
	}
	return keys, nil
}

// localVariant turns config/config.json into config/config.local.json.
func localVariant(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
