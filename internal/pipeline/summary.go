package pipeline

import "log/slog"

// Summary counts what a run did. It is logged, not persisted.
type Summary struct {
	Pages         int
	PagesFailed   int
	Fetched       int
	Unique        int
	Sampled       int
	Written       int
	BOMFailures   int
	AssetFailures int
}

func (s Summary) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("pages", s.Pages),
		slog.Int("pages_failed", s.PagesFailed),
		slog.Int("fetched", s.Fetched),
		slog.Int("unique", s.Unique),
		slog.Int("sampled", s.Sampled),
		slog.Int("written", s.Written),
		slog.Int("bom_failures", s.BOMFailures),
		slog.Int("asset_failures", s.AssetFailures),
	)
}
