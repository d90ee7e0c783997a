package browser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"
)

const consentLinkName = "Allow All"

type Options struct {
	Headless          bool
	NavTimeout        time.Duration
	SettleDelay       time.Duration
	ConsentTimeout    time.Duration
	IgnoreHTTPSErrors bool
	UserAgent         string
	Args              []string
}

func DefaultOptions() *Options {
	return &Options{
		Headless:          false,
		NavTimeout:        15 * time.Second,
		SettleDelay:       time.Second,
		ConsentTimeout:    3 * time.Second,
		IgnoreHTTPSErrors: true,
		Args:              []string{"--disable-http2"},
	}
}

// Launcher opens one-shot browser sessions.
type Launcher struct {
	opts   *Options
	logger *slog.Logger
}

func NewLauncher(opts *Options, logger *slog.Logger) *Launcher {
	if opts == nil {
		opts = DefaultOptions()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Launcher{
		opts:   opts,
		logger: logger.With("component", "browser"),
	}
}

// Session owns a playwright driver, a browser, a context and one page that
// has already been navigated. Close releases all of them.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
	page    playwright.Page
	logger  *slog.Logger
}

// Open starts a browser, loads url, scrolls to the bottom and dismisses the
// cookie banner if one shows up. On error everything acquired so far is released.
func (l *Launcher) Open(ctx context.Context, url string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := &Session{logger: l.logger.With("url", url)}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	s.pw = pw

	launchOpts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(l.opts.Headless),
		Args:     l.opts.Args,
	}

	s.browser, err = pw.Chromium.Launch(launchOpts)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(l.opts.IgnoreHTTPSErrors),
	}
	if l.opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(l.opts.UserAgent)
	}

	s.context, err = s.browser.NewContext(contextOpts)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	s.page, err = s.context.NewPage()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create new page: %w", err)
	}

	if err := s.load(ctx, url, l.opts); err != nil {
		s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Session) load(ctx context.Context, url string, opts *Options) error {
	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(opts.NavTimeout.Milliseconds())),
	})
	if err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}

	if _, err := s.page.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`); err != nil {
		return fmt.Errorf("failed to scroll page: %w", err)
	}
	if err := sleep(ctx, opts.SettleDelay); err != nil {
		return err
	}

	// The consent banner is optional; a missing link is not an error.
	consent := s.page.GetByRole(*playwright.AriaRoleLink, playwright.PageGetByRoleOptions{
		Name: consentLinkName,
	})
	if err := consent.Click(playwright.LocatorClickOptions{
		Timeout: playwright.Float(float64(opts.ConsentTimeout.Milliseconds())),
	}); err != nil {
		s.logger.Debug("no cookie banner dismissed", "error", err)
		return nil
	}

	s.logger.Debug("cookie banner dismissed")
	return sleep(ctx, opts.SettleDelay)
}

// TableRows returns the cell texts of every element with the "row" role,
// in document order, header rows included.
func (s *Session) TableRows() ([][]string, error) {
	rows, err := s.page.GetByRole(*playwright.AriaRoleRow).All()
	if err != nil {
		return nil, fmt.Errorf("failed to find rows: %w", err)
	}

	out := make([][]string, 0, len(rows))
	for i, row := range rows {
		cells, err := row.GetByRole(*playwright.AriaRoleCell).All()
		if err != nil {
			return nil, fmt.Errorf("failed to find cells in row %d: %w", i, err)
		}

		texts := make([]string, 0, len(cells))
		for _, cell := range cells {
			text, err := cell.InnerText()
			if err != nil {
				return nil, fmt.Errorf("failed to read cell in row %d: %w", i, err)
			}
			texts = append(texts, strings.TrimSpace(text))
		}
		out = append(out, texts)
	}

	return out, nil
}

func (s *Session) HTML() (string, error) {
	html, err := s.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to get page content: %w", err)
	}
	return html, nil
}

func (s *Session) Close() error {
	var errs []error

	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close context: %w", err))
		}
	}

	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close browser: %w", err))
		}
	}

	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("failed to stop playwright: %w", err))
		}
	}

	s.context, s.browser, s.pw, s.page = nil, nil, nil, nil

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}

	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
