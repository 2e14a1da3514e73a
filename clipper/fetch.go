package clipper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Fetcher returns the HTML of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// maxPageSize caps how much of a response body is read.
const maxPageSize = 5 << 20

// HTTPFetcher fetches pages with a plain GET request.
type HTTPFetcher struct {
	Client    *http.Client
	UserAgent string
}

func (f HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", url, err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", url, err)
	}
	return string(body), nil
}

// BrowserFetcher はヘッドレスブラウザでページを開き、描画後の HTML を取得します。
// JavaScript でレシピを描画するサイト向けです。
type BrowserFetcher struct {
	// Bin is the browser executable. Empty lets rod find or download one.
	Bin string
}

func (f BrowserFetcher) Fetch(ctx context.Context, url string) (string, error) {
	// Leakless(false) でセキュリティソフト対策
	l := launcher.New().
		Context(ctx).
		Headless(true).
		Leakless(false)
	if f.Bin != "" {
		l = l.Bin(f.Bin)
	}
	u, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("failed to launch browser: %w", err)
	}
	defer l.Kill()

	browser := rod.New().ControlURL(u).Context(ctx)
	if err := browser.Connect(); err != nil {
		return "", fmt.Errorf("failed to connect to browser: %w", err)
	}
	defer browser.Close()

	var html string
	if err := rod.Try(func() {
		page := browser.MustPage(url)
		page.MustWaitStable()
		html = page.MustHTML()
	}); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", url, err)
	}
	return html, nil
}
