// Package clipper imports recipes from web pages.
package clipper

import (
	"context"
	"fmt"
	"time"

	"mealmate/model"

	"go.uber.org/zap"
)

// Clipper fetches a page and extracts its recipe. Browser is used when a
// caller asks for a rendered page; it may be nil.
type Clipper struct {
	HTTP    Fetcher
	Browser Fetcher
	Timeout time.Duration
}

// NewClipper は設定値から Clipper を組み立てます。
func NewClipper(userAgent, browserBin string, timeout time.Duration) *Clipper {
	return &Clipper{
		HTTP:    HTTPFetcher{UserAgent: userAgent},
		Browser: BrowserFetcher{Bin: browserBin},
		Timeout: timeout,
	}
}

// ClipURL returns the recipe found at url. The recipe is not stored.
func (c *Clipper) ClipURL(ctx context.Context, url string, render bool) (*model.Recipe, error) {
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	fetcher := c.HTTP
	if render {
		if c.Browser == nil {
			return nil, fmt.Errorf("browser rendering is not available")
		}
		fetcher = c.Browser
	}

	start := time.Now()
	html, err := fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch content: %w", err)
	}
	zap.L().Debug("page fetched",
		zap.String("url", url),
		zap.Bool("render", render),
		zap.Int("bytes", len(html)),
		zap.Duration("elapsed", time.Since(start)))

	r, err := ParseRecipeHTML(html)
	if err != nil {
		return nil, err
	}
	if r.Description == "" {
		r.Description = "Imported from " + url
	}
	return r, nil
}
