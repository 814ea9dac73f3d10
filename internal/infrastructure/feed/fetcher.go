// Package feed downloads partner price lists.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrFeedTooLarge is returned when a downloaded feed exceeds the size limit
var ErrFeedTooLarge = errors.New("feed exceeds size limit")

// Fetcher downloads feeds over HTTP with retries on transport errors and 5xx
type Fetcher struct {
	client  *resty.Client
	maxSize int64
	logger  *zap.Logger
}

// NewFetcher creates a fetcher from configuration
func NewFetcher(cfg config.FeedConfig, logger *zap.Logger) *Fetcher {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(4*cfg.RetryWait).
		SetHeader("User-Agent", cfg.UserAgent).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= 500
		})

	return &Fetcher{client: client, maxSize: cfg.MaxSize, logger: logger}
}

// ValidateURL accepts absolute http and https URLs with a host
func ValidateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return shared.NewDomainError("INVALID_INPUT", "url is required")
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return shared.NewDomainError("INVALID_INPUT", "url must be an absolute http(s) address")
	}
	return nil
}

// Fetch downloads the document at rawURL
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}
	rawURL = strings.TrimSpace(rawURL)

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", rawURL, err)
	}
	raw := resp.RawBody()
	if raw == nil {
		return nil, fmt.Errorf("fetch feed %s: empty response", rawURL)
	}
	defer raw.Close()
	if resp.IsError() {
		return nil, fmt.Errorf("fetch feed %s: unexpected status %d", rawURL, resp.StatusCode())
	}

	body, err := f.readBody(raw)
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", rawURL, err)
	}

	f.logger.Info("feed downloaded",
		zap.String("url", rawURL),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", resp.Time()),
	)
	return body, nil
}

// readBody stops reading one byte past the size limit
func (f *Fetcher) readBody(r io.Reader) ([]byte, error) {
	if f.maxSize <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, f.maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > f.maxSize {
		return nil, ErrFeedTooLarge
	}
	return body, nil
}
