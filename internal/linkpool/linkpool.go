// Package linkpool builds the pool of backlink candidate URLs from a
// remote sitemap, with a local file cache so repeated runs do not hammer
// the site.
package linkpool

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"transpipe/internal/config"
	"transpipe/internal/logger"
)

var (
	// ErrUnexpectedStatusCode indicates an HTTP response with unexpected status.
	ErrUnexpectedStatusCode = errors.New("unexpected status code")

	// ErrEmptySitemap indicates a sitemap that parsed but contained no URLs.
	ErrEmptySitemap = errors.New("sitemap contains no URLs")
)

const maxBodyBytes = 8 << 20

// sitemapURLSet mirrors the <urlset> element of a standard sitemap.
type sitemapURLSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// cacheEnvelope is the on-disk representation of a cached pool.
type cacheEnvelope struct {
	FetchedAt time.Time `json:"fetched_at"`
	URLs      []string  `json:"urls"`
}

// Pool fetches and caches backlink candidate URLs.
type Pool struct {
	cfg        config.LinkPoolConfig
	cachePath  string
	client     *http.Client
	log        *logger.Logger
	attempts   int
	retryDelay time.Duration
}

// NewPool creates a Pool that caches fetched URLs at cachePath.
func NewPool(cfg config.LinkPoolConfig, cachePath string, log *logger.Logger) *Pool {
	return &Pool{
		cfg:       cfg,
		cachePath: cachePath,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		log:        log,
		attempts:   3,
		retryDelay: 2 * time.Second,
	}
}

// URLs returns the backlink candidate pool. A fresh cache is served
// directly; otherwise the sitemap is fetched with retries, and on total
// failure a stale cache is served rather than returning empty-handed.
func (p *Pool) URLs(ctx context.Context) ([]string, error) {
	if p.cfg.SitemapURL == "" {
		return nil, nil
	}

	cached, age, cacheErr := p.readCache()
	if cacheErr == nil && age <= p.ttl() {
		p.log.Debug("link pool served from cache", "urls", len(cached), "age", age.Round(time.Second).String())

		return cached, nil
	}

	urls, err := p.fetch(ctx)
	if err != nil {
		if cacheErr == nil {
			p.log.Warn("sitemap fetch failed, serving stale link pool",
				"url", p.cfg.SitemapURL,
				"urls", len(cached),
				"error", err.Error())

			return cached, nil
		}

		return nil, fmt.Errorf("failed to build link pool: %w", err)
	}

	p.writeCache(urls)

	return urls, nil
}

func (p *Pool) ttl() time.Duration {
	return time.Duration(p.cfg.CacheTTLHours) * time.Hour
}

// fetch downloads and parses the sitemap, retrying transient failures.
func (p *Pool) fetch(ctx context.Context) ([]string, error) {
	var lastErr error

	for attempt := 1; attempt <= p.attempts; attempt++ {
		urls, err := p.fetchOnce(ctx)
		if err == nil {
			return urls, nil
		}

		lastErr = fmt.Errorf("sitemap fetch failed (attempt %d/%d): %w", attempt, p.attempts, err)

		if ctx.Err() != nil {
			break
		}

		if attempt < p.attempts {
			select {
			case <-ctx.Done():
				return nil, lastErr
			case <-time.After(p.retryDelay):
			}
		}
	}

	return nil, lastErr
}

func (p *Pool) fetchOnce(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.SitemapURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/xml,text/xml;q=0.9,*/*;q=0.8")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return parseSitemap(body)
}

// parseSitemap extracts all <loc> values from sitemap XML.
func parseSitemap(data []byte) ([]string, error) {
	var set sitemapURLSet
	if err := xml.Unmarshal(data, &set); err != nil {
		return nil, fmt.Errorf("failed to parse sitemap: %w", err)
	}

	urls := make([]string, 0, len(set.URLs))

	for _, u := range set.URLs {
		if u.Loc != "" {
			urls = append(urls, u.Loc)
		}
	}

	if len(urls) == 0 {
		return nil, ErrEmptySitemap
	}

	return urls, nil
}

// readCache returns cached URLs and their age. Any read or decode
// failure is reported as an error so the caller fetches fresh.
func (p *Pool) readCache() ([]string, time.Duration, error) {
	data, err := os.ReadFile(p.cachePath)
	if err != nil {
		return nil, 0, err
	}

	var env cacheEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, 0, fmt.Errorf("failed to decode link pool cache: %w", err)
	}

	if len(env.URLs) == 0 {
		return nil, 0, ErrEmptySitemap
	}

	return env.URLs, time.Since(env.FetchedAt), nil
}

// writeCache persists the pool. Failures are logged and swallowed since
// the cache is an optimization, not a requirement.
func (p *Pool) writeCache(urls []string) {
	data, err := json.MarshalIndent(cacheEnvelope{FetchedAt: time.Now(), URLs: urls}, "", "  ")
	if err != nil {
		p.log.Warn("failed to encode link pool cache", "error", err.Error())

		return
	}

	if err := os.WriteFile(p.cachePath, data, 0o644); err != nil {
		p.log.Warn("failed to write link pool cache", "path", p.cachePath, "error", err.Error())
	}
}
