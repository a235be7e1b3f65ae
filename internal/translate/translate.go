// Package translate wraps the external translation provider with caching,
// chunking, retries and rate-limit pacing.
//
// Translate never fails past its boundary: after exhausting retries it
// degrades to returning the original input text so one stubborn unit never
// aborts a batch.
package translate

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"transpipe/internal/cache"
	"transpipe/internal/chunker"
	"transpipe/internal/config"
	"transpipe/internal/logger"
	"transpipe/pkg/utils"
)

// failureKind classifies a failed live call for logging.
type failureKind string

const (
	failureTimeout      failureKind = "timeout"
	failureConnectivity failureKind = "connectivity"
	failureSoftEmpty    failureKind = "soft-empty"
	failureOther        failureKind = "other"
)

// classify maps a provider error to a failure kind.
func classify(err error) failureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return failureTimeout
		}

		return failureConnectivity
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return failureConnectivity
	}

	return failureOther
}

// Translator composes the provider with the cache and the chunker.
type Translator struct {
	provider Provider
	cache    cache.Store
	cfg      config.TranslationConfig
	logger   *logger.Logger
}

// New creates a Translator.
func New(provider Provider, store cache.Store, cfg config.TranslationConfig, log *logger.Logger) *Translator {
	return &Translator{
		provider: provider,
		cache:    store,
		cfg:      cfg,
		logger:   log,
	}
}

// Translate translates text from sourceLang to targetLang. On
// unrecoverable failure the original (normalized) text is returned as a
// degraded result; the boolean reports whether the result came fully
// from live calls or cache, as opposed to any degraded fallback.
func (t *Translator) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return text, true
	}

	// Whitespace normalization happens before anything that hashes the
	// text, so cache keys are stable across formatting differences.
	norm := utils.NormalizeWhitespace(text)

	if cached, ok := t.cache.Get(norm, targetLang); ok {
		return cached, true
	}

	if len(norm) > t.cfg.MaxChunkLength {
		return t.translateChunked(ctx, norm, sourceLang, targetLang)
	}

	return t.translateUnit(ctx, norm, sourceLang, targetLang)
}

// translateChunked splits an oversized text, translates each chunk through
// its own cache check and retry loop, and caches the reassembled whole
// under the full-text key so future identical inputs hit a single entry.
func (t *Translator) translateChunked(ctx context.Context, norm, sourceLang, targetLang string) (string, bool) {
	parts := chunker.Split(norm, t.cfg.MaxChunkLength)

	translated := make([]string, 0, len(parts))
	allLive := true

	for _, part := range parts {
		result, ok := t.translateUnit(ctx, part, sourceLang, targetLang)
		if !ok {
			allLive = false
		}

		translated = append(translated, result)
	}

	result := chunker.Join(translated)

	// Degraded chunks are not true translations; caching them would pin
	// the fallback forever.
	if allLive {
		t.cache.Put(norm, targetLang, result)
	}

	return result, allLive
}

// translateUnit translates one bounded unit (a chunk or a whole short
// text). The boolean reports whether the result is a genuine translation
// as opposed to a degraded fallback.
func (t *Translator) translateUnit(ctx context.Context, text, sourceLang, targetLang string) (string, bool) {
	if cached, ok := t.cache.Get(text, targetLang); ok {
		return cached, true
	}

	for attempt := 1; attempt <= t.cfg.MaxRetries; attempt++ {
		result, err := t.provider.Translate(ctx, text, sourceLang, targetLang)

		if err == nil && result != "" && result != text {
			t.cache.Put(text, targetLang, result)

			// Fixed pacing after every successful live call; cache
			// hits skip this entirely.
			t.pace(ctx)

			return result, true
		}

		kind := failureSoftEmpty
		if err != nil {
			kind = classify(err)
		}

		if ctx.Err() != nil {
			break
		}

		t.logger.Warn("translation attempt failed",
			"kind", string(kind),
			"attempt", attempt,
			"max", t.cfg.MaxRetries,
			"lang", targetLang,
			"error", err)

		if attempt < t.cfg.MaxRetries {
			if !sleepCtx(ctx, t.cfg.RetryDelay(attempt)) {
				break
			}
		}
	}

	t.logger.Error("translation failed after all retries, using original text",
		"lang", targetLang, "attempts", t.cfg.MaxRetries)

	return text, false
}

func (t *Translator) pace(ctx context.Context) {
	sleepCtx(ctx, t.cfg.PacingDelay())
}

// sleepCtx sleeps for d unless the context is cancelled first. It reports
// whether the full delay elapsed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}

	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
