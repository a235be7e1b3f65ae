package translate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider errors.
var (
	ErrEmptyResponse        = errors.New("provider returned an empty response")
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
)

// DefaultEndpoint is the public web translation endpoint.
const DefaultEndpoint = "https://translate.googleapis.com/translate_a/single"

// Provider performs one live translation attempt. Implementations are
// synchronous, fallible and rate-limit-sensitive; retrying is the
// translator's job, not the provider's.
type Provider interface {
	Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error)
}

// HTTPProvider calls a Google-compatible web translation endpoint.
type HTTPProvider struct {
	client   *http.Client
	endpoint string
}

// NewHTTPProvider creates a provider against endpoint (DefaultEndpoint if
// empty) with the given per-request timeout.
func NewHTTPProvider(endpoint string, timeout time.Duration) *HTTPProvider {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	return &HTTPProvider{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}
}

// Translate performs a single translation call.
func (p *HTTPProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	params := url.Values{}
	params.Set("client", "gtx")
	params.Set("sl", sourceLang)
	params.Set("tl", targetLang)
	params.Set("dt", "t")
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	return parseResponse(body)
}

// parseResponse extracts the translated text from the endpoint's nested
// array response: [[["translated","original",...],...],...].
func parseResponse(body []byte) (string, error) {
	var raw []any
	if err := json.Unmarshal(body, &raw); err != nil {
		return "", fmt.Errorf("invalid JSON response: %w", err)
	}

	if len(raw) == 0 {
		return "", ErrEmptyResponse
	}

	segments, ok := raw[0].([]any)
	if !ok {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder

	for _, s := range segments {
		seg, ok := s.([]any)
		if !ok || len(seg) == 0 {
			continue
		}

		if part, ok := seg[0].(string); ok {
			sb.WriteString(part)
		}
	}

	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}

	return sb.String(), nil
}
