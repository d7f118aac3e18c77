// Package dribbble scrapes designer profiles and shots through a rendering
// proxy, since the site is client-rendered and useless to a plain GET.
package dribbble

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"talentlens/internal/retry"
	"talentlens/internal/sources/fetch"
)

const (
	sourceName = "dribbble"

	readerEndpoint = "https://r.jina.ai/"

	// Rendered pages below this size are cookie walls or error pages,
	// not content; the fetch is retried.
	minContentLength = 500
)

// Reader fetches pages through the Jina rendering proxy: the target URL is
// POSTed and the response carries the page as markdown.
type Reader struct {
	http     *http.Client
	apiKey   string
	endpoint string
	policy   retry.Policy
	logger   *zap.Logger
}

func NewReader(apiKey string, logger *zap.Logger) *Reader {
	return &Reader{
		http:     &http.Client{Timeout: 60 * time.Second},
		apiKey:   apiKey,
		endpoint: readerEndpoint,
		policy:   retry.Policy{Attempts: 3, Delay: 3 * time.Second},
		logger:   logger,
	}
}

// Fetch renders the target page and returns its markdown content.
func (r *Reader) Fetch(ctx context.Context, target string) (string, error) {
	var content string

	err := r.policy.Do(ctx, r.logger, "render "+target, func() error {
		got, err := r.fetchOnce(ctx, target)
		if err != nil {
			return err
		}
		content = got
		return nil
	})
	if err != nil {
		return "", fetch.NewError(sourceName, err)
	}

	r.logger.Debug("page rendered",
		zap.String("url", target),
		zap.Int("chars", len(content)),
	)
	return content, nil
}

func (r *Reader) fetchOnce(ctx context.Context, target string) (string, error) {
	body, err := json.Marshal(map[string]string{"url": target})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+r.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Engine", "browser")
	req.Header.Set("X-With-Shadow-Dom", "true")

	resp, err := r.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("render proxy returned %d", resp.StatusCode)
	}

	var envelope struct {
		Data struct {
			Content string `json:"content"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("decode render response: %w", err)
	}

	if len(envelope.Data.Content) <= minContentLength {
		return "", fmt.Errorf("rendered content too short (%d chars)", len(envelope.Data.Content))
	}
	return envelope.Data.Content, nil
}
