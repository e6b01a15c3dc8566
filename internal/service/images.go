package service

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

	"phonefinder/internal/cache"
	"phonefinder/internal/metrics"

	"github.com/rs/zerolog"
)

// ErrImageNotFound means the image search had no usable result
var ErrImageNotFound = errors.New("image not found")

// ImageSearchClient queries a SearXNG-compatible JSON image search
type ImageSearchClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewImageSearchClient creates a client for the search endpoint at baseURL
func NewImageSearchClient(baseURL string, timeout time.Duration) *ImageSearchClient {
	return &ImageSearchClient{
		baseURL: strings.TrimRight(baseURL, "?"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type imageSearchResponse struct {
	Results []struct {
		ImgSrc       string `json:"img_src"`
		ThumbnailSrc string `json:"thumbnail_src"`
	} `json:"results"`
}

// FindImage returns the first image result for the phone name
func (c *ImageSearchClient) FindImage(ctx context.Context, name string) (string, error) {
	q := url.Values{}
	q.Set("q", name+" phone gsmarena")
	q.Set("format", "json")
	q.Set("categories", "images")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("image search failed with status %d", resp.StatusCode)
	}

	var result imageSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}

	for _, r := range result.Results {
		if src := firstNonEmpty(r.ImgSrc, r.ThumbnailSrc); strings.HasPrefix(src, "http") {
			return src, nil
		}
	}
	return "", ErrImageNotFound
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// CachedImageFinder memoizes lookups, including misses for a shorter time
type CachedImageFinder struct {
	next        ImageFinder
	cache       cache.Client
	ttl         time.Duration
	negativeTTL time.Duration
	metrics     *metrics.Metrics
	log         zerolog.Logger
}

// NewCachedImageFinder wraps next with cache
func NewCachedImageFinder(next ImageFinder, c cache.Client, ttl, negativeTTL time.Duration, m *metrics.Metrics, log zerolog.Logger) *CachedImageFinder {
	return &CachedImageFinder{
		next:        next,
		cache:       c,
		ttl:         ttl,
		negativeTTL: negativeTTL,
		metrics:     m,
		log:         log,
	}
}

// FindImage serves from cache or delegates to the wrapped finder
func (f *CachedImageFinder) FindImage(ctx context.Context, name string) (string, error) {
	key := cache.Key("img", name)

	cached, err := f.cache.Get(ctx, key)
	switch {
	case err == nil:
		f.metrics.RecordImageLookup("hit")
		if len(cached) == 0 {
			return "", ErrImageNotFound
		}
		return string(cached), nil
	case !errors.Is(err, cache.ErrCacheMiss):
		f.log.Warn().Err(err).Msg("image cache read failed")
	}

	src, err := f.next.FindImage(ctx, name)
	switch {
	case errors.Is(err, ErrImageNotFound):
		f.metrics.RecordImageLookup("not_found")
		f.store(ctx, key, nil, f.negativeTTL)
		return "", err
	case err != nil:
		f.metrics.RecordImageLookup("error")
		return "", err
	}

	f.metrics.RecordImageLookup("found")
	f.store(ctx, key, []byte(src), f.ttl)
	return src, nil
}

func (f *CachedImageFinder) store(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := f.cache.Set(ctx, key, value, ttl); err != nil {
		f.log.Warn().Err(err).Msg("image cache write failed")
	}
}
