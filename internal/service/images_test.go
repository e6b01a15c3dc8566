package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"phonefinder/internal/cache"
	"phonefinder/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImageSearchClient_FindImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "samsung Galaxy M34 phone gsmarena", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "images", r.URL.Query().Get("categories"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[{"img_src":"data:image/png;base64,xx"},{"img_src":"","thumbnail_src":"https://cdn.example/m34.jpg"}]}`))
	}))
	defer server.Close()

	client := NewImageSearchClient(server.URL, time.Second)
	src, err := client.FindImage(context.Background(), "samsung Galaxy M34")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/m34.jpg", src)
}

func TestImageSearchClient_Errors(t *testing.T) {
	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer empty.Close()

	_, err := NewImageSearchClient(empty.URL, time.Second).FindImage(context.Background(), "nokia 3310")
	assert.ErrorIs(t, err, ErrImageNotFound)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer failing.Close()

	_, err = NewImageSearchClient(failing.URL, time.Second).FindImage(context.Background(), "nokia 3310")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrImageNotFound)
	assert.Contains(t, err.Error(), "status 500")
}

func TestCachedImageFinder(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	mem := cache.NewMemoryClient(100)
	defer mem.Close()

	next := &fakeImages{urls: map[string]string{"apple iPhone 15": "https://img.example/ip15.jpg"}}
	finder := NewCachedImageFinder(next, mem, time.Hour, time.Minute, m, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		src, err := finder.FindImage(ctx, "apple iPhone 15")
		require.NoError(t, err)
		assert.Equal(t, "https://img.example/ip15.jpg", src)
	}
	assert.Equal(t, 1, next.calls)

	for i := 0; i < 2; i++ {
		_, err := finder.FindImage(ctx, "lava Agni 2")
		assert.ErrorIs(t, err, ErrImageNotFound)
	}
	assert.Equal(t, 2, next.calls, "misses are cached")

	assert.Equal(t, 3.0, testutil.ToFloat64(m.ImageLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImageLookupsTotal.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImageLookupsTotal.WithLabelValues("not_found")))
}

func TestCachedImageFinder_ErrorsAreNotCached(t *testing.T) {
	mem := cache.NewMemoryClient(100)
	defer mem.Close()

	next := &fakeImages{err: errors.New("timeout")}
	finder := NewCachedImageFinder(next, mem, time.Hour, time.Minute, nil, zerolog.Nop())

	for i := 0; i < 2; i++ {
		_, err := finder.FindImage(context.Background(), "vivo V30")
		require.Error(t, err)
	}
	assert.Equal(t, 2, next.calls)
	assert.Zero(t, mem.Len())
}
