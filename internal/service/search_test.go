package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"phonefinder/internal/metrics"
	"phonefinder/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPlaceholder = "https://placehold.co/200x200"

func testPhones() []model.Phone {
	return []model.Phone{
		{ID: 1, Brand: "samsung", Model: "Galaxy M34", Processor: strPtr("Exynos 1280"), RAMGB: 6, StorageGB: 128, BatteryMAh: 6000, BackCameraMP: 50, ScreenSizeInches: 6.5, PriceRs: 16999},
		{ID: 2, Brand: "xiaomi", Model: "Redmi Note 13 Pro", Processor: strPtr("Snapdragon 7s Gen 2"), RAMGB: 8, StorageGB: 256, BatteryMAh: 5100, BackCameraMP: 200, ScreenSizeInches: 6.67, PriceRs: 24999, ImageURL: strPtr("https://img.example/redmi.jpg")},
		{ID: 3, Brand: "apple", Model: "iPhone 15", Processor: strPtr("A16 Bionic"), RAMGB: 6, StorageGB: 128, BatteryMAh: 3349, BackCameraMP: 48, ScreenSizeInches: 6.1, PriceRs: 79900},
		{ID: 4, Brand: "poco", Model: "X6 Pro", Processor: strPtr("Dimensity 8300 Ultra"), RAMGB: 12, StorageGB: 512, BatteryMAh: 5000, BackCameraMP: 64, ScreenSizeInches: 6.67, PriceRs: 26999},
	}
}

func newTestSearchService(catalog Catalog, images ImageFinder, m *metrics.Metrics) *SearchService {
	return NewSearchService(catalog, images, newTestExtractor(), newTestMerger(), SearchConfig{
		Timeout:          time.Second,
		ImageConcurrency: 2,
		Placeholder:      testPlaceholder,
		DefaultLimit:     10,
	}, m, zerolog.Nop())
}

func TestRun_AttachesImagesAndReasons(t *testing.T) {
	images := &fakeImages{urls: map[string]string{"poco X6 Pro": "https://img.example/poco.jpg"}}
	svc := newTestSearchService(&fakeCatalog{phones: testPhones()}, images, nil)

	f := model.Filter{RAMMinGB: intPtr(8)}
	results, total, err := svc.Run(context.Background(), f, 10, metrics.ModeDirect)
	require.NoError(t, err)
	require.Equal(t, 2, total)

	byID := map[int64]model.PhoneResult{}
	for _, r := range results {
		byID[r.ID] = r
	}
	assert.Equal(t, "https://img.example/redmi.jpg", byID[2].Image, "record image wins")
	assert.Equal(t, "https://img.example/poco.jpg", byID[4].Image)
	assert.Contains(t, byID[4].MatchedReasons, ReasonRAMMatch)
	assert.Equal(t, 1, images.calls, "finder is skipped when the record has an image")
}

func TestRun_ImageFailuresUsePlaceholder(t *testing.T) {
	images := &fakeImages{err: errors.New("search engine down")}
	svc := newTestSearchService(&fakeCatalog{phones: testPhones()}, images, nil)

	results, _, err := svc.Run(context.Background(), model.Filter{Brand: strPtr("samsung")}, 10, metrics.ModeDirect)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, testPlaceholder, results[0].Image)

	noFinder := newTestSearchService(&fakeCatalog{phones: testPhones()}, nil, nil)
	results, _, err = noFinder.Run(context.Background(), model.Filter{Brand: strPtr("apple")}, 10, metrics.ModeDirect)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, testPlaceholder, results[0].Image)
}

func TestRun_ZeroResultsIsNotAnError(t *testing.T) {
	svc := newTestSearchService(&fakeCatalog{phones: testPhones()}, nil, nil)

	results, total, err := svc.Run(context.Background(), model.Filter{PriceMax: intPtr(5000)}, 10, metrics.ModeDirect)
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, results)
}

func TestRun_CatalogFailureIsUnavailable(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	svc := newTestSearchService(&fakeCatalog{err: errors.New("connection reset")}, nil, m)

	_, _, err := svc.Run(context.Background(), model.Filter{}, 10, metrics.ModeConversation)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SearchesTotal.WithLabelValues(metrics.ModeConversation, "unavailable")))
}

func TestRun_Timeout(t *testing.T) {
	svc := NewSearchService(&fakeCatalog{block: true}, nil, newTestExtractor(), newTestMerger(), SearchConfig{
		Timeout: 20 * time.Millisecond,
	}, nil, zerolog.Nop())

	start := time.Now()
	_, _, err := svc.Run(context.Background(), model.Filter{}, 10, metrics.ModeDirect)
	assert.ErrorIs(t, err, ErrSearchUnavailable)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSearch_IncompleteQueryStillSearches(t *testing.T) {
	svc := newTestSearchService(&fakeCatalog{phones: testPhones()}, nil, nil)

	resp, err := svc.Search(context.Background(), &model.SearchRequest{Query: "gaming phone"})
	require.NoError(t, err)
	assert.False(t, resp.Complete)
	assert.True(t, resp.Filter.HasTag("gaming"))
	require.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.Contains(t, r.MatchedReasons, ReasonGamingChip)
	}
}

func TestSearch_TopK(t *testing.T) {
	svc := newTestSearchService(&fakeCatalog{phones: testPhones()}, nil, nil)

	resp, err := svc.Search(context.Background(), &model.SearchRequest{
		Query:   "phone under 90000",
		Options: &model.SearchOptions{TopK: 2},
	})
	require.NoError(t, err)
	assert.True(t, resp.Complete)
	assert.Equal(t, 4, resp.Total)
	assert.Len(t, resp.Results, 2)
}

func TestSearchStream_EventOrder(t *testing.T) {
	svc := newTestSearchService(&fakeCatalog{phones: testPhones()}, nil, nil)

	var events []string
	_, err := svc.SearchStream(context.Background(), &model.SearchRequest{Query: "samsung phone"}, func(event string, _ any) error {
		events = append(events, event)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"filter", "searching"}, events)

	stop := errors.New("client gone")
	_, err = svc.SearchStream(context.Background(), &model.SearchRequest{Query: "samsung phone"}, func(string, any) error {
		return stop
	})
	assert.ErrorIs(t, err, stop)
}

func TestSearch_LogsAsynchronously(t *testing.T) {
	catalog := &loggingCatalog{
		fakeCatalog: fakeCatalog{phones: testPhones()},
		logged:      make(chan loggedSearch, 1),
	}
	svc := newTestSearchService(catalog, nil, nil)

	_, err := svc.Search(context.Background(), &model.SearchRequest{Query: "apple phone"})
	require.NoError(t, err)

	select {
	case l := <-catalog.logged:
		assert.Equal(t, "apple phone", l.query)
		assert.Equal(t, 1, l.total)
		assert.Equal(t, []int64{3}, l.ids)
	case <-time.After(time.Second):
		t.Fatal("search was not logged")
	}
}

func TestImportPhones_ReadOnlyCatalog(t *testing.T) {
	svc := newTestSearchService(&fakeCatalog{}, nil, nil)

	_, err := svc.ImportPhones(context.Background(), testPhones())
	assert.ErrorIs(t, err, ErrReadOnlyCatalog)
}

func TestGetPhone(t *testing.T) {
	svc := newTestSearchService(&fakeCatalog{phones: testPhones()}, nil, nil)

	p, err := svc.GetPhone(context.Background(), 3)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "apple iPhone 15", p.Name())

	p, err = svc.GetPhone(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, p)
}
