package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xhscraper/pkg/models"
	"xhscraper/pkg/storage"
)

// stubFetcher serves canned bodies by URL and fails the URLs it is told to.
type stubFetcher struct {
	failing  map[string]bool
	fetched  atomic.Int32
	slowDown time.Duration
}

func (f *stubFetcher) FetchAsset(_ context.Context, url string) (io.ReadCloser, error) {
	f.fetched.Add(1)
	if f.slowDown > 0 {
		time.Sleep(f.slowDown)
	}
	if f.failing[url] {
		return nil, errors.New("connection reset")
	}
	return io.NopCloser(strings.NewReader("payload:" + url)), nil
}

func newTestPool(t *testing.T, workers int, fetcher AssetFetcher) (*Pool, *storage.Manager) {
	t.Helper()
	store, err := storage.NewManager(t.TempDir())
	require.NoError(t, err)

	pool := NewPool(workers, fetcher, store, nil, nil)
	pool.SetClock(func() time.Time { return time.Unix(1700000000, 0) })
	return pool, store
}

func stillAsset(url string) models.NormalizedAsset {
	return models.NormalizedAsset{SourceURL: url, CanonicalURL: url, IsMotion: false}
}

func motionAsset(url string) models.NormalizedAsset {
	return models.NormalizedAsset{SourceURL: url, CanonicalURL: url, IsMotion: true}
}

func TestDownloadAll(t *testing.T) {
	pool, store := newTestPool(t, 2, &stubFetcher{})
	assets := []models.NormalizedAsset{
		stillAsset("https://cdn/a.jpg"),
		motionAsset("https://cdn/a.mp4"),
	}

	manifest := pool.DownloadAll(context.Background(), assets, "post1")

	require.Len(t, manifest.Results, 2)
	assert.Equal(t, 2, manifest.SucceededCount)
	assert.Equal(t, 2, manifest.TotalCount)

	assert.Equal(t, filepath.Join(store.Dir(), "post1_1700000000_001.jpg"), manifest.Results[0].LocalPath)
	assert.Equal(t, filepath.Join(store.Dir(), "post1_1700000000_002.mov"), manifest.Results[1].LocalPath)

	data, err := os.ReadFile(manifest.Results[0].LocalPath)
	require.NoError(t, err)
	assert.Equal(t, "payload:https://cdn/a.jpg", string(data))
}

func TestDownloadAllIsolatesFailures(t *testing.T) {
	fetcher := &stubFetcher{failing: map[string]bool{"https://cdn/b.jpg": true}}
	pool, _ := newTestPool(t, 2, fetcher)
	assets := []models.NormalizedAsset{
		stillAsset("https://cdn/a.jpg"),
		stillAsset("https://cdn/b.jpg"),
		stillAsset("https://cdn/c.jpg"),
	}

	manifest := pool.DownloadAll(context.Background(), assets, "post1")

	assert.Equal(t, 2, manifest.SucceededCount)
	assert.Equal(t, 3, manifest.TotalCount)

	assert.NotEmpty(t, manifest.Results[0].LocalPath)
	assert.Empty(t, manifest.Results[0].FailureReason)

	assert.Empty(t, manifest.Results[1].LocalPath)
	assert.Contains(t, manifest.Results[1].FailureReason, "fetch failed")

	assert.NotEmpty(t, manifest.Results[2].LocalPath)

	// Cover is the first successful still
	assert.Equal(t, manifest.Results[0].LocalPath, manifest.CoverPath)
}

func TestDownloadAllCoverFallsBackToMotion(t *testing.T) {
	fetcher := &stubFetcher{failing: map[string]bool{"https://cdn/a.jpg": true}}
	pool, _ := newTestPool(t, 1, fetcher)
	assets := []models.NormalizedAsset{
		stillAsset("https://cdn/a.jpg"),
		motionAsset("https://cdn/a.mp4"),
	}

	manifest := pool.DownloadAll(context.Background(), assets, "post1")

	assert.Equal(t, 1, manifest.SucceededCount)
	assert.Equal(t, manifest.Results[1].LocalPath, manifest.CoverPath)
}

func TestDownloadAllStillPreferredOverEarlierMotionForCover(t *testing.T) {
	pool, _ := newTestPool(t, 1, &stubFetcher{})
	assets := []models.NormalizedAsset{
		motionAsset("https://cdn/a.mp4"),
		stillAsset("https://cdn/a.jpg"),
	}

	manifest := pool.DownloadAll(context.Background(), assets, "post1")

	assert.Equal(t, manifest.Results[1].LocalPath, manifest.CoverPath)
}

func TestDownloadAllEverythingFailed(t *testing.T) {
	fetcher := &stubFetcher{failing: map[string]bool{
		"https://cdn/a.jpg": true,
		"https://cdn/b.jpg": true,
	}}
	pool, _ := newTestPool(t, 2, fetcher)
	assets := []models.NormalizedAsset{
		stillAsset("https://cdn/a.jpg"),
		stillAsset("https://cdn/b.jpg"),
	}

	manifest := pool.DownloadAll(context.Background(), assets, "post1")

	assert.Equal(t, 0, manifest.SucceededCount)
	assert.Equal(t, 2, manifest.TotalCount)
	assert.Empty(t, manifest.CoverPath)
	for _, r := range manifest.Results {
		assert.NotEmpty(t, r.FailureReason)
	}
}

func TestDownloadAllEmptyInput(t *testing.T) {
	fetcher := &stubFetcher{}
	pool, _ := newTestPool(t, 4, fetcher)

	manifest := pool.DownloadAll(context.Background(), nil, "post1")

	assert.Empty(t, manifest.Results)
	assert.Equal(t, 0, manifest.TotalCount)
	assert.Equal(t, int32(0), fetcher.fetched.Load())
}

func TestDownloadAllPreservesInputOrderUnderConcurrency(t *testing.T) {
	pool, _ := newTestPool(t, 8, &stubFetcher{slowDown: time.Millisecond})

	assets := make([]models.NormalizedAsset, 20)
	for i := range assets {
		assets[i] = stillAsset(fmt.Sprintf("https://cdn/img%02d.jpg", i))
	}

	manifest := pool.DownloadAll(context.Background(), assets, "post1")

	require.Len(t, manifest.Results, 20)
	assert.Equal(t, 20, manifest.SucceededCount)
	for i, r := range manifest.Results {
		assert.Equal(t, assets[i].CanonicalURL, r.Asset.CanonicalURL, "result %d out of order", i)
		assert.Contains(t, r.LocalPath, fmt.Sprintf("_%03d.jpg", i+1))
	}
}

type failingStore struct{}

func (failingStore) SaveStream(io.Reader, string) (string, error) {
	return "", errors.New("disk full")
}

func TestDownloadAllRecordsSaveFailures(t *testing.T) {
	pool := NewPool(1, &stubFetcher{}, failingStore{}, nil, nil)
	pool.SetClock(func() time.Time { return time.Unix(1700000000, 0) })

	manifest := pool.DownloadAll(context.Background(), []models.NormalizedAsset{
		stillAsset("https://cdn/a.jpg"),
	}, "post1")

	assert.Equal(t, 0, manifest.SucceededCount)
	assert.Contains(t, manifest.Results[0].FailureReason, "save failed")
}
