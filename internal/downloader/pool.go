// Package downloader orchestrates best-effort download of a run's asset
// list. One asset's failure never aborts the batch; the manifest keeps the
// input order regardless of completion order.
package downloader

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"xhscraper/pkg/logger"
	"xhscraper/pkg/models"
	"xhscraper/pkg/ratelimit"
	"xhscraper/pkg/storage"
)

// AssetFetcher opens a streaming download of one asset
type AssetFetcher interface {
	FetchAsset(ctx context.Context, url string) (io.ReadCloser, error)
}

// AssetStore writes one asset's byte stream to local storage
type AssetStore interface {
	SaveStream(r io.Reader, filename string) (string, error)
}

// Result is the per-asset outcome: exactly one of LocalPath or FailureReason
// is set.
type Result struct {
	Asset         models.NormalizedAsset `json:"asset"`
	LocalPath     string                 `json:"local_path,omitempty"`
	FailureReason string                 `json:"failure_reason,omitempty"`
}

// Manifest is the aggregate outcome of one run's downloads. Results holds
// one entry per input asset, in input order.
type Manifest struct {
	Results        []Result `json:"results"`
	CoverPath      string   `json:"cover_path,omitempty"`
	SucceededCount int      `json:"succeeded_count"`
	TotalCount     int      `json:"total_count"`
}

// Pool downloads a run's assets with a bounded number of workers
type Pool struct {
	workers int
	fetcher AssetFetcher
	store   AssetStore
	limiter ratelimit.Limiter
	logger  logger.Logger
	now     func() time.Time
}

// NewPool creates a download pool. workers below 1 is treated as sequential.
func NewPool(workers int, fetcher AssetFetcher, store AssetStore, limiter ratelimit.Limiter, log logger.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Pool{
		workers: workers,
		fetcher: fetcher,
		store:   store,
		limiter: limiter,
		logger:  log,
		now:     time.Now,
	}
}

// SetClock replaces the run-timestamp source, for deterministic file names
// in tests.
func (p *Pool) SetClock(now func() time.Time) {
	p.now = now
}

// DownloadAll fetches every asset independently and returns the manifest.
// The destination directory must already exist (the store owns it); the
// manifest is returned even when every download failed, and the caller
// decides whether zero successes is fatal.
func (p *Pool) DownloadAll(ctx context.Context, assets []models.NormalizedAsset, namePrefix string) *Manifest {
	manifest := &Manifest{
		Results:    make([]Result, len(assets)),
		TotalCount: len(assets),
	}
	if len(assets) == 0 {
		return manifest
	}

	runTimestamp := p.now().Unix()

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				manifest.Results[i] = p.downloadOne(ctx, assets[i], namePrefix, runTimestamp, i+1)
			}
		}()
	}

	for i := range assets {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, r := range manifest.Results {
		if r.LocalPath != "" {
			manifest.SucceededCount++
		}
	}
	manifest.CoverPath = selectCover(manifest.Results)

	p.logger.InfoWithFields("download batch finished", map[string]interface{}{
		"total":     manifest.TotalCount,
		"succeeded": manifest.SucceededCount,
		"cover":     manifest.CoverPath,
	})

	return manifest
}

// downloadOne fetches a single asset and streams it to storage. Every
// failure is recorded and swallowed; a transport timeout is treated like any
// other per-asset failure.
func (p *Pool) downloadOne(ctx context.Context, asset models.NormalizedAsset, prefix string, runTimestamp int64, seq int) Result {
	result := Result{Asset: asset}

	if p.limiter != nil && !p.limiter.Allow() {
		p.limiter.Wait()
	}

	body, err := p.fetcher.FetchAsset(ctx, asset.CanonicalURL)
	if err != nil {
		result.FailureReason = fmt.Sprintf("fetch failed: %v", err)
		logger.LogDownload(prefix, asset.CanonicalURL, assetType(asset), false, err)
		return result
	}
	defer body.Close()

	filename := storage.AssetFilename(prefix, runTimestamp, seq, asset.IsMotion)
	path, err := p.store.SaveStream(body, filename)
	if err != nil {
		result.FailureReason = fmt.Sprintf("save failed: %v", err)
		logger.LogDownload(prefix, asset.CanonicalURL, assetType(asset), false, err)
		return result
	}

	result.LocalPath = path
	logger.LogDownload(prefix, asset.CanonicalURL, assetType(asset), true, nil)
	return result
}

// selectCover picks the representative asset: the first successful still, or
// the first success of any kind, or nothing when everything failed.
func selectCover(results []Result) string {
	for _, r := range results {
		if r.LocalPath != "" && !r.Asset.IsMotion {
			return r.LocalPath
		}
	}
	for _, r := range results {
		if r.LocalPath != "" {
			return r.LocalPath
		}
	}
	return ""
}

func assetType(asset models.NormalizedAsset) string {
	if asset.IsMotion {
		return "motion"
	}
	return "image"
}
