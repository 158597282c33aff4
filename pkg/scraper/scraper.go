// Package scraper wires the pipeline together: fetch a post page, extract
// the embedded state, locate the content record, expand it into normalized
// classified assets, and orchestrate their download.
package scraper

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"xhscraper/internal/downloader"
	"xhscraper/pkg/config"
	"xhscraper/pkg/errors"
	"xhscraper/pkg/extract"
	"xhscraper/pkg/logger"
	"xhscraper/pkg/media"
	"xhscraper/pkg/models"
	"xhscraper/pkg/ratelimit"
	"xhscraper/pkg/retry"
	"xhscraper/pkg/storage"
	"xhscraper/pkg/xhs"
)

// PlatformClient defines the transport operations the pipeline consumes
type PlatformClient interface {
	FetchPage(ctx context.Context, url string) (string, error)
	FetchAsset(ctx context.Context, url string) (io.ReadCloser, error)
}

// Scraper orchestrates the content extraction and download process
type Scraper struct {
	client      PlatformClient
	rateLimiter ratelimit.Limiter
	config      *config.Config
	logger      logger.Logger
}

// New creates a new Scraper instance
func New(cfg *config.Config) *Scraper {
	client := xhs.NewClient(cfg.Download.DownloadTimeout, cfg.Platform.Cookie, logger.GetLogger())
	retryCfg := retry.DefaultConfig()
	if cfg.RateLimit.MaxRetries > 0 {
		retryCfg.MaxAttempts = cfg.RateLimit.MaxRetries
	}
	client.SetRetryConfig(retryCfg)
	client.SetPageTimeout(cfg.Download.PageTimeout)
	if cfg.Platform.UserAgent != "" {
		client.SetUserAgent(cfg.Platform.UserAgent)
	}

	return NewWithClient(cfg, client)
}

// NewWithClient creates a Scraper with a custom transport, for tests and
// embedding.
func NewWithClient(cfg *config.Config, client PlatformClient) *Scraper {
	rpm := cfg.RateLimit.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}

	return &Scraper{
		client:      client,
		rateLimiter: ratelimit.NewTokenBucket(rpm, time.Minute),
		config:      cfg,
		logger:      logger.GetLogger(),
	}
}

// ParseURL fetches a post page and extracts its content record and assets.
// A transport failure here is terminal for the run.
func (s *Scraper) ParseURL(ctx context.Context, url string) (*models.ParsedContent, []models.NormalizedAsset, error) {
	s.logger.InfoWithFields("parsing post page", map[string]interface{}{
		"url": url,
	})

	if !s.rateLimiter.Allow() {
		logger.LogRateLimit("post_page", int(time.Minute.Seconds()))
		s.rateLimiter.Wait()
	}

	html, err := s.client.FetchPage(ctx, url)
	if err != nil {
		return nil, nil, err
	}

	return s.ParseHTML(html, url)
}

// ParseHTML runs the extraction pipeline over already-fetched HTML. It fails
// only on the three terminal not-found conditions: no state blob, no content
// record, no media URLs. Everything else degrades the result set instead of
// aborting.
func (s *Scraper) ParseHTML(html, sourceURL string) (*models.ParsedContent, []models.NormalizedAsset, error) {
	tree, ok := extract.State(html)
	if !ok {
		return nil, nil, errors.ErrNoStateFound
	}

	record, ok := extract.Locate(tree)
	if !ok {
		return nil, nil, errors.ErrNoContent
	}

	content := &models.ParsedContent{
		ContentID:        xhs.ExtractContentID(sourceURL),
		Title:            record.StringField("title"),
		MediaType:        models.MediaTypeImage,
		WatermarkRemoved: true,
	}
	if user, ok := record.Get("user"); ok {
		content.Author, _ = user.FirstString("nickname", "name")
	}
	content.Description, _ = record.FirstString("desc", "description")
	if record.StringField("type") == models.MediaTypeVideo {
		content.MediaType = models.MediaTypeVideo
	}

	descriptors := media.ExtractDescriptors(record)

	videoURL := ""
	if content.MediaType == models.MediaTypeVideo {
		videoURL, _ = media.VideoURL(record)
	}

	if len(descriptors) == 0 && videoURL == "" {
		return nil, nil, errors.ErrNoMediaURLs
	}

	assets := make([]models.NormalizedAsset, 0, len(descriptors))
	for _, d := range descriptors {
		canonical := media.RemoveWatermark(d.URL)
		motion := d.Kind.Motion() || media.IsMotionAsset(canonical)

		assets = append(assets, models.NormalizedAsset{
			SourceURL:    d.URL,
			CanonicalURL: canonical,
			IsMotion:     motion,
		})
		content.AllImages = append(content.AllImages, canonical)

		// Pair provenance counts alongside the keyword heuristic: the
		// halves of a live photo rarely carry a motion token in the URL.
		if d.Kind.LivePhoto() || media.IsMotionAsset(canonical) {
			content.LivePhotoImages = append(content.LivePhotoImages, canonical)
		} else {
			content.RegularImages = append(content.RegularImages, canonical)
		}
	}
	content.LivePhotoSupported = len(content.LivePhotoImages) > 0

	switch {
	case videoURL != "":
		// Signed video URLs break when their query is stripped, so the
		// playable URL bypasses watermark normalization.
		content.MediaURL = videoURL
	case len(content.AllImages) > 0:
		content.MediaURL = content.AllImages[0]
	}

	if coverURL, ok := media.CoverURL(record); ok {
		content.CoverURL = media.RemoveWatermark(coverURL)
	} else if len(content.AllImages) > 0 {
		content.CoverURL = content.AllImages[0]
	} else {
		content.CoverURL = content.MediaURL
	}

	s.logger.InfoWithFields("post parsed", map[string]interface{}{
		"content_id":  content.ContentID,
		"title":       content.Title,
		"media_type":  content.MediaType,
		"asset_count": len(assets),
		"live_photos": len(content.LivePhotoImages),
	})

	return content, assets, nil
}

// Run parses a post URL and downloads every extracted asset to the
// configured destination, returning the parsed record and the download
// manifest. Zero successful downloads is reported through the manifest, not
// as an error; the caller decides whether that is fatal.
func (s *Scraper) Run(ctx context.Context, url string) (*models.ParsedContent, *downloader.Manifest, error) {
	content, assets, err := s.ParseURL(ctx, url)
	if err != nil {
		return nil, nil, err
	}

	if s.config.Download.SkipMotion {
		kept := assets[:0]
		for _, a := range assets {
			if !a.IsMotion {
				kept = append(kept, a)
			}
		}
		assets = kept
	}

	destDir := s.config.Output.BaseDirectory
	if s.config.Output.CreateTitleFolders {
		folder := storage.SanitizeTitle(content.Title)
		if folder == "" {
			folder = content.ContentID
		}
		destDir = filepath.Join(destDir, folder)
	}

	manager, err := storage.NewManager(destDir)
	if err != nil {
		return nil, nil, err
	}

	pool := downloader.NewPool(
		s.config.Download.ConcurrentDownloads,
		s.client,
		manager,
		s.rateLimiter,
		s.logger,
	)

	manifest := pool.DownloadAll(ctx, assets, content.ContentID)

	if s.config.Output.WriteManifest {
		if err := manager.WriteManifest(manifest); err != nil {
			s.logger.WithError(err).Warn("failed to write manifest file")
		}
	}

	if manifest.SucceededCount == 0 && manifest.TotalCount > 0 {
		s.logger.WarnWithFields("every asset download failed", map[string]interface{}{
			"content_id": content.ContentID,
			"total":      manifest.TotalCount,
		})
	}

	return content, manifest, nil
}
