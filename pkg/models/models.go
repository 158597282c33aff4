package models

// Media type discriminator values carried by the content record.
const (
	MediaTypeImage = "image"
	MediaTypeVideo = "video"
)

// ParsedContent is the pipeline's final output record, consumed by the
// persistence layer. Every URL in it has already gone through watermark
// normalization.
type ParsedContent struct {
	ContentID          string   `json:"content_id"`
	Title              string   `json:"title"`
	Author             string   `json:"author"`
	Description        string   `json:"description"`
	MediaType          string   `json:"media_type"`
	CoverURL           string   `json:"cover_url"`
	MediaURL           string   `json:"media_url"`
	AllImages          []string `json:"all_images"`
	RegularImages      []string `json:"regular_images"`
	LivePhotoImages    []string `json:"live_photo_images"`
	WatermarkRemoved   bool     `json:"watermark_removed"`
	LivePhotoSupported bool     `json:"live_photo_supported"`
}

// NormalizedAsset is one downloadable media URL after normalization and
// classification. CanonicalURL is always a cleaned form of SourceURL.
type NormalizedAsset struct {
	SourceURL    string `json:"source_url"`
	CanonicalURL string `json:"canonical_url"`
	IsMotion     bool   `json:"is_motion"`
}
