package media

import (
	"net/url"
	"regexp"
	"strings"
)

// CDN hosts: the web-preview host serves recompressed, watermarked variants;
// the img host serves the full-quality originals.
const (
	previewCDNHost = "sns-webpic-qc.xhscdn.com"
	fullCDNHost    = "sns-img-qc.xhscdn.com"
)

var (
	transformToken = regexp.MustCompile(`!\w+`)
	querySuffix    = regexp.MustCompile(`\?.*$`)
	spectrumPath   = regexp.MustCompile(`/spectrum/[^/]*/`)
	trailingSep    = regexp.MustCompile(`[?&]$`)

	// Known watermark and compression query parameters, stripped even on
	// URLs that bypassed the wholesale query strip.
	watermarkParams = []*regexp.Regexp{
		regexp.MustCompile(`[?&]watermark=\d+`),
		regexp.MustCompile(`[?&]wm=\d+`),
		regexp.MustCompile(`[?&]x-oss-process=[^&]*`),
		regexp.MustCompile(`[?&]imageslim`),
		regexp.MustCompile(`[?&]imageView2[^&]*`),
		regexp.MustCompile(`[?&]auto-orient`),
	}
)

// RemoveWatermark rewrites a media URL to the variant most likely to be free
// of visible overlays and recompression. Pure and total: a URL that cannot
// be cleanly rewritten comes back unchanged, never an error. Idempotent.
//
// A URL containing "url_default" is treated as already clean; that check is
// a field-name heuristic and can be fooled by a CDN path that carries the
// substring incidentally.
func RemoveWatermark(raw string) string {
	if strings.Contains(raw, "url_default") {
		return raw
	}

	clean := transformToken.ReplaceAllString(raw, "")
	clean = querySuffix.ReplaceAllString(clean, "")
	clean = strings.Replace(clean, previewCDNHost, fullCDNHost, 1)
	clean = spectrumPath.ReplaceAllString(clean, "/")
	for _, param := range watermarkParams {
		clean = param.ReplaceAllString(clean, "")
	}
	clean = trailingSep.ReplaceAllString(clean, "")

	// Fail open: prefer the original over a rewrite that broke the URL.
	if u, err := url.Parse(clean); err != nil || !u.IsAbs() {
		return raw
	}
	return clean
}
