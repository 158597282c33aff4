// Package media turns a located content record into downloadable asset URLs:
// descriptor extraction, watermark normalization and still/motion
// classification. Nothing in here performs I/O.
package media

import (
	"xhscraper/pkg/jsontree"
)

// Kind records where in a media descriptor a URL came from. The keyword
// classifier cannot tell a live-photo pair apart from plain stills when the
// URLs carry no motion token, so provenance is kept alongside the URL.
type Kind int

const (
	KindStill Kind = iota
	KindLiveStill
	KindLiveMotion
	KindStream
)

// Motion reports whether the kind is a motion component by construction.
func (k Kind) Motion() bool {
	return k == KindLiveMotion || k == KindStream
}

// LivePhoto reports whether the kind is either half of a live-photo pair.
func (k Kind) LivePhoto() bool {
	return k == KindLiveStill || k == KindLiveMotion
}

// RawURL is one extracted media URL before normalization.
type RawURL struct {
	URL  string
	Kind Kind
}

// ExtractURLs returns the raw media URLs of a content record, in descriptor
// order.
func ExtractURLs(record jsontree.Tree) []string {
	descriptors := ExtractDescriptors(record)
	urls := make([]string, len(descriptors))
	for i, d := range descriptors {
		urls[i] = d.URL
	}
	return urls
}

// ExtractDescriptors returns the media URLs of a content record with their
// provenance, in descriptor order. The collection fields are probed in fixed
// priority; only the first present collection is read, never a merge across
// field names. A malformed entry contributes nothing and the rest of the
// collection is still processed. Output order matters downstream: it drives
// file naming and cover selection.
func ExtractDescriptors(record jsontree.Tree) []RawURL {
	if list, ok := record.Get("imageList"); ok && list.IsArray() {
		return imageListURLs(list)
	}
	if list, ok := record.Get("images"); ok && list.IsArray() {
		return imagesURLs(list)
	}
	if list, ok := record.Get("image_list"); ok && list.IsArray() {
		return imageListAltURLs(list)
	}
	if blocks, ok := record.Get("contents"); ok && blocks.IsArray() {
		return contentBlockURLs(blocks)
	}
	return nil
}

// imageListURLs handles the primary collection shape. Per entry: at most one
// still image picked by preference order (url_default ranks first because it
// is the field most likely to be watermark-free), then the live-photo pair,
// then any encoded video streams.
func imageListURLs(list jsontree.Tree) []RawURL {
	var urls []RawURL
	entries, _ := list.Array()
	for _, entry := range entries {
		if u, ok := entry.FirstString("url_default", "url_pre", "url"); ok {
			urls = append(urls, RawURL{URL: u, Kind: KindStill})
		} else if u, ok := nestedURL(entry, "large"); ok {
			urls = append(urls, RawURL{URL: u, Kind: KindStill})
		} else if u, ok := nestedURL(entry, "middle"); ok {
			urls = append(urls, RawURL{URL: u, Kind: KindStill})
		} else if u, ok := entry.FirstString("origin_url", "original_url"); ok {
			urls = append(urls, RawURL{URL: u, Kind: KindStill})
		}

		// A live-photo pair is emitted regardless of whether a still was
		// already picked for this entry.
		urls = append(urls, livePhotoURLs(entry)...)
		urls = append(urls, streamURLs(entry)...)
	}
	return urls
}

// imagesURLs handles the older images collection, which ranks the tiered
// large object above the origin fields.
func imagesURLs(list jsontree.Tree) []RawURL {
	var urls []RawURL
	entries, _ := list.Array()
	for _, entry := range entries {
		if u, ok := nestedURL(entry, "large"); ok {
			urls = append(urls, RawURL{URL: u, Kind: KindStill})
		} else if u, ok := entry.FirstString("origin_url", "original_url", "url"); ok {
			urls = append(urls, RawURL{URL: u, Kind: KindStill})
		} else if u, ok := nestedURL(entry, "middle"); ok {
			urls = append(urls, RawURL{URL: u, Kind: KindStill})
		}

		urls = append(urls, livePhotoURLs(entry)...)
	}
	return urls
}

// imageListAltURLs handles the snake_case image_list variant.
func imageListAltURLs(list jsontree.Tree) []RawURL {
	var urls []RawURL
	entries, _ := list.Array()
	for _, entry := range entries {
		if u, ok := nestedURL(entry, "large"); ok {
			urls = append(urls, RawURL{URL: u, Kind: KindStill})
		} else if u := entry.StringField("url"); u != "" {
			urls = append(urls, RawURL{URL: u, Kind: KindStill})
		} else if u, ok := nestedURL(entry, "middle"); ok {
			urls = append(urls, RawURL{URL: u, Kind: KindStill})
		} else if u, ok := nestedURL(entry, "small"); ok {
			urls = append(urls, RawURL{URL: u, Kind: KindStill})
		} else if u := entry.StringField("origin_url"); u != "" {
			urls = append(urls, RawURL{URL: u, Kind: KindStill})
		}
	}
	return urls
}

// contentBlockURLs handles the content-blocks variant, one URL per image
// block and a static+motion pair per live-photo block.
func contentBlockURLs(blocks jsontree.Tree) []RawURL {
	var urls []RawURL
	entries, _ := blocks.Array()
	for _, block := range entries {
		payload, ok := block.Get("data")
		if !ok {
			continue
		}
		switch block.StringField("type") {
		case "image":
			if u := payload.StringField("url"); u != "" {
				urls = append(urls, RawURL{URL: u, Kind: KindStill})
			}
		case "live_photo":
			if u := payload.StringField("image_url"); u != "" {
				urls = append(urls, RawURL{URL: u, Kind: KindLiveStill})
			}
			if u := payload.StringField("video_url"); u != "" {
				urls = append(urls, RawURL{URL: u, Kind: KindLiveMotion})
			}
		}
	}
	return urls
}

// livePhotoURLs emits the static-image and motion-video URLs of an entry's
// live-photo payload, in that order.
func livePhotoURLs(entry jsontree.Tree) []RawURL {
	live, ok := entry.Get("live_photo")
	if !ok {
		return nil
	}
	var urls []RawURL
	if u := live.StringField("image_url"); u != "" {
		urls = append(urls, RawURL{URL: u, Kind: KindLiveStill})
	}
	if u := live.StringField("video_url"); u != "" {
		urls = append(urls, RawURL{URL: u, Kind: KindLiveMotion})
	}
	return urls
}

// streamURLs emits one URL per encoded video stream variant, h264 entries
// before h265, keeping each codec list's own order.
func streamURLs(entry jsontree.Tree) []RawURL {
	stream, ok := entry.Get("stream")
	if !ok {
		return nil
	}
	var urls []RawURL
	for _, codec := range []string{"h264", "h265"} {
		variants, ok := stream.Get(codec)
		if !ok {
			continue
		}
		entries, ok := variants.Array()
		if !ok {
			continue
		}
		for _, v := range entries {
			if u, ok := v.FirstString("master_url", "masterUrl"); ok {
				urls = append(urls, RawURL{URL: u, Kind: KindStream})
			}
		}
	}
	return urls
}

// nestedURL reads the url field of a tiered sub-object like large or middle.
func nestedURL(entry jsontree.Tree, key string) (string, bool) {
	sub, ok := entry.Get(key)
	if !ok {
		return "", false
	}
	if u := sub.StringField("url"); u != "" {
		return u, true
	}
	return "", false
}

// videoFields is the ordered probe list for a playable URL on a video note's
// video object.
var videoFields = []string{
	"url", "h264_url", "h265_url", "m3u8_url", "play_addr_url", "play_url",
	"video_url", "video_src", "src", "original_url", "full_url",
	"download_url", "hls_url", "stream_url", "main_url",
}

// VideoURL returns the playable media URL of a video note, probing the
// record's video object field by field and finally the first entry of its
// play and quality lists.
func VideoURL(record jsontree.Tree) (string, bool) {
	video, ok := record.Get("video")
	if !ok {
		return "", false
	}
	if u, ok := video.FirstString(videoFields...); ok {
		return u, true
	}
	for _, listKey := range []string{"play_list", "quality_list"} {
		list, ok := video.Get(listKey)
		if !ok {
			continue
		}
		first, ok := list.Index(0)
		if !ok {
			continue
		}
		if u := first.StringField("url"); u != "" {
			return u, true
		}
	}
	return "", false
}

// CoverURL returns the record's own cover image when it declares one.
func CoverURL(record jsontree.Tree) (string, bool) {
	if cover, ok := record.Get("cover"); ok {
		if u := cover.StringField("url"); u != "" {
			return u, true
		}
		for _, tier := range []string{"large", "middle", "small"} {
			if u, ok := nestedURL(cover, tier); ok {
				return u, true
			}
		}
		if u := cover.StringField("origin_url"); u != "" {
			return u, true
		}
	}
	if u := record.StringField("cover_url"); u != "" {
		return u, true
	}
	return "", false
}
