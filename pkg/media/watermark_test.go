package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoveWatermark(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"transform_token",
			"https://sns-img-qc.xhscdn.com/abc123!nd_dft_wlteh_jpg_3",
			"https://sns-img-qc.xhscdn.com/abc123",
		},
		{
			"query_string_stripped",
			"https://sns-img-qc.xhscdn.com/abc123?imageView2/2/w/1080&watermark=1",
			"https://sns-img-qc.xhscdn.com/abc123",
		},
		{
			"preview_host_swapped",
			"https://sns-webpic-qc.xhscdn.com/202401/abc123",
			"https://sns-img-qc.xhscdn.com/202401/abc123",
		},
		{
			"spectrum_segment_collapsed",
			"https://sns-img-qc.xhscdn.com/spectrum/1040g0k/abc123",
			"https://sns-img-qc.xhscdn.com/abc123",
		},
		{
			"token_and_query_together",
			"https://sns-webpic-qc.xhscdn.com/spectrum/x1/abc!nd_whgt34_webp_wm_1?wm=1",
			"https://sns-img-qc.xhscdn.com/abc",
		},
		{
			"already_clean",
			"https://sns-img-qc.xhscdn.com/abc123",
			"https://sns-img-qc.xhscdn.com/abc123",
		},
		{
			"url_default_short_circuit",
			"https://cdn.example.com/url_default/abc?watermark=1",
			"https://cdn.example.com/url_default/abc?watermark=1",
		},
		{
			"plain_external_url",
			"https://cdn.example.com/photo.jpg",
			"https://cdn.example.com/photo.jpg",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RemoveWatermark(tt.in))
		})
	}
}

func TestRemoveWatermarkFailsOpen(t *testing.T) {
	// Rewriting would leave a relative fragment; the original wins.
	in := "abc!nd_dft_jpg"
	assert.Equal(t, in, RemoveWatermark(in))
}

func TestRemoveWatermarkIdempotent(t *testing.T) {
	inputs := []string{
		"https://sns-webpic-qc.xhscdn.com/spectrum/x1/abc!nd_dft_wlteh_jpg_3?imageView2/2",
		"https://sns-img-qc.xhscdn.com/abc123",
		"https://cdn.example.com/photo.jpg?x-oss-process=image/resize",
	}

	for _, in := range inputs {
		once := RemoveWatermark(in)
		assert.Equal(t, once, RemoveWatermark(once), "input %q", in)
	}
}
