package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsMotionAsset(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn/live_photo/abc.mp4", true},
		{"https://cdn/LivePhoto/abc.mp4", true},
		{"https://cdn/motion_photo/abc", true},
		{"https://cdn/abc.MOV", true},
		{"https://cdn/abc.heic", true},
		{"https://cdn/burst_001.jpg", true},
		{"https://cdn/sequence/abc.jpg", true},
		{"https://cdn/live/abc.jpg", true},
		{"https://cdn/photo.jpg", false},
		{"https://cdn/video.mp4", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, IsMotionAsset(tt.url))
		})
	}
}
