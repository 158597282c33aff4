package media

import "strings"

// motionIndicators is the keyword vocabulary for spotting the motion half of
// a live photo. A substring heuristic: any URL that happens to carry one of
// these tokens (a filename containing "burst", say) will be misclassified,
// and the platform exposes no ground-truth signal to do better with.
var motionIndicators = []string{
	"live_photo",
	"livephoto",
	"live_image",
	"motion_photo",
	"burst",
	"sequence",
	".heic",
	".mov",
	"live",
}

// IsMotionAsset reports whether a URL looks like a live-photo or motion
// component rather than a plain still image.
func IsMotionAsset(url string) bool {
	lower := strings.ToLower(url)
	for _, indicator := range motionIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
