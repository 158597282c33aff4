package xhs

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Referer sent with every request; the CDN rejects asset fetches without it.
const Referer = "https://www.xiaohongshu.com/"

// userAgents are mobile browser identities rotated per request.
var userAgents = []string{
	"Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (iPad; CPU OS 15_5 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.5 Mobile/15E148 Safari/604.1",
	"Mozilla/5.0 (Android 12; Mobile; rv:109.0) Gecko/113.0 Firefox/113.0",
	"Mozilla/5.0 (Android 13; Mobile; rv:126.0) Gecko/126.0 Firefox/126.0",
	"Mozilla/5.0 (Linux; Android 14; SM-G991B) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.6422.165 Mobile Safari/537.36",
}

// Identity generates per-request browser identities: user agent, device id,
// timestamp and request signature. One Identity is shared by every download
// worker of a client, so access to the random source is serialized; the
// source itself is injectable so tests can be deterministic.
type Identity struct {
	mu     sync.Mutex
	rnd    *rand.Rand
	pinned string
	now    func() time.Time
}

// NewIdentity creates an Identity from the given source, or a time-seeded
// one when src is nil.
func NewIdentity(src rand.Source) *Identity {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Identity{
		rnd: rand.New(src),
		now: time.Now,
	}
}

// PinUserAgent disables rotation and makes UserAgent return ua on every call.
// An empty ua restores rotation.
func (id *Identity) PinUserAgent(ua string) {
	id.mu.Lock()
	defer id.mu.Unlock()
	id.pinned = ua
}

// UserAgent returns the pinned browser identity when one is configured, or a
// random pick from the pool.
func (id *Identity) UserAgent() string {
	id.mu.Lock()
	defer id.mu.Unlock()
	if id.pinned != "" {
		return id.pinned
	}
	return userAgents[id.rnd.Intn(len(userAgents))]
}

// DeviceID generates a fresh v4 device identifier.
func (id *Identity) DeviceID() string {
	id.mu.Lock()
	defer id.mu.Unlock()
	u, err := uuid.NewRandomFromReader(id.rnd)
	if err != nil {
		return uuid.Nil.String()
	}
	return u.String()
}

// Timestamp returns the current unix time in seconds, as the platform's
// x-t header carries it.
func (id *Identity) Timestamp() string {
	return fmt.Sprintf("%d", id.now().Unix())
}

// sign computes the md5 request signature over the request path, its sorted
// parameters, and the device/session tuple.
func sign(path string, params map[string]string, cookie, deviceID, timestamp string) string {
	var sb strings.Builder
	sb.WriteString(path)
	sb.WriteString("?")

	if len(params) > 0 {
		keys := make([]string, 0, len(params))
		for k := range params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, len(keys))
		for i, k := range keys {
			pairs[i] = k + "=" + params[k]
		}
		sb.WriteString(strings.Join(pairs, "&"))
	}

	sb.WriteString("_" + timestamp + "_" + deviceID + "_" + cookie)

	sum := md5.Sum([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}

// PageHeaders builds the browser-like header set for fetching a post page.
func (id *Identity) PageHeaders(cookie string) map[string]string {
	deviceID := id.DeviceID()
	timestamp := id.Timestamp()

	headers := map[string]string{
		"User-Agent":                id.UserAgent(),
		"Referer":                   Referer,
		"Accept":                    "application/json, text/plain, */*",
		"Accept-Language":           "zh-CN,zh;q=0.9,en;q=0.8",
		"Accept-Encoding":           "gzip, deflate, br",
		"Connection":                "keep-alive",
		"x-t":                       timestamp,
		"x-s":                       sign("/explore", nil, cookie, deviceID, timestamp),
		"x-device-id":               deviceID,
		"x-requested-with":          "XMLHttpRequest",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Upgrade-Insecure-Requests": "1",
	}
	if cookie != "" {
		headers["Cookie"] = cookie
	}
	return headers
}

// AssetHeaders builds the header set for fetching a media asset from the CDN.
func (id *Identity) AssetHeaders() map[string]string {
	return map[string]string{
		"User-Agent":      id.UserAgent(),
		"Referer":         Referer,
		"Accept":          "image/webp,image/apng,image/svg+xml,image/*,video/*,*/*;q=0.8",
		"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
		"Connection":      "keep-alive",
	}
}
