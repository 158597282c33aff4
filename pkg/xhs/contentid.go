package xhs

import (
	"fmt"
	"regexp"
	"time"
)

// contentIDPattern matches the hex note id in explore/ and note/ post paths.
var contentIDPattern = regexp.MustCompile(`(?:explore|note)/([0-9a-fA-F]{20,})`)

// ExtractContentID pulls the note id out of a post URL. When the URL carries
// no recognizable id (shortened share links, mainly) a synthesized id is
// returned so downstream file naming still works.
func ExtractContentID(rawURL string) string {
	if m := contentIDPattern.FindStringSubmatch(rawURL); m != nil {
		return m[1]
	}
	return fmt.Sprintf("xiaohongshu_%d", time.Now().UnixMilli())
}
