// Package extract locates the embedded JSON state blob inside a post page's
// HTML and finds the content record inside it. The platform ships its data in
// a script-tag assignment whose variable name and JSON shape drift across
// releases and A/B variants, so both steps run ordered pattern lists and
// report plain not-found instead of failing.
package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"xhscraper/pkg/jsontree"
)

// statePatterns are the global-variable embeddings observed across platform
// releases, newest first. Each captures a brace-delimited object terminated
// by a statement boundary or the end of the script.
var statePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)window\.__INITIAL_STATE__\s*=\s*(\{.*?\});?\s*(?:</script>|\z)`),
	regexp.MustCompile(`(?s)window\.__INITIAL_DATA__\s*=\s*(\{.*?\});?\s*(?:</script>|\z)`),
	regexp.MustCompile(`(?s)window\.INITIAL_STATE\s*=\s*(\{.*?\});?\s*(?:</script>|\z)`),
	regexp.MustCompile(`(?s)__INITIAL_STATE__\s*=\s*(\{.*?\});?\s*(?:</script>|\z)`),
	regexp.MustCompile(`(?s)window\.__NOTE_DATA__\s*=\s*(\{.*?\});?\s*(?:</script>|\z)`),
	regexp.MustCompile(`(?s)window\.\$NOTE_DATA\s*=\s*(\{.*?\});?\s*(?:</script>|\z)`),
	regexp.MustCompile(`(?s)window\.__PAGE_DATA__\s*=\s*(\{.*?\});?\s*(?:</script>|\z)`),
	regexp.MustCompile(`(?s)__NOTE_DATA__\s*=\s*(\{.*?\});?\s*(?:</script>|\z)`),
	regexp.MustCompile(`(?s)window\.\$REDUX_STATE\s*=\s*(\{.*?\});?\s*(?:</script>|\z)`),
	regexp.MustCompile(`(?s)window\.\$STORE\s*=\s*(\{.*?\});?\s*(?:</script>|\z)`),
	regexp.MustCompile(`(?s)window\.store\s*=\s*(\{.*?\});?\s*(?:</script>|\z)`),
	regexp.MustCompile(`(?s)window\.__data__\s*=\s*(\{.*?\});?\s*(?:</script>|\z)`),
}

// fragmentPatterns match loose brace fragments around marker keys when no
// recognized assignment is present.
var fragmentPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)\{[^{}]*"note"[^{}]*\{.*?\}[^{}]*\}`),
	regexp.MustCompile(`(?s)\{[^{}]*"imageList"[^{}]*\[.*?\][^{}]*\}`),
	regexp.MustCompile(`(?s)\{[^{}]*"title"[^{}]*"[^"]*".*?\}`),
}

var (
	undefinedValue = regexp.MustCompile(`:\s*undefined\s*([,}\]])`)
	trailingComma  = regexp.MustCompile(`,\s*([}\]])`)
)

// State extracts the embedded JSON state blob from raw HTML. The second
// return value is false when every pattern and every fallback fragment fails
// to yield a parseable object; that means "no content on this page", not an
// error.
func State(html string) (jsontree.Tree, bool) {
	for _, pattern := range statePatterns {
		m := pattern.FindStringSubmatch(html)
		if m == nil {
			continue
		}
		// First structurally valid parse wins, even if its keys look
		// sparse. Later patterns are not tried.
		if tree, err := jsontree.Parse([]byte(repairJSON(m[1]))); err == nil {
			return tree, true
		}
	}

	return looseScan(html)
}

// repairJSON applies the tolerant fixes needed for the platform's template
// serializer output: a trailing statement terminator, literal undefined used
// as a value, and trailing commas before a closing brace or bracket.
func repairJSON(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(s, ";")
	s = undefinedValue.ReplaceAllString(s, ": null$1")
	s = trailingComma.ReplaceAllString(s, "$1")
	return s
}

// looseScan searches script bodies for brace fragments containing one of the
// marker keys and returns the first fragment that parses as an object.
func looseScan(html string) (jsontree.Tree, bool) {
	for _, text := range scriptBodies(html) {
		for _, pattern := range fragmentPatterns {
			for _, candidate := range pattern.FindAllString(text, -1) {
				tree, err := jsontree.Parse([]byte(repairJSON(candidate)))
				if err != nil || !tree.IsObject() {
					continue
				}
				return tree, true
			}
		}
	}
	return jsontree.Tree{}, false
}

// scriptBodies returns the text of each script tag, falling back to the
// whole input when it is not parseable as HTML (a bare blob pasted into the
// pipeline, for instance).
func scriptBodies(html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return []string{html}
	}

	var bodies []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if text := s.Text(); strings.Contains(text, "{") {
			bodies = append(bodies, text)
		}
	})
	if len(bodies) == 0 {
		return []string{html}
	}
	return bodies
}
