package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xhscraper/pkg/jsontree"
)

func TestStateInitialState(t *testing.T) {
	html := `<html><head></head><body>
<script>window.__INITIAL_STATE__ = {"note":{"title":"sunset"},"user":{"id":"u1"}};</script>
</body></html>`

	tree, ok := State(html)
	require.True(t, ok)
	assert.Equal(t, "sunset", mustPathString(t, tree, "note", "title"))
	assert.Equal(t, "u1", mustPathString(t, tree, "user", "id"))
}

func mustPathString(t *testing.T, tree jsontree.Tree, keys ...string) string {
	t.Helper()
	node, ok := tree.Path(keys...)
	require.True(t, ok, "path %v not found", keys)
	s, ok := node.Str()
	require.True(t, ok, "path %v is not a string", keys)
	return s
}

func TestStateAlternativePatterns(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"initial_data", `<script>window.__INITIAL_DATA__ = {"note":{"title":"a"}};</script>`},
		{"bare_initial_state", `<script>__INITIAL_STATE__ = {"note":{"title":"a"}};</script>`},
		{"note_data", `<script>window.__NOTE_DATA__ = {"note":{"title":"a"}};</script>`},
		{"dollar_store", `<script>window.$STORE = {"note":{"title":"a"}};</script>`},
		{"redux_state", `<script>window.$REDUX_STATE = {"note":{"title":"a"}};</script>`},
		{"window_data", `<script>window.__data__ = {"note":{"title":"a"}};</script>`},
		{"no_semicolon", `<script>window.__INITIAL_STATE__ = {"note":{"title":"a"}}</script>`},
		{"end_of_input", `window.__INITIAL_STATE__ = {"note":{"title":"a"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, ok := State(tt.html)
			require.True(t, ok)
			assert.Equal(t, "a", mustPathString(t, tree, "note", "title"))
		})
	}
}

func TestStateRepairsLooseJSON(t *testing.T) {
	html := `<script>window.__INITIAL_STATE__ = {"note":{"title":"a","tags":undefined,"ids":[1,2,],},};</script>`

	tree, ok := State(html)
	require.True(t, ok)
	assert.Equal(t, "a", mustPathString(t, tree, "note", "title"))

	note, ok := tree.Get("note")
	require.True(t, ok)
	assert.False(t, note.Has("tags"))

	ids, ok := note.Get("ids")
	require.True(t, ok)
	elems, ok := ids.Array()
	require.True(t, ok)
	assert.Len(t, elems, 2)
}

func TestStateLooseFragmentFallback(t *testing.T) {
	// No recognized assignment, but a script carries a note-shaped fragment.
	html := `<html><body>
<script>var cache = {"note":{"title":"fragment"}};</script>
</body></html>`

	tree, ok := State(html)
	require.True(t, ok)
	assert.Equal(t, "fragment", mustPathString(t, tree, "note", "title"))
}

func TestStateNoneFound(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"empty", ""},
		{"plain_page", `<html><body><p>nothing embedded here</p></body></html>`},
		{"unparseable_blob", `<script>window.__INITIAL_STATE__ = {"note": {broken</script>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := State(tt.html)
			assert.False(t, ok)
		})
	}
}

func TestRepairJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trailing_semicolon", `{"a":1};`, `{"a":1}`},
		{"undefined_value", `{"a":undefined,"b":2}`, `{"a": null,"b":2}`},
		{"undefined_last", `{"a":undefined}`, `{"a": null}`},
		{"trailing_comma_object", `{"a":1,}`, `{"a":1}`},
		{"trailing_comma_array", `[1,2,]`, `[1,2]`},
		{"clean_passthrough", `{"a":1}`, `{"a":1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repairJSON(tt.in))
		})
	}
}
