package extract

import (
	"sort"

	"xhscraper/pkg/jsontree"
)

// mediaCollectionKeys are the field names a content record may hold its
// media descriptors under.
var mediaCollectionKeys = []string{"imageList", "images", "image_list"}

// rule probes one observed state shape for the content record. Rules are
// pure; a rule that finds nothing reports false and the next one runs.
type rule func(jsontree.Tree) (jsontree.Tree, bool)

// locateRules is priority-ordered by observed real-world frequency, newest
// and most common shape first.
var locateRules = []rule{
	noteDetailMapRule,
	firstOf("notes"),
	pathRule("note"),
	pathRule("data", "note"),
	pathRule("state", "note"),
	firstOfPath([]string{"data", "contents"}, nil),
	pathRule("props", "pageProps", "note"),
	pathRule("__NEXT_DATA__", "props", "pageProps", "note"),
	pathRule("data", "noteDetail"),
	pathRule("detail", "note"),
	pathRule("fe_data", "note"),
	pathRule("data", "detail", "note"),
	pathRule("state", "detail", "note"),
	pathRule("__data__", "note"),
	pathRule("note_data"),
	firstOfPath([]string{"data", "contents"}, []string{"content"}),
	pathRule("data", "content"),
	pathRule("content"),
	pathRule("noteDetail", "note"),
	pathRule("fe_page", "note"),
	pathRule("pageData", "note"),
	pathRule("entryData", "note", "noteData"),
	pathRule("initialData", "note"),
	firstOfPath([]string{"feed", "items"}, []string{"note"}),
	pathRule("contentData", "note"),
}

// fallbackTopKeys is scanned when every rule comes up empty.
var fallbackTopKeys = []string{"noteData", "note_data", "data", "content", "detail"}

// Locate finds the single content record inside an arbitrary state tree.
// A candidate is accepted only when it is a non-null object exposing a title
// or one of the known media-collection fields, which keeps an unrelated but
// reachable object from being mistaken for the post.
func Locate(tree jsontree.Tree) (jsontree.Tree, bool) {
	for _, r := range locateRules {
		candidate, ok := r(tree)
		if ok && accepted(candidate) {
			return candidate, true
		}
	}

	// Last resort: any plausible top-level key holding an object, with one
	// more unwrap if that object turns out to be a notes-by-id map itself.
	for _, key := range fallbackTopKeys {
		candidate, ok := tree.Get(key)
		if !ok || !candidate.IsObject() {
			continue
		}
		if detail, ok := firstDetailMapEntry(candidate); ok {
			return detail, true
		}
		return candidate, true
	}

	return jsontree.Tree{}, false
}

// accepted guards rule output: a content record must look like a post.
func accepted(candidate jsontree.Tree) bool {
	if !candidate.IsObject() {
		return false
	}
	if candidate.Has("title") {
		return true
	}
	for _, key := range mediaCollectionKeys {
		if candidate.Has(key) {
			return true
		}
	}
	return false
}

// noteDetailMapRule handles the platform's current primary shape: a
// notes-by-id map under the top-level note namespace. The map's entry order
// is lost in decoding, so the lexically first id is taken as the single
// highest-priority entry.
func noteDetailMapRule(tree jsontree.Tree) (jsontree.Tree, bool) {
	container, ok := tree.Get("note")
	if !ok {
		return jsontree.Tree{}, false
	}
	return firstDetailMapEntry(container)
}

// firstDetailMapEntry unwraps a {noteDetailMap: {id: {note: ...}}} container,
// returning the entry's nested note object, or the entry itself when no
// further nesting exists.
func firstDetailMapEntry(container jsontree.Tree) (jsontree.Tree, bool) {
	detailMap, ok := container.Get("noteDetailMap")
	if !ok {
		return jsontree.Tree{}, false
	}
	ids := detailMap.Keys()
	if len(ids) == 0 {
		return jsontree.Tree{}, false
	}
	sort.Strings(ids)
	entry, ok := detailMap.Get(ids[0])
	if !ok {
		return jsontree.Tree{}, false
	}
	if note, ok := entry.Get("note"); ok {
		return note, true
	}
	return entry, true
}

// pathRule probes a fixed chain of object fields.
func pathRule(keys ...string) rule {
	return func(tree jsontree.Tree) (jsontree.Tree, bool) {
		return tree.Path(keys...)
	}
}

// firstOf probes a top-level array field and takes its first element.
func firstOf(key string) rule {
	return firstOfPath([]string{key}, nil)
}

// firstOfPath probes an array at the given path, takes its first element and
// optionally descends one more field chain inside it.
func firstOfPath(arrayPath, elemPath []string) rule {
	return func(tree jsontree.Tree) (jsontree.Tree, bool) {
		arr, ok := tree.Path(arrayPath...)
		if !ok {
			return jsontree.Tree{}, false
		}
		first, ok := arr.Index(0)
		if !ok {
			return jsontree.Tree{}, false
		}
		if len(elemPath) == 0 {
			return first, true
		}
		return first.Path(elemPath...)
	}
}
