// Package jsontree provides an untyped JSON document model with safe
// optional-path accessors. The embedded state blobs this tool consumes have
// no stable schema, so every lookup returns an explicit "found" flag instead
// of panicking on a missing key or a type mismatch.
package jsontree

import "encoding/json"

// Tree is one node of an untyped JSON document. The zero value behaves like
// JSON null: every lookup on it reports not-found.
type Tree struct {
	val interface{}
}

// Parse decodes raw JSON into a Tree.
func Parse(data []byte) (Tree, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return Tree{}, err
	}
	return Tree{val: v}, nil
}

// New wraps an already-decoded JSON value (as produced by encoding/json into
// an interface{}).
func New(v interface{}) Tree {
	return Tree{val: v}
}

// Value returns the underlying decoded value.
func (t Tree) Value() interface{} {
	return t.val
}

// IsNull reports whether the node is JSON null (or the zero Tree).
func (t Tree) IsNull() bool {
	return t.val == nil
}

// IsObject reports whether the node is a JSON object.
func (t Tree) IsObject() bool {
	_, ok := t.val.(map[string]interface{})
	return ok
}

// IsArray reports whether the node is a JSON array.
func (t Tree) IsArray() bool {
	_, ok := t.val.([]interface{})
	return ok
}

// Get returns the named field of an object node.
func (t Tree) Get(key string) (Tree, bool) {
	obj, ok := t.val.(map[string]interface{})
	if !ok {
		return Tree{}, false
	}
	v, ok := obj[key]
	if !ok || v == nil {
		return Tree{}, false
	}
	return Tree{val: v}, true
}

// Has reports whether an object node carries the named field with a non-null
// value.
func (t Tree) Has(key string) bool {
	_, ok := t.Get(key)
	return ok
}

// Path walks a chain of object fields, failing fast on the first missing or
// non-object step.
func (t Tree) Path(keys ...string) (Tree, bool) {
	cur := t
	for _, key := range keys {
		next, ok := cur.Get(key)
		if !ok {
			return Tree{}, false
		}
		cur = next
	}
	return cur, true
}

// Index returns element i of an array node.
func (t Tree) Index(i int) (Tree, bool) {
	arr, ok := t.val.([]interface{})
	if !ok || i < 0 || i >= len(arr) {
		return Tree{}, false
	}
	if arr[i] == nil {
		return Tree{}, false
	}
	return Tree{val: arr[i]}, true
}

// Array returns the elements of an array node.
func (t Tree) Array() ([]Tree, bool) {
	arr, ok := t.val.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]Tree, len(arr))
	for i, v := range arr {
		out[i] = Tree{val: v}
	}
	return out, true
}

// Keys returns the field names of an object node. Map iteration order is not
// stable, so the caller sorts if it cares.
func (t Tree) Keys() []string {
	obj, ok := t.val.(map[string]interface{})
	if !ok {
		return nil
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	return keys
}

// Str returns the node as a string.
func (t Tree) Str() (string, bool) {
	s, ok := t.val.(string)
	return s, ok
}

// StringField returns the named field as a string, or "" when absent or not
// a string.
func (t Tree) StringField(key string) string {
	v, ok := t.Get(key)
	if !ok {
		return ""
	}
	s, _ := v.Str()
	return s
}

// FirstString probes the given field names in order and returns the first
// non-empty string value found.
func (t Tree) FirstString(keys ...string) (string, bool) {
	for _, key := range keys {
		if s := t.StringField(key); s != "" {
			return s, true
		}
	}
	return "", false
}
