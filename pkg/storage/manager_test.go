package storage

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerCreatesNestedDirs(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "a", "b", "c")

	m, err := NewManager(dest)
	require.NoError(t, err)
	assert.Equal(t, dest, m.Dir())
	assert.DirExists(t, dest)

	// Idempotent on an existing directory
	_, err = NewManager(dest)
	assert.NoError(t, err)
}

func TestSaveStream(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	path, err := m.SaveStream(strings.NewReader("image bytes"), "post_001.jpg")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(m.Dir(), "post_001.jpg"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "image bytes", string(data))

	// No temp file left behind
	assert.NoFileExists(t, path+".tmp")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("stream broke")
}

func TestSaveStreamFailureLeavesNoPartialFile(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, err = m.SaveStream(io.MultiReader(strings.NewReader("partial"), failingReader{}), "post_001.jpg")
	require.Error(t, err)

	assert.NoFileExists(t, filepath.Join(m.Dir(), "post_001.jpg"))
	assert.NoFileExists(t, filepath.Join(m.Dir(), "post_001.jpg.tmp"))
}

func TestAssetFilename(t *testing.T) {
	assert.Equal(t, "sunset_1700000000_001.jpg", AssetFilename("sunset", 1700000000, 1, false))
	assert.Equal(t, "sunset_1700000000_002.mov", AssetFilename("sunset", 1700000000, 2, true))
	assert.Equal(t, "x_1_042.jpg", AssetFilename("x", 1, 42, false))
}

func TestWriteManifest(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, m.WriteManifest(map[string]interface{}{
		"succeeded_count": 2,
		"total_count":     3,
	}))

	data, err := os.ReadFile(filepath.Join(m.Dir(), "manifest.json"))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(2), decoded["succeeded_count"])
	assert.Equal(t, float64(3), decoded["total_count"])
}

func TestSanitizeTitle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ascii_kept", "Sunset_photos-2024.final", "Sunset_photos-2024.final"},
		{"cjk_kept", "日落美景", "日落美景"},
		{"punctuation_replaced", "hello world!?", "hello_world__"},
		{"emoji_replaced", "trip🌅pics", "trip_pics"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeTitle(tt.in))
		})
	}
}

func TestSanitizeTitleCapsLength(t *testing.T) {
	long := strings.Repeat("a", 250)
	got := SanitizeTitle(long)
	assert.Len(t, []rune(got), 100)
}
