// Package storage owns the destination directory of a single run: stream-to-
// file writes, deterministic asset naming and manifest persistence.
package storage

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Manager handles file storage for one run's destination directory
type Manager struct {
	destDir string
}

// NewManager creates a storage manager, creating the destination directory
// and any missing parents. Idempotent.
func NewManager(destDir string) (*Manager, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	return &Manager{destDir: destDir}, nil
}

// Dir returns the destination directory path
func (m *Manager) Dir() string {
	return m.destDir
}

// SaveStream writes a byte stream to the named file inside the destination
// directory and returns the full path. The write goes through a temp file
// and an atomic rename so a failed download never leaves a partial file
// under the final name.
func (m *Manager) SaveStream(r io.Reader, filename string) (string, error) {
	path := filepath.Join(m.destDir, filename)

	tempFile := path + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, r)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to write asset data: %w", err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return "", fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return path, nil
}

// AssetFilename builds the deterministic name for one downloaded asset:
// prefix, run timestamp, 1-based zero-padded sequence, extension by asset
// class. The run timestamp keeps concurrent runs from colliding on the same
// destination.
func AssetFilename(prefix string, runTimestamp int64, seq int, motion bool) string {
	ext := "jpg"
	if motion {
		ext = "mov"
	}
	return fmt.Sprintf("%s_%d_%03d.%s", prefix, runTimestamp, seq, ext)
}

// WriteManifest persists the run manifest as manifest.json in the
// destination directory.
func (m *Manager) WriteManifest(manifest interface{}) error {
	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	path := filepath.Join(m.destDir, "manifest.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}

	return nil
}

// SanitizeTitle makes a post title safe to use as a directory or file name
// component. ASCII word characters and CJK ideographs are kept, everything
// else becomes an underscore, capped at 100 runes.
func SanitizeTitle(title string) string {
	out := make([]rune, 0, len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			out = append(out, r)
		case r == '_' || r == '.' || r == '-':
			out = append(out, r)
		case r >= 0x4e00 && r <= 0x9fa5:
			out = append(out, r)
		default:
			out = append(out, '_')
		}
		if len(out) >= 100 {
			break
		}
	}
	return string(out)
}
