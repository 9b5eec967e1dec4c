package save

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no snapshot exists for a slot.
var ErrNotFound = errors.New("save: slot not found")

// ErrBadSlotName is returned for slot names that cannot become filenames.
var ErrBadSlotName = errors.New("save: invalid slot name")

// Store persists serialized snapshots under slot names.
type Store interface {
	Write(slot string, data []byte) error
	Read(slot string) ([]byte, error)
	List() ([]string, error)
	Delete(slot string) error
}

const fileExt = ".qsave"

// FileStore keeps one file per save slot in a directory. When a non-empty
// key is configured, the file bytes pass through a reversible XOR
// transform on write and read. This is obfuscation against casual
// editing, not encryption; it must never be treated as a security
// boundary.
type FileStore struct {
	dir string
	key []byte
}

// NewFileStore creates the directory if needed. key may be empty for
// plain files.
func NewFileStore(dir string, key []byte) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("save: create dir: %w", err)
	}
	return &FileStore{dir: dir, key: key}, nil
}

// slotPath validates the slot name and returns its file path. Names are
// restricted to a filename-safe alphabet so a slot can never escape the
// save directory.
func (fs *FileStore) slotPath(slot string) (string, error) {
	if slot == "" || len(slot) > 64 {
		return "", ErrBadSlotName
	}
	for _, r := range slot {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return "", ErrBadSlotName
		}
	}
	return filepath.Join(fs.dir, slot+fileExt), nil
}

// Write persists data for slot. The file is written to a temp path and
// renamed so a failed write never leaves a partial file committed.
func (fs *FileStore) Write(slot string, data []byte) error {
	path, err := fs.slotPath(slot)
	if err != nil {
		return err
	}
	out := fs.transform(data)

	tmp, err := os.CreateTemp(fs.dir, slot+".tmp-*")
	if err != nil {
		return fmt.Errorf("save: temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("save: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("save: close: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("save: rename: %w", err)
	}
	return nil
}

// Read returns the stored bytes for slot, or ErrNotFound.
func (fs *FileStore) Read(slot string) ([]byte, error) {
	path, err := fs.slotPath(slot)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("save: read: %w", err)
	}
	return fs.transform(data), nil
}

// List returns the slot names present in the directory.
func (fs *FileStore) List() ([]string, error) {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		return nil, fmt.Errorf("save: list: %w", err)
	}
	var slots []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, fileExt) {
			continue
		}
		slots = append(slots, strings.TrimSuffix(name, fileExt))
	}
	return slots, nil
}

// Delete removes the slot file. Deleting an absent slot is not an error.
func (fs *FileStore) Delete(slot string) error {
	path, err := fs.slotPath(slot)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("save: delete: %w", err)
	}
	return nil
}

// transform applies the symmetric XOR byte transform. Calling it twice
// with the same key yields the original bytes.
func (fs *FileStore) transform(data []byte) []byte {
	if len(fs.key) == 0 {
		return data
	}
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ fs.key[i%len(fs.key)]
	}
	return out
}
