package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/awano27/daily-ai-news/internal/logger"
)

// ErrCacheCorrupt is returned by Load when the file exists but cannot be decoded.
// The store is still usable and starts empty.
var ErrCacheCorrupt = errors.New("translation cache corrupt")

// TranslationStore is a flat JSON file mapping a content key to a translation.
// Entries are append-only: Put never replaces an existing key.
type TranslationStore struct {
	filePath string
	items    map[string]string
	added    int
	mu       sync.RWMutex

	writeFile func(name string, data []byte, perm os.FileMode) error
}

// NewTranslationStore creates a store backed by filePath. Call Load before use.
func NewTranslationStore(filePath string) *TranslationStore {
	return &TranslationStore{
		filePath:  filePath,
		items:     make(map[string]string),
		writeFile: os.WriteFile,
	}
}

// Load reads the cache file. A missing or empty file is not an error.
// When the file is missing, empty or corrupt but a backup from an
// interrupted Flush is present, the backup is loaded and moved back in place.
func (ts *TranslationStore) Load() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	items, err := readCacheFile(ts.filePath)
	if err != nil && !errors.Is(err, ErrCacheCorrupt) {
		return err
	}
	if items == nil {
		if restored, ok := ts.restoreBackup(); ok {
			ts.items = restored
			return nil
		}
	}
	if err != nil {
		ts.items = make(map[string]string)
		return err
	}
	if items != nil {
		ts.items = items
	}
	return nil
}

// readCacheFile returns nil items and no error for a missing or empty file.
func readCacheFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var items map[string]string
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCacheCorrupt, path, err)
	}
	if items == nil {
		items = make(map[string]string)
	}
	return items, nil
}

func (ts *TranslationStore) backupPath() string {
	return ts.filePath + ".bak"
}

func (ts *TranslationStore) restoreBackup() (map[string]string, bool) {
	backup := ts.backupPath()
	items, err := readCacheFile(backup)
	if err != nil || items == nil {
		return nil, false
	}
	if err := os.Rename(backup, ts.filePath); err != nil {
		logger.Warn("cache backup loaded but could not be restored", "path", backup, "err", err)
	} else {
		logger.Warn("translation cache restored from backup", "path", backup, "entries", len(items))
	}
	return items, true
}

func (ts *TranslationStore) Get(key string) (string, bool) {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	v, ok := ts.items[key]
	return v, ok
}

// Put stores value under key unless the key is already present.
// It reports whether the entry was added.
func (ts *TranslationStore) Put(key, value string) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if _, exists := ts.items[key]; exists {
		return false
	}
	ts.items[key] = value
	ts.added++
	return true
}

func (ts *TranslationStore) Len() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return len(ts.items)
}

// Added is the number of entries put since Load.
func (ts *TranslationStore) Added() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.added
}

// Flush persists the store. The previous file is moved aside first and only
// removed once the new file has been read back with the same entry count;
// on any failure the previous file is put back.
func (ts *TranslationStore) Flush() error {
	ts.mu.RLock()
	data, err := json.MarshalIndent(ts.items, "", "  ")
	want := len(ts.items)
	ts.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if dir := filepath.Dir(ts.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create cache dir: %w", err)
		}
	}

	backup := ts.backupPath()
	hasBackup := false
	if current, err := readCacheFile(ts.filePath); err == nil && current != nil {
		if err := os.Rename(ts.filePath, backup); err != nil {
			return fmt.Errorf("failed to back up cache file: %w", err)
		}
		hasBackup = true
	} else if old, err := readCacheFile(backup); err == nil && old != nil {
		// An unreadable current file never replaces a valid backup.
		hasBackup = true
	}

	if err := ts.writeAndVerify(data, want); err != nil {
		if hasBackup {
			if rerr := os.Rename(backup, ts.filePath); rerr != nil {
				return errors.Join(err, fmt.Errorf("failed to restore cache backup: %w", rerr))
			}
		}
		return err
	}

	if hasBackup {
		if err := os.Remove(backup); err != nil {
			return fmt.Errorf("failed to remove cache backup: %w", err)
		}
	}
	return nil
}

func (ts *TranslationStore) writeAndVerify(data []byte, want int) error {
	if err := ts.writeFile(ts.filePath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	written, err := os.ReadFile(ts.filePath)
	if err != nil {
		return fmt.Errorf("failed to re-read cache file: %w", err)
	}
	var check map[string]string
	if err := json.Unmarshal(written, &check); err != nil {
		return fmt.Errorf("cache verification failed: %w", err)
	}
	if len(check) != want {
		return fmt.Errorf("cache verification failed: wrote %d entries, read back %d", want, len(check))
	}
	return nil
}
