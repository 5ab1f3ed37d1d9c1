package vault

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"ether-vault/go-keystore/pkg/keystore"
)

// File names follow the conventional keystore layout so records sort by
// creation time: UTC--<timestamp>--<id>.json.
const fileTimestampLayout = "2006-01-02T15-04-05.000000000Z"

type FileStore struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}
	return &FileStore{dir: dir, now: time.Now}, nil
}

func (s *FileStore) Save(ks *keystore.Keystore) (Entry, error) {
	payload, err := json.Marshal(ks)
	if err != nil {
		return Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.findLocked(ks.ID); err == nil {
		return Entry{}, fmt.Errorf("%w: %s", ErrDuplicateID, ks.ID)
	}

	createdAt := s.now().UTC()
	name := fmt.Sprintf("UTC--%s--%s.json", createdAt.Format(fileTimestampLayout), ks.ID)
	path := filepath.Join(s.dir, name)

	tmp, err := os.CreateTemp(s.dir, ".keystore-*")
	if err != nil {
		return Entry{}, err
	}
	tmpPath := tmp.Name()
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return Entry{}, err
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return Entry{}, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return Entry{}, err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return Entry{}, err
	}
	return Entry{ID: ks.ID, Name: name, CreatedAt: createdAt}, nil
}

func (s *FileStore) Open(id string) (*keystore.Keystore, error) {
	s.mu.Lock()
	entry, err := s.findLocked(id)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, entry.Name))
	if err != nil {
		return nil, err
	}
	return keystore.Parse(data)
}

func (s *FileStore) List() ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked()
}

func (s *FileStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, err := s.findLocked(id)
	if err != nil {
		return err
	}
	return os.Remove(filepath.Join(s.dir, entry.Name))
}

func (s *FileStore) listLocked() ([]Entry, error) {
	files, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		entry, ok := parseFileName(f.Name())
		if !ok {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (s *FileStore) findLocked(id string) (Entry, error) {
	entries, err := s.listLocked()
	if err != nil {
		return Entry{}, err
	}
	for _, entry := range entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
}

func parseFileName(name string) (Entry, bool) {
	if !strings.HasPrefix(name, "UTC--") || !strings.HasSuffix(name, ".json") {
		return Entry{}, false
	}
	rest := strings.TrimSuffix(strings.TrimPrefix(name, "UTC--"), ".json")
	parts := strings.SplitN(rest, "--", 2)
	if len(parts) != 2 || parts[1] == "" {
		return Entry{}, false
	}
	createdAt, err := time.Parse(fileTimestampLayout, parts[0])
	if err != nil {
		return Entry{}, false
	}
	return Entry{ID: parts[1], Name: name, CreatedAt: createdAt}, true
}
