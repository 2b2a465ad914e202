package resolver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

const defaultCacheFile = ".apachelog-resolver.cache"

var _ Store = &FileStore{}

// FileStore keeps the cache in a YAML file.
type FileStore struct {
	Path string
}

// DefaultCachePath is ~/.apachelog-resolver.cache, or the file name alone
// when the home directory is unknown.
func DefaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return defaultCacheFile
	}

	return filepath.Join(home, defaultCacheFile)
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultCachePath()
	}

	return &FileStore{Path: path}
}

// Load returns an empty map when the file does not exist yet.
func (s *FileStore) Load() (map[string]Entry, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]Entry{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", s.Path, err)
	}

	entries := map[string]Entry{}

	err = yaml.Unmarshal(data, &entries)
	if err != nil {
		return nil, fmt.Errorf("cannot decode %s: %w", s.Path, err)
	}

	return entries, nil
}

// Save replaces the file content with entries.
func (s *FileStore) Save(entries map[string]Entry) error {
	data, err := yaml.Marshal(entries)
	if err != nil {
		return fmt.Errorf("cannot encode cache: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.Path), filepath.Base(s.Path)+".*")
	if err != nil {
		return fmt.Errorf("cannot create temporary file: %w", err)
	}

	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot write %s: %w", tmp.Name(), err)
	}

	if err = tmp.Close(); err != nil {
		return fmt.Errorf("cannot close %s: %w", tmp.Name(), err)
	}

	if err = os.Rename(tmp.Name(), s.Path); err != nil {
		return fmt.Errorf("cannot replace %s: %w", s.Path, err)
	}

	return nil
}
