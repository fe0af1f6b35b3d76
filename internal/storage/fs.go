package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FSStore keeps export artifacts as flat files under a base directory.
type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./local_maps"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

// Dir returns the base directory, for reporting export locations to callers.
func (s *FSStore) Dir() string { return s.base }

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	dst, err := s.path(key)
	if err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return key, nil
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	p, err := s.path(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *FSStore) List(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.base)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name := e.Name(); strings.HasPrefix(name, prefix) {
			keys = append(keys, name)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// path rejects keys that would escape the base directory. Keys are flat
// file names; exports never need subdirectories.
func (s *FSStore) path(key string) (string, error) {
	if key == "" {
		return "", errors.New("empty key")
	}
	if key != filepath.Base(key) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.base, key), nil
}

// MapKey names an anonymization map export for a course at a point in time,
// e.g. anonymization_map_12345_20260828_143000.csv.
func MapKey(courseID string, now time.Time) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, courseID)
	return fmt.Sprintf("anonymization_map_%s_%s.csv", safe, now.Format("20060102_150405"))
}
