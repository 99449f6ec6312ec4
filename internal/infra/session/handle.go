package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

const artifactSuffix = ".session"

// artifactPatterns covers the session file and the sidecar files SQLite
// leaves next to it.
var artifactPatterns = []string{
	"*" + artifactSuffix,
	"*" + artifactSuffix + "-journal",
	"*" + artifactSuffix + "-wal",
	"*" + artifactSuffix + "-shm",
}

// Handle is one session's on-disk artifact. Acquire it before connecting and
// Release it on every exit path.
type Handle struct {
	dir  string
	name string

	once sync.Once
	err  error
}

// Acquire purges leftover artifacts in dir and reserves a fresh unique name.
func Acquire(dir string) (*Handle, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	if _, err := Purge(dir); err != nil {
		return nil, err
	}
	return &Handle{
		dir:  dir,
		name: "relay_" + strings.ToLower(ulid.Make().String()) + artifactSuffix,
	}, nil
}

func (h *Handle) Name() string { return h.name }

// Path is where the driver keeps its session storage.
func (h *Handle) Path() string { return filepath.Join(h.dir, h.name) }

// Release purges every artifact in the directory. Safe to call repeatedly.
func (h *Handle) Release() error {
	h.once.Do(func() {
		_, h.err = Purge(h.dir)
	})
	return h.err
}

// Purge deletes all session artifacts in dir and reports how many were removed.
func Purge(dir string) (int, error) {
	var errs []error
	removed := 0
	for _, pattern := range artifactPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return removed, err
		}
		for _, m := range matches {
			if err := os.Remove(m); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
				continue
			}
			removed++
		}
	}
	return removed, errors.Join(errs...)
}
