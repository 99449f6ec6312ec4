package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func sessionFiles(t *testing.T, dir string) []string {
	t.Helper()
	var out []string
	for _, p := range artifactPatterns {
		m, err := filepath.Glob(filepath.Join(dir, p))
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, m...)
	}
	return out
}

func TestAcquirePurgesLeftovers(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "bot_session_1234.session"))
	touch(t, filepath.Join(dir, "bot_session_1234.session-journal"))
	touch(t, filepath.Join(dir, "notes.txt"))

	h, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if left := sessionFiles(t, dir); len(left) != 0 {
		t.Fatalf("leftover artifacts: %v", left)
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Fatal("unrelated files must be kept")
	}
	if !strings.HasPrefix(h.Name(), "relay_") || !strings.HasSuffix(h.Name(), ".session") {
		t.Fatalf("unexpected session name %q", h.Name())
	}
	if filepath.Dir(h.Path()) != dir {
		t.Fatalf("path %q not in %q", h.Path(), dir)
	}
}

func TestAcquireNamesAreUnique(t *testing.T) {
	dir := t.TempDir()
	a, _ := Acquire(dir)
	b, _ := Acquire(dir)
	if a.Name() == b.Name() {
		t.Fatalf("names collide: %s", a.Name())
	}
}

func TestReleaseRemovesArtifacts(t *testing.T) {
	dir := t.TempDir()
	h, err := Acquire(dir)
	if err != nil {
		t.Fatal(err)
	}
	touch(t, h.Path())
	touch(t, h.Path()+"-wal")

	if err := h.Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if left := sessionFiles(t, dir); len(left) != 0 {
		t.Fatalf("artifacts left after release: %v", left)
	}
	if err := h.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
}

func TestPurgeCounts(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "a.session"))
	touch(t, filepath.Join(dir, "b.session-shm"))
	n, err := Purge(dir)
	if err != nil || n != 2 {
		t.Fatalf("Purge = %d, %v", n, err)
	}
}
