package testsupport

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
)

// WriteFile creates path on disk with the given size. See WriteFileFS.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	WriteFileFS(t, afero.NewOsFs(), path, size)
}

// WriteFileFS creates path on fs, including parents, and extends it to size
// bytes without writing content. A size <= 0 yields a one-byte file.
func WriteFileFS(t testing.TB, fs afero.Fs, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := fs.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()
	if err := f.Truncate(size); err != nil {
		t.Fatalf("size %s: %v", path, err)
	}
}
