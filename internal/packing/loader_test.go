package packing

import (
	"strings"
	"testing"

	"github.com/moorline-data/siteplan/internal/fsutil"
)

func TestLoad(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	writeLayout(t, mfs, "/packings/csq2.csv", "x,y\n-0.5,-0.25\n0.5,0.25\n")
	writeLayout(t, mfs, "/packings/csq3.csv", "x,y\n-0.5,-0.5\n0,0\n0.5,0.5\n")
	writeLayout(t, mfs, "/packings/README.txt", "not a layout")

	lib, err := Load(mfs, "/packings")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if lib.Len() != 2 {
		t.Fatalf("loaded %d layouts, want 2", lib.Len())
	}
	for _, n := range []int{2, 3} {
		if _, err := lib.Lookup(n); err != nil {
			t.Errorf("Lookup(%d) failed: %v", n, err)
		}
	}
}

func TestLoadDuplicateCountAcrossFiles(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	writeLayout(t, mfs, "/packings/a.csv", "x,y\n-0.5,0\n0.5,0\n")
	writeLayout(t, mfs, "/packings/b.csv", "x,y\n-0.25,0\n0.25,0\n")

	if _, err := Load(mfs, "/packings"); err == nil {
		t.Error("expected error for duplicate point count across files")
	}
}

func TestLoadBadLayoutNamesFile(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	writeLayout(t, mfs, "/packings/broken.csv", "x,y\n9,9\n")

	_, err := Load(mfs, "/packings")
	if err == nil {
		t.Fatal("expected error for out-of-bounds layout")
	}
	if got := err.Error(); !strings.Contains(got, "broken.csv") {
		t.Errorf("error %q does not name the offending file", got)
	}
}

func TestLoadEmptyDirectory(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()
	if err := mfs.MkdirAll("/packings", 0755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	if _, err := Load(mfs, "/packings"); err == nil {
		t.Error("expected error for directory with no layouts")
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	mfs := fsutil.NewMemoryFileSystem()

	if _, err := Load(mfs, "/nope"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func writeLayout(t *testing.T, mfs *fsutil.MemoryFileSystem, path, content string) {
	t.Helper()
	if err := mfs.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) failed: %v", path, err)
	}
}
