package packing

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/moorline-data/siteplan/internal/fsutil"
)

// Load reads every .csv file in dir (non-recursive, filename order) into
// one Library. Each file holds exactly one layout; two files with the same
// point count abort the load so a stale copy can never shadow the real one.
func Load(fsys fsutil.FileSystem, dir string) (*Library, error) {
	entries, err := fsys.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read packing directory %s: %w", dir, err)
	}

	lib := NewLibrary()
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		f, err := fsys.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open layout %s: %w", entry.Name(), err)
		}
		set, err := ParseSet(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}

		if err := lib.Add(set); err != nil {
			return nil, fmt.Errorf("%s: %w", entry.Name(), err)
		}
	}

	if lib.Len() == 0 {
		return nil, fmt.Errorf("no packing layouts found in %s", dir)
	}
	return lib, nil
}
