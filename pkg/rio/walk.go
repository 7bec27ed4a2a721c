package rio

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ajitpratap0/treescan/pkg/errors"
)

// ListFiles enumerates the input files under root. When root is a
// regular file it is returned as-is; when it is a directory the walk
// recurses and keeps files matching the extension (e.g. ".root").
// Results are sorted for deterministic schema discovery order.
func ListFiles(root, extension string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to stat source path")
	}

	if !info.IsDir() {
		return []string{root}, nil
	}

	var paths []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), extension) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFile, "failed to walk source directory")
	}

	sort.Strings(paths)
	return paths, nil
}
