package media

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// underRoot reports whether path lies inside root. An empty root admits every path.
func underRoot(root, path string) bool {
	if root == "" {
		return true
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// missing reports whether nothing exists at path. Errors other than
// not-exist are returned so a permission problem never deletes a row.
func missing(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return true, nil
	}
	return false, err
}
