// Package fsutil provides file system helpers shared by the config loaders.
package fsutil

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// FindFilesByExtension recursively searches the given root path for files
// ending with the specified extension and returns their full paths. WalkDir
// visits entries in lexical order, so the result is deterministic.
func FindFilesByExtension(rootPath string, extension string) ([]string, error) {
	if extension == "" {
		panic("fsutil: extension must not be empty")
	}

	var files []string
	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), extension) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
