package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Extensions are tried in order when a document path has no extension.
var Extensions = []string{".json", ".json5", ".ison"}

// ResolvePath returns the path of an existing document file. A path
// without extension is completed with the first of Extensions that exists.
func ResolvePath(path string) (string, error) {
	path = filepath.Clean(path)

	if filepath.Ext(path) != "" {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("%w: document file %q not found at path: %s",
					ErrNotFound, filepath.Base(path), filepath.ToSlash(path))
			}
			return "", err
		}
		return path, nil
	}

	for _, ext := range Extensions {
		candidate := path + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%w: document file %q not found at path: %s[%s]",
		ErrNotFound, filepath.Base(path), filepath.ToSlash(path), strings.Join(Extensions, ", "))
}

// WritePath appends ext to path if it has no extension.
func WritePath(path, ext string) string {
	path = filepath.Clean(path)
	if filepath.Ext(path) == "" {
		return path + ext
	}

	return path
}

// PathVars returns the variables describing the location of path. A path
// with an extension is taken to be a file, anything else a folder. Paths
// are absolute and use forward slashes.
func PathVars(path string) (map[string]string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	ext := filepath.Ext(abs)
	if ext == "" {
		parent := filepath.Dir(abs)
		return map[string]string{
			"folder":       filepath.Base(abs),
			"parentfolder": filepath.Base(parent),
			"path":         filepath.ToSlash(abs),
		}, nil
	}

	name := filepath.Base(abs)
	dir := filepath.Dir(abs)

	return map[string]string{
		"filebasename": strings.TrimSuffix(name, ext),
		"filename":     name,
		"fileext":      ext,
		"folder":       filepath.Base(dir),
		"parentfolder": filepath.Base(filepath.Dir(dir)),
		"path":         filepath.ToSlash(dir),
		"filepath":     filepath.ToSlash(abs),
	}, nil
}
