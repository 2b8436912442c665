package files

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Generated report artifacts (exports, PDFs) are written to a single base
// directory; this package serves them back and nothing else.

var ErrOutsideBase = errors.New("path escapes base directory")

// Resolve maps a requested file name to a path inside baseDir. Any attempt to
// climb out of baseDir fails with ErrOutsideBase.
func Resolve(baseDir, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrOutsideBase
	}

	baseAbs, err := filepath.Abs(baseDir)
	if err != nil {
		return "", err
	}

	// Clean with a rooted name so "a/../../b" collapses before joining.
	cleaned := filepath.Clean("/" + filepath.FromSlash(name))
	full := filepath.Join(baseAbs, cleaned)

	if full != baseAbs && !strings.HasPrefix(full, baseAbs+string(filepath.Separator)) {
		return "", ErrOutsideBase
	}
	return full, nil
}

// Read returns the file contents and a content type guessed from the
// extension.
func Read(baseDir, name string) ([]byte, string, error) {
	full, err := Resolve(baseDir, name)
	if err != nil {
		return nil, "", err
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, "", err
	}
	return data, contentType(full), nil
}

func contentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return "application/pdf"
	case ".json":
		return "application/json"
	case ".csv":
		return "text/csv"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
