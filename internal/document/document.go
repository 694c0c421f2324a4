// Package document validates source documents before upload, so obviously
// unusable files never reach the network.
package document

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// MaxSize is the upload size cap.
const MaxSize = 50 << 20 // 50 MB

var allowedExtensions = map[string]bool{
	".ppt":  true,
	".pptx": true,
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

var (
	// ErrUnsupportedType means the file extension is not in the allow-list.
	ErrUnsupportedType = errors.New("unsupported file type: use PPT, PDF, Word or TXT")

	// ErrTooLarge means the file exceeds MaxSize.
	ErrTooLarge = errors.New("file exceeds the 50MB limit")
)

// Validate checks a filename and size against the upload constraints.
func Validate(name string, size int64) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w (%s)", ErrUnsupportedType, name)
	}
	if size > MaxSize {
		return ErrTooLarge
	}
	return nil
}

// Open validates and opens a document for upload, returning the file and its
// base name. The caller closes the file.
func Open(path string) (*os.File, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	name := filepath.Base(path)
	if err := Validate(name, info.Size()); err != nil {
		return nil, "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	return f, name, nil
}
