// Package storage keeps uploaded product images on local disk.
package storage

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"storefront/model"
)

const sniffLen = 512

var allowedTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// LocalStore names and locates uploaded images under one directory. Writing the
// upload itself is left to gin's SaveUploadedFile.
type LocalStore struct {
	dir string
	now func() time.Time
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, now: time.Now}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

// Check accepts only JPEG and PNG content.
func (s *LocalStore) Check(r io.Reader) error {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if !allowedTypes[http.DetectContentType(head[:n])] {
		return model.Validation("Only .jpeg and .png files are allowed")
	}
	return nil
}

// Name derives a unique stored filename from the client supplied one.
func (s *LocalStore) Name(original string) string {
	return fmt.Sprintf("%d-%s", s.now().UnixNano(), cleanName(original))
}

// Path is where an image called name lives.
func (s *LocalStore) Path(name string) string {
	return filepath.Join(s.dir, filepath.Base(name))
}

func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
	if name == "" || name == "." || name == "/" {
		return "image"
	}
	return name
}

// Remove deletes a stored image. Removing a missing file is not an error.
func (s *LocalStore) Remove(name string) error {
	if name == "" {
		return nil
	}
	err := os.Remove(s.Path(name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
