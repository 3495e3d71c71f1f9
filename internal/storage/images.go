// Package storage keeps uploaded product images on local disk.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("invalid file type. Only JPEG, PNG, GIF and WebP are allowed")
	ErrTooLarge        = errors.New("file too large")
	ErrEmpty           = errors.New("no file uploaded")
)

// PublicPrefix is the URL path the upload directory is served under.
const PublicPrefix = "/uploads"

const productsDir = "products"

var allowed = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

type Images struct {
	root     string
	maxBytes int64
}

func NewImages(root string, maxBytes int64) *Images {
	return &Images{root: root, maxBytes: maxBytes}
}

func (s *Images) Root() string { return s.root }

// Save sniffs the content type from the bytes, never the client's claim,
// and stores the file as products/<uuid>.<ext>. It returns the public URL.
func (s *Images) Save(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if int64(len(data)) > s.maxBytes {
		return "", ErrTooLarge
	}

	mt := mimetype.Detect(data)
	ext, ok := allowed[mt.String()]
	if !ok {
		return "", ErrUnsupportedType
	}

	dir := filepath.Join(s.root, productsDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	name := uuid.NewString() + ext
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		return "", fmt.Errorf("write upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}

	return path.Join(PublicPrefix, productsDir, name), nil
}

// Delete removes a file previously returned by Save. URLs that do not point
// into the upload directory are ignored, as are files already gone.
func (s *Images) Delete(publicURL string) error {
	rel, ok := strings.CutPrefix(publicURL, PublicPrefix+"/"+productsDir+"/")
	if !ok || rel == "" || strings.ContainsAny(rel, `/\`) || strings.Contains(rel, "..") {
		return nil
	}

	err := os.Remove(filepath.Join(s.root, productsDir, rel))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
