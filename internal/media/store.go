// Package media implements the out-of-band store for uploaded recipe images.
package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"platefeed/internal/models"
	"platefeed/internal/observability"
)

// PublicPrefix is the URL path under which stored files are served.
const PublicPrefix = "/uploads"

// Store persists uploaded media blobs and returns the public path a Post
// records. Posts reference the path, never the bytes.
type Store interface {
	Save(ctx context.Context, filename string, r io.Reader) (string, error)
}

// DiskStore writes uploads to a local directory served as static files.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the upload directory if needed and returns a store over it.
func NewDiskStore(dir string) (*DiskStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("media: upload directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("media: create upload directory: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the directory uploads are written to.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save writes the blob under a unique name and returns its public path.
// The name keeps the original extension; the rest is regenerated so an
// attacker-controlled filename can never escape the upload directory.
func (s *DiskStore) Save(ctx context.Context, filename string, r io.Reader) (string, error) {
	name := fmt.Sprintf("%d-%s%s", time.Now().UnixMilli(), uuid.NewString(), safeExt(filename))

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		observability.MediaUploadsTotal.WithLabelValues("error").Inc()
		return "", models.NewStorageError(fmt.Errorf("media: create file: %w", err))
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		observability.MediaUploadsTotal.WithLabelValues("error").Inc()
		_ = os.Remove(dst.Name())
		return "", models.NewStorageError(fmt.Errorf("media: write file: %w", err))
	}

	observability.MediaUploadsTotal.WithLabelValues("ok").Inc()
	return path.Join(PublicPrefix, name), nil
}

func safeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
