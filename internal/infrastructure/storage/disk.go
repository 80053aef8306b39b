// Package storage persists report images on local disk. References handed
// out to the rest of the system are relative paths like "uploads/<uuid>.jpg"
// and stay opaque outside this package.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// DiskStore implements ports.AssetStore on the local filesystem.
type DiskStore struct {
	dir string
}

// NewDiskStore creates the upload directory if needed and returns a store
// rooted there.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir}, nil
}

// Store writes the binary under a fresh uuid name, keeping only the
// original extension. Returns the asset reference.
func (s *DiskStore) Store(ctx context.Context, filename string, src io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := uuid.NewString() + sanitizeExt(filename)
	path := filepath.Join(s.dir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("store asset: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("store asset: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("store asset: %w", err)
	}

	return filepath.ToSlash(filepath.Join(filepath.Base(s.dir), name)), nil
}

// Release deletes the binary behind ref. A reference that no longer exists
// is treated as already released.
func (s *DiskStore) Release(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := filepath.Base(filepath.Clean(ref))
	if name == "." || name == string(filepath.Separator) {
		return fmt.Errorf("release asset: bad reference %q", ref)
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("release asset: %w", err)
	}
	return nil
}

// Dir returns the root directory, used to mount static file serving.
func (s *DiskStore) Dir() string {
	return s.dir
}

// sanitizeExt keeps a short, lowercase extension and drops anything odd.
func sanitizeExt(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}
