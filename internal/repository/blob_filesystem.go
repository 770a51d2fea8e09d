package repository

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/futig/docchat/internal/entity"
)

var _ BlobRepository = &BlobFilesystem{}

// BlobFilesystem stores uploaded files under a root directory using the
// storage path as a relative file path.
type BlobFilesystem struct {
	root string
}

func NewBlobFilesystem(root string) (*BlobFilesystem, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &BlobFilesystem{root: root}, nil
}

func (b *BlobFilesystem) resolve(path string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: storage path %q", entity.ErrInvalidParameter, path)
	}
	return filepath.Join(b.root, clean), nil
}

func (b *BlobFilesystem) Save(_ context.Context, path string, content []byte) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create blob directory: %w", err)
	}

	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, content, 0o644); err != nil {
		return fmt.Errorf("write blob: %w", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit blob: %w", err)
	}
	return nil
}

func (b *BlobFilesystem) Read(_ context.Context, path string) ([]byte, error) {
	full, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: blob %s", entity.ErrDocumentNotFound, path)
		}
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return content, nil
}

// Delete is idempotent: a missing blob is not an error.
func (b *BlobFilesystem) Delete(_ context.Context, path string) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
