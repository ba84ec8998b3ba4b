package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// localStorage keeps blobs as files directly under a root directory.
// Names are created with O_EXCL so two writers can never share a file.
type localStorage struct {
	root string
}

// NewLocal returns a filesystem-backed Storage rooted at root, creating the directory if needed.
func NewLocal(root string) (Storage, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("local storage root is required")
	}
	root = filepath.Clean(root)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir storage root: %w", err)
	}
	return &localStorage{root: root}, nil
}

func (s *localStorage) Put(ctx context.Context, name string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name {
		return ObjectInfo{}, fmt.Errorf("invalid blob name %q", name)
	}

	fullPath := filepath.Join(s.root, name)
	f, err := os.OpenFile(fullPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("create blob: %w", err)
	}

	written, err := io.Copy(f, r)
	if err == nil {
		err = ctx.Err()
	}
	if err == nil {
		err = f.Sync()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(fullPath)
		return ObjectInfo{}, fmt.Errorf("write blob: %w", err)
	}

	st, err := os.Stat(fullPath)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("stat blob: %w", err)
	}
	return ObjectInfo{
		Key:          fullPath,
		Size:         written,
		ContentType:  opt.ContentType,
		LastModified: st.ModTime(),
		Metadata:     opt.Metadata,
	}, nil
}

func (s *localStorage) Stat(ctx context.Context, key string) (ObjectInfo, error) {
	if err := ctx.Err(); err != nil {
		return ObjectInfo{}, err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return ObjectInfo{}, err
	}
	st, err := os.Stat(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ObjectInfo{}, ErrObjectNotFound
		}
		return ObjectInfo{}, err
	}
	if !st.Mode().IsRegular() {
		return ObjectInfo{}, ErrObjectNotFound
	}
	return ObjectInfo{
		Key:          fullPath,
		Size:         st.Size(),
		LastModified: st.ModTime(),
	}, nil
}

func (s *localStorage) GetRange(ctx context.Context, key string, offset, length int64) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		return nil, fmt.Errorf("invalid offset %d", offset)
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}
	if offset > 0 {
		if _, err := f.Seek(offset, io.SeekStart); err != nil {
			f.Close()
			return nil, fmt.Errorf("seek blob: %w", err)
		}
	}
	if length < 0 {
		return f, nil
	}
	return &limitedReadCloser{Reader: io.LimitReader(f, length), Closer: f}, nil
}

func (s *localStorage) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// resolve maps a key back to a path and rejects anything outside the root.
func (s *localStorage) resolve(key string) (string, error) {
	clean := filepath.Clean(key)
	rel, err := filepath.Rel(s.root, clean)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("invalid storage key")
	}
	return clean, nil
}

type limitedReadCloser struct {
	io.Reader
	io.Closer
}
