package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalDir stores objects as files in one directory. The directory plays
// the role of the bucket.
type LocalDir struct {
	dir string
}

func NewLocalDir(dir string) *LocalDir {
	if strings.TrimSpace(dir) == "" {
		dir = "backups"
	}
	return &LocalDir{dir: dir}
}

// EnsureBucket creates the directory.
func (l *LocalDir) EnsureBucket(_ context.Context) error {
	return os.MkdirAll(l.dir, 0o755)
}

func (l *LocalDir) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func (l *LocalDir) Get(_ context.Context, key string) (io.ReadCloser, error) {
	path, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return f, err
}

func (l *LocalDir) Delete(_ context.Context, key string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", ErrObjectNotFound, key)
	}
	return err
}

func (l *LocalDir) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	entries, err := os.ReadDir(l.dir)
	if errors.Is(err, os.ErrNotExist) {
		return []ObjectInfo{}, nil
	}
	if err != nil {
		return nil, err
	}

	objects := []ObjectInfo{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, err
		}
		objects = append(objects, ObjectInfo{
			Key:          e.Name(),
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}
	return objects, nil
}

// Bucket returns the directory path.
func (l *LocalDir) Bucket() string {
	return l.dir
}

// path rejects keys that would escape the directory.
func (l *LocalDir) path(key string) (string, error) {
	clean := filepath.Clean("/" + key)
	if clean == "/" || key != strings.TrimPrefix(clean, "/") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return filepath.Join(l.dir, filepath.FromSlash(clean)), nil
}
