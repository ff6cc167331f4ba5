package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"talkroom/internal/pkg/logx"
)

var ErrInvalidKey = errors.New("invalid storage key")

// LocalStorage writes files below a directory on disk. The directory is
// served under MediaURL by the HTTP router.
type LocalStorage struct {
	root     string
	mediaURL string
}

func NewLocalStorage(dir, mediaURL string) (*LocalStorage, error) {
	if dir == "" {
		return nil, errors.New("upload directory is not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	if !strings.HasSuffix(mediaURL, "/") {
		mediaURL += "/"
	}
	return &LocalStorage{root: dir, mediaURL: mediaURL}, nil
}

// Root returns the directory files are written to.
func (l *LocalStorage) Root() string {
	return l.root
}

// MediaURL returns the URL prefix files are served under.
func (l *LocalStorage) MediaURL() string {
	return l.mediaURL
}

func (l *LocalStorage) Put(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("move file: %w", err)
	}

	logx.Debug("stored file", "key", key)
	return nil
}

func (l *LocalStorage) Delete(_ context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

func (l *LocalStorage) URL(key string) string {
	return l.mediaURL + strings.TrimPrefix(key, "/")
}

// path maps key to a file below root, rejecting keys that escape it.
func (l *LocalStorage) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if key == "" || clean == "/" || clean != "/"+key {
		return "", ErrInvalidKey
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}
