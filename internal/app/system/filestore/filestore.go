// internal/app/system/filestore/filestore.go
// Package filestore abstracts file attachment storage. Comments and
// messages carry attachment URLs; the store owns the bytes behind them.
package filestore

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// PutOptions carries optional metadata for a stored file.
type PutOptions struct {
	ContentType string
}

// Store is the attachment backend. Paths are slash-separated keys
// relative to the store root; URL maps a key to the address clients use
// to fetch it.
type Store interface {
	Put(ctx context.Context, path string, r io.Reader, opts *PutOptions) error
	Delete(ctx context.Context, path string) error
	URL(path string) string
}

// Local stores files on the local filesystem under a root directory and
// serves them from a URL prefix handled by the static file server.
type Local struct {
	root      string
	urlPrefix string
}

// NewLocal creates the root directory if needed and returns a local store.
func NewLocal(root, urlPrefix string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("filestore: root directory is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("filestore: create root %s: %w", root, err)
	}
	return &Local{root: root, urlPrefix: strings.TrimSuffix(urlPrefix, "/")}, nil
}

func (l *Local) Put(ctx context.Context, key string, r io.Reader, opts *PutOptions) error {
	clean, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(clean), 0o755); err != nil {
		return fmt.Errorf("filestore: mkdir for %s: %w", key, err)
	}
	f, err := os.Create(clean)
	if err != nil {
		return fmt.Errorf("filestore: create %s: %w", key, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(clean)
		return fmt.Errorf("filestore: write %s: %w", key, err)
	}
	return f.Close()
}

func (l *Local) Delete(ctx context.Context, key string) error {
	// Attachment references may be stored as full URLs; accept either form.
	key = strings.TrimPrefix(key, l.urlPrefix+"/")
	clean, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(clean); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("filestore: remove %s: %w", key, err)
	}
	return nil
}

func (l *Local) URL(key string) string {
	return l.urlPrefix + "/" + strings.TrimPrefix(key, "/")
}

// resolve rejects keys that escape the root directory.
func (l *Local) resolve(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(clean, "..") {
		return "", fmt.Errorf("filestore: invalid path %q", key)
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}
