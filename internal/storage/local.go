// Package storage keeps uploaded minutes documents on the local filesystem.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/example/meeting-rooms/internal/application"
)

const keyPrefix = "meeting_minutes/"

// ErrInvalidKey is returned for keys that do not name a stored blob.
var ErrInvalidKey = errors.New("storage: invalid key")

// LocalStore writes blobs below a root directory. Keys are slash separated
// paths relative to the root.
type LocalStore struct {
	root     string
	maxBytes int64
	newID    func() string
	logger   *slog.Logger
}

// NewLocalStore creates root if needed. maxBytes <= 0 disables the size limit.
func NewLocalStore(root string, maxBytes int64, logger *slog.Logger) (*LocalStore, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("storage: root directory is empty")
	}
	if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(keyPrefix)), 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalStore{
		root:     root,
		maxBytes: maxBytes,
		newID:    uuid.NewString,
		logger:   logger.With("component", "storage"),
	}, nil
}

// Save streams upload into a new file and returns its attachment record.
func (s *LocalStore) Save(ctx context.Context, upload application.Upload) (application.Attachment, error) {
	if upload.Body == nil {
		return application.Attachment{}, errors.New("storage: upload has no body")
	}
	key := keyPrefix + s.newID() + cleanExt(upload.FileName)
	target, err := s.pathFor(key)
	if err != nil {
		return application.Attachment{}, err
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return application.Attachment{}, fmt.Errorf("storage: create %s: %w", key, err)
	}

	var src io.Reader = upload.Body
	if s.maxBytes > 0 {
		src = io.LimitReader(upload.Body, s.maxBytes+1)
	}
	written, copyErr := io.Copy(f, readerWithContext{ctx: ctx, r: src})
	closeErr := f.Close()
	switch {
	case copyErr != nil:
		err = fmt.Errorf("storage: write %s: %w", key, copyErr)
	case closeErr != nil:
		err = fmt.Errorf("storage: close %s: %w", key, closeErr)
	case s.maxBytes > 0 && written > s.maxBytes:
		err = fmt.Errorf("storage: upload exceeds %d bytes", s.maxBytes)
	}
	if err != nil {
		_ = os.Remove(target)
		return application.Attachment{}, err
	}

	contentType := strings.TrimSpace(upload.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	s.logger.DebugContext(ctx, "minutes stored", "key", key, "size", written)
	return application.Attachment{
		Key:         key,
		FileName:    baseName(upload.FileName),
		ContentType: contentType,
		Size:        written,
	}, nil
}

// Open returns a reader for key.
func (s *LocalStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	target, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, application.ErrNotFound
		}
		return nil, fmt.Errorf("storage: open %s: %w", key, err)
	}
	return f, nil
}

// Delete removes key. Missing blobs are not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	target, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return nil
}

// pathFor maps a key to a file below root, refusing anything that escapes it.
func (s *LocalStore) pathFor(key string) (string, error) {
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != key || !strings.HasPrefix(cleaned, keyPrefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filepath.Join(s.root, filepath.FromSlash(cleaned)), nil
}

func cleanExt(name string) string {
	ext := strings.ToLower(path.Ext(baseName(name)))
	if len(ext) > 16 {
		return ""
	}
	for _, r := range ext[min(1, len(ext)):] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return ""
		}
	}
	return ext
}

// baseName strips client supplied directories, including Windows ones.
func baseName(name string) string {
	return path.Base(strings.ReplaceAll(name, `\`, "/"))
}

type readerWithContext struct {
	ctx context.Context
	r   io.Reader
}

func (r readerWithContext) Read(p []byte) (int, error) {
	if err := r.ctx.Err(); err != nil {
		return 0, err
	}
	return r.r.Read(p)
}
