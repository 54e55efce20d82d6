// Package media ties cover files to the lifecycle of the posts that own
// them.
//
// A cover is acquired with Attach or Replace and handed back as an
// Attachment. Once the owning record has been written the caller commits
// the attachment, which releases the cover it superseded; if the write
// fails the caller rolls it back, which releases the new cover instead.
// Releases are best-effort: failures are logged and never returned, so a
// dangling file can never block a record operation.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
)

// ErrStorage reports a cover that could not be written.
var ErrStorage = errors.New("cover storage failed")

// Backend persists cover bytes. Store must produce a unique path for every
// call and keep ext as the path's extension.
type Backend interface {
	Store(ctx context.Context, body io.Reader, ext, contentType string) (string, error)
	Remove(ctx context.Context, path string) error
}

// Upload is a cover as received from the client.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type Manager struct {
	backend Backend
	logger  *slog.Logger
}

func NewManager(backend Backend, logger *slog.Logger) *Manager {
	return &Manager{backend: backend, logger: logger}
}

// Attach stores up and returns the attachment holding its path.
func (m *Manager) Attach(ctx context.Context, up Upload) (*Attachment, error) {
	path, err := m.backend.Store(ctx, up.Body, Ext(up.Filename), up.ContentType)
	if err != nil {
		m.logger.ErrorContext(ctx, "failed to store cover",
			slog.String("filename", up.Filename),
			slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return &Attachment{Path: path, m: m}, nil
}

// Replace stores up as the successor of oldPath. oldPath is released when
// the attachment is committed.
func (m *Manager) Replace(ctx context.Context, oldPath string, up Upload) (*Attachment, error) {
	a, err := m.Attach(ctx, up)
	if err != nil {
		return nil, err
	}
	a.previous = oldPath
	return a, nil
}

// Release deletes the cover at path. Failures are logged, not returned.
func (m *Manager) Release(ctx context.Context, path string) {
	if path == "" {
		return
	}
	// cleanup must outlive a canceled request
	ctx = context.WithoutCancel(ctx)
	if err := m.backend.Remove(ctx, path); err != nil {
		m.logger.WarnContext(ctx, "failed to delete cover",
			slog.String("path", path),
			slog.Any("error", err))
	}
}

// Attachment is a stored cover whose ownership has not been settled yet.
type Attachment struct {
	Path string

	previous string
	settled  bool
	m        *Manager
}

// Commit keeps the new cover and releases the one it replaced, if any.
func (a *Attachment) Commit(ctx context.Context) {
	if a.settled {
		return
	}
	a.settled = true
	a.m.Release(ctx, a.previous)
}

// Rollback releases the new cover and keeps the one it would have replaced.
func (a *Attachment) Rollback(ctx context.Context) {
	if a.settled {
		return
	}
	a.settled = true
	a.m.Release(ctx, a.Path)
}

// Ext returns the lower-cased extension of filename including the dot, or
// "" when the name has none or it contains anything but letters and digits.
func Ext(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) < 2 || len(ext) > 10 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
