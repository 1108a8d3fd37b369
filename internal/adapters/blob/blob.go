// Package blob stores uploaded files on the local filesystem.
package blob

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

var (
	// ErrNotFound is returned when a ref does not name a stored blob.
	ErrNotFound = errors.New("blob not found")
	// ErrInvalidRef is returned for refs that escape the store root.
	ErrInvalidRef = errors.New("invalid blob ref")
	// ErrTooLarge is returned when an upload exceeds the size limit.
	ErrTooLarge = errors.New("blob too large")
)

const defaultMaxSize = 10 << 20

// Ref names a stored blob relative to the store root.
type Ref string

// Store is a directory of uploaded files.
type Store struct {
	root    string
	maxSize int64
}

// Option configures a Store.
type Option func(*Store)

// WithMaxSize caps the size of a single upload.
func WithMaxSize(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

// NewStore creates root if needed.
func NewStore(root string, opts ...Option) (*Store, error) {
	s := &Store{root: root, maxSize: defaultMaxSize}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return s, nil
}

// Put writes r under a fresh key derived from name.
func (s *Store) Put(ctx context.Context, name string, r io.Reader) (Ref, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	ref := Ref(uuid.NewString() + "-" + sanitize(name))
	path := filepath.Join(s.root, string(ref))

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}
	n, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > s.maxSize {
		err = ErrTooLarge
	}
	if err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("write blob: %w", err)
	}
	return ref, nil
}

// Open returns a reader for ref. The caller closes it.
func (s *Store) Open(ctx context.Context, ref Ref) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path, err := s.path(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// Delete removes ref. Missing blobs are not an error.
func (s *Store) Delete(_ context.Context, ref Ref) error {
	path, err := s.path(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}

func (s *Store) path(ref Ref) (string, error) {
	name := string(ref)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidRef
	}
	return filepath.Join(s.root, name), nil
}

// sanitize keeps letters, digits, dot, dash and underscore.
func sanitize(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "upload"
	}
	if len(out) > 100 {
		out = out[len(out)-100:]
	}
	return out
}
