package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/oirs-service/internal/domain"
)

// LocalStore writes documents below a root directory.
type LocalStore struct {
	root    string
	baseURL string
}

// NewLocalStore creates the root directory when missing. baseURL, when set,
// is used to build public links.
func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("storage: root directory required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create root: %w", err)
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Store writes obj under prefix with a unique object name.
func (s *LocalStore) Store(ctx context.Context, obj Object) (*domain.FileMeta, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(obj.Body) == 0 {
		return nil, errors.New("storage: empty body")
	}
	name := sanitizeName(obj.Name)
	rel := path.Join(cleanPrefix(obj.Prefix), uuid.NewString()+"-"+name)

	full, err := s.resolve(rel)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, fmt.Errorf("storage: create dir: %w", err)
	}
	if err := os.WriteFile(full, obj.Body, 0o644); err != nil {
		return nil, fmt.Errorf("storage: write: %w", err)
	}

	mime := strings.TrimSpace(obj.Mime)
	if mime == "" {
		mime = "application/octet-stream"
	}
	meta := &domain.FileMeta{
		Name: name,
		Path: rel,
		Mime: mime,
		Size: int64(len(obj.Body)),
	}
	if s.baseURL != "" {
		meta.URL = s.baseURL + "/" + (&url.URL{Path: rel}).EscapedPath()
	}
	return meta, nil
}

// Delete removes the object. A missing object is not an error.
func (s *LocalStore) Delete(ctx context.Context, rel string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	full, err := s.resolve(rel)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("storage: delete: %w", err)
	}
	return nil
}

func (s *LocalStore) resolve(rel string) (string, error) {
	clean := path.Clean("/" + rel)
	if clean == "/" {
		return "", errors.New("storage: empty path")
	}
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

func cleanPrefix(prefix string) string {
	return strings.TrimPrefix(path.Clean("/"+prefix), "/")
}

func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}
