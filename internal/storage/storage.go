// Package storage keeps case documents outside the case record. Only the
// metadata returned by Store is persisted on the case.
package storage

import (
	"context"
	"errors"

	"github.com/spec-kit/oirs-service/internal/domain"
)

// ErrNotConfigured is returned by NoopStore.
var ErrNotConfigured = errors.New("storage: file store not configured")

// Object is one upload.
type Object struct {
	Prefix string
	Name   string
	Mime   string
	Body   []byte
}

// FileStore persists and removes documents.
type FileStore interface {
	Store(ctx context.Context, obj Object) (*domain.FileMeta, error)
	Delete(ctx context.Context, path string) error
}

// NoopStore rejects every write.
type NoopStore struct{}

// Store always fails.
func (NoopStore) Store(context.Context, Object) (*domain.FileMeta, error) {
	return nil, ErrNotConfigured
}

// Delete always fails.
func (NoopStore) Delete(context.Context, string) error {
	return ErrNotConfigured
}
