// Package blobstore abstracts external image storage behind an injected
// interface so call sites never reach for a global client.
package blobstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotConfigured is returned by the Unavailable store when no storage
// backend was configured at startup.
var ErrNotConfigured = errors.New("blobstore: not configured")

// Object describes a stored blob.
type Object struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	Format    string    `json:"format,omitempty"`
	Bytes     int       `json:"bytes"`
	CreatedAt time.Time `json:"createdAt"`
}

// BlobStore is the storage contract consumed by handlers and services.
type BlobStore interface {
	// Upload stores raw bytes and returns the resulting object.
	Upload(ctx context.Context, data []byte, filename string) (*Object, error)
	// GenerateTemporaryURL returns a signed URL valid for the given duration.
	GenerateTemporaryURL(ctx context.Context, objectID string, expiry time.Duration) (string, error)
	// List returns objects whose ID starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
}

// Unavailable is the typed absence-of-configuration variant: every method
// fails with ErrNotConfigured.
type Unavailable struct{}

func (Unavailable) Upload(context.Context, []byte, string) (*Object, error) {
	return nil, ErrNotConfigured
}

func (Unavailable) GenerateTemporaryURL(context.Context, string, time.Duration) (string, error) {
	return "", ErrNotConfigured
}

func (Unavailable) List(context.Context, string) ([]Object, error) {
	return nil, ErrNotConfigured
}
