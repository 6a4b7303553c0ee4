// Package storage abstracts blob storage for listing images. Uploads happen
// before the listing row is inserted; a failed insert triggers a compensating
// delete of the just-uploaded blob.
package storage

import (
	"context"
	"errors"
	"io"
)

// BlobStore stores and serves opaque binary objects by path.
type BlobStore interface {
	// Upload writes the object and returns its storage path.
	Upload(ctx context.Context, path string, contentType string, body io.Reader) (string, error)
	// PublicURL returns the URL clients use to fetch the object.
	PublicURL(path string) string
	// Delete removes the object. Deleting a missing object is not an error.
	Delete(ctx context.Context, path string) error
}

var ErrInvalidPath = errors.New("invalid blob path")
