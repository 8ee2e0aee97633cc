// Package storage writes message attachments to a backing store and returns
// the URL clients use to fetch them.
//
//   - disk:  files under a local directory, served by /api/uploads/{name}
//   - minio: objects in an S3-compatible bucket, served by the bucket
package storage

import (
	"context"
	"io"
)

// Store persists one object under name and returns its public URL.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader, size int64, contentType string) (url string, err error)
	Delete(ctx context.Context, name string) error
}
