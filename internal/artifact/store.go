// Package artifact reads versioned model artifacts from a local directory or
// a Cloud Storage prefix. Artifacts are read once at startup.
package artifact

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

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ErrNotFound is returned when an artifact does not exist in the store.
var ErrNotFound = errors.New("artifact not found")

// Store opens named artifacts.
type Store interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Location() string
}

// New picks a store implementation from location: "gs://bucket/prefix" uses
// Cloud Storage, anything else is a local directory. The returned close
// function releases client resources and is never nil.
func New(ctx context.Context, location string, opts ...option.ClientOption) (Store, func() error, error) {
	if !strings.HasPrefix(location, "gs://") {
		return LocalStore{Dir: location}, func() error { return nil }, nil
	}

	bucket, prefix, _ := strings.Cut(strings.TrimPrefix(location, "gs://"), "/")
	if bucket == "" {
		return nil, nil, fmt.Errorf("artifact: invalid location %q", location)
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("artifact: storage client: %w", err)
	}
	return &GCSStore{bucket: client.Bucket(bucket), name: bucket, prefix: prefix}, client.Close, nil
}

// LocalStore reads artifacts from a directory on disk.
type LocalStore struct {
	Dir string
}

// Open opens Dir/name.
func (s LocalStore) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.Dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Location returns the directory path.
func (s LocalStore) Location() string { return s.Dir }

// GCSStore reads artifacts from objects under a bucket prefix.
type GCSStore struct {
	bucket *storage.BucketHandle
	name   string
	prefix string
}

// Open opens gs://bucket/prefix/name.
func (s *GCSStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	r, err := s.bucket.Object(path.Join(s.prefix, name)).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("artifact: read %s: %w", name, err)
	}
	return r, nil
}

// Location returns the gs:// URL of the prefix.
func (s *GCSStore) Location() string {
	return "gs://" + path.Join(s.name, s.prefix)
}
