// Package blobstore implements the site-scoped blob store client (C1):
// get/put/list/delete against either the local filesystem or an S3-compatible
// remote, with identical (bucket, key) resolution for the same logical
// artifact regardless of which mode is active.
package blobstore

import (
	"context"
	"errors"
	"io"
)

// Env selects the blob store backend.
type Env string

const (
	EnvLocal      Env = "local"
	EnvDevRemote  Env = "dev-remote"
	EnvProdRemote Env = "prod-remote"
)

// ErrNotFound is returned by Get/GetReader/Size when the key does not exist. It is a
// distinguished value, not a generic error — callers branch on it with
// errors.Is instead of treating absence as failure.
var ErrNotFound = errors.New("blobstore: key not found")

// Object describes one entry returned by List.
type Object struct {
	Key  string
	Size int64
}

// Store is the contract every stage in the pipeline uses to read and write
// durable artifacts. All operations are scoped to the siteId the Store was
// constructed for.
type Store interface {
	// Get returns the full contents of key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// GetReader is like Get but streams rather than materializing the whole
	// object — used for large artifacts (the search index) where decoding a
	// multi-hundred-MB buffer into a second copy would double memory use.
	GetReader(ctx context.Context, key string) (io.ReadCloser, error)

	// Put writes data to key, replacing any existing content. Implementations
	// make this atomic from a reader's perspective (write-then-rename for
	// local, single PutObject for remote).
	Put(ctx context.Context, key string, data []byte) error

	// PutReader is like Put but streams from r instead of requiring the
	// caller to buffer the whole payload first.
	PutReader(ctx context.Context, key string, r io.Reader) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present, distinguishing "absent" from a
	// transport error without forcing the caller to parse ErrNotFound.
	Exists(ctx context.Context, key string) (bool, error)

	// Size returns the byte length of key, or ErrNotFound.
	Size(ctx context.Context, key string) (int64, error)

	// List enumerates every key under prefix, transparently paging through
	// continuation tokens until exhausted. Never returns a partial result.
	List(ctx context.Context, prefix string) ([]Object, error)

	// ListDirs enumerates the immediate child "directories" (common prefixes)
	// under prefix, one level deep.
	ListDirs(ctx context.Context, prefix string) ([]string, error)

	// DirectoryExists reports whether any key exists under prefix.
	DirectoryExists(ctx context.Context, prefix string) (bool, error)

	// DirectorySize sums the size of every key under prefix.
	DirectorySize(ctx context.Context, prefix string) (int64, error)
}

// Config selects and parameterizes a Store for one site.
type Config struct {
	Env          Env
	SiteID       string
	LocalRoot    string // filesystem root in local mode
	BucketSuffix string // remote bucket is "{siteId}-{BucketSuffix}"
	Region       string
	AccessKey    string
	SecretKey    string
	Endpoint     string
}

// New constructs the Store appropriate for cfg.Env.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Env {
	case EnvLocal, "":
		return newLocalStore(cfg), nil
	case EnvDevRemote, EnvProdRemote:
		return newS3Store(ctx, cfg)
	default:
		return nil, errors.New("blobstore: unknown storage env " + string(cfg.Env))
	}
}

// pagination activity above this threshold is logged — see §4.1, "Pagination
// activity above 1000 items should be observable."
const pagingLogThreshold = 1000
