package blobstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"strings"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	apperrors "github.com/killallgit/ingest-platform/pkg/errors"
)

// s3Store is the remote-mode blob store. Each site owns its own bucket
// ({siteId}-{bucketSuffix}), so unlike localStore, keys are NOT
// site-prefixed — the bucket itself scopes the site. This is what keeps
// (bucket, key) resolution identical in meaning to the local mode's
// (root, sites/{siteId}/key) resolution for the same logical artifact.
type s3Store struct {
	client *s3.Client
	bucket string
}

func newS3Store(ctx context.Context, cfg Config) (*s3Store, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeConfigError, "loading AWS config")
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = awssdk.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	bucket := cfg.SiteID + "-" + cfg.BucketSuffix
	return &s3Store{client: client, bucket: bucket}, nil
}

func (s *s3Store) Get(ctx context.Context, key string) ([]byte, error) {
	r, err := s.GetReader(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func (s *s3Store) GetReader(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: awssdk.String(s.bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, ErrNotFound
		}
		return nil, apperrors.TransientIO("blobstore.s3.GetReader", err)
	}
	return out.Body, nil
}

func (s *s3Store) Put(ctx context.Context, key string, data []byte) error {
	return s.PutReader(ctx, key, bytes.NewReader(data))
}

func (s *s3Store) PutReader(ctx context.Context, key string, r io.Reader) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: awssdk.String(s.bucket),
		Key:    awssdk.String(key),
		Body:   r,
	})
	if err != nil {
		return apperrors.TransientIO("blobstore.s3.PutReader", err)
	}
	return nil
}

func (s *s3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: awssdk.String(s.bucket),
		Key:    awssdk.String(key),
	})
	if err != nil && !isNoSuchKey(err) {
		return apperrors.TransientIO("blobstore.s3.Delete", err)
	}
	return nil
}

func (s *s3Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: awssdk.String(s.bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) || isNotFoundStatus(err) {
			return false, nil
		}
		return false, apperrors.TransientIO("blobstore.s3.Exists", err)
	}
	return true, nil
}

func (s *s3Store) Size(ctx context.Context, key string) (int64, error) {
	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: awssdk.String(s.bucket),
		Key:    awssdk.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) || isNotFoundStatus(err) {
			return 0, ErrNotFound
		}
		return 0, apperrors.TransientIO("blobstore.s3.Size", err)
	}
	if out.ContentLength == nil {
		return 0, nil
	}
	return *out.ContentLength, nil
}

// List pages through ListObjectsV2 via its paginator until exhausted — the
// naive single-page call is the correctness bug §4.1 calls out for sites
// with more than 1000 objects.
func (s *s3Store) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: awssdk.String(s.bucket),
		Prefix: awssdk.String(prefix),
	})

	pages := 0
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.TransientIO("blobstore.s3.List", err)
		}
		pages++
		for _, obj := range page.Contents {
			size := int64(0)
			if obj.Size != nil {
				size = *obj.Size
			}
			objects = append(objects, Object{Key: awssdk.ToString(obj.Key), Size: size})
		}
	}

	if len(objects) > pagingLogThreshold {
		log.Printf("[DEBUG] blobstore.s3.List: %d entries under %q across %d page(s)", len(objects), prefix, pages)
	}
	return objects, nil
}

func (s *s3Store) ListDirs(ctx context.Context, prefix string) ([]string, error) {
	var dirs []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket:    awssdk.String(s.bucket),
		Prefix:    awssdk.String(prefix),
		Delimiter: awssdk.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperrors.TransientIO("blobstore.s3.ListDirs", err)
		}
		for _, cp := range page.CommonPrefixes {
			dirs = append(dirs, awssdk.ToString(cp.Prefix))
		}
	}
	return dirs, nil
}

func (s *s3Store) DirectoryExists(ctx context.Context, prefix string) (bool, error) {
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  awssdk.String(s.bucket),
		Prefix:  awssdk.String(prefix),
		MaxKeys: awssdk.Int32(1),
	})
	if err != nil {
		return false, apperrors.TransientIO("blobstore.s3.DirectoryExists", err)
	}
	return len(out.Contents) > 0, nil
}

func (s *s3Store) DirectorySize(ctx context.Context, prefix string) (int64, error) {
	objects, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, o := range objects {
		total += o.Size
	}
	return total, nil
}

func isNoSuchKey(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	return strings.Contains(err.Error(), "NoSuchKey")
}

func isNotFoundStatus(err error) bool {
	return strings.Contains(err.Error(), "StatusCode: 404") || strings.Contains(err.Error(), "NotFound")
}
