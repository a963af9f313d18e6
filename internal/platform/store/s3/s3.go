// Package s3 wraps a minio client bound to one bucket for S3 compatible
// object stores
package s3

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	perr "covidsignal/internal/platform/errors"
)

// Config holds connection settings for an S3 compatible endpoint
type Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Store is a bucket-scoped object client
type Store struct {
	client   *minio.Client
	bucket   string
	region   string
	initOnce sync.Once
	initErr  error
}

// New validates cfg and builds a client; no request is made until first use
func New(cfg Config) (*Store, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, perr.InvalidArgf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, perr.InvalidArgf("s3 access key and secret key are required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeInvalidArgument, "init s3 client")
	}
	return &Store{client: client, bucket: strings.TrimSpace(cfg.Bucket), region: region}, nil
}

// Bucket returns the default bucket
func (s *Store) Bucket() string { return s.bucket }

func (s *Store) ensureBucket(ctx context.Context) error {
	s.initOnce.Do(func() {
		if s.bucket == "" {
			s.initErr = perr.InvalidArgf("s3 bucket is required")
			return
		}
		exists, err := s.client.BucketExists(ctx, s.bucket)
		if err != nil {
			s.initErr = err
			return
		}
		if exists {
			return
		}
		s.initErr = s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region})
	})
	return s.initErr
}

// Put uploads content under key in the default bucket, creating the bucket
// on first use
func (s *Store) Put(ctx context.Context, key string, content []byte, contentType string) error {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return perr.InvalidArgf("object key is required")
	}
	if err := s.ensureBucket(ctx); err != nil {
		return perr.Wrap(err, perr.ErrorCodeStorage, "ensure bucket")
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeStorage, "put s3://%s/%s", s.bucket, key)
	}
	return nil
}

// Open returns a reader for bucket/key; an empty bucket means the default.
// A missing object is reported as not found
func (s *Store) Open(ctx context.Context, bucket, key string) (io.ReadCloser, error) {
	if bucket == "" {
		bucket = s.bucket
	}
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapErr(err, bucket, key)
	}
	// GetObject is lazy; Stat surfaces missing keys before the caller reads
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, mapErr(err, bucket, key)
	}
	return obj, nil
}

func mapErr(err error, bucket, key string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return perr.NotFoundf("s3://%s/%s not found", bucket, key)
	}
	return perr.Wrapf(err, perr.ErrorCodeNetwork, "get s3://%s/%s", bucket, key)
}
