package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Backend stores file bytes in an S3-compatible bucket under a
// configurable key prefix, an alternative to LocalBackend selected via
// config.json's storage.backend field. Index, queue, and quota semantics
// in FileStore are unchanged; only the byte path moves off local disk.
type S3Backend struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3BackendConfig configures an S3Backend.
type S3BackendConfig struct {
	Bucket   string
	Prefix   string
	Region   string
	Endpoint string
}

// NewS3Backend builds an S3Backend using the default AWS credential chain,
// optionally pointed at a custom (e.g. S3-compatible, self-hosted) endpoint.
func NewS3Backend(ctx context.Context, cfg S3BackendConfig) (*S3Backend, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("filestore: s3 backend requires a bucket")
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("filestore: failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	prefix := strings.TrimSuffix(cfg.Prefix, "/")
	if prefix == "" {
		prefix = "files"
	}

	return &S3Backend{client: client, bucket: cfg.Bucket, prefix: prefix}, nil
}

func (b *S3Backend) key(hash string) string {
	return b.prefix + "/" + hash
}

func (b *S3Backend) Write(ctx context.Context, hash string, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(hash)),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("filestore: s3 put %s: %w", hash, err)
	}
	return nil
}

func (b *S3Backend) Read(ctx context.Context, hash string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(hash)),
	})
	if err != nil {
		return nil, fmt.Errorf("filestore: s3 get %s: %w", hash, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("filestore: s3 read body %s: %w", hash, err)
	}
	return data, nil
}

func (b *S3Backend) Remove(ctx context.Context, hash string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(hash)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("filestore: s3 delete %s: %w", hash, err)
	}
	return nil
}

func (b *S3Backend) Size(ctx context.Context, hash string) (int64, error) {
	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(hash)),
	})
	if err != nil {
		return 0, fmt.Errorf("filestore: s3 head %s: %w", hash, err)
	}
	if out.ContentLength == nil {
		return 0, nil
	}
	return *out.ContentLength, nil
}

// isNotFound reports whether err indicates the object does not exist,
// which Remove treats as success.
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	var nf *types.NotFound
	return errors.As(err, &nsk) || errors.As(err, &nf)
}
