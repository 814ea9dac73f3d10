// Package storage archives raw price-list feeds in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	infraconfig "github.com/shop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// S3FeedArchive stores imported feeds in an S3 bucket (AWS S3, MinIO, RustFS)
type S3FeedArchive struct {
	client *s3.Client
	bucket string
	prefix string
	logger *zap.Logger
	now    func() time.Time
}

// S3FeedArchiveOption is a functional option for configuring S3FeedArchive
type S3FeedArchiveOption func(*S3FeedArchive)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) S3FeedArchiveOption {
	return func(s *S3FeedArchive) {
		s.logger = logger
	}
}

// WithClock overrides the time source used in object keys
func WithClock(now func() time.Time) S3FeedArchiveOption {
	return func(s *S3FeedArchive) {
		s.now = now
	}
}

// NewS3FeedArchive creates an archive from configuration
func NewS3FeedArchive(ctx context.Context, cfg infraconfig.StorageConfig, opts ...S3FeedArchiveOption) (*S3FeedArchive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	archive := &S3FeedArchive{
		client: client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(archive)
	}
	return archive, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *S3FeedArchive) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	if err == nil {
		return nil
	}

	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	s.logger.Info("creating feed archive bucket", zap.String("bucket", s.bucket))
	_, err = s.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(s.bucket)})
	if err != nil {
		var alreadyOwned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &alreadyOwned) {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}
	return nil
}

// Archive uploads a feed under <prefix>/<shop>/<timestamp>-<file> and returns the key
func (s *S3FeedArchive) Archive(ctx context.Context, shop, fileName string, data []byte) (string, error) {
	key := ObjectKey(s.prefix, shop, fileName, s.now())

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(fileName)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to archive feed: %w", err)
	}

	s.logger.Debug("feed archived",
		zap.String("bucket", s.bucket),
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return key, nil
}

// Bucket returns the bucket name
func (s *S3FeedArchive) Bucket() string {
	return s.bucket
}

// ObjectKey builds the archive key for a feed
func ObjectKey(prefix, shop, fileName string, at time.Time) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" {
		name = "feed"
	}
	object := fmt.Sprintf("%s-%s", at.UTC().Format("20060102T150405Z"), name)
	return path.Join(prefix, slug(shop), object)
}

// slug lowercases and keeps letters and digits, folding the rest into single dashes
func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "unknown"
	}
	return out
}

func contentType(fileName string) string {
	switch strings.ToLower(path.Ext(fileName)) {
	case ".yaml", ".yml":
		return "application/yaml"
	case ".csv":
		return "text/csv"
	case ".json":
		return "application/json"
	}
	return "application/octet-stream"
}

// NopFeedArchive discards feeds; used when storage is disabled
type NopFeedArchive struct{}

// Archive does nothing and returns an empty key
func (NopFeedArchive) Archive(context.Context, string, string, []byte) (string, error) {
	return "", nil
}
