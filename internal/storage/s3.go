package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds configuration for S3-compatible storage (MinIO, R2, AWS).
type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Region    string
	PublicURL string // Public URL prefix for CDN or path-style serving

	// Physical bucket names per role.
	OriginalBucket   string
	ThumbnailBucket  string
	CompressedBucket string
}

// S3Store implements ObjectStore for S3-compatible services with one bucket
// per artifact role.
type S3Store struct {
	client    *s3.Client
	buckets   map[BucketRole]string
	endpoint  string
	useSSL    bool
	publicURL string
}

// NewS3Store creates a new S3-compatible storage client.
func NewS3Store(cfg *S3Config) (*S3Store, error) {
	endpoint := normalizeEndpoint(cfg.Endpoint)

	region := cfg.Region
	if region == "" {
		region = "us-east-1" // Default region for S3-compatible services
	}

	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	endpointURL := fmt.Sprintf("%s://%s", scheme, endpoint)

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpointURL)
		o.UsePathStyle = true // Use path-style for S3-compatible services
	})

	return &S3Store{
		client: client,
		buckets: map[BucketRole]string{
			BucketOriginal:   cfg.OriginalBucket,
			BucketThumbnails: cfg.ThumbnailBucket,
			BucketCompressed: cfg.CompressedBucket,
		},
		endpoint:  endpoint,
		useSSL:    cfg.UseSSL,
		publicURL: strings.TrimSuffix(cfg.PublicURL, "/"),
	}, nil
}

// normalizeEndpoint removes protocol prefix and path from endpoint
func normalizeEndpoint(endpoint string) string {
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	if idx := strings.Index(endpoint, "/"); idx != -1 {
		endpoint = endpoint[:idx]
	}

	return strings.TrimSuffix(endpoint, "/")
}

// bucket resolves the physical bucket name for a role.
func (s *S3Store) bucket(role BucketRole) (string, error) {
	name, ok := s.buckets[role]
	if !ok || name == "" {
		return "", fmt.Errorf("no bucket configured for role %q", role)
	}
	return name, nil
}

// EnsureBuckets creates every role bucket that does not exist yet.
func (s *S3Store) EnsureBuckets(ctx context.Context) error {
	for role, name := range s.buckets {
		_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
			Bucket: aws.String(name),
		})
		if err == nil {
			continue
		}

		if _, err := s.client.CreateBucket(ctx, &s3.CreateBucketInput{
			Bucket: aws.String(name),
		}); err != nil {
			return fmt.Errorf("failed to create bucket %s for role %s: %w", name, role, err)
		}
	}
	return nil
}

// Upload stores data under key in the role's bucket and returns its URL.
func (s *S3Store) Upload(ctx context.Context, role BucketRole, key string, data []byte, contentType string) (string, error) {
	bucket, err := s.bucket(role)
	if err != nil {
		return "", err
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s/%s: %w", bucket, key, err)
	}

	return s.URL(role, key), nil
}

// Delete removes the object stored under key in the role's bucket.
func (s *S3Store) Delete(ctx context.Context, role BucketRole, key string) error {
	bucket, err := s.bucket(role)
	if err != nil {
		return err
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s/%s: %w", bucket, key, err)
	}
	return nil
}

// URL returns the public URL for an object in the role's bucket.
func (s *S3Store) URL(role BucketRole, key string) string {
	bucket := s.buckets[role]
	if s.publicURL != "" {
		return fmt.Sprintf("%s/%s/%s", s.publicURL, bucket, key)
	}
	scheme := "http"
	if s.useSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", scheme, s.endpoint, bucket, key)
}
