package repositories

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rohanj-dev/skystash/internal/config"
)

// StoredObject describes a blob persisted in the object store. Size comes
// from the store itself, not from anything the client declared.
type StoredObject struct {
	Key  string
	URL  string
	Size int64
}

// BlobStore is the S3-compatible object storage adapter.
type BlobStore struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

// NewBlobStore builds the S3 client for an R2-style endpoint using static
// credentials.
func NewBlobStore(cfg config.S3Config) *BlobStore {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	awsCfg := aws.Config{
		Credentials: credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Region:      cfg.Region,
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	return &BlobStore{
		client:        client,
		bucket:        cfg.BucketName,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}
}

// Upload writes the object and reads back its metadata so the reported size
// is the store's own, then returns the durable public URL.
func (b *BlobStore) Upload(ctx context.Context, key, contentType string, body io.Reader) (*StoredObject, error) {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object: %w", err)
	}

	head, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("head object: %w", err)
	}

	return &StoredObject{
		Key:  key,
		URL:  fmt.Sprintf("%s/%s", b.publicBaseURL, key),
		Size: aws.ToInt64(head.ContentLength),
	}, nil
}

// Delete removes an object from the bucket.
func (b *BlobStore) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	return err
}

// PresignDownload creates a temporary signed GET URL for an object.
func (b *BlobStore) PresignDownload(ctx context.Context, key string, expires time.Duration) (string, error) {
	presigner := s3.NewPresignClient(b.client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}
