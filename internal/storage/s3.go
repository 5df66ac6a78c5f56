package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// S3Uploader stores media in an S3 bucket served through baseURL.
type S3Uploader struct {
	client  s3API
	bucket  string
	baseURL string
	now     func() time.Time
}

// NewS3Uploader creates a new S3 uploader
func NewS3Uploader(region, bucket, baseURL string) (*S3Uploader, error) {
	cfg, err := config.LoadDefaultConfig(context.Background(), config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Uploader{
		client:  s3.NewFromConfig(cfg),
		bucket:  bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}, nil
}

// Upload writes the object under {folder}/{year}/{month}/{uuid}{ext}.
func (u *S3Uploader) Upload(ctx context.Context, folder string, file File) (*UploadResult, error) {
	now := u.now()
	key := fmt.Sprintf("%s/%d/%02d/%s%s", folder, now.Year(), now.Month(), uuid.New().String(), extensionOf(file.Filename))

	contentType := file.ContentType
	if contentType == "" {
		contentType = ContentTypeFor(file.Filename)
	}

	input := &s3.PutObjectInput{
		Bucket:       aws.String(u.bucket),
		Key:          aws.String(key),
		Body:         file.Reader,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=86400"),
		Metadata: map[string]string{
			"original-filename": file.Filename,
			"upload-timestamp":  now.Format(time.RFC3339),
		},
	}
	if file.Size > 0 {
		input.ContentLength = aws.Int64(file.Size)
	}
	if _, err := u.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		Key:  key,
		URL:  fmt.Sprintf("%s/%s", u.baseURL, key),
		Size: file.Size,
	}, nil
}

func (u *S3Uploader) Delete(ctx context.Context, key string) error {
	_, err := u.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(u.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

// CheckBucketAccess verifies that we can access the S3 bucket
func (u *S3Uploader) CheckBucketAccess(ctx context.Context) error {
	if _, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.bucket)}); err != nil {
		return fmt.Errorf("cannot access S3 bucket %s: %w", u.bucket, err)
	}
	return nil
}
