package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// supabaseS3Path is the S3 protocol path of Supabase storage endpoints
const supabaseS3Path = "/storage/v1/s3"

// S3Uploader stores images in S3-compatible object storage
type S3Uploader struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
}

// S3Config holds configuration for S3 uploader
type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
	Region          string
}

// NewS3Uploader creates a new S3 uploader
func NewS3Uploader(config *S3Config) (*S3Uploader, error) {
	if config.Endpoint == "" || config.AccessKeyID == "" || config.AccessKeySecret == "" {
		return nil, fmt.Errorf("S3 configuration is incomplete")
	}

	if config.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket is not configured")
	}

	region := config.Region
	if region == "" {
		region = "us-east-1"
	}

	endpoint := strings.TrimRight(config.Endpoint, "/")
	sess, err := session.NewSession(&aws.Config{
		Region:           aws.String(region),
		Endpoint:         aws.String(endpoint),
		Credentials:      credentials.NewStaticCredentials(config.AccessKeyID, config.AccessKeySecret, ""),
		S3ForcePathStyle: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return &S3Uploader{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		endpoint: endpoint,
	}, nil
}

// Save uploads an image and returns its public URL
func (u *S3Uploader) Save(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", &StorageError{Op: "validate_key", Err: err}
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := u.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", &StorageError{Op: "upload_to_s3", Err: fmt.Errorf("failed to upload to S3: %w", err)}
	}

	return u.PublicURL(key), nil
}

// PublicURL builds the public URL of an object.
// Supabase endpoints use /storage/v1/object/public/{bucket}/{key}; other
// S3-compatible endpoints use path-style {endpoint}/{bucket}/{key}.
func (u *S3Uploader) PublicURL(key string) string {
	if strings.HasSuffix(u.endpoint, supabaseS3Path) {
		baseURL := strings.TrimSuffix(u.endpoint, supabaseS3Path)
		return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", baseURL, u.bucket, key)
	}
	return fmt.Sprintf("%s/%s/%s", u.endpoint, u.bucket, key)
}
