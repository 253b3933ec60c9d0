package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// S3Config holds configuration for an S3-compatible bucket (AWS, DO Spaces, MinIO)
type S3Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string // Host without scheme, empty for AWS
	CDNURL    string
	PathStyle bool
}

// S3Store stores blobs in an S3-compatible bucket
type S3Store struct {
	client s3iface.S3API
	config S3Config
}

// NewS3Store creates a client from explicit configuration
func NewS3Store(config S3Config) (*S3Store, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket is required")
	}

	awsConfig := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(config.AccessKey, config.SecretKey, ""),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(config.PathStyle),
	}
	if config.Endpoint != "" {
		awsConfig.Endpoint = aws.String(withScheme(config.Endpoint))
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 session: %w", err)
	}

	return NewS3StoreWithClient(s3.New(sess), config), nil
}

// NewS3StoreWithClient wraps an existing client
func NewS3StoreWithClient(client s3iface.S3API, config S3Config) *S3Store {
	return &S3Store{client: client, config: config}
}

// Put uploads a blob and returns its public URL
func (s *S3Store) Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error) {
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.config.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ACL:         aws.String(s3.ObjectCannedACLPublicRead),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.URL(key), nil
}

// Delete removes a blob
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var aerr awserr.Error
		if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
			return ErrObjectNotFound
		}
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// List returns every object under prefix, following continuation tokens
func (s *S3Store) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object
	err := s.client.ListObjectsV2PagesWithContext(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.Bucket),
		Prefix: aws.String(prefix),
	}, func(page *s3.ListObjectsV2Output, _ bool) bool {
		for _, obj := range page.Contents {
			objects = append(objects, Object{
				Key:          aws.StringValue(obj.Key),
				Size:         aws.Int64Value(obj.Size),
				LastModified: aws.TimeValue(obj.LastModified),
			})
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", prefix, err)
	}
	return objects, nil
}

// URL returns the public URL for a key
func (s *S3Store) URL(key string) string {
	key = EscapeKey(key)
	if s.config.CDNURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.config.CDNURL, "/"), key)
	}
	host := strings.TrimPrefix(strings.TrimPrefix(s.config.Endpoint, "https://"), "http://")
	switch {
	case host == "":
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.Bucket, s.config.Region, key)
	case s.config.PathStyle:
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(withScheme(s.config.Endpoint), "/"), s.config.Bucket, key)
	default:
		return fmt.Sprintf("https://%s.%s/%s", s.config.Bucket, host, key)
	}
}

func withScheme(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "https://" + endpoint
}
