// Package objectstore uploads generated images to S3 and returns public URLs
// for them.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"inkwell/internal/utils"
)

// s3API is the subset of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads image bytes to an S3 bucket
type S3Store struct {
	client        s3API
	bucket        string
	prefix        string
	publicBaseURL string
	logger        *utils.Logger
}

// NewS3Store creates an S3-backed image store
func NewS3Store(ctx context.Context, bucket, region, prefix, publicBaseURL string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg)

	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}

	return &S3Store{
		client:        client,
		bucket:        bucket,
		prefix:        prefix,
		publicBaseURL: strings.TrimSuffix(publicBaseURL, "/"),
		logger:        utils.NewLogger("s3-store"),
	}, nil
}

// PutImage uploads image bytes and returns the public URL of the object.
// Keys are date-partitioned so buckets stay browsable:
// images/2025/11/30/8b1e....png
func (s *S3Store) PutImage(ctx context.Context, data []byte, contentType string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no image data to upload")
	}

	now := time.Now()
	key := fmt.Sprintf("%s%04d/%02d/%02d/%s%s",
		s.prefix,
		now.Year(),
		now.Month(),
		now.Day(),
		uuid.New().String(),
		extensionFor(contentType),
	)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	s.logger.Info("Uploaded image to S3", "key", key, "bytes", len(data))
	return s.publicBaseURL + "/" + key, nil
}

func extensionFor(contentType string) string {
	switch contentType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
