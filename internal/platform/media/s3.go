// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package media

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/taibuivan/vidtube/pkg/uuid"
)

// ObjectPutter is the subset of the S3 client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config configures an S3-compatible bucket.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	// PublicURL is the base URL objects are served from. When empty it is
	// derived from Endpoint or the AWS virtual-hosted bucket URL.
	PublicURL string
	// Prefix namespaces every object key, e.g. "avatars".
	Prefix string
}

// S3Uploader stores staged assets in an S3-compatible bucket.
type S3Uploader struct {
	client    ObjectPutter
	bucket    string
	prefix    string
	publicURL string
}

/*
NewS3Uploader builds an uploader backed by the AWS SDK.

Static credentials are used when both keys are set; otherwise the default
credential chain applies. A custom endpoint switches to path-style addressing
so MinIO and R2 work unchanged.
*/
func NewS3Uploader(ctx context.Context, cfg S3Config) (*S3Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("media: bucket is required")
	}

	loadOptions := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOptions = append(loadOptions, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("media: load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3UploaderWithClient(client, cfg), nil
}

// NewS3UploaderWithClient builds an uploader around an existing client.
func NewS3UploaderWithClient(client ObjectPutter, cfg S3Config) *S3Uploader {
	return &S3Uploader{
		client:    client,
		bucket:    cfg.Bucket,
		prefix:    strings.Trim(cfg.Prefix, "/"),
		publicURL: publicBaseURL(cfg),
	}
}

/*
Upload pushes the staged asset to the bucket and removes the local copy.

Parameters:
  - ctx: context.Context
  - asset: *Asset

Returns:
  - *Uploaded: Public URL and object key
  - error: ErrNoFile or storage failures
*/
func (uploader *S3Uploader) Upload(ctx context.Context, asset *Asset) (*Uploaded, error) {
	if asset == nil || asset.LocalPath == "" {
		return nil, ErrNoFile
	}
	defer Discard(asset)

	file, err := os.Open(asset.LocalPath)
	if err != nil {
		return nil, fmt.Errorf("media: open staged file: %w", err)
	}
	defer file.Close()

	key := uploader.objectKey(asset.Filename)
	input := &s3.PutObjectInput{
		Bucket: aws.String(uploader.bucket),
		Key:    aws.String(key),
		Body:   file,
	}
	if asset.ContentType != "" {
		input.ContentType = aws.String(asset.ContentType)
	}
	if asset.Size > 0 {
		input.ContentLength = aws.Int64(asset.Size)
	}

	if _, err := uploader.client.PutObject(ctx, input); err != nil {
		return nil, fmt.Errorf("media: put object %q: %w", key, err)
	}

	return &Uploaded{URL: uploader.publicURL + "/" + key, Key: key}, nil
}

func (uploader *S3Uploader) objectKey(filename string) string {
	return path.Join(uploader.prefix, uuid.New()+Extension(filename))
}

func publicBaseURL(cfg S3Config) string {
	switch {
	case cfg.PublicURL != "":
		return strings.TrimRight(cfg.PublicURL, "/")
	case cfg.Endpoint != "":
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
}
