package sqldb

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/HatfieldAlex/MyPocketSpice/pkg/catalog"
	"github.com/HatfieldAlex/MyPocketSpice/pkg/storage"
)

// s3API is the part of *s3.Client used for snapshots
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
}

// SnapshotUploader writes catalogue snapshots to an S3 bucket
type SnapshotUploader struct {
	client s3API
	bucket string
	prefix string
}

// NewSnapshotUploader builds an S3 client from cfg, using static
// credentials when both keys are set and the default chain otherwise
func NewSnapshotUploader(ctx context.Context, cfg storage.Config) (*SnapshotUploader, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, ""),
		))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3UsePathStyle
	})

	return newSnapshotUploader(client, cfg.S3Bucket, cfg.S3Prefix), nil
}

func newSnapshotUploader(client s3API, bucket, prefix string) *SnapshotUploader {
	return &SnapshotUploader{client: client, bucket: bucket, prefix: prefix}
}

// EnsureBucket creates the bucket when it does not exist (local MinIO)
func (u *SnapshotUploader) EnsureBucket(ctx context.Context) error {
	_, err := u.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(u.bucket)})
	if err == nil {
		return nil
	}

	_, err = u.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(u.bucket)})
	var owned *types.BucketAlreadyOwnedByYou
	var exists *types.BucketAlreadyExists
	if err != nil && !errors.As(err, &owned) && !errors.As(err, &exists) {
		return fmt.Errorf("failed to create bucket %s: %w", u.bucket, err)
	}
	return nil
}

// SnapshotKey returns the object key for a snapshot
func (u *SnapshotUploader) SnapshotKey(snap *catalog.Snapshot) string {
	return path.Join(u.prefix, "catalogue-"+snap.GeneratedAt.UTC().Format("20060102T150405Z")+".json")
}

// Upload writes snap as JSON and returns its object key
func (u *SnapshotUploader) Upload(ctx context.Context, snap *catalog.Snapshot) (string, error) {
	key := u.SnapshotKey(snap)

	ctx, span := tracer.Start(ctx, "S3.PutObject",
		trace.WithAttributes(
			attribute.String("s3.operation", "PutObject"),
			attribute.String("s3.bucket", u.bucket),
			attribute.String("s3.key", key),
		),
	)
	defer span.End()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to encode snapshot")
		return "", fmt.Errorf("failed to encode snapshot: %w", err)
	}

	sum := sha256.Sum256(data)
	span.SetAttributes(attribute.Int("content.size", len(data)))

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"checksum-sha256": hex.EncodeToString(sum[:]),
			"recipes":         fmt.Sprint(len(snap.Recipes)),
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to upload to s3")
		return "", fmt.Errorf("failed to upload snapshot: %w", err)
	}

	span.SetStatus(codes.Ok, "snapshot uploaded")
	return key, nil
}
