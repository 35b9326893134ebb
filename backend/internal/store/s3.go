package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"bom-server/backend/internal/bom"
	"bom-server/backend/pkg/config"
	bomerrors "bom-server/backend/pkg/errors"
)

// S3Config holds explicit construction parameters. Credentials come from the
// default AWS chain.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional; set for MinIO and other S3-compatible servers
	Key       string
	PathStyle bool
}

// objectAPI is the part of the S3 client the store uses
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 keeps the snapshot as one JSON object
type S3 struct {
	client objectAPI
	bucket string
	key    string
}

// NewS3 creates an S3 snapshot store from cfg
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, bomerrors.NewConfigMissingRequired("S3_BUCKET")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, bomerrors.NewStoreFailed(config.StoreS3, "open", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3WithClient(client, cfg.Bucket, cfg.Key), nil
}

func newS3WithClient(client objectAPI, bucket, key string) *S3 {
	if key == "" {
		key = "bom/snapshot.json"
	}
	return &S3{client: client, bucket: bucket, key: key}
}

func (s *S3) Load(ctx context.Context) (bom.Snapshot, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &s.key})
	if err != nil {
		var missing *types.NoSuchKey
		if errors.As(err, &missing) {
			return bom.Snapshot{}, nil
		}
		return bom.Snapshot{}, bomerrors.NewStoreFailed(config.StoreS3, "load", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return bom.Snapshot{}, bomerrors.NewStoreFailed(config.StoreS3, "load", fmt.Errorf("read body: %w", err))
	}
	return decodeSnapshot(config.StoreS3, data)
}

func (s *S3) Save(ctx context.Context, snap bom.Snapshot) error {
	data, err := encodeSnapshot(config.StoreS3, snap)
	if err != nil {
		return err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &s.key,
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return bomerrors.NewStoreFailed(config.StoreS3, "save", err)
	}
	return nil
}

func (s *S3) Close() error { return nil }
