package tiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/JJFrisch/RoadTrip-sub001/internal/domain"
)

// S3Source reads pre-rendered tiles from an S3 bucket laid out as
// <prefix>/<z>/<x>/<y>.png.
type S3Source struct {
	client *s3.Client
	bucket string
	prefix string
}

// S3Config holds S3 tile source configuration.
type S3Config struct {
	Bucket          string
	Region          string
	Prefix          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Source creates a tile source backed by an S3 bucket.
func NewS3Source(ctx context.Context, cfg S3Config) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}

	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(cfg.Region))

	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				cfg.AccessKeyID,
				cfg.SecretAccessKey,
				"",
			),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	var clientOpts []func(*s3.Options)
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	return &S3Source{
		client: s3.NewFromConfig(awsCfg, clientOpts...),
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (s *S3Source) tileKey(zoom int, col, row uint32) string {
	key := fmt.Sprintf("%d/%d/%d.png", zoom, col, row)
	if s.prefix != "" {
		key = s.prefix + "/" + key
	}
	return key
}

// FetchTile downloads a single tile object.
func (s *S3Source) FetchTile(ctx context.Context, zoom int, col, row uint32) ([]byte, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.tileKey(zoom, col, row)),
	})
	if err != nil {
		return nil, &domain.TileError{Zoom: zoom, Col: col, Row: row, Err: err}
	}
	defer func() { _ = result.Body.Close() }()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, &domain.TileError{Zoom: zoom, Col: col, Row: row, Err: err}
	}
	return data, nil
}

// CheckAccess verifies the bucket is reachable with the configured
// credentials.
func (s *S3Source) CheckAccess(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return fmt.Errorf("%w: s3 bucket %s: %w", domain.ErrMissingCredential, s.bucket, err)
	}
	return nil
}
