package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"arstatements/internal/logger"
)

// ObjectPutter is the part of *s3.Client used for archiving.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options configures an S3-compatible archive.
type S3Options struct {
	Endpoint     string
	Region       string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Prefix       string
	UsePathStyle bool
}

// S3Sink archives documents to any S3-compatible store (AWS S3, MinIO, RustFS).
type S3Sink struct {
	client   ObjectPutter
	bucket   string
	prefix   string
	endpoint string
	log      zerolog.Logger
}

// NewS3Sink builds an S3 client from static credentials.
func NewS3Sink(ctx context.Context, opts S3Options) (*S3Sink, error) {
	const op = "NewS3Sink"

	if opts.Bucket == "" {
		return nil, fmt.Errorf("%s: bucket is required", op)
	}
	region := opts.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			opts.AccessKey,
			opts.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create AWS config: %w", op, err)
	}

	endpoint := opts.Endpoint
	if endpoint != "" && !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		endpoint = "https://" + endpoint
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return NewS3SinkWithClient(client, opts.Bucket, opts.Prefix, endpoint), nil
}

// NewS3SinkWithClient wraps an existing client.
func NewS3SinkWithClient(client ObjectPutter, bucket, prefix, endpoint string) *S3Sink {
	return &S3Sink{
		client:   client,
		bucket:   bucket,
		prefix:   prefix,
		endpoint: strings.TrimSuffix(endpoint, "/"),
		log:      logger.WithComponent("archive-s3"),
	}
}

// Archive implements Sink.
func (s *S3Sink) Archive(ctx context.Context, localPath string, dest Destination) (string, error) {
	const op = "S3Sink.Archive"

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer f.Close()

	key := dest.Key(s.prefix, localPath)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("%s: put %s: %s: %w", op, key, apiErr.ErrorCode(), err)
		}
		return "", fmt.Errorf("%s: put %s: %w", op, key, err)
	}

	ref := s.reference(key)
	s.log.Debug().Str("path", localPath).Str("key", key).Msg("Document archived")
	return ref, nil
}

func (s *S3Sink) reference(key string) string {
	if s.endpoint != "" {
		return s.endpoint + "/" + s.bucket + "/" + key
	}
	return "s3://" + s.bucket + "/" + key
}
