package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"selfiebox/models"
)

type S3Options struct {
	Region          string
	Bucket          string
	Endpoint        string // empty for AWS itself
	AccessKeyID     string // empty to use the default credential chain
	SecretAccessKey string
	PresignTTL      time.Duration // 0 returns plain object URLs
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Store keeps selfies in an S3 bucket. Retrieval URLs are presigned GETs
// when PresignTTL is set.
type S3Store struct {
	client  s3API
	presign presignAPI
	opts    S3Options
	log     *zap.Logger
}

var loadAWSConfig = config.LoadDefaultConfig

func NewS3Store(ctx context.Context, opts S3Options, log *zap.Logger) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket name is required")
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}
	if opts.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, ""),
		))
	}
	cfg, err := loadAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Store(client, s3.NewPresignClient(client), opts, log), nil
}

func newS3Store(client s3API, presign presignAPI, opts S3Options, log *zap.Logger) *S3Store {
	return &S3Store{client: client, presign: presign, opts: opts, log: log}
}

func (s *S3Store) Put(ctx context.Context, folder, name string, body io.Reader, size int64, contentType string) (string, error) {
	key := objectKey(folder, name)

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.opts.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		s.log.Error("Failed to upload selfie to S3", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("%w: put %s: %v", models.ErrBackendOperation, key, err)
	}

	s.log.Info("Selfie uploaded to S3",
		zap.String("bucket", s.opts.Bucket),
		zap.String("key", key),
		zap.Int64("size", size))

	return s.url(ctx, key), nil
}

func (s *S3Store) List(ctx context.Context, folder string, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket:  aws.String(s.opts.Bucket),
		Prefix:  aws.String(listPrefix(folder)),
		MaxKeys: aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", models.ErrBackendOperation, folder, err)
	}

	urls := make([]string, 0, len(out.Contents))
	for _, obj := range out.Contents {
		if len(urls) >= limit {
			break
		}
		key := aws.ToString(obj.Key)
		if key == "" || key[len(key)-1] == '/' {
			continue
		}
		urls = append(urls, s.url(ctx, key))
	}
	return urls, nil
}

// url presigns key when PresignTTL is set and falls back to the plain object
// URL if signing fails.
func (s *S3Store) url(ctx context.Context, key string) string {
	if s.opts.PresignTTL > 0 && s.presign != nil {
		req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.opts.Bucket),
			Key:    aws.String(key),
		}, func(o *s3.PresignOptions) {
			o.Expires = s.opts.PresignTTL
		})
		if err == nil {
			return req.URL
		}
		s.log.Warn("Error generating pre-signed URL", zap.String("key", key), zap.Error(err))
	}
	return s.objectURL(key)
}

func (s *S3Store) objectURL(key string) string {
	if s.opts.Endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(s.opts.Endpoint, "/"), s.opts.Bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.opts.Bucket, s.opts.Region, key)
}
