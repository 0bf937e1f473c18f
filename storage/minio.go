package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"selfiebox/models"
)

type MinioOptions struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PublicBase string // e.g. "http://localhost:9000/selfies"
}

type minioAPI interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	ListObjects(ctx context.Context, bucketName string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
}

// MinioStore keeps selfies in any S3-compatible server reachable through
// minio-go. The bucket is made public-read so PublicBase URLs work directly.
type MinioStore struct {
	client     minioAPI
	bucket     string
	publicBase string
	log        *zap.Logger
}

func NewMinioStore(ctx context.Context, opts MinioOptions, log *zap.Logger) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio: create client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("minio: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("minio: create bucket %q: %w", opts.Bucket, err)
		}
		log.Info("Bucket created", zap.String("bucket", opts.Bucket))
	}
	if err := client.SetBucketPolicy(ctx, opts.Bucket, publicReadPolicy(opts.Bucket)); err != nil {
		return nil, fmt.Errorf("minio: set bucket policy: %w", err)
	}

	publicBase := opts.PublicBase
	if publicBase == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		publicBase = fmt.Sprintf("%s://%s/%s", scheme, opts.Endpoint, opts.Bucket)
	}
	return newMinioStore(client, opts.Bucket, publicBase, log), nil
}

func newMinioStore(client minioAPI, bucket, publicBase string, log *zap.Logger) *MinioStore {
	return &MinioStore{
		client:     client,
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
		log:        log,
	}
}

func (s *MinioStore) Put(ctx context.Context, folder, name string, body io.Reader, size int64, contentType string) (string, error) {
	key := objectKey(folder, name)
	info, err := s.client.PutObject(ctx, s.bucket, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		s.log.Error("Failed to upload selfie to MinIO", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("%w: put %s: %v", models.ErrBackendOperation, key, err)
	}
	s.log.Info("Selfie uploaded to MinIO", zap.String("key", key), zap.Int64("size", info.Size))
	return s.PublicURL(key), nil
}

func (s *MinioStore) List(ctx context.Context, folder string, limit int) ([]string, error) {
	if limit <= 0 {
		return []string{}, nil
	}
	// Cancelling stops the listing goroutine once we have enough keys.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	urls := make([]string, 0, limit)
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{
		Prefix:    listPrefix(folder),
		Recursive: true,
		MaxKeys:   limit,
	}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("%w: list %s: %v", models.ErrBackendOperation, folder, obj.Err)
		}
		urls = append(urls, s.PublicURL(obj.Key))
		if len(urls) >= limit {
			break
		}
	}
	return urls, nil
}

// PublicURL returns the browser-accessible URL for key.
func (s *MinioStore) PublicURL(key string) string {
	return s.publicBase + "/" + key
}

// publicReadPolicy allows anonymous GET on every object in bucket.
func publicReadPolicy(bucket string) string {
	policy := map[string]interface{}{
		"Version": "2012-10-17",
		"Statement": []map[string]interface{}{
			{
				"Effect":    "Allow",
				"Principal": map[string]interface{}{"AWS": []string{"*"}},
				"Action":    []string{"s3:GetObject"},
				"Resource":  []string{fmt.Sprintf("arn:aws:s3:::%s/*", bucket)},
			},
		},
	}
	b, _ := json.Marshal(policy)
	return string(b)
}
