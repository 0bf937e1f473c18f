// Package storage holds the blob store backends for uploaded selfies.
// Every backend keeps objects under a logical folder and hands back a URL a
// browser can fetch them from.
package storage

import (
	"context"
	"io"
	"path"
	"strings"
)

const (
	BackendLocal = "local"
	BackendS3    = "s3"
	BackendMinio = "minio"
)

// BlobStore is implemented by LocalStore, S3Store and MinioStore.
type BlobStore interface {
	// Put stores body under folder/name and returns its retrieval URL. The
	// object is either fully stored or not visible at all.
	Put(ctx context.Context, folder, name string, body io.Reader, size int64, contentType string) (string, error)
	// List returns retrieval URLs of at most limit objects under folder.
	List(ctx context.Context, folder string, limit int) ([]string, error)
}

func objectKey(folder, name string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return path.Join(folder, name)
}

func listPrefix(folder string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return ""
	}
	return folder + "/"
}
