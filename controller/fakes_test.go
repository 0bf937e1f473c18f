package controller

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"selfiebox/models"
)

type storedBlob struct {
	folder, name, contentType string
	data                      []byte
}

type fakeBlobStore struct {
	mu      sync.Mutex
	blobs   []storedBlob
	putErr  error
	listErr error
}

func (f *fakeBlobStore) Put(ctx context.Context, folder, name string, body io.Reader, size int64, contentType string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs = append(f.blobs, storedBlob{folder: folder, name: name, contentType: contentType, data: data})
	return f.url(folder, name), nil
}

func (f *fakeBlobStore) List(ctx context.Context, folder string, limit int) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	urls := []string{}
	for _, b := range f.blobs {
		if b.folder == folder && len(urls) < limit {
			urls = append(urls, f.url(b.folder, b.name))
		}
	}
	return urls, nil
}

func (f *fakeBlobStore) url(folder, name string) string {
	return fmt.Sprintf("/uploads/%s/%s", folder, name)
}

type fakeDiaryStore struct {
	mu        sync.Mutex
	entries   []models.DiaryEntry
	insertErr error
	findErr   error
}

func (f *fakeDiaryStore) Insert(ctx context.Context, e *models.DiaryEntry) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeDiaryStore) FindAllNewestFirst(ctx context.Context) ([]models.DiaryEntry, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]models.DiaryEntry(nil), f.entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// tickingClock returns a clock that advances one second per call.
func tickingClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

var (
	jpegBytes = append([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}, bytes.Repeat([]byte{0}, 64)...)
	pngBytes  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n', 0, 0, 0, 0}
)

// multipartRequest builds POST path with a single file part. An empty
// contentType leaves the part header out.
func multipartRequest(t *testing.T, path, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func init() {
	gin.SetMode(gin.TestMode)
}
