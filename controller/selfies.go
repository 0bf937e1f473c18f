package controller

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"selfiebox/models"
	"selfiebox/storage"
	"selfiebox/utils"
)

const (
	selfieField = "selfie"
	// Room for multipart boundaries and headers on top of the file itself.
	multipartOverhead = 1 << 20
)

type SelfieOptions struct {
	Folder         string
	MaxSize        int64
	AllowedTypes   []string
	ListLimit      int
	LenientListing bool
	Timeout        time.Duration
}

type SelfieController struct {
	blobs storage.BlobStore
	opts  SelfieOptions
	now   func() time.Time
	log   *zap.Logger
}

func NewSelfieController(blobs storage.BlobStore, opts SelfieOptions, log *zap.Logger) *SelfieController {
	return &SelfieController{blobs: blobs, opts: opts, now: time.Now, log: log}
}

// UploadSelfie handles POST /upload with one multipart file in "selfie".
func (sc *SelfieController) UploadSelfie(c *gin.Context) {
	if sc.opts.MaxSize > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, sc.opts.MaxSize+multipartOverhead)
	}

	header, err := c.FormFile(selfieField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusBadRequest, gin.H{"message": "File too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
		return
	}

	file, err := header.Open()
	if err != nil {
		sc.log.Error("Failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}
	defer file.Close()

	upload, err := sc.uploadedFile(header, file)
	if err != nil {
		sc.log.Error("Failed to read uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Something went wrong"})
		return
	}

	if err := utils.ValidateUpload(upload, sc.opts.AllowedTypes, sc.opts.MaxSize); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	name := utils.UniqueName(models.UploadMeta{OriginalName: upload.OriginalName, ReceivedAt: sc.now()})

	ctx, cancel := requestContext(c, sc.opts.Timeout)
	defer cancel()

	url, err := sc.blobs.Put(ctx, sc.opts.Folder, name, upload.Body, upload.Size, utils.MediaType(upload.ContentType))
	if err != nil {
		sc.log.Error("Failed to store selfie", zap.String("file", name), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Error uploading selfie"})
		return
	}

	sc.log.Info("Selfie saved", zap.String("file", name))
	c.JSON(http.StatusOK, gin.H{"message": "Selfie received", "file": name, "url": url})
}

// uploadedFile turns the multipart part into an UploadedFile, sniffing the
// content type when the client did not declare one.
func (sc *SelfieController) uploadedFile(header *multipart.FileHeader, file multipart.File) (models.UploadedFile, error) {
	ct := header.Header.Get("Content-Type")
	if ct == "" {
		sniffed, err := utils.Sniff(file)
		if err != nil {
			return models.UploadedFile{}, err
		}
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return models.UploadedFile{}, err
		}
		ct = sniffed
	}
	return models.UploadedFile{
		Body:         file,
		Size:         header.Size,
		ContentType:  ct,
		OriginalName: header.Filename,
	}, nil
}

// ListSelfies handles GET /selfies and returns up to ListLimit image URLs.
func (sc *SelfieController) ListSelfies(c *gin.Context) {
	ctx, cancel := requestContext(c, sc.opts.Timeout)
	defer cancel()

	urls, err := sc.blobs.List(ctx, sc.opts.Folder, sc.opts.ListLimit)
	if err != nil {
		sc.log.Error("Gallery error", zap.Error(err))
		if sc.opts.LenientListing {
			c.JSON(http.StatusOK, []string{})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error listing selfies"})
		return
	}
	if len(urls) > sc.opts.ListLimit {
		urls = urls[:sc.opts.ListLimit]
	}
	c.JSON(http.StatusOK, urls)
}

// requestContext bounds backend calls made on behalf of c. A zero timeout
// leaves the request context as is.
func requestContext(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(c.Request.Context(), timeout)
	}
	return context.WithCancel(c.Request.Context())
}
