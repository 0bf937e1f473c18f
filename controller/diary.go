package controller

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"selfiebox/database"
	"selfiebox/models"
)

type DiaryController struct {
	store    database.DiaryStore
	loc      *time.Location
	timeout  time.Duration
	validate *validator.Validate
	now      func() time.Time
	log      *zap.Logger
}

func NewDiaryController(store database.DiaryStore, loc *time.Location, timeout time.Duration, log *zap.Logger) *DiaryController {
	return &DiaryController{
		store:    store,
		loc:      loc,
		timeout:  timeout,
		validate: validator.New(),
		now:      time.Now,
		log:      log,
	}
}

// CreateEntry handles POST /diary with a JSON or form body carrying content.
func (dc *DiaryController) CreateEntry(c *gin.Context) {
	var req models.DiaryRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if err := dc.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Content is required"})
		return
	}

	entry := models.NewDiaryEntry(req.Content, dc.now(), dc.loc)

	ctx, cancel := requestContext(c, dc.timeout)
	defer cancel()

	if err := dc.store.Insert(ctx, &entry); err != nil {
		dc.log.Error("Failed to save diary entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": backendMessage(err, "Failed to save entry")})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListEntries handles GET /diary, newest entry first.
func (dc *DiaryController) ListEntries(c *gin.Context) {
	ctx, cancel := requestContext(c, dc.timeout)
	defer cancel()

	entries, err := dc.store.FindAllNewestFirst(ctx)
	if err != nil {
		dc.log.Error("Failed to load diary", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": backendMessage(err, "Failed to load diary")})
		return
	}
	if entries == nil {
		entries = []models.DiaryEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func backendMessage(err error, fallback string) string {
	if errors.Is(err, models.ErrBackendUnavailable) {
		return "Database not connected"
	}
	return fallback
}
