package models

import (
	"io"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// UploadedFile is the single multipart part accepted by the upload handler.
type UploadedFile struct {
	Body         io.Reader
	Size         int64
	ContentType  string
	OriginalName string
}

// UploadMeta is everything needed to derive a storage name.
type UploadMeta struct {
	OriginalName string
	ReceivedAt   time.Time
}

// DiaryEntry is a timestamped text record, immutable once written.
type DiaryEntry struct {
	ID        bson.ObjectID `json:"_id,omitzero" bson:"_id,omitempty"`
	Content   string        `json:"content" bson:"content"`
	Date      string        `json:"date" bson:"date"`             // display only, e.g. "19 Oct 2026, 03:04 PM"
	CreatedAt time.Time     `json:"created_at" bson:"created_at"` // sort key
}

type DiaryRequest struct {
	Content string `json:"content" form:"content" validate:"required"`
}

const DiaryDateLayout = "02 Jan 2006, 03:04 PM"

// NewDiaryEntry trims content and stamps it with now. The display date is
// rendered in loc; CreatedAt keeps the instant for sorting.
func NewDiaryEntry(content string, now time.Time, loc *time.Location) DiaryEntry {
	if loc == nil {
		loc = time.UTC
	}
	return DiaryEntry{
		Content:   strings.TrimSpace(content),
		Date:      now.In(loc).Format(DiaryDateLayout),
		CreatedAt: now.UTC(),
	}
}
