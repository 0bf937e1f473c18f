package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"selfiebox/database"
	"selfiebox/models"
)

func newDiaryRouter(t *testing.T, store database.DiaryStore) *gin.Engine {
	t.Helper()
	dc := NewDiaryController(store, time.UTC, time.Second, zaptest.NewLogger(t))
	dc.now = tickingClock(time.Date(2026, time.October, 19, 10, 0, 0, 0, time.UTC))
	r := gin.New()
	r.GET("/diary", dc.ListEntries)
	r.POST("/diary", dc.CreateEntry)
	return r
}

func postJSON(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDiary_NewestFirst(t *testing.T) {
	store := &fakeDiaryStore{}
	r := newDiaryRouter(t, store)

	for _, c := range []string{"hello", "world"} {
		w := serve(r, postJSON("/diary", `{"content":"`+c+`"}`))
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"success":true}`, w.Body.String())
	}

	w := serve(r, httptest.NewRequest(http.MethodGet, "/diary", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var entries []models.DiaryEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "world", entries[0].Content)
	assert.Equal(t, "hello", entries[1].Content)
	assert.True(t, entries[0].CreatedAt.After(entries[1].CreatedAt))
	assert.Equal(t, "19 Oct 2026, 10:00 AM", entries[1].Date)
}

func TestDiary_FormBodyIsTrimmed(t *testing.T) {
	store := &fakeDiaryStore{}
	r := newDiaryRouter(t, store)

	req := httptest.NewRequest(http.MethodPost, "/diary", strings.NewReader(url.Values{"content": {"  dear diary \n"}}.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	w := serve(r, req)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, store.entries, 1)
	assert.Equal(t, "dear diary", store.entries[0].Content)
}

func TestDiary_RejectsEmptyContent(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"content":"  "}`, `{"error":"Content is required"}`},
		{`{"content":""}`, `{"error":"Content is required"}`},
		{`{}`, `{"error":"Content is required"}`},
		{`{"content":`, `{"error":"Invalid request body"}`},
	}
	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			store := &fakeDiaryStore{}
			r := newDiaryRouter(t, store)

			w := serve(r, postJSON("/diary", tt.body))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
			assert.Empty(t, store.entries)
		})
	}
}

func TestDiary_AcceptsLongContent(t *testing.T) {
	store := &fakeDiaryStore{}
	r := newDiaryRouter(t, store)

	content := strings.Repeat("a", 10001)
	w := serve(r, postJSON("/diary", `{"content":"`+content+`"}`))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Len(t, store.entries, 1)
	assert.Equal(t, content, store.entries[0].Content)
}

func TestDiary_StoreNeverConnected(t *testing.T) {
	store := database.NewDiaryStore(nil, "selfiebox", zaptest.NewLogger(t))
	r := newDiaryRouter(t, store)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/diary", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Database not connected"}`, w.Body.String())

	w = serve(r, postJSON("/diary", `{"content":"hello"}`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Database not connected"}`, w.Body.String())
}

func TestDiary_BackendErrors(t *testing.T) {
	store := &fakeDiaryStore{
		insertErr: errors.Join(models.ErrBackendOperation, errors.New("write concern")),
		findErr:   errors.Join(models.ErrBackendOperation, errors.New("cursor killed")),
	}
	r := newDiaryRouter(t, store)

	w := serve(r, postJSON("/diary", `{"content":"hello"}`))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to save entry"}`, w.Body.String())

	w = serve(r, httptest.NewRequest(http.MethodGet, "/diary", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Failed to load diary"}`, w.Body.String())
}

func TestDiary_EmptyListIsArray(t *testing.T) {
	r := newDiaryRouter(t, &fakeDiaryStore{})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/diary", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}
