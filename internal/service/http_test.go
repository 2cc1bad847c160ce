package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/niveshbansal07/NB-downloader-Backend/internal/models"
)

type fakeDownloadService struct {
	info      *models.VideoInfo
	infoErr   error
	result    *models.DownloadResult
	resultErr error
}

func (s *fakeDownloadService) GetVideoInfo(_ context.Context, _ string) (*models.VideoInfo, error) {
	return s.info, s.infoErr
}

func (s *fakeDownloadService) DownloadAndMerge(_ context.Context, _ string) (*models.DownloadResult, error) {
	return s.result, s.resultErr
}

func newHandler(svc DownloadService) *HTTPHandler {
	return NewHTTPHandler(svc, time.Minute)
}

func TestPreviewRejectsInvalidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "empty", url: ""},
		{name: "not a video site", url: "https://example.com/watch?v=abc"},
		{name: "no scheme", url: "youtube.com/watch?v=abc"},
	}

	h := newHandler(&fakeDownloadService{})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/preview?url="+tt.url, nil)
			rec := httptest.NewRecorder()

			h.Preview(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestPreviewSuccess(t *testing.T) {
	h := newHandler(&fakeDownloadService{
		info: &models.VideoInfo{
			Title:    "Some Video",
			Duration: "01:01:01",
			Formats:  []string{"1080p", "720p"},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/preview?url=https://youtu.be/abc123", nil)
	rec := httptest.NewRecorder()

	h.Preview(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Success bool             `json:"success"`
		Data    models.VideoInfo `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !body.Success || body.Data.Title != "Some Video" {
		t.Errorf("body = %+v", body)
	}
}

func TestPreviewErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "metadata unavailable", err: ErrMetadataUnavailable, wantStatus: http.StatusUnprocessableEntity},
		{name: "extraction failure", err: ErrExtraction, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(&fakeDownloadService{infoErr: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/preview?url=https://youtu.be/abc123", nil)
			rec := httptest.NewRecorder()

			h.Preview(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}

			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decoding response: %v", err)
			}
			if body["detail"] != "Failed to get video preview" {
				t.Errorf("detail = %q, raw tool errors must not leak", body["detail"])
			}
		})
	}
}

func TestDownloadStreamsFileAndCleansUp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "merged_video.mp4")
	if err := os.WriteFile(path, []byte("merged-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}

	cleaned := false
	h := newHandler(&fakeDownloadService{
		result: &models.DownloadResult{
			Path:     path,
			Filename: "Some Video.mp4",
			Size:     int64(len("merged-bytes")),
			Cleanup: func() {
				cleaned = true
				os.RemoveAll(dir)
			},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/download?url=https://youtu.be/abc123", nil)
	rec := httptest.NewRecorder()

	h.Download(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); got != "merged-bytes" {
		t.Errorf("body = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="Some Video.mp4"` {
		t.Errorf("content disposition = %q", got)
	}
	if got := rec.Header().Get("Content-Length"); got != "12" {
		t.Errorf("content length = %q", got)
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Errorf("content type = %q", got)
	}

	if !cleaned {
		t.Error("cleanup did not run after transmission")
	}
	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Error("scratch dir still exists after download")
	}
}

func TestDownloadErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "too large", err: ErrFileTooLarge, wantStatus: http.StatusRequestEntityTooLarge},
		{name: "vanished", err: ErrNotFound, wantStatus: http.StatusNotFound},
		{name: "merge failed", err: ErrMergeFailed, wantStatus: http.StatusInternalServerError},
		{name: "stream missing", err: ErrStreamNotFound, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandler(&fakeDownloadService{resultErr: tt.err})

			req := httptest.NewRequest(http.MethodGet, "/download?url=https://youtu.be/abc123", nil)
			rec := httptest.NewRecorder()

			h.Download(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestDownloadVanishedOutput(t *testing.T) {
	cleaned := false
	h := newHandler(&fakeDownloadService{
		result: &models.DownloadResult{
			Path:     filepath.Join(t.TempDir(), "never-created.mp4"),
			Filename: "x.mp4",
			Cleanup:  func() { cleaned = true },
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/download?url=https://youtu.be/abc123", nil)
	rec := httptest.NewRecorder()

	h.Download(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
	if !cleaned {
		t.Error("cleanup must run even when the output vanished")
	}
}

func TestRootAndHealthAndNotFound(t *testing.T) {
	h := newHandler(&fakeDownloadService{})

	t.Run("root banner", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Root(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body["message"] != "NB Downloader API" {
			t.Errorf("message = %v", body["message"])
		}
	})

	t.Run("unknown path is json 404", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Root(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d", rec.Code)
		}

		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body["error"] != "Endpoint not found" {
			t.Errorf("error = %q", body["error"])
		}
	})

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}

		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatal(err)
		}
		if body["status"] != "healthy" {
			t.Errorf("status field = %q", body["status"])
		}
	})
}
