package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/niveshbansal07/NB-downloader-Backend/internal/models"
	"github.com/niveshbansal07/NB-downloader-Backend/internal/pkg/log"
	"github.com/pkg/errors"
)

const previewTimeout = 60 * time.Second

type DownloadService interface {
	GetVideoInfo(ctx context.Context, url string) (*models.VideoInfo, error)
	DownloadAndMerge(ctx context.Context, url string) (*models.DownloadResult, error)
}

type HTTPHandler struct {
	vs DownloadService

	jobTimeout time.Duration
}

func NewHTTPHandler(vs DownloadService, jobTimeout time.Duration) *HTTPHandler {
	return &HTTPHandler{
		vs:         vs,
		jobTimeout: jobTimeout,
	}
}

func (h *HTTPHandler) Root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.NotFound(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message": "NB Downloader API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"preview":  "/preview?url={youtube_url}",
			"download": "/download?url={youtube_url}",
		},
	})
}

func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "NB Downloader API",
	})
}

func (h *HTTPHandler) NotFound(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"error":   "Endpoint not found",
		"message": "The requested endpoint does not exist",
	})
}

func (h *HTTPHandler) Preview(w http.ResponseWriter, r *http.Request) {
	videoURL := r.URL.Query().Get("url")
	if !isSupportedURL(videoURL) {
		writeError(w, http.StatusBadRequest, "Invalid YouTube URL")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), previewTimeout)
	defer cancel()

	info, err := h.vs.GetVideoInfo(ctx, videoURL)
	if err != nil {
		log.Logger.Errorw("preview failed", "url", videoURL, "error", err)
		writeError(w, statusForError(err), "Failed to get video preview")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    info,
	})
}

func (h *HTTPHandler) Download(w http.ResponseWriter, r *http.Request) {
	videoURL := r.URL.Query().Get("url")
	if !isSupportedURL(videoURL) {
		writeError(w, http.StatusBadRequest, "Invalid YouTube URL")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.jobTimeout)
	defer cancel()

	result, err := h.vs.DownloadAndMerge(ctx, videoURL)
	if err != nil {
		log.Logger.Errorw("download failed", "url", videoURL, "error", err)
		writeError(w, statusForError(err), "Failed to download video")
		return
	}
	// scratch dir lives until the file has been sent
	defer result.Cleanup()

	f, err := os.Open(result.Path)
	if err != nil {
		log.Logger.Errorw("merged output vanished before transmission", "path", result.Path, "error", err)
		writeError(w, http.StatusNotFound, "Failed to download video")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Length", strconv.FormatInt(result.Size, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="`+result.Filename+`"`)

	if _, err := io.Copy(w, f); err != nil {
		log.Logger.Errorw("failed to stream merged file", "path", result.Path, "error", err)
	}
}

// isSupportedURL rejects the URL shape before anything enters the core.
func isSupportedURL(raw string) bool {
	if raw == "" {
		return false
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		return false
	}

	return strings.Contains(raw, "youtube.com") || strings.Contains(raw, "youtu.be")
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, ErrInvalidURL):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ErrMetadataUnavailable):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Logger.Errorw("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
