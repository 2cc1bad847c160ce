package service

import (
	"context"
	"os"

	"github.com/avast/retry-go/v4"
	"github.com/dustin/go-humanize"
	"github.com/niveshbansal07/NB-downloader-Backend/internal/config"
	"github.com/niveshbansal07/NB-downloader-Backend/internal/models"
	"github.com/niveshbansal07/NB-downloader-Backend/internal/pkg/log"
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

const minThumbnailWidth = 480

// VideoService is the entrypoint for both the metadata-only preview path
// and the full download-and-merge pipeline.
type VideoService struct {
	extractor StreamFetcher
	merger    StreamMerger
	tracker   ScratchTracker

	metadata MetadataExtractor

	baseDir     string
	maxFileSize int64
	maxRetry    uint
}

type MetadataExtractor interface {
	ExtractInfo(ctx context.Context, url string) (*fastjson.Value, error)
}

func NewVideoService(conf *config.Config, tracker ScratchTracker) (*VideoService, error) {
	maxFileSize, err := conf.MaxFileSizeBytes()
	if err != nil {
		return nil, err
	}

	extractor := NewExtractor(conf.Download.YtDlpPath, conf.Download.ConcurrentWorkers)

	return &VideoService{
		extractor:   extractor,
		merger:      NewMerger(conf.Download.FFmpegPath),
		tracker:     tracker,
		metadata:    extractor,
		baseDir:     conf.Download.TempDir,
		maxFileSize: maxFileSize,
		maxRetry:    conf.Download.MetadataRetries,
	}, nil
}

// GetVideoInfo resolves the URL in metadata-only mode and maps the raw
// extractor output to the preview payload. Attempts are bounded; the
// download pipeline itself is never retried.
func (s *VideoService) GetVideoInfo(ctx context.Context, url string) (*models.VideoInfo, error) {
	var json *fastjson.Value

	err := retry.Do(
		func() error {
			res, errE := s.metadata.ExtractInfo(ctx, url)
			if errE != nil {
				return errE
			}

			json = res

			return nil
		},
		retry.Context(ctx),
		retry.Attempts(s.maxRetry),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}

	// some extractors report duration as a float
	durationSeconds := int64(json.GetFloat64("duration"))

	heights := make([]int64, 0, 16)
	for _, f := range json.GetArray("formats") {
		if h := f.GetInt64("height"); h > 0 {
			heights = append(heights, h)
		}
	}

	webpageURL := string(json.GetStringBytes("webpage_url"))
	if webpageURL == "" {
		webpageURL = url
	}

	return &models.VideoInfo{
		Title:           string(json.GetStringBytes("title")),
		Thumbnail:       bestThumbnail(json),
		Duration:        FormatDuration(durationSeconds),
		DurationSeconds: durationSeconds,
		Formats:         ExtractQualities(heights),
		Uploader:        string(json.GetStringBytes("uploader")),
		ViewCount:       json.GetInt64("view_count"),
		LikeCount:       json.GetInt64("like_count"),
		WebpageURL:      webpageURL,
	}, nil
}

// DownloadAndMerge runs the whole pipeline for one URL and enforces the
// size cap on the merged output. The returned result carries the deferred
// cleanup; the caller must invoke it exactly once after transmission.
func (s *VideoService) DownloadAndMerge(ctx context.Context, url string) (*models.DownloadResult, error) {
	job := NewJob(url, s.baseDir, s.extractor, s.merger, s.tracker)

	log.Logger.Infow("starting download job", "job_id", job.ID(), "url", url)

	outPath, err := job.Run(ctx)
	if err != nil {
		log.Logger.Errorw("download job failed", "job_id", job.ID(), "state", job.State().String(), "error", err)
		return nil, err
	}

	fi, err := os.Stat(outPath)
	if err != nil {
		job.Cleanup()
		return nil, errors.Wrap(ErrNotFound, "merged output vanished")
	}

	if fi.Size() > s.maxFileSize {
		job.Cleanup()
		return nil, errors.Wrapf(ErrFileTooLarge, "output is %s, limit is %s",
			humanize.IBytes(uint64(fi.Size())), humanize.IBytes(uint64(s.maxFileSize)))
	}

	log.Logger.Infow("download job ready",
		"job_id", job.ID(),
		"size", humanize.IBytes(uint64(fi.Size())),
	)

	return &models.DownloadResult{
		Path:     outPath,
		Filename: s.suggestFilename(ctx, url),
		Size:     fi.Size(),
		Cleanup:  job.Cleanup,
	}, nil
}

// suggestFilename derives a safe attachment name from the video title. It
// runs on the success path of a finished download, so any failure here
// falls back to a generic name instead of surfacing.
func (s *VideoService) suggestFilename(ctx context.Context, url string) string {
	json, err := s.metadata.ExtractInfo(ctx, url)
	if err != nil {
		log.Logger.Warnw("failed to resolve title for filename", "url", url, "error", err)
		return fallbackFilename
	}

	return SanitizeFilename(string(json.GetStringBytes("title")))
}

func bestThumbnail(v *fastjson.Value) string {
	for _, t := range v.GetArray("thumbnails") {
		if t.GetInt64("width") >= minThumbnailWidth {
			return string(t.GetStringBytes("url"))
		}
	}

	if u := v.GetStringBytes("thumbnail"); len(u) > 0 {
		return string(u)
	}

	if thumbs := v.GetArray("thumbnails"); len(thumbs) > 0 {
		return string(thumbs[0].GetStringBytes("url"))
	}

	return ""
}
