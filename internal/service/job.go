package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/niveshbansal07/NB-downloader-Backend/internal/models"
	"github.com/niveshbansal07/NB-downloader-Backend/internal/pkg/log"
	"github.com/pkg/errors"
)

const mergedFilename = "merged_video.mp4"

type StreamFetcher interface {
	FetchStream(ctx context.Context, url string, kind StreamKind, destPath string) error
}

type StreamMerger interface {
	Merge(ctx context.Context, videoPath, audioPath, outPath string) error
}

// ScratchTracker records live scratch directories so that leaked ones can
// be reaped later. Tracking is best-effort and may be nil.
type ScratchTracker interface {
	Track(id, dir string)
	Forget(id string)
}

// Job drives one download-and-merge pipeline. Every job owns a fresh
// scratch directory under baseDir; no two jobs ever share a path, so jobs
// need no locking between them. The scratch directory is removed on every
// exit path: immediately on failure, via Cleanup on success.
type Job struct {
	id      string
	url     string
	baseDir string

	fetcher StreamFetcher
	merger  StreamMerger
	tracker ScratchTracker

	state       models.JobState
	scratchDir  string
	cleanupOnce sync.Once
}

func NewJob(url, baseDir string, fetcher StreamFetcher, merger StreamMerger, tracker ScratchTracker) *Job {
	return &Job{
		id:      uuid.New().String(),
		url:     url,
		baseDir: baseDir,
		fetcher: fetcher,
		merger:  merger,
		tracker: tracker,
		state:   models.JobCreated,
	}
}

func (j *Job) ID() string {
	return j.id
}

func (j *Job) State() models.JobState {
	return j.state
}

func (j *Job) ScratchDir() string {
	return j.scratchDir
}

// Run fetches the video-only stream, then the audio-only stream, then
// merges them. The steps are strictly sequential; the first failure cleans
// the scratch directory up and aborts the job. On success the merged file
// path is returned and Cleanup is left to the caller.
func (j *Job) Run(ctx context.Context) (string, error) {
	dir, err := os.MkdirTemp(j.baseDir, "nbdl-"+j.id+"-")
	if err != nil {
		j.state = models.JobFailed
		return "", errors.Wrap(err, "failed to create scratch dir")
	}
	j.scratchDir = dir
	if j.tracker != nil {
		j.tracker.Track(j.id, dir)
	}

	videoPath := filepath.Join(dir, StreamVideo.Filename())
	audioPath := filepath.Join(dir, StreamAudio.Filename())
	outPath := filepath.Join(dir, mergedFilename)

	j.state = models.JobFetchingVideo
	if err := j.fetcher.FetchStream(ctx, j.url, StreamVideo, videoPath); err != nil {
		return "", j.fail(errors.Wrap(err, "video fetch stage"))
	}

	j.state = models.JobFetchingAudio
	if err := j.fetcher.FetchStream(ctx, j.url, StreamAudio, audioPath); err != nil {
		return "", j.fail(errors.Wrap(err, "audio fetch stage"))
	}

	j.state = models.JobMerging
	if err := j.merger.Merge(ctx, videoPath, audioPath, outPath); err != nil {
		return "", j.fail(errors.Wrap(err, "merge stage"))
	}

	j.state = models.JobReady
	return outPath, nil
}

func (j *Job) fail(err error) error {
	j.state = models.JobFailed
	j.Cleanup()
	return err
}

// Cleanup removes the scratch directory and everything under it. It is
// idempotent; removing an already removed directory is not an error.
func (j *Job) Cleanup() {
	j.cleanupOnce.Do(func() {
		if j.scratchDir != "" {
			if err := os.RemoveAll(j.scratchDir); err != nil {
				log.Logger.Errorw("failed to remove scratch dir", "job_id", j.id, "dir", j.scratchDir, "error", err)
			}
		}
		if j.tracker != nil {
			j.tracker.Forget(j.id)
		}
	})
}
