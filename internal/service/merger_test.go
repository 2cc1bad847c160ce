package service

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

func TestMergeArgs(t *testing.T) {
	got := mergeArgs("/tmp/job/video.mp4", "/tmp/job/audio.m4a", "/tmp/job/merged_video.mp4")
	want := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-i", "/tmp/job/video.mp4",
		"-i", "/tmp/job/audio.m4a",
		"-c:v", "copy",
		"-c:a", "aac",
		"/tmp/job/merged_video.mp4",
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("mergeArgs() = %v, want %v", got, want)
	}
}

func TestMergeFailureIsDistinguishable(t *testing.T) {
	// "false" stands in for ffmpeg rejecting its inputs
	m := NewMerger("false")
	dir := t.TempDir()
	outPath := filepath.Join(dir, "merged_video.mp4")

	err := m.Merge(context.Background(), filepath.Join(dir, "video.mp4"), filepath.Join(dir, "audio.m4a"), outPath)
	if !errors.Is(err, ErrMergeFailed) {
		t.Fatalf("error = %v, want ErrMergeFailed", err)
	}

	if fi, statErr := os.Stat(outPath); statErr == nil && fi.Size() > 0 {
		t.Errorf("failed merge left a non-empty output file")
	}
}

func TestMergeRejectsMissingOutput(t *testing.T) {
	// "true" exits zero without producing the output file
	m := NewMerger("true")
	dir := t.TempDir()

	err := m.Merge(context.Background(), filepath.Join(dir, "video.mp4"), filepath.Join(dir, "audio.m4a"), filepath.Join(dir, "merged_video.mp4"))
	if !errors.Is(err, ErrMergeFailed) {
		t.Fatalf("error = %v, want ErrMergeFailed", err)
	}
}

func TestMergeRejectsEmptyOutput(t *testing.T) {
	m := NewMerger("true")
	dir := t.TempDir()
	outPath := filepath.Join(dir, "merged_video.mp4")

	if err := os.WriteFile(outPath, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	err := m.Merge(context.Background(), filepath.Join(dir, "video.mp4"), filepath.Join(dir, "audio.m4a"), outPath)
	if !errors.Is(err, ErrMergeFailed) {
		t.Fatalf("error = %v, want ErrMergeFailed", err)
	}
}
