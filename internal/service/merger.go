package service

import (
	"bytes"
	"context"
	"os"
	"os/exec"

	"github.com/niveshbansal07/NB-downloader-Backend/internal/pkg/log"
	"github.com/pkg/errors"
)

const stderrTailLimit = 2048

// Merger muxes a video-only and an audio-only file into one mp4 container
// via ffmpeg. The video stream is copied verbatim, the audio stream is
// re-encoded to AAC. Both inputs existing and being non-empty is the
// caller's precondition.
type Merger struct {
	ffmpegPath string
}

func NewMerger(ffmpegPath string) *Merger {
	return &Merger{
		ffmpegPath: ffmpegPath,
	}
}

func (m *Merger) Merge(ctx context.Context, videoPath, audioPath, outPath string) error {
	cmd := exec.CommandContext(ctx, m.ffmpegPath, mergeArgs(videoPath, audioPath, outPath)...)

	stderrBuf := &bytes.Buffer{}
	cmd.Stderr = stderrBuf

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// ffmpeg diagnostics stay in the logs, they never reach the client
		log.Logger.Errorw("ffmpeg failed",
			"error", err,
			"stderr", stderrTail(stderrBuf.Bytes()),
		)
		return errors.Wrapf(ErrMergeFailed, "ffmpeg exited: %v", err)
	}

	fi, err := os.Stat(outPath)
	if err != nil {
		return errors.Wrap(ErrMergeFailed, "merged output is missing")
	}
	if fi.Size() == 0 {
		return errors.Wrap(ErrMergeFailed, "merged output has zero size")
	}

	return nil
}

func mergeArgs(videoPath, audioPath, outPath string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-nostdin",
		"-i", videoPath,
		"-i", audioPath,
		"-c:v", "copy",
		"-c:a", "aac",
		outPath,
	}
}

func stderrTail(out []byte) string {
	if len(out) > stderrTailLimit {
		out = out[len(out)-stderrTailLimit:]
	}
	return string(out)
}
