package service

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	"github.com/valyala/fastjson"
)

type StreamKind int

const (
	StreamVideo StreamKind = iota
	StreamAudio
)

func (k StreamKind) String() string {
	if k == StreamAudio {
		return "audio"
	}
	return "video"
}

// Selector is the yt-dlp format expression for this kind: best stream in
// the preferred container, else best available stream of the kind.
func (k StreamKind) Selector() string {
	if k == StreamAudio {
		return "bestaudio[ext=m4a]/bestaudio"
	}
	return "bestvideo[ext=mp4]/bestvideo"
}

// Filename is the fixed staging name inside a job's scratch directory.
func (k StreamKind) Filename() string {
	if k == StreamAudio {
		return "audio.m4a"
	}
	return "video.mp4"
}

// Extractor shells out to yt-dlp for metadata and single-stream fetches.
// A semaphore bounds the number of concurrent yt-dlp processes.
type Extractor struct {
	ytdlpPath string
	sem       chan struct{}
}

func NewExtractor(ytdlpPath string, concurrentWorkers int) *Extractor {
	return &Extractor{
		ytdlpPath: ytdlpPath,
		sem:       make(chan struct{}, concurrentWorkers),
	}
}

// ExtractInfo runs yt-dlp in metadata-only mode and returns the parsed
// JSON document for a single video.
func (e *Extractor) ExtractInfo(ctx context.Context, url string) (*fastjson.Value, error) {
	out, err := e.run(ctx, url, "-J", "--no-playlist", "--skip-download")
	if err != nil {
		return nil, errors.Wrapf(ErrMetadataUnavailable, "failed to get info for the provided url: '%v'", err)
	} else if len(out) == 0 {
		return nil, ErrMetadataUnavailable
	}

	json, err := new(fastjson.Parser).ParseBytes(out)
	if err != nil {
		return nil, errors.Wrapf(ErrMetadataUnavailable, "failed to parse yt-dlp output: '%v'", err)
	}

	return json, nil
}

// FetchStream downloads exactly one stream of the given kind to destPath
// and verifies the result exists and is non-empty. No retry happens here.
func (e *Extractor) FetchStream(ctx context.Context, url string, kind StreamKind, destPath string) error {
	_, err := e.run(ctx, url,
		"-f", kind.Selector(),
		"-o", destPath,
		"--no-progress",
		"--force-overwrites",
	)
	if err != nil {
		return errors.Wrapf(err, "failed to fetch %s stream", kind)
	}

	fi, err := os.Stat(destPath)
	if err != nil {
		return errors.Wrapf(ErrStreamNotFound, "%s stream missing after fetch", kind)
	}
	if fi.Size() == 0 {
		return errors.Wrapf(ErrStreamEmpty, "%s stream has zero size", kind)
	}

	return nil
}

func (e *Extractor) run(ctx context.Context, url string, args ...string) ([]byte, error) {
	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	defaultArgs := []string{
		"--ignore-errors",
		"--no-call-home",
		"--no-cache-dir",
		// provide URL via stdin for security, yt-dlp has some run command args
		"--batch-file", "-",
	}
	args = append(defaultArgs, args...)

	cmd := exec.CommandContext(ctx, e.ytdlpPath, args...)

	stdoutBuf := &bytes.Buffer{}
	stderrBuf := &bytes.Buffer{}

	cmd.Stdin = bytes.NewBufferString(url + "\n")
	cmd.Stdout = stdoutBuf
	cmd.Stderr = stderrBuf

	cmdErr := cmd.Run()

	const errorPrefix = "ERROR: "
	stderrLineScanner := bufio.NewScanner(stderrBuf)
	for stderrLineScanner.Scan() {
		line := stderrLineScanner.Text()
		if strings.HasPrefix(line, errorPrefix) {
			return nil, errors.Wrap(ErrExtraction, line[len(errorPrefix):])
		}
	}

	if cmdErr != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrap(ErrExtraction, cmdErr.Error())
	}

	return stdoutBuf.Bytes(), nil
}
