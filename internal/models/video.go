package models

// VideoInfo is the preview payload for a single video. It is built fresh
// per request and never cached.
type VideoInfo struct {
	Title           string   `json:"title"`
	Thumbnail       string   `json:"thumbnail,omitempty"`
	Duration        string   `json:"duration"`
	DurationSeconds int64    `json:"duration_seconds"`
	Formats         []string `json:"formats"`
	Uploader        string   `json:"uploader"`
	ViewCount       int64    `json:"view_count"`
	LikeCount       int64    `json:"like_count"`
	WebpageURL      string   `json:"webpage_url"`
}

// DownloadResult points at a merged output file staged inside a job's
// scratch directory. Cleanup removes the whole scratch directory and must
// be called exactly once after the file has been transmitted (or as soon
// as transmission is abandoned).
type DownloadResult struct {
	Path     string
	Filename string
	Size     int64

	Cleanup func()
}

type JobState int

const (
	JobCreated JobState = iota
	JobFetchingVideo
	JobFetchingAudio
	JobMerging
	JobReady
	JobFailed
)

func (s JobState) String() string {
	switch s {
	case JobCreated:
		return "CREATED"
	case JobFetchingVideo:
		return "FETCHING_VIDEO"
	case JobFetchingAudio:
		return "FETCHING_AUDIO"
	case JobMerging:
		return "MERGING"
	case JobReady:
		return "READY"
	case JobFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}
