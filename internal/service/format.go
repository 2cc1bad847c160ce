package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

const (
	outputExt        = ".mp4"
	fallbackFilename = "downloaded_video" + outputExt
)

// FormatDuration renders seconds as "HH:MM:SS", or "MM:SS" for videos
// shorter than an hour. Zero or negative durations come back as "Unknown".
func FormatDuration(seconds int64) string {
	if seconds <= 0 {
		return "Unknown"
	}

	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%02d:%02d", minutes, secs)
}

func qualityBucket(height int64) string {
	switch {
	case height >= 2160:
		return "2160p"
	case height >= 1440:
		return "1440p"
	case height >= 1080:
		return "1080p"
	case height >= 720:
		return "720p"
	case height >= 480:
		return "480p"
	case height >= 360:
		return "360p"
	default:
		return ""
	}
}

// ExtractQualities maps format heights to quality buckets, deduplicates
// them and returns the labels sorted from highest to lowest. Heights below
// the lowest bucket are dropped.
func ExtractQualities(heights []int64) []string {
	seen := make(map[string]struct{})
	labels := make([]string, 0, len(heights))

	for _, h := range heights {
		bucket := qualityBucket(h)
		if bucket == "" {
			continue
		}
		if _, ok := seen[bucket]; ok {
			continue
		}
		seen[bucket] = struct{}{}
		labels = append(labels, bucket)
	}

	sort.Slice(labels, func(i, j int) bool {
		a, _ := strconv.Atoi(strings.TrimSuffix(labels[i], "p"))
		b, _ := strconv.Atoi(strings.TrimSuffix(labels[j], "p"))
		return a > b
	})

	return labels
}

// SanitizeFilename strips everything but letters, digits, spaces, hyphens
// and underscores from the title and appends the output extension. An empty
// title falls back to a generic name, so this never fails a finished job.
func SanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}

	name := strings.TrimRight(b.String(), " ")
	if name == "" {
		return fallbackFilename
	}

	return name + outputExt
}
