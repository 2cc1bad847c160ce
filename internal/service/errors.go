package service

import "fmt"

var (
	ErrInvalidURL          = fmt.Errorf("invalid url")
	ErrNotFound            = fmt.Errorf("not found")
	ErrMetadataUnavailable = fmt.Errorf("metadata unavailable")
	ErrStreamNotFound      = fmt.Errorf("stream not found")
	ErrStreamEmpty         = fmt.Errorf("stream is empty")
	ErrExtraction          = fmt.Errorf("extraction failed")
	ErrMergeFailed         = fmt.Errorf("merge failed")
	ErrFileTooLarge        = fmt.Errorf("file too large")
)
