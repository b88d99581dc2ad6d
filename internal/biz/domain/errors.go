package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat means the delay text is not "<integer> <unit>"
	ErrInvalidFormat = errors.New("invalid time format")

	// ErrDelayTooLong means the delay exceeds the configured maximum
	ErrDelayTooLong = errors.New("delay exceeds maximum")

	// ErrMissingAttachment means the command carried no image
	ErrMissingAttachment = errors.New("no attachment")

	// ErrDownloadFailure means the attachment could not be fetched
	ErrDownloadFailure = errors.New("attachment download failed")
)

// DownloadError carries the details of a failed attachment fetch
type DownloadError struct {
	Source     string
	StatusCode int
	Err        error
}

func (e *DownloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("download %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("download %s: status %d", e.Source, e.StatusCode)
}

// Is reports ErrDownloadFailure so callers can use errors.Is
func (e *DownloadError) Is(target error) bool {
	return target == ErrDownloadFailure
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}
