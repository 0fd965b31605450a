package snapshot

import "errors"

// Capture errors. Each one is terminal for its capture only.
var (
	// ErrMissingURL is returned when no RTSP URL was given.
	ErrMissingURL = errors.New("snapshot: rtsp url is required")

	// ErrCaptureTimeout is returned when the frame grab misses its deadline.
	ErrCaptureTimeout = errors.New("snapshot: capture timed out")

	// ErrEmptyCapture is returned when the frame grabber exited but left a
	// zero-byte file.
	ErrEmptyCapture = errors.New("snapshot: captured file is empty")

	// ErrTempFileMissing is returned when the frame grabber exited without
	// creating its output file.
	ErrTempFileMissing = errors.New("snapshot: output file missing")

	// ErrCaptureFailed is returned when the frame grabber could not be
	// started or exited with an error.
	ErrCaptureFailed = errors.New("snapshot: capture failed")
)
