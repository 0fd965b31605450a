// Package snapshot grabs single still frames from RTSP cameras.
//
// A capture runs ffmpeg as a child process in its own process group,
// writing exactly one JPEG to a private temp file. The result is decided
// once: a frame, a timeout, an empty file or a missing file. The temp file
// is removed on every path, and because a timed-out grabber is killed and
// reaped before the result is published, nothing writes to the file after
// the caller has its answer.
package snapshot
