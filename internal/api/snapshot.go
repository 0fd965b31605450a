package api

import (
	"net/http"
	"strconv"

	"github.com/nerrad567/gray-logic-roi/internal/infrastructure/storage"
)

// handleSnapshot grabs a live frame from the device and returns it as
// image/jpeg.
//
// Query parameters:
//   - archive: when "true" and object storage is configured, the frame is
//     also stored and its URL returned in X-Snapshot-URL. Archive failures
//     are logged and do not fail the request.
func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.capturer == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "snapshot capture not configured")
		return
	}

	dev, ok := s.lookupDevice(w, r)
	if !ok {
		return
	}

	frame, err := s.capturer.CaptureDevice(r.Context(), dev.ID, dev.RTSPURL)
	if err != nil {
		s.writeServiceError(w, err, "failed to capture snapshot")
		return
	}

	if r.URL.Query().Get("archive") == "true" && s.archive != nil {
		key := storage.SnapshotKey(dev.ID, frame.CapturedAt)
		url, err := s.archive.SaveSnapshot(r.Context(), key, frame.Data, frame.ContentType)
		if err != nil {
			s.logger.Warn("snapshot archive failed", "device_id", dev.ID, "error", err)
		} else {
			w.Header().Set("X-Snapshot-URL", url)
		}
	}

	w.Header().Set("Content-Type", frame.ContentType)
	w.Header().Set("Content-Length", strconv.Itoa(len(frame.Data)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck // Best-effort write to response; connection may be closed
	w.Write(frame.Data)
}
