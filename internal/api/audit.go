package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/nerrad567/gray-logic-roi/internal/audit"
)

// auditChanSize is the buffer size for the async audit log channel.
// Entries beyond this are dropped (best-effort) to avoid back-pressure on requests.
const auditChanSize = 256

// auditLog enqueues a device audit entry for asynchronous write (best-effort).
// If the channel is full the entry is dropped and a warning is logged.
// Rule saves are audited by the rule service itself.
func (s *Server) auditLog(action, tenant, deviceID, userID string, details map[string]any) {
	if s.auditCh == nil {
		return
	}

	entry := &audit.AuditLog{
		Tenant:     tenant,
		Action:     action,
		EntityType: audit.EntityDevice,
		EntityID:   deviceID,
		UserID:     userID,
		Source:     audit.SourceAPI,
		Details:    details,
	}

	select {
	case s.auditCh <- entry:
	default:
		s.logger.Warn("audit log channel full, dropping entry",
			"action", action,
			"entity_id", deviceID,
		)
	}
}

// drainAuditLog writes queued entries serially until ctx is cancelled,
// then flushes whatever is still buffered.
func (s *Server) drainAuditLog(ctx context.Context) {
	for {
		select {
		case entry := <-s.auditCh:
			s.writeAudit(entry)
		case <-ctx.Done():
			for {
				select {
				case entry := <-s.auditCh:
					s.writeAudit(entry)
				default:
					return
				}
			}
		}
	}
}

func (s *Server) writeAudit(entry *audit.AuditLog) {
	if err := s.auditRepo.Create(context.Background(), entry); err != nil {
		s.logger.Error("audit log write failed",
			"action", entry.Action,
			"entity_type", entry.EntityType,
			"error", err,
		)
	}
}

// handleListAuditLogs returns the caller's tenant audit entries, newest first.
//
// Query parameters:
//   - action: filter by action type (create, update, delete, save_rules)
//   - entity_type: filter by entity type (device, roi_config)
//   - entity_id: filter by specific entity ID
//   - since: RFC 3339 timestamp; only entries at or after it
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListAuditLogs(w http.ResponseWriter, r *http.Request) {
	if s.auditRepo == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "audit logging not configured")
		return
	}
	id, _ := identityFrom(r.Context())

	q := r.URL.Query()
	filter := audit.Filter{
		Tenant:     id.Tenant,
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
	}

	if v := q.Get("since"); v != "" {
		since, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeBadRequest(w, "since must be an RFC 3339 timestamp")
			return
		}
		filter.Since = since
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.auditRepo.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, err, "failed to list audit logs")
		return
	}

	writeJSON(w, http.StatusOK, result)
}
