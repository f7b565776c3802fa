package api

import (
	"net/http"
	"strconv"

	"github.com/robohome/robohome-core/internal/audit"
)

// record writes an audit entry for a completed mutation. Failures are
// logged and never change the response.
func (s *Server) record(r *http.Request, action, entityType, entityID string, details map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Create(r.Context(), &audit.Entry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Source:     audit.SourceAPI,
		RequestID:  requestIDFrom(r.Context()),
		Details:    details,
	})
	if err != nil {
		s.logger.Warn("audit write failed",
			"action", action,
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err,
		)
	}
}

func idString(id int64) string { return strconv.FormatInt(id, 10) }

// handleListAudit returns audit entries newest first, filtered by the
// action, entity_type and entity_id query parameters.
func (s *Server) handleListAudit(w http.ResponseWriter, r *http.Request) {
	if s.audit == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "audit trail is not configured")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   q.Get("entity_id"),
	}
	for name, dst := range map[string]*int{"limit": &filter.Limit, "offset": &filter.Offset} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeBadRequest(w, "invalid "+name+" "+strconv.Quote(raw))
			return
		}
		*dst = n
	}

	page, err := s.audit.List(r.Context(), filter)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}
