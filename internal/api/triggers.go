package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/robohome/robohome-core/internal/audit"
	"github.com/robohome/robohome-core/internal/automation"
)

// TriggerRequest injects a device trigger as if the device had sent it.
type TriggerRequest struct {
	Address string `json:"address"`
	Trigger string `json:"trigger"`
}

// TriggerResponse reports delivery. Subscriber failures other than an
// unknown address do not stop delivery and are listed in Error.
type TriggerResponse struct {
	Address     string   `json:"address"`
	Trigger     string   `json:"trigger"`
	Subscribers []string `json:"subscribers"`
	Error       string   `json:"error,omitempty"`
}

func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	var req TriggerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	req.Address = strings.TrimSpace(req.Address)
	req.Trigger = strings.TrimSpace(req.Trigger)
	if req.Address == "" || req.Trigger == "" {
		writeBadRequest(w, "address and trigger are required")
		return
	}

	notifier := s.house.Notifier()
	resp := TriggerResponse{
		Address:     req.Address,
		Trigger:     req.Trigger,
		Subscribers: notifier.Subscribers(),
	}
	if err := notifier.Notify(r.Context(), req.Address, req.Trigger); err != nil {
		if errors.Is(err, automation.ErrItemNotFound) {
			writeNotFound(w, err.Error())
			return
		}
		resp.Error = err.Error()
	}
	details := map[string]any{"trigger": req.Trigger}
	if resp.Error != "" {
		details["error"] = resp.Error
	}
	s.record(r, audit.ActionTrigger, audit.EntityDevice, req.Address, details)
	writeJSON(w, http.StatusAccepted, resp)
}
