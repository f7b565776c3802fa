package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/robohome/robohome-core/internal/audit"
	"github.com/robohome/robohome-core/internal/automation"
)

// RuleRequest creates a rule: an event plus its ordered conditions and
// actions, in the same shape GET /rules returns.
type RuleRequest struct {
	RuleName   string             `json:"ruleName"`
	Enabled    *bool              `json:"enabled,omitempty"`
	Event      EventRequest       `json:"event"`
	Conditions []ConditionRequest `json:"conditions,omitempty"`
	Actions    []ActionRequest    `json:"actions,omitempty"`
}

// RuleUpdateRequest replaces a rule's event part. Conditions and actions
// are edited through their own routes.
type RuleUpdateRequest struct {
	RuleName string       `json:"ruleName"`
	Enabled  *bool        `json:"enabled,omitempty"`
	Event    EventRequest `json:"event"`
}

// EventRequest is the trigger part of a rule. Value is the state of
// ItemType that fires it. ID names the item or room and is ignored for
// house scope.
type EventRequest struct {
	ItemType string `json:"itemType"`
	Value    *int   `json:"value"`
	ID       *int64 `json:"id,omitempty"`
	Scope    string `json:"scope"`
}

// ConditionRequest is one condition of a rule.
type ConditionRequest struct {
	ItemID      int64  `json:"itemId"`
	Equivalence string `json:"equivalence"`
	Value       int    `json:"value"`
}

// ActionRequest is one action of a rule. ItemType may be omitted for item
// scope.
type ActionRequest struct {
	Method   string `json:"method"`
	ItemType string `json:"itemType,omitempty"`
	ID       *int64 `json:"id,omitempty"`
	Scope    string `json:"scope"`
}

func (s *Server) handleListRules(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.house.Rules())
}

func (s *Server) handleGetRule(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	s.writeRule(w, r, http.StatusOK, eventID)
}

// handleCreateRule adds the event with its conditions and actions in one
// step; a rejected part leaves no trace of the rule.
func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	var req RuleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	spec, err := eventSpec(req.RuleName, req.Enabled, req.Event)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	conditions := make([]automation.ConditionSpec, len(req.Conditions))
	for i, c := range req.Conditions {
		conditions[i] = conditionSpec(c)
	}
	actions := make([]automation.ActionSpec, len(req.Actions))
	for i, a := range req.Actions {
		if actions[i], err = actionSpec(a); err != nil {
			s.writeDomainError(w, r, fmt.Errorf("action %d: %w", i, err))
			return
		}
	}

	eventID, err := s.house.AddRule(r.Context(), spec, conditions, actions)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionCreate, audit.EntityRule, idString(eventID), map[string]any{
		"ruleName":   spec.Name,
		"conditions": len(req.Conditions),
		"actions":    len(req.Actions),
	})
	s.writeRule(w, r, http.StatusCreated, eventID)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req RuleUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	spec, err := eventSpec(req.RuleName, req.Enabled, req.Event)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.house.UpdateEvent(r.Context(), eventID, spec); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionUpdate, audit.EntityRule, idString(eventID), map[string]any{
		"ruleName": spec.Name,
		"enabled":  spec.Enabled,
	})
	s.writeRule(w, r, http.StatusOK, eventID)
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.house.RemoveEvent(r.Context(), eventID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionDelete, audit.EntityRule, idString(eventID), nil)
	w.WriteHeader(http.StatusNoContent)
}

// ─── Conditions ─────────────────────────────────────────────────────

func (s *Server) handleAddCondition(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req ConditionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	conditionID, err := s.house.AddCondition(r.Context(), eventID, conditionSpec(req))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionCreate, audit.EntityCondition, idString(conditionID), map[string]any{"rule_id": eventID})
	s.writeRule(w, r, http.StatusCreated, eventID)
}

func (s *Server) handleUpdateCondition(w http.ResponseWriter, r *http.Request) {
	eventID, conditionID, ok := rulePartPath(w, r, "conditionID")
	if !ok {
		return
	}
	var req ConditionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.house.UpdateCondition(r.Context(), eventID, conditionID, conditionSpec(req)); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionUpdate, audit.EntityCondition, idString(conditionID), map[string]any{"rule_id": eventID})
	s.writeRule(w, r, http.StatusOK, eventID)
}

func (s *Server) handleDeleteCondition(w http.ResponseWriter, r *http.Request) {
	eventID, conditionID, ok := rulePartPath(w, r, "conditionID")
	if !ok {
		return
	}
	if err := s.house.RemoveCondition(r.Context(), eventID, conditionID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionDelete, audit.EntityCondition, idString(conditionID), map[string]any{"rule_id": eventID})
	w.WriteHeader(http.StatusNoContent)
}

// ─── Actions ────────────────────────────────────────────────────────

func (s *Server) handleAddAction(w http.ResponseWriter, r *http.Request) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req ActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	spec, err := actionSpec(req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	actionID, err := s.house.AddAction(r.Context(), eventID, spec)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionCreate, audit.EntityAction, idString(actionID), map[string]any{"rule_id": eventID})
	s.writeRule(w, r, http.StatusCreated, eventID)
}

func (s *Server) handleUpdateAction(w http.ResponseWriter, r *http.Request) {
	eventID, actionID, ok := rulePartPath(w, r, "actionID")
	if !ok {
		return
	}
	var req ActionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	spec, err := actionSpec(req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.house.UpdateAction(r.Context(), eventID, actionID, spec); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionUpdate, audit.EntityAction, idString(actionID), map[string]any{"rule_id": eventID})
	s.writeRule(w, r, http.StatusOK, eventID)
}

func (s *Server) handleDeleteAction(w http.ResponseWriter, r *http.Request) {
	eventID, actionID, ok := rulePartPath(w, r, "actionID")
	if !ok {
		return
	}
	if err := s.house.RemoveAction(r.Context(), eventID, actionID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionDelete, audit.EntityAction, idString(actionID), map[string]any{"rule_id": eventID})
	w.WriteHeader(http.StatusNoContent)
}

// ─── Helpers ────────────────────────────────────────────────────────

func (s *Server) writeRule(w http.ResponseWriter, r *http.Request, status int, eventID int64) {
	rule, err := s.house.Rule(eventID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, status, rule)
}

func rulePartPath(w http.ResponseWriter, r *http.Request, part string) (eventID, partID int64, ok bool) {
	eventID, err := pathID(r, "eventID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return 0, 0, false
	}
	partID, err = pathID(r, part)
	if err != nil {
		writeBadRequest(w, err.Error())
		return 0, 0, false
	}
	return eventID, partID, true
}

func eventSpec(name string, enabled *bool, ev EventRequest) (automation.EventSpec, error) {
	target, err := parseTarget(ev.Scope, ev.ID)
	if err != nil {
		return automation.EventSpec{}, err
	}
	if ev.Value == nil {
		return automation.EventSpec{}, fmt.Errorf("%w: event value is required", automation.ErrInvalidRule)
	}
	return automation.EventSpec{
		Name:    name,
		Type:    ev.ItemType,
		Target:  target,
		Value:   *ev.Value,
		Enabled: enabled == nil || *enabled,
	}, nil
}

func conditionSpec(c ConditionRequest) automation.ConditionSpec {
	return automation.ConditionSpec{ItemID: c.ItemID, Equivalence: c.Equivalence, Value: c.Value}
}

func actionSpec(a ActionRequest) (automation.ActionSpec, error) {
	target, err := parseTarget(a.Scope, a.ID)
	if err != nil {
		return automation.ActionSpec{}, err
	}
	if a.Method == "" {
		return automation.ActionSpec{}, fmt.Errorf("%w: action method is required", automation.ErrInvalidRule)
	}
	return automation.ActionSpec{Target: target, Type: a.ItemType, Method: a.Method}, nil
}

var errMissingTargetID = errors.New("id is required")

func parseTarget(scope string, id *int64) (automation.Target, error) {
	sc, err := automation.ParseScope(scope)
	if err != nil {
		return automation.Target{}, err
	}
	if sc == automation.ScopeHouse {
		return automation.HouseTarget(), nil
	}
	if id == nil {
		return automation.Target{}, fmt.Errorf("%w: %s scope: %w", automation.ErrInvalidScope, sc, errMissingTargetID)
	}
	return automation.Target{Scope: sc, ID: *id}, nil
}
