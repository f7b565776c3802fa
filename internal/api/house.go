package api

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/robohome/robohome-core/internal/audit"
	"github.com/robohome/robohome-core/internal/automation"
	"github.com/robohome/robohome-core/internal/device"
	"github.com/robohome/robohome-core/internal/dispatch"
)

// RoomRequest is the body for creating or renaming a room.
type RoomRequest struct {
	Name string `json:"name"`
}

// ItemRequest is the body for creating or replacing an item.
type ItemRequest struct {
	Name     string `json:"name"`
	Brand    string `json:"brand"`
	ItemType string `json:"itemType"`
	Address  string `json:"address"`
}

func (req ItemRequest) details(roomID int64) map[string]any {
	return map[string]any{
		"room_id":  roomID,
		"name":     req.Name,
		"itemType": req.ItemType,
		"address":  req.Address,
	}
}

// CommandRequest queues a method invocation. Priority defaults to the
// queue's default; higher runs first.
type CommandRequest struct {
	Method   string `json:"method"`
	Args     []any  `json:"args,omitempty"`
	Priority *int   `json:"priority,omitempty"`
}

// QueueResponse lists pending jobs in run order.
type QueueResponse struct {
	Stats   dispatch.Stats `json:"stats"`
	Pending []dispatch.Job `json:"pending"`
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.house.Version())
}

func (s *Server) handleStructure(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.house.Structure(r.Context()))
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.house.State(r.Context()))
}

// ─── Rooms ──────────────────────────────────────────────────────────

func (s *Server) handleListRooms(w http.ResponseWriter, _ *http.Request) {
	rooms := s.house.Rooms()
	writeJSON(w, http.StatusOK, map[string]any{"rooms": rooms, "count": len(rooms)})
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var req RoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	id, err := s.house.AddRoom(r.Context(), req.Name)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionCreate, audit.EntityRoom, idString(id), map[string]any{"name": req.Name})
	s.writeRoom(w, r, http.StatusCreated, id)
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "roomID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	s.writeRoom(w, r, http.StatusOK, roomID)
}

func (s *Server) handleUpdateRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "roomID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req RoomRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.house.UpdateRoom(r.Context(), roomID, req.Name); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionUpdate, audit.EntityRoom, idString(roomID), map[string]any{"name": req.Name})
	s.writeRoom(w, r, http.StatusOK, roomID)
}

func (s *Server) handleDeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "roomID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.house.RemoveRoom(r.Context(), roomID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionDelete, audit.EntityRoom, idString(roomID), nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeRoom(w http.ResponseWriter, r *http.Request, status int, roomID int64) {
	room, err := s.house.Room(roomID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, status, room)
}

// ─── Items ──────────────────────────────────────────────────────────

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathID(r, "roomID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	var req ItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	id, err := s.house.AddItem(r.Context(), roomID, req.Name, req.Brand, req.ItemType, req.Address)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionCreate, audit.EntityItem, idString(id), req.details(roomID))
	s.writeItem(w, r, http.StatusCreated, roomID, id)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	roomID, itemID, ok := itemPath(w, r)
	if !ok {
		return
	}
	s.writeItem(w, r, http.StatusOK, roomID, itemID)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	roomID, itemID, ok := itemPath(w, r)
	if !ok {
		return
	}
	var req ItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if err := s.house.UpdateItem(r.Context(), roomID, itemID, req.Name, req.Brand, req.ItemType, req.Address); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionUpdate, audit.EntityItem, idString(itemID), req.details(roomID))
	s.writeItem(w, r, http.StatusOK, roomID, itemID)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	roomID, itemID, ok := itemPath(w, r)
	if !ok {
		return
	}
	if err := s.house.RemoveItem(r.Context(), roomID, itemID); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionDelete, audit.EntityItem, idString(itemID), map[string]any{"room_id": roomID})
	w.WriteHeader(http.StatusNoContent)
}

// handleQueueCommand queues a method call and answers 202 with the job.
// The method's result is never returned.
func (s *Server) handleQueueCommand(w http.ResponseWriter, r *http.Request) {
	roomID, itemID, ok := itemPath(w, r)
	if !ok {
		return
	}
	var req CommandRequest
	if err := decodeJSON(r, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if req.Method == "" {
		writeBadRequest(w, "method is required")
		return
	}

	item, err := s.itemInRoom(roomID, itemID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if !item.Supports(req.Method) {
		s.writeDomainError(w, r, fmt.Errorf("%w: %s has no method %q", device.ErrUnsupportedMethod, item.Type(), req.Method))
		return
	}

	priority := 0
	if req.Priority != nil {
		priority = *req.Priority
	}
	job, err := s.house.AddToQueueWithPriority(priority, roomID, itemID, req.Method, req.Args...)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	s.record(r, audit.ActionCommand, audit.EntityItem, idString(itemID), map[string]any{
		"job_id":   job.ID.String(),
		"method":   job.Method,
		"priority": job.Priority,
	})
	writeJSON(w, http.StatusAccepted, job)
}

func (s *Server) handleQueue(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, QueueResponse{
		Stats:   s.house.QueueStats(),
		Pending: s.house.PendingJobs(),
	})
}

func (s *Server) writeItem(w http.ResponseWriter, r *http.Request, status int, roomID, itemID int64) {
	item, err := s.itemInRoom(roomID, itemID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	state, err := item.State(r.Context())
	if err != nil {
		state = automation.UnknownState
	}
	writeJSON(w, status, automation.ItemView{
		ID:       item.ID(),
		Name:     item.Name(),
		ItemType: item.Type(),
		Brand:    item.Brand(),
		Address:  item.Address(),
		State:    state,
	})
}

// itemInRoom returns the item only when it belongs to roomID.
func (s *Server) itemInRoom(roomID, itemID int64) (*device.Item, error) {
	room, err := s.house.Room(roomID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(room.ItemIDs, itemID) {
		return nil, fmt.Errorf("%w: %d in room %d", automation.ErrItemNotFound, itemID, roomID)
	}
	return s.house.GetItemByID(itemID)
}

func itemPath(w http.ResponseWriter, r *http.Request) (roomID, itemID int64, ok bool) {
	roomID, err := pathID(r, "roomID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return 0, 0, false
	}
	itemID, err = pathID(r, "itemID")
	if err != nil {
		writeBadRequest(w, err.Error())
		return 0, 0, false
	}
	return roomID, itemID, true
}
