package automation

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/robohome/robohome-core/internal/device"
	"github.com/robohome/robohome-core/internal/dispatch"
	"github.com/robohome/robohome-core/internal/notify"
)

// subscriberName is the name the house registers under on the notifier.
const subscriberName = "house"

// Logger defines the logging interface used by the House.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Recorder receives telemetry about reactions and queued jobs. Calls are
// made synchronously and must not block.
type Recorder interface {
	RecordReaction(r Reaction)
	RecordJob(res dispatch.Result)
}

type noopRecorder struct{}

func (noopRecorder) RecordReaction(Reaction)   {}
func (noopRecorder) RecordJob(dispatch.Result) {}

// Options configures a House. Zero values select defaults.
type Options struct {
	// Catalogue supplies device types. Defaults to the built-in types
	// with no transport.
	Catalogue *device.Catalogue

	// Notifier is the trigger fabric the house subscribes to. Defaults
	// to a new manager.
	Notifier *notify.Manager

	// Recorder receives telemetry. Defaults to discarding it.
	Recorder Recorder

	// DefaultPriority is the priority of jobs queued without one.
	DefaultPriority int

	// Worker configures the dispatch worker. OnResult is called after
	// the recorder.
	Worker dispatch.WorkerOptions
}

// room is a named container of items. Guarded by the house lock.
type room struct {
	id    int64
	name  string
	items map[int64]*device.Item
}

// RoomInfo is a snapshot of a room.
type RoomInfo struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	ItemIDs []int64 `json:"itemIds"`
}

// House owns rooms, items and rules, reacts to triggers, and executes
// queued device methods on a single worker.
type House struct {
	repo      Repository
	catalogue *device.Catalogue
	notifier  *notify.Manager
	recorder  Recorder
	queue     *dispatch.Queue
	worker    *dispatch.Worker
	logger    Logger

	mu     sync.RWMutex
	rooms  map[int64]*room
	events []*Event

	unsubscribe func()
}

// NewHouse builds an empty house over repo and subscribes it to the
// notifier. Call Load to restore stored state and Start to run the worker.
func NewHouse(repo Repository, opts Options) (*House, error) {
	if repo == nil {
		return nil, errors.New("automation: repository is required")
	}
	if opts.Catalogue == nil {
		opts.Catalogue = device.NewDefaultCatalogue(nil)
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewManager()
	}
	if opts.Recorder == nil {
		opts.Recorder = noopRecorder{}
	}

	h := &House{
		repo:      repo,
		catalogue: opts.Catalogue,
		notifier:  opts.Notifier,
		recorder:  opts.Recorder,
		queue:     dispatch.NewQueue(opts.DefaultPriority),
		logger:    noopLogger{},
		rooms:     make(map[int64]*room),
	}

	onResult := opts.Worker.OnResult
	workerOpts := opts.Worker
	workerOpts.OnResult = func(res dispatch.Result) {
		h.recorder.RecordJob(res)
		if onResult != nil {
			onResult(res)
		}
	}
	h.worker = dispatch.NewWorker(h.queue, h, workerOpts)

	unsubscribe, err := h.notifier.Subscribe(subscriberName, notify.SubscriberFunc(h.OnTrigger))
	if err != nil {
		return nil, fmt.Errorf("subscribing house: %w", err)
	}
	h.unsubscribe = unsubscribe
	return h, nil
}

// SetLogger sets the logger for the house and its worker.
func (h *House) SetLogger(logger Logger) {
	h.logger = logger
	h.worker.SetLogger(logger)
}

// Start runs the dispatch worker.
func (h *House) Start(ctx context.Context) error {
	return h.worker.Start(ctx)
}

// Close unsubscribes from the notifier and stops the worker, draining or
// discarding queued jobs as configured.
func (h *House) Close(ctx context.Context) error {
	h.unsubscribe()
	return h.worker.Stop(ctx)
}

// Notifier returns the trigger fabric.
func (h *House) Notifier() *notify.Manager { return h.notifier }

// Catalogue returns the device type catalogue.
func (h *House) Catalogue() *device.Catalogue { return h.catalogue }

// Load replaces the in-memory house with the repository contents. Stored
// items of unknown types and conditions with unknown operators are
// skipped with a warning.
func (h *House) Load(ctx context.Context) error {
	roomRecs, err := h.repo.ListRooms(ctx)
	if err != nil {
		return fmt.Errorf("%w: loading rooms: %w", ErrPersistence, err)
	}

	rooms := make(map[int64]*room, len(roomRecs))
	itemCount := 0
	for _, rr := range roomRecs {
		rm := &room{id: rr.ID, name: rr.Name, items: make(map[int64]*device.Item)}
		itemRecs, err := h.repo.ListItemsForRoom(ctx, rr.ID)
		if err != nil {
			return fmt.Errorf("%w: loading items for room %d: %w", ErrPersistence, rr.ID, err)
		}
		for _, ir := range itemRecs {
			item, err := h.catalogue.NewItem(ir.ID, ir.Name, ir.Brand, ir.Type, ir.Address)
			if err != nil {
				h.logger.Warn("skipping stored item", "item_id", ir.ID, "type", ir.Type, "error", err)
				continue
			}
			rm.items[ir.ID] = item
			itemCount++
		}
		rooms[rr.ID] = rm
	}

	eventRecs, err := h.repo.ListEvents(ctx)
	if err != nil {
		return fmt.Errorf("%w: loading events: %w", ErrPersistence, err)
	}
	events := make([]*Event, 0, len(eventRecs))
	for _, er := range eventRecs {
		ev := &Event{
			ID:      er.ID,
			Name:    er.Name,
			Type:    er.Type,
			Trigger: er.Trigger,
			Enabled: er.Enabled,
			Target:  targetFromRefs(er.ItemID, er.RoomID),
		}

		condRecs, err := h.repo.ListConditionsForEvent(ctx, er.ID)
		if err != nil {
			return fmt.Errorf("%w: loading conditions for event %d: %w", ErrPersistence, er.ID, err)
		}
		for _, cr := range condRecs {
			eq, err := ParseEquivalence(cr.Equivalence)
			if err != nil {
				h.logger.Warn("skipping stored condition", "condition_id", cr.ID, "error", err)
				continue
			}
			ev.Conditions = append(ev.Conditions, Condition{
				ID:          cr.ID,
				ItemID:      cr.ItemID,
				Method:      cr.Method,
				Equivalence: eq,
				Value:       cr.Value,
			})
		}

		actRecs, err := h.repo.ListActionsForEvent(ctx, er.ID)
		if err != nil {
			return fmt.Errorf("%w: loading actions for event %d: %w", ErrPersistence, er.ID, err)
		}
		for _, ar := range actRecs {
			ev.Actions = append(ev.Actions, Action{
				ID:     ar.ID,
				Method: ar.Method,
				Type:   ar.Type,
				Target: targetFromRefs(ar.ItemID, ar.RoomID),
			})
		}
		events = append(events, ev)
	}

	h.mu.Lock()
	h.rooms = rooms
	h.events = events
	h.mu.Unlock()

	h.logger.Info("house loaded", "rooms", len(rooms), "items", itemCount, "events", len(events))
	return nil
}

// ─── Lookups ────────────────────────────────────────────────────────

// GetItemByID returns the item with id.
func (h *House) GetItemByID(id int64) (*device.Item, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	item, ok := h.itemByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrItemNotFound, id)
	}
	return item, nil
}

// GetItemByAddress returns the item at address.
func (h *House) GetItemByAddress(address string) (*device.Item, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	item, ok := h.itemByAddress(address)
	if !ok {
		return nil, fmt.Errorf("%w: address %s", ErrItemNotFound, address)
	}
	return item, nil
}

// GetItemsByType returns every item of typeName ordered by id.
func (h *House) GetItemsByType(typeName string) []*device.Item {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return ofType(h.allItems(), typeName)
}

// GetRoomByItemID returns the room holding the item.
func (h *House) GetRoomByItemID(itemID int64) (RoomInfo, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rm, ok := h.roomOf(itemID)
	if !ok {
		return RoomInfo{}, fmt.Errorf("%w: %d", ErrItemNotFound, itemID)
	}
	return rm.info(), nil
}

// Room returns the room with id.
func (h *House) Room(id int64) (RoomInfo, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rm, ok := h.rooms[id]
	if !ok {
		return RoomInfo{}, fmt.Errorf("%w: %d", ErrRoomNotFound, id)
	}
	return rm.info(), nil
}

// Rooms returns every room ordered by id.
func (h *House) Rooms() []RoomInfo {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]RoomInfo, 0, len(h.rooms))
	for _, rm := range h.sortedRooms() {
		out = append(out, rm.info())
	}
	return out
}

// Event returns a copy of the event with id.
func (h *House) Event(id int64) (Event, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ev, _, ok := h.eventByID(id)
	if !ok {
		return Event{}, fmt.Errorf("%w: %d", ErrEventNotFound, id)
	}
	return ev.clone(), nil
}

// Events returns copies of every event in priority order.
func (h *House) Events() []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Event, len(h.events))
	for i, ev := range h.events {
		out[i] = ev.clone()
	}
	return out
}

// ─── Locked helpers ─────────────────────────────────────────────────
//
// Callers hold h.mu.

func (h *House) itemByID(id int64) (*device.Item, bool) {
	for _, rm := range h.rooms {
		if item, ok := rm.items[id]; ok {
			return item, true
		}
	}
	return nil, false
}

func (h *House) itemByAddress(address string) (*device.Item, bool) {
	for _, rm := range h.rooms {
		for _, item := range rm.items {
			if item.Address() == address {
				return item, true
			}
		}
	}
	return nil, false
}

func (h *House) roomOf(itemID int64) (*room, bool) {
	for _, rm := range h.rooms {
		if _, ok := rm.items[itemID]; ok {
			return rm, true
		}
	}
	return nil, false
}

func (h *House) roomItems(roomID int64) []*device.Item {
	rm, ok := h.rooms[roomID]
	if !ok {
		return nil
	}
	return rm.sortedItems()
}

func (h *House) allItems() []*device.Item {
	var out []*device.Item
	for _, rm := range h.rooms {
		for _, item := range rm.items {
			out = append(out, item)
		}
	}
	slices.SortFunc(out, byID)
	return out
}

func (h *House) sortedRooms() []*room {
	out := make([]*room, 0, len(h.rooms))
	for _, rm := range h.rooms {
		out = append(out, rm)
	}
	slices.SortFunc(out, func(a, b *room) int { return cmp.Compare(a.id, b.id) })
	return out
}

func (h *House) eventByID(id int64) (*Event, int, bool) {
	for i, ev := range h.events {
		if ev.ID == id {
			return ev, i, true
		}
	}
	return nil, -1, false
}

func (rm *room) sortedItems() []*device.Item {
	out := make([]*device.Item, 0, len(rm.items))
	for _, item := range rm.items {
		out = append(out, item)
	}
	slices.SortFunc(out, byID)
	return out
}

func (rm *room) info() RoomInfo {
	ids := make([]int64, 0, len(rm.items))
	for id := range rm.items {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return RoomInfo{ID: rm.id, Name: rm.name, ItemIDs: ids}
}

func byID(a, b *device.Item) int { return cmp.Compare(a.ID(), b.ID()) }
