package automation

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/robohome/robohome-core/internal/device"
	"github.com/robohome/robohome-core/internal/dispatch"
)

// ─── Mock Dependencies ──────────────────────────────────────────────

// memRepository is an in-memory Repository with failure injection.
type memRepository struct {
	mu sync.Mutex

	nextID     map[string]int64
	rooms      map[int64]RoomRecord
	items      map[int64]ItemRecord
	events     map[int64]EventRecord
	conditions map[int64]ConditionRecord
	actions    map[int64]ActionRecord

	failOn   string // operation name to fail, e.g. "AddRoom"
	returnID *int64 // forced id for Add operations
	calls    []string
}

var errInjected = errors.New("injected failure")

func newMemRepository() *memRepository {
	return &memRepository{
		nextID:     make(map[string]int64),
		rooms:      make(map[int64]RoomRecord),
		items:      make(map[int64]ItemRecord),
		events:     make(map[int64]EventRecord),
		conditions: make(map[int64]ConditionRecord),
		actions:    make(map[int64]ActionRecord),
	}
}

func (m *memRepository) begin(op string) error {
	m.calls = append(m.calls, op)
	if m.failOn == op {
		return errInjected
	}
	return nil
}

// newID numbers each entity kind from 1, like an autoincrement table.
func (m *memRepository) newID(kind string) int64 {
	if m.returnID != nil {
		return *m.returnID
	}
	m.nextID[kind]++
	return m.nextID[kind]
}

func (m *memRepository) AddRoom(_ context.Context, r RoomRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("AddRoom"); err != nil {
		return 0, err
	}
	r.ID = m.newID("room")
	m.rooms[r.ID] = r
	return r.ID, nil
}

func (m *memRepository) UpdateRoom(_ context.Context, r RoomRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("UpdateRoom"); err != nil {
		return err
	}
	m.rooms[r.ID] = r
	return nil
}

func (m *memRepository) RemoveRoom(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("RemoveRoom"); err != nil {
		return err
	}
	delete(m.rooms, id)
	for itemID, it := range m.items {
		if it.RoomID == id {
			delete(m.items, itemID)
		}
	}
	return nil
}

func (m *memRepository) ListRooms(context.Context) ([]RoomRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("ListRooms"); err != nil {
		return nil, err
	}
	return sortedValues(m.rooms, func(r RoomRecord) int64 { return r.ID }), nil
}

func (m *memRepository) AddItem(_ context.Context, i ItemRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("AddItem"); err != nil {
		return 0, err
	}
	i.ID = m.newID("item")
	m.items[i.ID] = i
	return i.ID, nil
}

func (m *memRepository) UpdateItem(_ context.Context, i ItemRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("UpdateItem"); err != nil {
		return err
	}
	m.items[i.ID] = i
	return nil
}

func (m *memRepository) RemoveItem(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("RemoveItem"); err != nil {
		return err
	}
	delete(m.items, id)
	return nil
}

func (m *memRepository) ListItemsForRoom(_ context.Context, roomID int64) ([]ItemRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("ListItemsForRoom"); err != nil {
		return nil, err
	}
	var out []ItemRecord
	for _, it := range sortedValues(m.items, func(i ItemRecord) int64 { return i.ID }) {
		if it.RoomID == roomID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *memRepository) AddEvent(_ context.Context, e EventRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("AddEvent"); err != nil {
		return 0, err
	}
	e.ID = m.newID("event")
	m.events[e.ID] = e
	return e.ID, nil
}

func (m *memRepository) UpdateEvent(_ context.Context, e EventRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("UpdateEvent"); err != nil {
		return err
	}
	m.events[e.ID] = e
	return nil
}

func (m *memRepository) RemoveEvent(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("RemoveEvent"); err != nil {
		return err
	}
	delete(m.events, id)
	for cid, c := range m.conditions {
		if c.EventID == id {
			delete(m.conditions, cid)
		}
	}
	for aid, a := range m.actions {
		if a.EventID == id {
			delete(m.actions, aid)
		}
	}
	return nil
}

func (m *memRepository) ListEvents(context.Context) ([]EventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("ListEvents"); err != nil {
		return nil, err
	}
	return sortedValues(m.events, func(e EventRecord) int64 { return e.ID }), nil
}

func (m *memRepository) AddCondition(_ context.Context, c ConditionRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("AddCondition"); err != nil {
		return 0, err
	}
	c.ID = m.newID("condition")
	m.conditions[c.ID] = c
	return c.ID, nil
}

func (m *memRepository) UpdateCondition(_ context.Context, c ConditionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("UpdateCondition"); err != nil {
		return err
	}
	m.conditions[c.ID] = c
	return nil
}

func (m *memRepository) RemoveCondition(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("RemoveCondition"); err != nil {
		return err
	}
	delete(m.conditions, id)
	return nil
}

func (m *memRepository) ListConditionsForEvent(_ context.Context, eventID int64) ([]ConditionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("ListConditionsForEvent"); err != nil {
		return nil, err
	}
	var out []ConditionRecord
	for _, c := range sortedValues(m.conditions, func(c ConditionRecord) int64 { return c.ID }) {
		if c.EventID == eventID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memRepository) AddAction(_ context.Context, a ActionRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("AddAction"); err != nil {
		return 0, err
	}
	a.ID = m.newID("action")
	m.actions[a.ID] = a
	return a.ID, nil
}

func (m *memRepository) UpdateAction(_ context.Context, a ActionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("UpdateAction"); err != nil {
		return err
	}
	m.actions[a.ID] = a
	return nil
}

func (m *memRepository) RemoveAction(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("RemoveAction"); err != nil {
		return err
	}
	delete(m.actions, id)
	return nil
}

func (m *memRepository) ListActionsForEvent(_ context.Context, eventID int64) ([]ActionRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.begin("ListActionsForEvent"); err != nil {
		return nil, err
	}
	var out []ActionRecord
	for _, a := range sortedValues(m.actions, func(a ActionRecord) int64 { return a.ID }) {
		if a.EventID == eventID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memRepository) setFailOn(op string) {
	m.mu.Lock()
	m.failOn = op
	m.mu.Unlock()
}

func sortedValues[T any](m map[int64]T, id func(T) int64) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(id(a), id(b)) })
	return out
}

// callLog records action invocations on test lamps.
type callLog struct {
	mu    sync.Mutex
	calls []string // "address:method"
}

func (l *callLog) add(address, method string) {
	l.mu.Lock()
	l.calls = append(l.calls, address+":"+method)
	l.mu.Unlock()
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.calls)
}

func (l *callLog) count(entry string) int {
	n := 0
	for _, c := range l.list() {
		if c == entry {
			n++
		}
	}
	return n
}

// lamp is a test device whose actions are logged.
type lamp struct {
	address string
	log     *callLog

	mu    sync.Mutex
	state int
}

func (d *lamp) State(context.Context) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state, nil
}

func (d *lamp) ReportState(s int) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

var errLampBroken = errors.New("lamp broken")

func lampAction(method string, next int, fail bool) device.ActionFunc {
	return func(_ context.Context, d device.Device, _ ...any) (any, error) {
		l := d.(*lamp)
		l.log.add(l.address, method)
		if fail {
			return nil, errLampBroken
		}
		l.ReportState(next)
		return method + " done", nil
	}
}

const typeLamp = "lamp"

func newTestCatalogue(t *testing.T, log *callLog) *device.Catalogue {
	t.Helper()
	c := device.NewDefaultCatalogue(nil)
	err := c.Register(device.TypeSpec{
		Name:        typeLamp,
		DisplayName: "Test Lamp",
		Brands:      []string{"test"},
		States:      []string{"off", "on"},
		Actions: map[string]device.ActionFunc{
			"turnOnLight":  lampAction("turnOnLight", 1, false),
			"turnOffLight": lampAction("turnOffLight", 0, false),
			"explode":      lampAction("explode", 0, true),
		},
		New: func(address string, _ device.Transport) device.Device {
			return &lamp{address: address, log: log}
		},
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return c
}

// recordingRecorder captures telemetry.
type recordingRecorder struct {
	mu        sync.Mutex
	reactions []Reaction
	jobs      []dispatch.Result
}

func (r *recordingRecorder) RecordReaction(rx Reaction) {
	r.mu.Lock()
	r.reactions = append(r.reactions, rx)
	r.mu.Unlock()
}

func (r *recordingRecorder) RecordJob(res dispatch.Result) {
	r.mu.Lock()
	r.jobs = append(r.jobs, res)
	r.mu.Unlock()
}

// ─── Fixtures ───────────────────────────────────────────────────────

type fixture struct {
	house *House
	repo  *memRepository
	log   *callLog
	rec   *recordingRecorder
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	repo := newMemRepository()
	log := &callLog{}
	rec := &recordingRecorder{}
	h, err := NewHouse(repo, Options{
		Catalogue: newTestCatalogue(t, log),
		Recorder:  rec,
	})
	if err != nil {
		t.Fatalf("NewHouse() error = %v", err)
	}
	t.Cleanup(func() { h.Close(context.Background()) }) //nolint:errcheck // test cleanup
	return &fixture{house: h, repo: repo, log: log, rec: rec}
}

func (f *fixture) room(t *testing.T, name string) int64 {
	t.Helper()
	id, err := f.house.AddRoom(context.Background(), name)
	if err != nil {
		t.Fatalf("AddRoom(%q) error = %v", name, err)
	}
	return id
}

func (f *fixture) item(t *testing.T, roomID int64, name, typeName, address string) int64 {
	t.Helper()
	id, err := f.house.AddItem(context.Background(), roomID, name, "test", typeName, address)
	if err != nil {
		t.Fatalf("AddItem(%q) error = %v", name, err)
	}
	return id
}

func (f *fixture) event(t *testing.T, spec EventSpec) int64 {
	t.Helper()
	id, err := f.house.AddEvent(context.Background(), spec)
	if err != nil {
		t.Fatalf("AddEvent(%q) error = %v", spec.Name, err)
	}
	return id
}

func (f *fixture) action(t *testing.T, eventID int64, spec ActionSpec) int64 {
	t.Helper()
	id, err := f.house.AddAction(context.Background(), eventID, spec)
	if err != nil {
		t.Fatalf("AddAction(%d) error = %v", eventID, err)
	}
	return id
}

func (f *fixture) condition(t *testing.T, eventID int64, spec ConditionSpec) int64 {
	t.Helper()
	id, err := f.house.AddCondition(context.Background(), eventID, spec)
	if err != nil {
		t.Fatalf("AddCondition(%d) error = %v", eventID, err)
	}
	return id
}

// motionRule is an enabled motion rule over target.
func motionRule(name string, target Target) EventSpec {
	return EventSpec{Name: name, Type: device.TypeMotionSensor, Target: target, Value: 1, Enabled: true}
}
