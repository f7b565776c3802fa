package automation

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/robohome/robohome-core/internal/device"
	"github.com/robohome/robohome-core/internal/dispatch"
	"github.com/robohome/robohome-core/internal/notify"
)

func TestNewHouse(t *testing.T) {
	if _, err := NewHouse(nil, Options{}); err == nil {
		t.Error("NewHouse(nil) should fail")
	}

	n := notify.NewManager()
	h, err := NewHouse(newMemRepository(), Options{Notifier: n})
	if err != nil {
		t.Fatalf("NewHouse() error = %v", err)
	}
	if got := n.Subscribers(); !slices.Equal(got, []string{"house"}) {
		t.Errorf("Subscribers() = %v", got)
	}
	if _, err := NewHouse(newMemRepository(), Options{Notifier: n}); !errors.Is(err, notify.ErrDuplicateSubscriber) {
		t.Errorf("second house on same notifier error = %v", err)
	}

	if err := h.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if got := n.Subscribers(); len(got) != 0 {
		t.Errorf("Subscribers() after Close = %v", got)
	}
}

func TestHouse_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	roomID := f.room(t, "lounge")
	itemID, err := f.house.AddItem(ctx, roomID, "sensor", "acme", device.TypeMotionSensor, "10.0.0.5")
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	item, err := f.house.GetItemByID(itemID)
	if err != nil {
		t.Fatalf("GetItemByID() error = %v", err)
	}
	if item.ID() != itemID || item.Name() != "sensor" || item.Brand() != "acme" ||
		item.Type() != device.TypeMotionSensor || item.Address() != "10.0.0.5" {
		t.Errorf("item = %v name=%q brand=%q", item, item.Name(), item.Brand())
	}

	view := f.house.Structure(ctx)
	if len(view.Rooms) != 1 || view.Rooms[0].Name != "lounge" || len(view.Rooms[0].Items) != 1 {
		t.Fatalf("Structure() = %+v", view)
	}
	want := ItemView{ID: itemID, Name: "sensor", ItemType: device.TypeMotionSensor, Brand: "acme", Address: "10.0.0.5", State: 0}
	if got := view.Rooms[0].Items[0]; got != want {
		t.Errorf("structure item = %+v, want %+v", got, want)
	}
}

func TestHouse_Lookups(t *testing.T) {
	f := newFixture(t)
	lounge := f.room(t, "lounge")
	hall := f.room(t, "hall")
	sensor := f.item(t, lounge, "sensor", device.TypeMotionSensor, "10.0.0.5")
	lamp1 := f.item(t, lounge, "lamp", typeLamp, "10.0.0.6")
	lamp2 := f.item(t, hall, "hall lamp", typeLamp, "10.0.0.7")

	t.Run("by address", func(t *testing.T) {
		item, err := f.house.GetItemByAddress("10.0.0.7")
		if err != nil || item.ID() != lamp2 {
			t.Errorf("GetItemByAddress() = %v, %v", item, err)
		}
		if _, err := f.house.GetItemByAddress("10.0.0.9"); !errors.Is(err, ErrItemNotFound) {
			t.Errorf("GetItemByAddress(unknown) error = %v", err)
		}
	})

	t.Run("by id", func(t *testing.T) {
		if _, err := f.house.GetItemByID(99); !errors.Is(err, ErrNotFound) {
			t.Errorf("GetItemByID(99) error = %v", err)
		}
	})

	t.Run("by type", func(t *testing.T) {
		var ids []int64
		for _, item := range f.house.GetItemsByType(typeLamp) {
			ids = append(ids, item.ID())
		}
		if !slices.Equal(ids, []int64{lamp1, lamp2}) {
			t.Errorf("GetItemsByType() = %v", ids)
		}
		if got := f.house.GetItemsByType("toaster"); len(got) != 0 {
			t.Errorf("GetItemsByType(unknown) = %v", got)
		}
	})

	t.Run("room by item", func(t *testing.T) {
		rm, err := f.house.GetRoomByItemID(sensor)
		if err != nil || rm.ID != lounge || rm.Name != "lounge" {
			t.Errorf("GetRoomByItemID() = %+v, %v", rm, err)
		}
		if !slices.Equal(rm.ItemIDs, []int64{sensor, lamp1}) {
			t.Errorf("ItemIDs = %v", rm.ItemIDs)
		}
		if _, err := f.house.GetRoomByItemID(99); !errors.Is(err, ErrItemNotFound) {
			t.Errorf("GetRoomByItemID(99) error = %v", err)
		}
	})

	t.Run("rooms", func(t *testing.T) {
		rooms := f.house.Rooms()
		if len(rooms) != 2 || rooms[0].ID != lounge || rooms[1].ID != hall {
			t.Errorf("Rooms() = %+v", rooms)
		}
		if _, err := f.house.Room(99); !errors.Is(err, ErrRoomNotFound) {
			t.Errorf("Room(99) error = %v", err)
		}
	})
}

func TestHouse_ExecuteMethod(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lounge := f.room(t, "lounge")
	hall := f.room(t, "hall")
	lamp := f.item(t, lounge, "lamp", typeLamp, "10.0.0.6")

	tests := []struct {
		name    string
		roomID  int64
		itemID  int64
		method  string
		wantErr error
		want    any
	}{
		{name: "missing room", roomID: 99, itemID: lamp, method: "turnOnLight", wantErr: ErrRoomNotFound},
		{name: "item in other room", roomID: hall, itemID: lamp, method: "turnOnLight", wantErr: ErrItemNotFound},
		{name: "unsupported method", roomID: lounge, itemID: lamp, method: "fly", wantErr: device.ErrUnsupportedMethod},
		{name: "action result", roomID: lounge, itemID: lamp, method: "turnOnLight", want: "turnOnLight done"},
		{name: "getState", roomID: lounge, itemID: lamp, method: device.MethodGetState, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.house.ExecuteMethod(ctx, tt.roomID, tt.itemID, tt.method)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("ExecuteMethod() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExecuteMethod() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ExecuteMethod() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := f.house.ExecuteMethod(ctx, 99, lamp, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing room should be in the not-found class: %v", err)
	}
}

func TestHouse_AddToQueue(t *testing.T) {
	ctx := context.Background()
	repo := newMemRepository()
	log := &callLog{}
	rec := &recordingRecorder{}
	results := make(chan dispatch.Result, 10)

	h, err := NewHouse(repo, Options{
		Catalogue: newTestCatalogue(t, log),
		Recorder:  rec,
		Worker: dispatch.WorkerOptions{
			DrainOnShutdown: true,
			OnResult:        func(r dispatch.Result) { results <- r },
		},
	})
	if err != nil {
		t.Fatalf("NewHouse() error = %v", err)
	}
	lounge, _ := h.AddRoom(ctx, "lounge")
	lamp, _ := h.AddItem(ctx, lounge, "lamp", "test", typeLamp, "10.0.0.6")

	// Queued before the worker starts so run order is fixed.
	if _, err := h.AddToQueue(lounge, lamp, "turnOnLight"); err != nil {
		t.Fatalf("AddToQueue() error = %v", err)
	}
	if _, err := h.AddToQueue(99, lamp, "turnOnLight"); err != nil {
		t.Fatalf("AddToQueue() error = %v", err)
	}
	if _, err := h.AddToQueueWithPriority(90, lounge, lamp, "turnOffLight"); err != nil {
		t.Fatalf("AddToQueueWithPriority() error = %v", err)
	}
	if n := len(h.PendingJobs()); n != 3 {
		t.Fatalf("PendingJobs() = %d", n)
	}

	if err := h.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	var got []dispatch.Result
	for len(got) < 3 {
		select {
		case r := <-results:
			got = append(got, r)
		case <-time.After(2 * time.Second):
			t.Fatalf("got %d results", len(got))
		}
	}
	if got[0].Job.Method != "turnOffLight" || got[1].Job.Method != "turnOnLight" {
		t.Errorf("run order = %s, %s", got[0].Job.Method, got[1].Job.Method)
	}
	if !errors.Is(got[2].Err, ErrRoomNotFound) {
		t.Errorf("third job error = %v, want ErrRoomNotFound", got[2].Err)
	}

	if err := h.Close(ctx); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := h.AddToQueue(lounge, lamp, "turnOnLight"); !errors.Is(err, dispatch.ErrQueueClosed) {
		t.Errorf("AddToQueue() after Close = %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.jobs) != 3 {
		t.Errorf("recorded %d jobs, want 3", len(rec.jobs))
	}
	if s := h.QueueStats(); s.Processed != 3 || s.Failed != 1 {
		t.Errorf("QueueStats() = %+v", s)
	}
}

func TestHouse_ReportState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lounge := f.room(t, "lounge")
	sensor := f.item(t, lounge, "sensor", device.TypeMotionSensor, "10.0.0.5")

	if err := f.house.ReportState("10.0.0.5", 1); err != nil {
		t.Fatalf("ReportState() error = %v", err)
	}
	item, _ := f.house.GetItemByID(sensor)
	if s, _ := item.State(ctx); s != 1 {
		t.Errorf("state = %d, want 1", s)
	}
	if err := f.house.ReportState("10.0.0.5", 7); !errors.Is(err, device.ErrInvalidState) {
		t.Errorf("ReportState(7) error = %v", err)
	}
	if err := f.house.ReportState("10.0.0.9", 1); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("ReportState(unknown) error = %v", err)
	}
}

func TestHouse_Load(t *testing.T) {
	ctx := context.Background()
	log := &callLog{}
	repo := newMemRepository()

	// Populate through one house, then restore into another.
	first, err := NewHouse(repo, Options{Catalogue: newTestCatalogue(t, log)})
	if err != nil {
		t.Fatalf("NewHouse() error = %v", err)
	}
	lounge, _ := first.AddRoom(ctx, "lounge")
	sensor, _ := first.AddItem(ctx, lounge, "sensor", "test", device.TypeMotionSensor, "10.0.0.5")
	lamp, _ := first.AddItem(ctx, lounge, "lamp", "test", typeLamp, "10.0.0.6")
	e1, err := first.AddEvent(ctx, motionRule("E1", ItemTarget(sensor)))
	if err != nil {
		t.Fatalf("AddEvent() error = %v", err)
	}
	if _, err := first.AddCondition(ctx, e1, ConditionSpec{ItemID: lamp, Equivalence: "is", Value: 0}); err != nil {
		t.Fatalf("AddCondition() error = %v", err)
	}
	if _, err := first.AddAction(ctx, e1, ActionSpec{Target: ItemTarget(lamp), Method: "turnOnLight"}); err != nil {
		t.Fatalf("AddAction() error = %v", err)
	}
	e2, _ := first.AddEvent(ctx, motionRule("E2", RoomTarget(lounge)))

	// Rows the catalogue or parser cannot use are skipped.
	repo.items[99] = ItemRecord{ID: 99, RoomID: lounge, Name: "toaster", Type: "toaster", Address: "10.0.0.99"}
	repo.conditions[99] = ConditionRecord{ID: 99, EventID: e2, ItemID: lamp, Method: device.MethodGetState, Equivalence: "~", Value: 1}
	first.Close(ctx) //nolint:errcheck // not started

	second, err := NewHouse(repo, Options{Catalogue: newTestCatalogue(t, log)})
	if err != nil {
		t.Fatalf("NewHouse() error = %v", err)
	}
	defer second.Close(ctx) //nolint:errcheck // not started
	if err := second.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if !slices.Equal(second.Rooms()[0].ItemIDs, []int64{sensor, lamp}) {
		t.Errorf("items = %v", second.Rooms()[0].ItemIDs)
	}
	events := second.Events()
	if len(events) != 2 || events[0].ID != e1 || events[1].ID != e2 {
		t.Fatalf("events = %+v", events)
	}
	if len(events[0].Conditions) != 1 || events[0].Conditions[0].Equivalence != Equal {
		t.Errorf("conditions = %+v", events[0].Conditions)
	}
	if len(events[1].Conditions) != 0 {
		t.Errorf("bad condition was loaded: %+v", events[1].Conditions)
	}
	if events[1].Target != RoomTarget(lounge) {
		t.Errorf("E2 target = %+v", events[1].Target)
	}

	if _, err := second.React(ctx, "10.0.0.5", "motion"); err != nil {
		t.Fatalf("React() error = %v", err)
	}
	if got := log.list(); !slices.Equal(got, []string{"10.0.0.6:turnOnLight"}) {
		t.Errorf("invocations after Load = %v", got)
	}
}

func TestHouse_LoadFailure(t *testing.T) {
	for _, op := range []string{"ListRooms", "ListItemsForRoom", "ListEvents", "ListConditionsForEvent", "ListActionsForEvent"} {
		t.Run(op, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			lounge := f.room(t, "lounge")
			f.item(t, lounge, "sensor", device.TypeMotionSensor, "10.0.0.5")
			f.event(t, motionRule("E1", HouseTarget()))

			f.repo.setFailOn(op)
			if err := f.house.Load(ctx); !errors.Is(err, ErrPersistence) {
				t.Errorf("Load() error = %v, want ErrPersistence", err)
			}
			// The in-memory house is untouched.
			if len(f.house.Rooms()) != 1 || len(f.house.Events()) != 1 {
				t.Error("failed Load changed the house")
			}
		})
	}
}
