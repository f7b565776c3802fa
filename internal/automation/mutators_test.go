package automation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/robohome/robohome-core/internal/device"
)

func TestAddRoom_Validation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.house.AddRoom(context.Background(), "  "); !errors.Is(err, device.ErrInvalidName) {
		t.Errorf("AddRoom(blank) error = %v", err)
	}
	if len(f.repo.calls) != 0 {
		t.Errorf("invalid room reached the repository: %v", f.repo.calls)
	}
}

func TestAdd_PersistenceFailure(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		op  string
		add func(f *fixture, lounge, sensor, event int64) error
	}{
		{"AddRoom", func(f *fixture, _, _, _ int64) error {
			_, err := f.house.AddRoom(ctx, "hall")
			return err
		}},
		{"AddItem", func(f *fixture, lounge, _, _ int64) error {
			_, err := f.house.AddItem(ctx, lounge, "lamp", "test", typeLamp, "10.0.0.6")
			return err
		}},
		{"AddEvent", func(f *fixture, _, sensor, _ int64) error {
			_, err := f.house.AddEvent(ctx, motionRule("E2", ItemTarget(sensor)))
			return err
		}},
		{"AddCondition", func(f *fixture, _, sensor, event int64) error {
			_, err := f.house.AddCondition(ctx, event, ConditionSpec{ItemID: sensor, Equivalence: "=", Value: 1})
			return err
		}},
		{"AddAction", func(f *fixture, lounge, _, event int64) error {
			_, err := f.house.AddAction(ctx, event, ActionSpec{Target: RoomTarget(lounge), Type: typeLamp, Method: "turnOnLight"})
			return err
		}},
	}

	for _, tt := range tests {
		for _, mode := range []string{"error", "negative id"} {
			t.Run(tt.op+"/"+mode, func(t *testing.T) {
				f := newFixture(t)
				lounge := f.room(t, "lounge")
				sensor := f.item(t, lounge, "sensor", device.TypeMotionSensor, "10.0.0.5")
				event := f.event(t, motionRule("E1", HouseTarget()))
				before := f.house.Rules()
				beforeRooms := f.house.Rooms()

				if mode == "error" {
					f.repo.setFailOn(tt.op)
				} else {
					bad := int64(-1)
					f.repo.returnID = &bad
				}

				err := tt.add(f, lounge, sensor, event)
				if !errors.Is(err, ErrPersistence) {
					t.Fatalf("%s error = %v, want ErrPersistence", tt.op, err)
				}

				after := f.house.Rules()
				if len(after.Rules) != len(before.Rules) ||
					len(after.Rules[0].Conditions) != len(before.Rules[0].Conditions) ||
					len(after.Rules[0].Actions) != len(before.Rules[0].Actions) {
					t.Errorf("rules changed: %+v", after)
				}
				afterRooms := f.house.Rooms()
				if len(afterRooms) != len(beforeRooms) || len(afterRooms[0].ItemIDs) != len(beforeRooms[0].ItemIDs) {
					t.Errorf("rooms changed: %+v", afterRooms)
				}
			})
		}
	}
}

func TestAddItem_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lounge := f.room(t, "lounge")
	f.item(t, lounge, "sensor", device.TypeMotionSensor, "10.0.0.5")

	tests := []struct {
		name    string
		roomID  int64
		typ     string
		address string
		wantErr error
	}{
		{"unknown room", 99, typeLamp, "10.0.0.6", ErrRoomNotFound},
		{"unknown type", lounge, "toaster", "10.0.0.6", device.ErrUnknownType},
		{"bad address", lounge, typeLamp, "a/b", device.ErrInvalidAddress},
		{"duplicate address", lounge, typeLamp, "10.0.0.5", ErrDuplicateAddress},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.house.AddItem(ctx, tt.roomID, "lamp", "test", tt.typ, tt.address)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("AddItem() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestUpdateItem(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lounge := f.room(t, "lounge")
	lamp := f.item(t, lounge, "lamp", typeLamp, "10.0.0.6")
	f.item(t, lounge, "other", typeLamp, "10.0.0.7")

	if _, err := f.house.ExecuteMethod(ctx, lounge, lamp, "turnOnLight"); err != nil {
		t.Fatalf("ExecuteMethod() error = %v", err)
	}

	t.Run("fields change and state is kept", func(t *testing.T) {
		if err := f.house.UpdateItem(ctx, lounge, lamp, "desk lamp", "hue", typeLamp, "10.0.0.16"); err != nil {
			t.Fatalf("UpdateItem() error = %v", err)
		}
		item, _ := f.house.GetItemByAddress("10.0.0.16")
		if item == nil || item.ID() != lamp || item.Name() != "desk lamp" || item.Brand() != "hue" {
			t.Fatalf("item = %v", item)
		}
		if s, _ := item.State(ctx); s != 1 {
			t.Errorf("state = %d, want kept 1", s)
		}
		if f.repo.items[lamp].Address != "10.0.0.16" {
			t.Errorf("repository not updated: %+v", f.repo.items[lamp])
		}
	})

	t.Run("type change replaces device", func(t *testing.T) {
		if err := f.house.UpdateItem(ctx, lounge, lamp, "plug", "generic", device.TypePlug, "10.0.0.16"); err != nil {
			t.Fatalf("UpdateItem() error = %v", err)
		}
		item, _ := f.house.GetItemByID(lamp)
		if item.Type() != device.TypePlug {
			t.Errorf("type = %s", item.Type())
		}
	})

	t.Run("errors", func(t *testing.T) {
		if err := f.house.UpdateItem(ctx, lounge, lamp, "x", "", typeLamp, "10.0.0.7"); !errors.Is(err, ErrDuplicateAddress) {
			t.Errorf("duplicate address error = %v", err)
		}
		if err := f.house.UpdateItem(ctx, 99, lamp, "x", "", typeLamp, "10.0.0.8"); !errors.Is(err, ErrRoomNotFound) {
			t.Errorf("missing room error = %v", err)
		}
		if err := f.house.UpdateItem(ctx, lounge, 99, "x", "", typeLamp, "10.0.0.8"); !errors.Is(err, ErrItemNotFound) {
			t.Errorf("missing item error = %v", err)
		}
		f.repo.setFailOn("UpdateItem")
		if err := f.house.UpdateItem(ctx, lounge, lamp, "renamed", "", device.TypePlug, "10.0.0.16"); !errors.Is(err, ErrPersistence) {
			t.Errorf("persistence error = %v", err)
		}
		item, _ := f.house.GetItemByID(lamp)
		if item.Name() == "renamed" {
			t.Error("failed update changed the item")
		}
	})
}

func TestRemoveItem_LeavesRulesDangling(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lounge := f.room(t, "lounge")
	sensor := f.item(t, lounge, "sensor", device.TypeMotionSensor, "10.0.0.5")
	lamp := f.item(t, lounge, "lamp", typeLamp, "10.0.0.6")
	e1 := f.event(t, motionRule("E1", ItemTarget(sensor)))
	f.action(t, e1, ActionSpec{Target: ItemTarget(lamp), Method: "turnOnLight"})

	if err := f.house.RemoveItem(ctx, lounge, sensor); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	if _, err := f.house.GetItemByID(sensor); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("removed item still found: %v", err)
	}
	if _, err := f.house.Event(e1); err != nil {
		t.Errorf("rule removed with its item: %v", err)
	}
	if _, err := f.house.React(ctx, "10.0.0.5", "motion"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("React() on removed address = %v", err)
	}
	if err := f.house.RemoveItem(ctx, lounge, sensor); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("second RemoveItem() = %v", err)
	}
}

func TestRoomMutators(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lounge := f.room(t, "lounge")
	f.item(t, lounge, "lamp", typeLamp, "10.0.0.6")

	if err := f.house.UpdateRoom(ctx, lounge, "living room"); err != nil {
		t.Fatalf("UpdateRoom() error = %v", err)
	}
	if rm, _ := f.house.Room(lounge); rm.Name != "living room" {
		t.Errorf("name = %q", rm.Name)
	}
	if err := f.house.UpdateRoom(ctx, 99, "x"); !errors.Is(err, ErrRoomNotFound) {
		t.Errorf("UpdateRoom(99) = %v", err)
	}

	f.repo.setFailOn("RemoveRoom")
	if err := f.house.RemoveRoom(ctx, lounge); !errors.Is(err, ErrPersistence) {
		t.Errorf("RemoveRoom() persistence error = %v", err)
	}
	f.repo.setFailOn("")

	if err := f.house.RemoveRoom(ctx, lounge); err != nil {
		t.Fatalf("RemoveRoom() error = %v", err)
	}
	if _, err := f.house.GetItemByAddress("10.0.0.6"); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("item of removed room still found: %v", err)
	}
	if len(f.repo.items) != 0 {
		t.Errorf("repository items = %v", f.repo.items)
	}
}

func TestEventMutators(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lounge := f.room(t, "lounge")
	sensor := f.item(t, lounge, "sensor", device.TypeMotionSensor, "10.0.0.5")
	lamp := f.item(t, lounge, "lamp", typeLamp, "10.0.0.6")

	t.Run("add validation", func(t *testing.T) {
		tests := []struct {
			name    string
			spec    EventSpec
			wantErr error
		}{
			{"bad value", EventSpec{Name: "e", Type: device.TypeMotionSensor, Target: HouseTarget(), Value: 5}, ErrInvalidRule},
			{"unknown type", EventSpec{Name: "e", Type: "toaster", Target: HouseTarget(), Value: 0}, ErrInvalidRule},
			{"bad scope", EventSpec{Name: "e", Type: device.TypeMotionSensor, Target: Target{Scope: "garden"}, Value: 1}, ErrInvalidScope},
			{"missing item", motionRule("e", ItemTarget(99)), ErrItemNotFound},
			{"missing room", motionRule("e", RoomTarget(99)), ErrRoomNotFound},
			{"item of other type", motionRule("e", ItemTarget(lamp)), ErrInvalidRule},
			{"blank name", motionRule("", HouseTarget()), device.ErrInvalidName},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := f.house.AddEvent(ctx, tt.spec); !errors.Is(err, tt.wantErr) {
					t.Errorf("AddEvent() error = %v, want %v", err, tt.wantErr)
				}
			})
		}
		if len(f.house.Events()) != 0 {
			t.Error("invalid events were added")
		}
	})

	e1 := f.event(t, motionRule("E1", ItemTarget(sensor)))
	e2 := f.event(t, motionRule("E2", HouseTarget()))

	t.Run("update keeps order", func(t *testing.T) {
		spec := EventSpec{Name: "E1 closed", Type: device.TypeMotionSensor, Target: RoomTarget(lounge), Value: 0, Enabled: false}
		if err := f.house.UpdateEvent(ctx, e1, spec); err != nil {
			t.Fatalf("UpdateEvent() error = %v", err)
		}
		events := f.house.Events()
		if events[0].ID != e1 || events[0].Trigger != "noMotion" || events[0].Enabled || events[0].Target != RoomTarget(lounge) {
			t.Errorf("event = %+v", events[0])
		}
		if f.repo.events[e1].Trigger != "noMotion" || f.repo.events[e1].RoomID == nil {
			t.Errorf("stored = %+v", f.repo.events[e1])
		}
		if err := f.house.UpdateEvent(ctx, 99, spec); !errors.Is(err, ErrEventNotFound) {
			t.Errorf("UpdateEvent(99) = %v", err)
		}
	})

	t.Run("remove", func(t *testing.T) {
		if err := f.house.RemoveEvent(ctx, e1); err != nil {
			t.Fatalf("RemoveEvent() error = %v", err)
		}
		if events := f.house.Events(); len(events) != 1 || events[0].ID != e2 {
			t.Errorf("events = %+v", events)
		}
		if err := f.house.RemoveEvent(ctx, e1); !errors.Is(err, ErrEventNotFound) {
			t.Errorf("second RemoveEvent() = %v", err)
		}
	})
}

func TestAddRule(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lounge := f.room(t, "lounge")
	sensor := f.item(t, lounge, "sensor", device.TypeMotionSensor, "10.0.0.5")
	lamp := f.item(t, lounge, "lamp", typeLamp, "10.0.0.6")

	conditions := []ConditionSpec{{ItemID: lamp, Equivalence: "is", Value: 0}}
	actions := []ActionSpec{
		{Target: ItemTarget(lamp), Method: "turnOnLight"},
		{Target: RoomTarget(lounge), Type: typeLamp, Method: "turnOnLight"},
	}

	t.Run("rejected part adds nothing", func(t *testing.T) {
		tests := []struct {
			name       string
			conditions []ConditionSpec
			actions    []ActionSpec
			wantErr    error
		}{
			{"bad equivalence", []ConditionSpec{{ItemID: lamp, Equivalence: "~", Value: 0}}, actions, ErrInvalidEquivalence},
			{"condition item missing", []ConditionSpec{{ItemID: 99, Equivalence: "=", Value: 0}}, actions, ErrItemNotFound},
			{"unsupported method", conditions, []ActionSpec{{Target: ItemTarget(lamp), Method: "fly"}}, device.ErrUnsupportedMethod},
			{"action room missing", conditions, []ActionSpec{{Target: RoomTarget(99), Type: typeLamp, Method: "turnOnLight"}}, ErrRoomNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := f.house.AddRule(ctx, motionRule("R", ItemTarget(sensor)), tt.conditions, tt.actions); !errors.Is(err, tt.wantErr) {
					t.Errorf("AddRule() error = %v, want %v", err, tt.wantErr)
				}
			})
		}
		if len(f.house.Events()) != 0 || len(f.repo.events) != 0 {
			t.Errorf("rejected rules left events: memory %d, stored %d", len(f.house.Events()), len(f.repo.events))
		}
	})

	t.Run("storage failure rolls back", func(t *testing.T) {
		f.repo.failOn = "AddAction"
		defer func() { f.repo.failOn = "" }()

		if _, err := f.house.AddRule(ctx, motionRule("R", ItemTarget(sensor)), conditions, actions); !errors.Is(err, ErrPersistence) {
			t.Fatalf("AddRule() error = %v, want ErrPersistence", err)
		}
		if len(f.house.Events()) != 0 {
			t.Errorf("events = %+v, want none", f.house.Events())
		}
		if len(f.repo.events) != 0 || len(f.repo.conditions) != 0 {
			t.Errorf("stored events %d conditions %d, want none", len(f.repo.events), len(f.repo.conditions))
		}
	})

	t.Run("adds every part", func(t *testing.T) {
		id, err := f.house.AddRule(ctx, motionRule("R", ItemTarget(sensor)), conditions, actions)
		if err != nil {
			t.Fatalf("AddRule() error = %v", err)
		}
		ev, err := f.house.Event(id)
		if err != nil {
			t.Fatalf("Event(%d) error = %v", id, err)
		}
		if len(ev.Conditions) != 1 || ev.Conditions[0].Equivalence != "=" || len(ev.Actions) != 2 {
			t.Errorf("event = %+v", ev)
		}
		for _, a := range ev.Actions {
			if stored, ok := f.repo.actions[a.ID]; !ok || stored.EventID != id {
				t.Errorf("action %d stored as %+v", a.ID, stored)
			}
		}
		if stored := f.repo.conditions[ev.Conditions[0].ID]; stored.EventID != id || stored.Equivalence != "=" {
			t.Errorf("condition stored as %+v", stored)
		}
	})
}

// gatedRepository holds the first AddAction until released.
type gatedRepository struct {
	*memRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (g *gatedRepository) AddAction(ctx context.Context, a ActionRecord) (int64, error) {
	g.once.Do(func() {
		close(g.entered)
		<-g.release
	})
	return g.memRepository.AddAction(ctx, a)
}

func TestAddRule_TriggerSeesCompleteRule(t *testing.T) {
	ctx := context.Background()
	repo := &gatedRepository{
		memRepository: newMemRepository(),
		entered:       make(chan struct{}),
		release:       make(chan struct{}),
	}
	log := &callLog{}
	h, err := NewHouse(repo, Options{Catalogue: newTestCatalogue(t, log)})
	if err != nil {
		t.Fatalf("NewHouse() error = %v", err)
	}
	t.Cleanup(func() { h.Close(context.Background()) }) //nolint:errcheck // test cleanup

	lounge, err := h.AddRoom(ctx, "lounge")
	if err != nil {
		t.Fatalf("AddRoom() error = %v", err)
	}
	sensor, err := h.AddItem(ctx, lounge, "sensor", "test", device.TypeMotionSensor, "10.0.0.5")
	if err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	if _, err := h.AddItem(ctx, lounge, "lamp", "test", typeLamp, "10.0.0.6"); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}

	added := make(chan error, 1)
	go func() {
		_, err := h.AddRule(ctx, motionRule("R", ItemTarget(sensor)), nil, []ActionSpec{
			{Target: RoomTarget(lounge), Type: typeLamp, Method: "turnOnLight"},
			{Target: RoomTarget(lounge), Type: typeLamp, Method: "turnOffLight"},
		})
		added <- err
	}()
	<-repo.entered

	reacted := make(chan error, 1)
	go func() {
		_, err := h.React(ctx, "10.0.0.5", "motion")
		reacted <- err
	}()
	time.Sleep(10 * time.Millisecond)
	close(repo.release)

	if err := <-added; err != nil {
		t.Fatalf("AddRule() error = %v", err)
	}
	if err := <-reacted; err != nil {
		t.Fatalf("React() error = %v", err)
	}
	got := log.list()
	want := []string{"10.0.0.6:turnOnLight", "10.0.0.6:turnOffLight"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("invocations = %v, want %v", got, want)
	}
}

func TestConditionMutators(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lounge := f.room(t, "lounge")
	sensor := f.item(t, lounge, "sensor", device.TypeMotionSensor, "10.0.0.5")
	lamp := f.item(t, lounge, "lamp", typeLamp, "10.0.0.6")
	e1 := f.event(t, motionRule("E1", ItemTarget(sensor)))

	if _, err := f.house.AddCondition(ctx, e1, ConditionSpec{ItemID: lamp, Equivalence: "~", Value: 1}); !errors.Is(err, ErrInvalidEquivalence) {
		t.Errorf("bad equivalence error = %v", err)
	}
	if _, err := f.house.AddCondition(ctx, 99, ConditionSpec{ItemID: lamp, Equivalence: "=", Value: 1}); !errors.Is(err, ErrEventNotFound) {
		t.Errorf("missing event error = %v", err)
	}
	if _, err := f.house.AddCondition(ctx, e1, ConditionSpec{ItemID: 99, Equivalence: "=", Value: 1}); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("missing item error = %v", err)
	}

	c1 := f.condition(t, e1, ConditionSpec{ItemID: lamp, Equivalence: "is", Value: 1})
	ev, _ := f.house.Event(e1)
	if got := ev.Conditions[0]; got.Equivalence != Equal || got.Method != device.MethodGetState {
		t.Errorf("condition = %+v", got)
	}

	if err := f.house.UpdateCondition(ctx, e1, c1, ConditionSpec{ItemID: sensor, Equivalence: ">=", Value: 0}); err != nil {
		t.Fatalf("UpdateCondition() error = %v", err)
	}
	ev, _ = f.house.Event(e1)
	if got := ev.Conditions[0]; got.ItemID != sensor || got.Equivalence != GreaterOrEqual {
		t.Errorf("updated condition = %+v", got)
	}
	if err := f.house.UpdateCondition(ctx, e1, 99, ConditionSpec{ItemID: sensor, Equivalence: "=", Value: 0}); !errors.Is(err, ErrConditionNotFound) {
		t.Errorf("UpdateCondition(99) = %v", err)
	}

	if err := f.house.RemoveCondition(ctx, e1, c1); err != nil {
		t.Fatalf("RemoveCondition() error = %v", err)
	}
	if err := f.house.RemoveCondition(ctx, e1, c1); !errors.Is(err, ErrConditionNotFound) {
		t.Errorf("second RemoveCondition() = %v", err)
	}
}

func TestActionMutators(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	lounge := f.room(t, "lounge")
	sensor := f.item(t, lounge, "sensor", device.TypeMotionSensor, "10.0.0.5")
	lamp := f.item(t, lounge, "lamp", typeLamp, "10.0.0.6")
	e1 := f.event(t, motionRule("E1", ItemTarget(sensor)))

	t.Run("add validation", func(t *testing.T) {
		tests := []struct {
			name    string
			spec    ActionSpec
			wantErr error
		}{
			{"unsupported method", ActionSpec{Target: ItemTarget(lamp), Method: "fly"}, device.ErrUnsupportedMethod},
			{"passive item", ActionSpec{Target: ItemTarget(sensor), Method: "turnOnLight"}, device.ErrUnsupportedMethod},
			{"unknown type", ActionSpec{Target: HouseTarget(), Type: "toaster", Method: "toast"}, ErrInvalidRule},
			{"missing type", ActionSpec{Target: RoomTarget(lounge), Method: "turnOnLight"}, ErrInvalidRule},
			{"bad scope", ActionSpec{Target: Target{Scope: "garden"}, Type: typeLamp, Method: "turnOnLight"}, ErrInvalidScope},
			{"missing room", ActionSpec{Target: RoomTarget(99), Type: typeLamp, Method: "turnOnLight"}, ErrRoomNotFound},
			{"type mismatch", ActionSpec{Target: ItemTarget(lamp), Type: device.TypePlug, Method: "turnOn"}, ErrInvalidRule},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				if _, err := f.house.AddAction(ctx, e1, tt.spec); !errors.Is(err, tt.wantErr) {
					t.Errorf("AddAction() error = %v, want %v", err, tt.wantErr)
				}
			})
		}
		if _, err := f.house.AddAction(ctx, 99, ActionSpec{Target: ItemTarget(lamp), Method: "turnOnLight"}); !errors.Is(err, ErrEventNotFound) {
			t.Errorf("missing event error = %v", err)
		}
	})

	a1 := f.action(t, e1, ActionSpec{Target: ItemTarget(lamp), Method: "turnOnLight"})
	ev, _ := f.house.Event(e1)
	if got := ev.Actions[0]; got.Type != typeLamp {
		t.Errorf("item-scope action type = %q, want taken from item", got.Type)
	}

	if err := f.house.UpdateAction(ctx, e1, a1, ActionSpec{Target: HouseTarget(), Type: typeLamp, Method: "turnOffLight"}); err != nil {
		t.Fatalf("UpdateAction() error = %v", err)
	}
	ev, _ = f.house.Event(e1)
	if got := ev.Actions[0]; got.Method != "turnOffLight" || got.Target != HouseTarget() {
		t.Errorf("updated action = %+v", got)
	}
	if stored := f.repo.actions[a1]; stored.ItemID != nil || stored.RoomID != nil {
		t.Errorf("stored house action = %+v", stored)
	}
	if err := f.house.UpdateAction(ctx, e1, 99, ActionSpec{Target: HouseTarget(), Type: typeLamp, Method: "turnOffLight"}); !errors.Is(err, ErrActionNotFound) {
		t.Errorf("UpdateAction(99) = %v", err)
	}

	if err := f.house.RemoveAction(ctx, e1, a1); err != nil {
		t.Fatalf("RemoveAction() error = %v", err)
	}
	if err := f.house.RemoveAction(ctx, e1, a1); !errors.Is(err, ErrActionNotFound) {
		t.Errorf("second RemoveAction() = %v", err)
	}
}

func TestParseScope(t *testing.T) {
	for _, s := range []string{"item", "room", "house"} {
		if got, err := ParseScope(s); err != nil || string(got) != s {
			t.Errorf("ParseScope(%q) = %q, %v", s, got, err)
		}
	}
	if _, err := ParseScope("garden"); !errors.Is(err, ErrInvalidScope) {
		t.Errorf("ParseScope(garden) error = %v", err)
	}
}

func TestEquivalence(t *testing.T) {
	tests := []struct {
		op   string
		a, b int
		want bool
	}{
		{"is", 1, 1, true},
		{"=", 1, 0, false},
		{"==", 2, 2, true},
		{"!=", 1, 0, true},
		{"<", 0, 1, true},
		{"<=", 1, 1, true},
		{">", 1, 1, false},
		{">=", 2, 1, true},
	}
	for _, tt := range tests {
		eq, err := ParseEquivalence(tt.op)
		if err != nil {
			t.Fatalf("ParseEquivalence(%q) error = %v", tt.op, err)
		}
		if got := eq.Compare(tt.a, tt.b); got != tt.want {
			t.Errorf("%d %s %d = %v, want %v", tt.a, tt.op, tt.b, got, tt.want)
		}
	}
	if _, err := ParseEquivalence("~"); !errors.Is(err, ErrInvalidEquivalence) {
		t.Errorf("ParseEquivalence(~) error = %v", err)
	}
}
