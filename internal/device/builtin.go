package device

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// Built-in type names.
const (
	TypeMotionSensor = "motionSensor"
	TypeDoorSensor   = "doorSensor"
	TypeLight        = "light"
	TypePlug         = "plug"
)

// State values shared by the built-in switchable types.
const (
	StateOff = 0
	StateOn  = 1
)

const maxBrightness = 100

// NewDefaultCatalogue returns a catalogue holding the built-in types.
func NewDefaultCatalogue(t Transport) *Catalogue {
	c := NewCatalogue(t)
	for _, spec := range BuiltinTypes() {
		if err := c.Register(spec); err != nil {
			panic(err) // built-ins are static
		}
	}
	return c
}

// BuiltinTypes returns the specs of the built-in device types.
func BuiltinTypes() []TypeSpec {
	switchActions := map[string]ActionFunc{
		"turnOn":  switchAction(Switchable.TurnOn),
		"turnOff": switchAction(Switchable.TurnOff),
		"toggle":  toggle,
	}
	lightActions := map[string]ActionFunc{
		"setBrightness": setBrightness,
	}
	for k, v := range switchActions {
		lightActions[k] = v
	}

	return []TypeSpec{
		{
			Name:        TypeMotionSensor,
			DisplayName: "Motion Sensor",
			Passive:     true,
			Brands:      []string{"generic"},
			States:      []string{"noMotion", "motion"},
			New:         newSensor,
		},
		{
			Name:        TypeDoorSensor,
			DisplayName: "Door Sensor",
			Passive:     true,
			Brands:      []string{"generic"},
			States:      []string{"closed", "opened"},
			New:         newSensor,
		},
		{
			Name:        TypeLight,
			DisplayName: "Light",
			Brands:      []string{"generic", "hue"},
			States:      []string{"off", "on"},
			Actions:     lightActions,
			New: func(address string, t Transport) Device {
				return &light{switchDevice: switchDevice{address: address, transport: t}}
			},
		},
		{
			Name:        TypePlug,
			DisplayName: "Smart Plug",
			Brands:      []string{"generic"},
			States:      []string{"off", "on"},
			Actions:     switchActions,
			New: func(address string, t Transport) Device {
				return &switchDevice{address: address, transport: t}
			},
		},
	}
}

// ─── Sensors ────────────────────────────────────────────────────────

type sensor struct {
	mu    sync.RWMutex
	state int
}

func newSensor(string, Transport) Device { return &sensor{} }

func (s *sensor) State(context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

func (s *sensor) ReportState(state int) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// ─── Switches ───────────────────────────────────────────────────────

// switchDevice holds an optimistic on/off state, updated after each
// command is delivered and overwritten by device reports.
type switchDevice struct {
	address   string
	transport Transport

	mu    sync.RWMutex
	state int
}

func (d *switchDevice) State(context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state, nil
}

func (d *switchDevice) ReportState(state int) {
	d.mu.Lock()
	d.state = state
	d.mu.Unlock()
}

func (d *switchDevice) send(ctx context.Context, command string, params map[string]any, next int) error {
	if err := d.transport.Send(ctx, d.address, command, params); err != nil {
		return fmt.Errorf("%w: %s to %s: %w", ErrTransport, command, d.address, err)
	}
	d.ReportState(next)
	return nil
}

func (d *switchDevice) TurnOn(ctx context.Context) error {
	return d.send(ctx, "turnOn", nil, StateOn)
}

func (d *switchDevice) TurnOff(ctx context.Context) error {
	return d.send(ctx, "turnOff", nil, StateOff)
}

type light struct {
	switchDevice
	brightness int
}

func (l *light) SetBrightness(ctx context.Context, level int) error {
	if level < 0 || level > maxBrightness {
		return fmt.Errorf("%w: brightness %d outside 0..%d", ErrInvalidArgument, level, maxBrightness)
	}
	next := StateOff
	if level > 0 {
		next = StateOn
	}
	if err := l.send(ctx, "setBrightness", map[string]any{"level": level}, next); err != nil {
		return err
	}
	l.mu.Lock()
	l.brightness = level
	l.mu.Unlock()
	return nil
}

// Brightness returns the last level set.
func (l *light) Brightness() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.brightness
}

func (l *light) ReportBrightness(level int) {
	l.mu.Lock()
	l.brightness = level
	l.mu.Unlock()
}

// ─── Actions ────────────────────────────────────────────────────────

func switchAction(op func(Switchable, context.Context) error) ActionFunc {
	return func(ctx context.Context, d Device, _ ...any) (any, error) {
		s, ok := d.(Switchable)
		if !ok {
			return nil, fmt.Errorf("%w: device is not switchable", ErrUnsupportedMethod)
		}
		return nil, op(s, ctx)
	}
}

func toggle(ctx context.Context, d Device, _ ...any) (any, error) {
	s, ok := d.(Switchable)
	if !ok {
		return nil, fmt.Errorf("%w: device is not switchable", ErrUnsupportedMethod)
	}
	state, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	if state == StateOn {
		return nil, s.TurnOff(ctx)
	}
	return nil, s.TurnOn(ctx)
}

func setBrightness(ctx context.Context, d Device, args ...any) (any, error) {
	dim, ok := d.(Dimmable)
	if !ok {
		return nil, fmt.Errorf("%w: device is not dimmable", ErrUnsupportedMethod)
	}
	if len(args) != 1 {
		return nil, fmt.Errorf("%w: setBrightness takes one argument, got %d", ErrInvalidArgument, len(args))
	}
	level, err := IntArg(args[0])
	if err != nil {
		return nil, err
	}
	return nil, dim.SetBrightness(ctx, level)
}

// IntArg converts an action argument decoded from JSON or a query string
// to an int.
func IntArg(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrInvalidArgument, n)
		}
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidArgument, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidArgument, v)
	}
}
