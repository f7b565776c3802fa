package device

import (
	"fmt"
	"slices"
	"sort"
	"sync"
)

// MethodGetState is available on every type and returns the current state.
const MethodGetState = "getState"

// TypeSpec describes one device type.
type TypeSpec struct {
	// Name is the type identifier used by items and rules.
	Name string

	// DisplayName is the human-readable name.
	DisplayName string

	// Passive types only report (sensors); they have no actions.
	Passive bool

	// Brands lists the brands known to implement the type.
	Brands []string

	// States is the state vocabulary indexed by state value. A state
	// name is also the trigger name raised when the device enters it.
	States []string

	// Actions maps action name to implementation.
	Actions map[string]ActionFunc

	// New builds the runtime Device for an item at address.
	New func(address string, t Transport) Device
}

// TypeInfo is the public description of a type.
type TypeInfo struct {
	Name            string   `json:"name"`
	IsPassive       bool     `json:"isPassive"`
	Methods         []string `json:"methods"`
	SupportedBrands []string `json:"supportedBrands"`
	States          []string `json:"states"`
}

// Catalogue is the registry of device types. Safe for concurrent use.
type Catalogue struct {
	mu        sync.RWMutex
	types     map[string]*TypeSpec
	transport Transport
}

// NewCatalogue returns an empty catalogue whose devices send through t.
// A nil transport is replaced by NoopTransport.
func NewCatalogue(t Transport) *Catalogue {
	if t == nil {
		t = NoopTransport{}
	}
	return &Catalogue{
		types:     make(map[string]*TypeSpec),
		transport: t,
	}
}

// Register adds spec to the catalogue.
func (c *Catalogue) Register(spec TypeSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidType)
	}
	if spec.New == nil {
		return fmt.Errorf("%w: %s has no device factory", ErrInvalidType, spec.Name)
	}
	if len(spec.States) == 0 {
		return fmt.Errorf("%w: %s has no states", ErrInvalidType, spec.Name)
	}
	if _, ok := spec.Actions[MethodGetState]; ok {
		return fmt.Errorf("%w: %s redefines %s", ErrInvalidType, spec.Name, MethodGetState)
	}

	cp := spec
	cp.Brands = slices.Clone(spec.Brands)
	cp.States = slices.Clone(spec.States)
	cp.Actions = make(map[string]ActionFunc, len(spec.Actions))
	for name, fn := range spec.Actions {
		cp.Actions[name] = fn
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.types[spec.Name]; exists {
		return fmt.Errorf("%w: %s", ErrTypeExists, spec.Name)
	}
	c.types[spec.Name] = &cp
	return nil
}

// Lookup returns the spec registered under name.
func (c *Catalogue) Lookup(name string) (*TypeSpec, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	spec, ok := c.types[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, name)
	}
	return spec, nil
}

// Has reports whether name is a registered type.
func (c *Catalogue) Has(name string) bool {
	_, err := c.Lookup(name)
	return err == nil
}

// CheckMethod returns nil when method can be invoked on items of typeName.
func (c *Catalogue) CheckMethod(typeName, method string) error {
	spec, err := c.Lookup(typeName)
	if err != nil {
		return err
	}
	if method == MethodGetState {
		return nil
	}
	if _, ok := spec.Actions[method]; !ok {
		return fmt.Errorf("%w: %s on %s", ErrUnsupportedMethod, method, typeName)
	}
	return nil
}

// TriggerForValue maps a state value of typeName to its trigger name.
func (c *Catalogue) TriggerForValue(typeName string, value int) (string, error) {
	spec, err := c.Lookup(typeName)
	if err != nil {
		return "", err
	}
	if value < 0 || value >= len(spec.States) {
		return "", fmt.Errorf("%w: %d for %s", ErrInvalidState, value, typeName)
	}
	return spec.States[value], nil
}

// ValueForTrigger maps a trigger name of typeName back to its state value.
func (c *Catalogue) ValueForTrigger(typeName, trigger string) (int, error) {
	spec, err := c.Lookup(typeName)
	if err != nil {
		return 0, err
	}
	idx := slices.Index(spec.States, trigger)
	if idx < 0 {
		return 0, fmt.Errorf("%w: %q for %s", ErrInvalidState, trigger, typeName)
	}
	return idx, nil
}

// Describe returns every type keyed by name.
func (c *Catalogue) Describe() map[string]TypeInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]TypeInfo, len(c.types))
	for name, spec := range c.types {
		methods := make([]string, 0, len(spec.Actions)+1)
		methods = append(methods, MethodGetState)
		for m := range spec.Actions {
			methods = append(methods, m)
		}
		sort.Strings(methods[1:])

		out[name] = TypeInfo{
			Name:            spec.DisplayName,
			IsPassive:       spec.Passive,
			Methods:         methods,
			SupportedBrands: slices.Clone(spec.Brands),
			States:          slices.Clone(spec.States),
		}
	}
	return out
}

// Names returns the registered type names in sorted order.
func (c *Catalogue) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.types))
	for name := range c.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewItem builds an Item of typeName after validating its fields.
func (c *Catalogue) NewItem(id int64, name, brand, typeName, address string) (*Item, error) {
	spec, err := c.Lookup(typeName)
	if err != nil {
		return nil, err
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	return &Item{
		id:        id,
		name:      name,
		brand:     brand,
		address:   address,
		spec:      spec,
		transport: c.transport,
		dev:       spec.New(address, c.transport),
	}, nil
}
