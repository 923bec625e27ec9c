// Package state implements the Stateful support described in spec section
// 4.8: a declarative, named-tuple state value for atomic models, built by
// a Class (the compile-time macro from the original source, replaced here
// by an explicit builder, per DESIGN.md's "Stateful declarative blocks"
// note).
package state

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/quartz/errs"
)

// ClassID identifies a model's state shape. Assignment of a State to a
// model's state slot is rejected unless the State's ClassID matches
// exactly (spec section 3: "Assigning a parent's State to a child's slot
// fails").
type ClassID string

// FieldSpec declares one named field of a Class: a static default, a lazy
// initializer depending on fields declared earlier in the same Class (or
// an ancestor Class), or neither (in which case a New() call must supply
// an override).
type FieldSpec struct {
	Name    string
	Default func() any
	Lazy    func(State) any
}

// Class is a state shape: an ordered set of fields, optionally extending a
// parent Class's fields (spec: "Subclass states extend parent state
// fields").
type Class struct {
	id     ClassID
	parent *Class
	fields []FieldSpec
}

// NewClass declares a root Class with the given id and fields.
func NewClass(id ClassID, fields ...FieldSpec) *Class {
	return &Class{id: id, fields: fields}
}

// Extend declares a subclass of c, adding or overriding fields. The
// resulting Class has its own ClassID and is not interchangeable with c:
// neither c's State nor the subclass's State may be assigned to the
// other's slot (spec: "instances of subclass state are assignable to the
// subclass slot only").
func (c *Class) Extend(id ClassID, fields ...FieldSpec) *Class {
	return &Class{id: id, parent: c, fields: fields}
}

// ID returns the Class's identity.
func (c *Class) ID() ClassID { return c.id }

func (c *Class) allFields() []FieldSpec {
	if c.parent == nil {
		return append([]FieldSpec{}, c.fields...)
	}
	return append(c.parent.allFields(), c.fields...)
}

// New constructs a State of this Class, applying overrides first, then
// static defaults, then lazy initializers (which may read any
// already-resolved field, including earlier lazy ones).
func (c *Class) New(overrides map[string]any) (State, error) {
	fields := c.allFields()
	values := make(map[string]any, len(fields))

	for _, f := range fields {
		if v, ok := overrides[f.Name]; ok {
			values[f.Name] = v
			continue
		}
		if f.Default != nil {
			values[f.Name] = f.Default()
		}
	}

	for _, f := range fields {
		if _, ok := values[f.Name]; ok {
			continue
		}
		if f.Lazy == nil {
			return State{}, fmt.Errorf("state field %q on class %q has no default, override, or lazy initializer", f.Name, c.id)
		}
		values[f.Name] = f.Lazy(State{class: c, values: values})
	}

	return State{class: c, values: values}, nil
}

// MustNew is New, panicking on error; convenient for fixed field sets that
// a test or a model constructor knows cannot fail.
func (c *Class) MustNew(overrides map[string]any) State {
	s, err := c.New(overrides)
	if err != nil {
		panic(err)
	}
	return s
}

// AssignableFrom reports whether a State of class other's exact identity
// may be assigned into a slot declared for c.
func (c *Class) AssignableFrom(other *Class) bool {
	return other != nil && other.id == c.id
}

// State is an immutable-by-convention named tuple of field values
// produced by a Class. Field access can mutate the underlying map via
// Set, matching how transition functions are typically written (in place
// on the model's current state) while Class.New keeps construction
// declarative.
type State struct {
	class  *Class
	values map[string]any
}

// Zero is the empty, class-less State; model.BaseAtomic.SetState rejects it
// on a model declared with a Class, and accepts it on a model without one.
var Zero = State{}

// ClassID returns the State's class identity, or "" if it is the Zero
// State.
func (s State) ClassID() ClassID {
	if s.class == nil {
		return ""
	}
	return s.class.id
}

// Class returns the State's originating Class, or nil for the Zero State.
func (s State) Class() *Class { return s.class }

// Get returns the named field's value and whether it is present.
func (s State) Get(name string) (any, bool) {
	v, ok := s.values[name]
	return v, ok
}

// MustGet returns the named field's value, panicking if absent; intended
// for model code reading its own declared fields.
func (s State) MustGet(name string) any {
	v, ok := s.values[name]
	if !ok {
		panic(fmt.Sprintf("state field %q not present", name))
	}
	return v
}

// Set mutates the named field in place. States share the backing map
// across copies (Go map semantics), so Set is visible through every copy
// of this State value — this is intentional: a model's current State and
// the copy the kernel may have logged both observe the same mutation.
func (s State) Set(name string, v any) {
	s.values[name] = v
}

// Fields returns a shallow copy of the field map, suitable for hand-off
// to external collaborators (tracers, persistence) that must not be able
// to mutate the live state.
func (s State) Fields() map[string]any {
	out := make(map[string]any, len(s.values))
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

// MarshalYAML implements yaml.Marshaler, serializing a State to its
// field -> value mapping (spec section 6's "Persisted state").
func (s State) MarshalYAML() (any, error) {
	return s.Fields(), nil
}

// FieldsFromYAML decodes a field -> value mapping previously produced by
// MarshalYAML, for re-hydrating overrides passed back into Class.New.
func FieldsFromYAML(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AssignTo validates that s may be assigned into a slot declared for
// class c, returning InvalidStateError otherwise.
func AssignTo(c *Class, modelName string, s State) error {
	if s.class == nil || !c.AssignableFrom(s.class) {
		got := "<none>"
		if s.class != nil {
			got = string(s.class.id)
		}
		return &errs.InvalidStateError{
			Model:    modelName,
			WantType: string(c.id),
			GotType:  got,
		}
	}
	return nil
}
