// Package registry maps a directive's (category, type tag) to the factory
// that builds its runtime handler. External integrations may register new
// tags, or override built-in ones, at any time.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nathoo/questrules/engine/instruction"
	"github.com/nathoo/questrules/types"
)

// ErrUnknownType matches every lookup failure for an unregistered type tag
// or an undefined directive name.
var ErrUnknownType = errors.New("unknown directive type")

// UnknownTypeError reports a type tag with no registered factory.
type UnknownTypeError struct {
	Category types.Category
	Type     string
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown %s type %q", e.Category, e.Type)
}

// Is makes errors.Is(err, ErrUnknownType) hold.
func (e *UnknownTypeError) Is(target error) bool { return target == ErrUnknownType }

// Condition is a boolean check against one actor. Inversion is applied by
// the caller, never by the handler.
type Condition interface {
	Evaluate(ctx context.Context, actor string) (bool, error)
}

// Event is a fire-and-forget side effect on one actor.
type Event interface {
	Run(ctx context.Context, actor string) error
}

// Progress is one actor's in-flight state for an objective. String is the
// canonical serialized form accepted back by the objective's ParseData.
type Progress interface {
	String() string
}

// Objective is the type-specific part of an objective definition. One
// instance serves every actor holding the objective.
type Objective interface {
	// Start is called when the first actor is assigned.
	Start()
	// Stop is called when the last actor leaves, and once on teardown.
	Stop()
	// DefaultData is the progress text given to newly assigned actors.
	DefaultData() string
	// ParseData decodes progress text; invalid text is a MalformedError.
	ParseData(data string) (Progress, error)
}

// Tracker is the population side of an objective that handlers drive
// when they observe host activity.
type Tracker interface {
	Label() string
	ContainsActor(actor string) bool
	// Advance checks conditions, then lets fn mutate the actor's progress.
	// When fn reports done the objective is completed for the actor.
	Advance(ctx context.Context, actor string, fn func(Progress) (Progress, bool, error)) (bool, error)
}

type (
	// ConditionFactory builds a condition handler from its instruction.
	ConditionFactory func(ins *instruction.Instruction) (Condition, error)
	// EventFactory builds an event handler from its instruction.
	EventFactory func(ins *instruction.Instruction) (Event, error)
	// ObjectiveFactory builds an objective handler bound to its tracker.
	ObjectiveFactory func(ins *instruction.Instruction, t Tracker) (Objective, error)
)

// Registry holds factories keyed by category and type tag.
type Registry struct {
	mu         sync.RWMutex
	conditions map[string]ConditionFactory
	events     map[string]EventFactory
	objectives map[string]ObjectiveFactory
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{
		conditions: map[string]ConditionFactory{},
		events:     map[string]EventFactory{},
		objectives: map[string]ObjectiveFactory{},
	}
}

// RegisterCondition registers f for tag. The last registration wins.
func (r *Registry) RegisterCondition(tag string, f ConditionFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conditions[tag] = f
}

// RegisterEvent registers f for tag. The last registration wins.
func (r *Registry) RegisterEvent(tag string, f EventFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[tag] = f
}

// RegisterObjective registers f for tag. The last registration wins.
func (r *Registry) RegisterObjective(tag string, f ObjectiveFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.objectives[tag] = f
}

// Has reports whether a factory exists for tag in category.
func (r *Registry) Has(category types.Category, tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch category {
	case types.CategoryCondition:
		_, ok := r.conditions[tag]
		return ok
	case types.CategoryEvent:
		_, ok := r.events[tag]
		return ok
	case types.CategoryObjective:
		_, ok := r.objectives[tag]
		return ok
	}
	return false
}

// ResolveCondition builds the condition handler for ins. Factory errors
// are returned unchanged.
func (r *Registry) ResolveCondition(ins *instruction.Instruction) (Condition, error) {
	r.mu.RLock()
	f, ok := r.conditions[ins.Type()]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownTypeError{Category: types.CategoryCondition, Type: ins.Type()}
	}
	return f(ins)
}

// ResolveEvent builds the event handler for ins.
func (r *Registry) ResolveEvent(ins *instruction.Instruction) (Event, error) {
	r.mu.RLock()
	f, ok := r.events[ins.Type()]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownTypeError{Category: types.CategoryEvent, Type: ins.Type()}
	}
	return f(ins)
}

// ResolveObjective builds the objective handler for ins, bound to t.
func (r *Registry) ResolveObjective(ins *instruction.Instruction, t Tracker) (Objective, error) {
	r.mu.RLock()
	f, ok := r.objectives[ins.Type()]
	r.mu.RUnlock()
	if !ok {
		return nil, &UnknownTypeError{Category: types.CategoryObjective, Type: ins.Type()}
	}
	return f(ins, t)
}
