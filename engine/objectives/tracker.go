// Package objectives tracks, per objective definition, which actors are
// pursuing it and their progress. The first assignment starts the
// objective's handler, the last removal stops it.
package objectives

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/nathoo/questrules/engine/instruction"
	"github.com/nathoo/questrules/engine/registry"
)

// ErrClosed is returned when assigning to an objective that was torn down.
var ErrClosed = errors.New("objective closed")

// ConditionChecker evaluates a list of qualified conditions (AND logic).
type ConditionChecker interface {
	AllMet(ctx context.Context, actor string, names []string) (bool, error)
}

// EventRunner fires a list of qualified events in order.
type EventRunner interface {
	RunAll(ctx context.Context, actor string, names []string) int
}

// Tracker is one objective definition with its population. All membership
// changes are serialized per tracker.
type Tracker struct {
	label      string
	events     []string
	conditions []string
	handler    registry.Objective
	conds      ConditionChecker
	evts       EventRunner
	log        *zap.Logger

	mu     sync.Mutex
	data   map[string]registry.Progress
	closed bool
}

// NewTracker parses the objective's events and conditions and builds its
// handler through the registry.
func NewTracker(label string, ins *instruction.Instruction, reg *registry.Registry,
	conds ConditionChecker, evts EventRunner, log *zap.Logger) (*Tracker, error) {

	if log == nil {
		log = zap.NewNop()
	}
	t := &Tracker{
		label:      label,
		events:     ins.List("events"),
		conditions: ins.List("conditions"),
		conds:      conds,
		evts:       evts,
		log:        log.With(zap.String("objective", label)),
		data:       map[string]registry.Progress{},
	}
	h, err := reg.ResolveObjective(ins, t)
	if err != nil {
		return nil, err
	}
	t.handler = h
	return t, nil
}

// Label returns the objective's qualified name.
func (t *Tracker) Label() string { return t.label }

// Events returns the qualified events fired on completion.
func (t *Tracker) Events() []string { return append([]string(nil), t.events...) }

// Conditions returns the qualified conditions checked before progress.
func (t *Tracker) Conditions() []string { return append([]string(nil), t.conditions...) }

// Assign gives the objective to actor with fresh default progress.
func (t *Tracker) Assign(actor string) error {
	return t.AssignData(actor, t.handler.DefaultData())
}

// AssignData gives the objective to actor with progress decoded from data.
// Assigning an actor who already holds the objective is a no-op. Invalid
// data leaves the actor unassigned and returns the decode error.
func (t *Tracker) AssignData(actor, data string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("objective %q: %w", t.label, ErrClosed)
	}
	if _, ok := t.data[actor]; ok {
		return nil
	}
	p, err := t.handler.ParseData(data)
	if err != nil {
		t.log.Warn("dropping objective data",
			zap.String("actor", actor),
			zap.String("data", data),
			zap.Error(err))
		return fmt.Errorf("objective %q data for %q: %w", t.label, actor, err)
	}
	if len(t.data) == 0 {
		t.handler.Start()
		t.log.Debug("objective started")
	}
	t.data[actor] = p
	return nil
}

// Unassign removes the objective from actor without completing it and
// reports whether the actor held it.
func (t *Tracker) Unassign(actor string) bool {
	_, ok := t.Release(actor)
	return ok
}

// Release removes actor and returns its serialized progress.
func (t *Tracker) Release(actor string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.removeLocked(actor)
}

func (t *Tracker) removeLocked(actor string) (string, bool) {
	p, ok := t.data[actor]
	if !ok {
		return "", false
	}
	delete(t.data, actor)
	if len(t.data) == 0 && !t.closed {
		t.handler.Stop()
		t.log.Debug("objective stopped")
	}
	return p.String(), true
}

// ContainsActor returns true if actor holds the objective.
func (t *Tracker) ContainsActor(actor string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.data[actor]
	return ok
}

// Data returns the serialized progress of actor.
func (t *Tracker) Data(actor string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.data[actor]
	if !ok {
		return "", false
	}
	return p.String(), true
}

// Actors returns every actor holding the objective, sorted.
func (t *Tracker) Actors() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]string, 0, len(t.data))
	for id := range t.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the population size.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.data)
}

// CheckConditions evaluates the objective's conditions in declared order,
// stopping at the first unmet one. No conditions means met.
func (t *Tracker) CheckConditions(ctx context.Context, actor string) (bool, error) {
	return t.conds.AllMet(ctx, actor, t.conditions)
}

// Complete removes actor, then fires the completion events in order. The
// caller that removes the actor is the only one that fires, so events run
// exactly once per completion. Returns false if actor did not hold the
// objective.
func (t *Tracker) Complete(ctx context.Context, actor string) bool {
	t.mu.Lock()
	_, ok := t.removeLocked(actor)
	t.mu.Unlock()
	if !ok {
		return false
	}
	t.fire(ctx, actor)
	return true
}

// Advance checks the objective's conditions for actor, then passes its
// progress to fn under the tracker lock. When fn reports done the actor is
// removed and the completion events fire. Returns whether it completed.
func (t *Tracker) Advance(ctx context.Context, actor string,
	fn func(registry.Progress) (registry.Progress, bool, error)) (bool, error) {

	if !t.ContainsActor(actor) {
		return false, nil
	}
	met, err := t.CheckConditions(ctx, actor)
	if err != nil {
		t.log.Warn("condition check failed", zap.String("actor", actor), zap.Error(err))
		return false, err
	}
	if !met {
		return false, nil
	}

	t.mu.Lock()
	p, ok := t.data[actor]
	if !ok {
		t.mu.Unlock()
		return false, nil
	}
	next, done, err := fn(p)
	if err != nil {
		t.mu.Unlock()
		return false, err
	}
	if !done {
		t.data[actor] = next
		t.mu.Unlock()
		return false, nil
	}
	t.removeLocked(actor)
	t.mu.Unlock()

	t.fire(ctx, actor)
	return true, nil
}

func (t *Tracker) fire(ctx context.Context, actor string) {
	t.log.Info("objective completed, firing events",
		zap.String("actor", actor),
		zap.Strings("events", t.events))
	if failed := t.evts.RunAll(ctx, actor, t.events); failed > 0 {
		t.log.Warn("completion events failed",
			zap.String("actor", actor),
			zap.Int("failed", failed))
	}
}

// PersistAll tears the objective down: the handler is stopped once, every
// actor's progress is serialized and the population is cleared. Later
// assignments fail with ErrClosed.
func (t *Tracker) PersistAll() map[string]string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[string]string, len(t.data))
	if t.closed {
		return out
	}
	t.closed = true
	t.handler.Stop()
	for actor, p := range t.data {
		out[actor] = p.String()
	}
	t.data = map[string]registry.Progress{}
	return out
}
