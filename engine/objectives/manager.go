package objectives

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/nathoo/questrules/engine/catalog"
	"github.com/nathoo/questrules/engine/instruction"
	"github.com/nathoo/questrules/engine/registry"
	"github.com/nathoo/questrules/types"
)

// Manager owns one Tracker per loaded objective definition.
type Manager struct {
	reg   *registry.Registry
	conds ConditionChecker
	evts  EventRunner
	log   *zap.Logger

	mu       sync.RWMutex
	trackers map[string]*Tracker
}

// NewManager creates a manager with no objectives.
func NewManager(reg *registry.Registry, conds ConditionChecker, evts EventRunner, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		reg:      reg,
		conds:    conds,
		evts:     evts,
		log:      log,
		trackers: map[string]*Tracker{},
	}
}

// Load replaces the loaded objectives with defs. A definition that fails
// to build is logged and skipped; its error is returned in the list. The
// previous trackers are torn down, so their listeners leave the bus and any
// progress still held in them is discarded; call PersistAll first to keep it.
func (m *Manager) Load(defs []types.Directive) []error {
	trackers := make(map[string]*Tracker, len(defs))
	var errs []error
	for _, d := range defs {
		ins := instruction.Parse(d.Instruction, d.Package)
		t, err := NewTracker(d.Name, ins, m.reg, m.conds, m.evts, m.log)
		if err != nil {
			m.log.Error("skipping objective definition",
				zap.String("objective", d.Name),
				zap.String("package", d.Package),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("objective %q: %w", d.Name, err))
			continue
		}
		trackers[d.Name] = t
	}
	m.mu.Lock()
	old := m.trackers
	m.trackers = trackers
	m.mu.Unlock()
	for _, t := range old {
		t.PersistAll()
	}
	return errs
}

// Tracker returns the tracker for a qualified objective name.
func (m *Manager) Tracker(name string) (*Tracker, error) {
	m.mu.RLock()
	t, ok := m.trackers[name]
	m.mu.RUnlock()
	if !ok {
		return nil, &catalog.UndefinedError{Category: types.CategoryObjective, Name: name}
	}
	return t, nil
}

// Names returns every loaded objective, sorted.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.trackers))
	for name := range m.trackers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (m *Manager) all() []*Tracker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Tracker, 0, len(m.trackers))
	for _, t := range m.trackers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].label < out[j].label })
	return out
}

// Assign gives the objective to actor with default progress.
func (m *Manager) Assign(_ context.Context, actor, name string) error {
	t, err := m.Tracker(name)
	if err != nil {
		return err
	}
	return t.Assign(actor)
}

// Unassign removes the objective from actor without completing it.
func (m *Manager) Unassign(_ context.Context, actor, name string) error {
	t, err := m.Tracker(name)
	if err != nil {
		return err
	}
	t.Unassign(actor)
	return nil
}

// Complete completes the objective for actor if the actor holds it.
func (m *Manager) Complete(ctx context.Context, actor, name string) error {
	t, err := m.Tracker(name)
	if err != nil {
		return err
	}
	t.Complete(ctx, actor)
	return nil
}

// HasObjective returns true if actor holds the named objective.
func (m *Manager) HasObjective(actor, name string) bool {
	t, err := m.Tracker(name)
	if err != nil {
		return false
	}
	return t.ContainsActor(actor)
}

// Restore assigns persisted progress to actor. Each objective that is no
// longer defined or whose data does not decode is dropped and logged; the
// rest are still restored.
func (m *Manager) Restore(actor string, data map[string]string) []error {
	labels := make([]string, 0, len(data))
	for label := range data {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var errs []error
	for _, label := range labels {
		t, err := m.Tracker(label)
		if err != nil {
			m.log.Warn("dropping progress for undefined objective",
				zap.String("actor", actor),
				zap.String("objective", label))
			errs = append(errs, err)
			continue
		}
		if err := t.AssignData(actor, data[label]); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// Release removes actor from every objective and returns the progress it
// held, keyed by objective.
func (m *Manager) Release(actor string) map[string]string {
	out := map[string]string{}
	for _, t := range m.all() {
		if data, ok := t.Release(actor); ok {
			out[t.label] = data
		}
	}
	return out
}

// Snapshot returns actor's progress keyed by objective without removing it.
func (m *Manager) Snapshot(actor string) map[string]string {
	out := map[string]string{}
	for _, t := range m.all() {
		if data, ok := t.Data(actor); ok {
			out[t.label] = data
		}
	}
	return out
}

// Active returns the objectives actor holds, sorted.
func (m *Manager) Active(actor string) []string {
	var names []string
	for _, t := range m.all() {
		if t.ContainsActor(actor) {
			names = append(names, t.label)
		}
	}
	return names
}

// PersistAll tears down every objective and returns the progress of every
// actor, keyed by actor then objective.
func (m *Manager) PersistAll() map[string]map[string]string {
	out := map[string]map[string]string{}
	for _, t := range m.all() {
		for actor, data := range t.PersistAll() {
			if out[actor] == nil {
				out[actor] = map[string]string{}
			}
			out[actor][t.label] = data
		}
	}
	return out
}
