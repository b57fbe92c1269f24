// Package engine provides the Engine context that wires the registry,
// definitions, evaluator, executor and objective trackers together and
// drives actor join/leave, reload and shutdown.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/nathoo/questrules/engine/catalog"
	"github.com/nathoo/questrules/engine/conditions"
	"github.com/nathoo/questrules/engine/events"
	"github.com/nathoo/questrules/engine/instruction"
	"github.com/nathoo/questrules/engine/objectives"
	"github.com/nathoo/questrules/engine/registry"
	"github.com/nathoo/questrules/engine/state"
	"github.com/nathoo/questrules/engine/triggers"
	"github.com/nathoo/questrules/types"
)

// Store persists actor records between sessions.
type Store interface {
	LoadActor(ctx context.Context, actor string) (types.ActorRecord, error)
	SaveActor(ctx context.Context, actor string, rec types.ActorRecord) error
}

// Options configures a new Engine. Nil fields get in-memory defaults.
type Options struct {
	Store  Store
	Logger *zap.Logger
}

// Engine holds every component of a running rule set.
type Engine struct {
	Registry   *registry.Registry
	Catalog    *catalog.Catalog
	Actors     *state.Directory
	Triggers   *triggers.Bus
	Conditions *conditions.Evaluator
	Events     *events.Executor
	Objectives *objectives.Manager

	store Store
	log   *zap.Logger

	// mu serializes lifecycle operations: Load, Reload, Join, Leave,
	// Restore and Shutdown.
	mu     sync.Mutex
	online map[string]bool
}

// New creates an engine with the built-in condition, event and objective
// types registered and no definitions loaded.
func New(opts Options) *Engine {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	store := opts.Store
	if store == nil {
		store = NewMemoryStore()
	}
	e := &Engine{
		Registry: registry.New(),
		Catalog:  catalog.New(nil),
		Actors:   state.NewDirectory(),
		Triggers: triggers.NewBus(),
		store:    store,
		log:      log,
		online:   map[string]bool{},
	}
	e.Conditions = conditions.NewEvaluator(e.Registry, e.Catalog, log.Named("conditions"))
	e.Events = events.NewExecutor(e.Registry, e.Catalog, log.Named("events"))
	e.Objectives = objectives.NewManager(e.Registry, e.Conditions, e.Events, log.Named("objectives"))

	conditions.RegisterBuiltins(e.Registry, e.Actors, e.Objectives, e.Conditions)
	events.RegisterBuiltins(e.Registry, e.Actors, e.Objectives, e.Events)
	objectives.RegisterBuiltins(e.Registry, e.Triggers)
	return e
}

// Load replaces the loaded definitions with pkgs. Definitions whose type
// is not registered and objectives that fail to build are skipped; one
// error per skipped definition is returned. Load does not carry actor
// progress over; use Reload once actors have joined.
func (e *Engine) Load(pkgs []types.Package) []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.load(pkgs)
}

func (e *Engine) load(pkgs []types.Package) []error {
	var errs []error
	kept := make([]types.Package, 0, len(pkgs))
	for _, p := range pkgs {
		kept = append(kept, types.Package{
			Name:       p.Name,
			Conditions: e.filter(p, types.CategoryCondition, p.Conditions, &errs),
			Events:     e.filter(p, types.CategoryEvent, p.Events, &errs),
			Objectives: e.filter(p, types.CategoryObjective, p.Objectives, &errs),
		})
	}

	e.Catalog.Replace(kept)
	e.Conditions.Reset()
	e.Events.Reset()
	errs = append(errs, e.Objectives.Load(e.Catalog.All(types.CategoryObjective))...)

	e.log.Info("definitions loaded",
		zap.Int("packages", len(kept)),
		zap.Int("objectives", len(e.Objectives.Names())),
		zap.Int("skipped", len(errs)))
	return errs
}

// filter drops definitions whose type tag is not registered. Conditions
// and events are also built once so a malformed body is rejected here
// instead of on every use; objectives are built by the manager.
func (e *Engine) filter(p types.Package, cat types.Category, defs map[string]string, errs *[]error) map[string]string {
	out := make(map[string]string, len(defs))
	for local, body := range defs {
		if err := e.check(cat, instruction.Parse(body, p.Name)); err != nil {
			e.log.Error("skipping definition",
				zap.String("package", p.Name),
				zap.String(string(cat), local),
				zap.Error(err))
			*errs = append(*errs, fmt.Errorf("%s %q: %w", cat, instruction.Qualify(local, p.Name), err))
			continue
		}
		out[local] = body
	}
	return out
}

func (e *Engine) check(cat types.Category, ins *instruction.Instruction) error {
	var err error
	switch cat {
	case types.CategoryCondition:
		_, err = e.Registry.ResolveCondition(ins)
	case types.CategoryEvent:
		_, err = e.Registry.ResolveEvent(ins)
	default:
		if !e.Registry.Has(cat, ins.Type()) {
			err = &registry.UnknownTypeError{Category: cat, Type: ins.Type()}
		}
	}
	return err
}

// Join restores an actor's record from the store and assigns its saved
// objectives. Objectives that are no longer defined or whose data does not
// decode are dropped; the rest are restored. Joining an online actor is a
// no-op.
func (e *Engine) Join(ctx context.Context, actor string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.online[actor] {
		return nil
	}
	rec, err := e.store.LoadActor(ctx, actor)
	if err != nil {
		return fmt.Errorf("load actor %q: %w", actor, err)
	}
	e.restore(actor, rec)
	e.log.Info("actor joined", zap.String("actor", actor))
	return nil
}

func (e *Engine) restore(actor string, rec types.ActorRecord) []error {
	e.Objectives.Release(actor)
	e.Actors.Restore(actor, rec.ActorState)
	errs := e.Objectives.Restore(actor, rec.Objectives)
	if len(errs) > 0 {
		e.log.Warn("dropped objectives on restore",
			zap.String("actor", actor),
			zap.Int("dropped", len(errs)))
	}
	e.online[actor] = true
	return errs
}

// Leave saves the actor's record and removes it from every objective.
// If the store fails the actor stays online with its progress intact.
func (e *Engine) Leave(ctx context.Context, actor string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.online[actor] {
		return nil
	}
	rec := types.ActorRecord{
		ActorState: e.Actors.Snapshot(actor),
		Objectives: e.Objectives.Release(actor),
	}
	if err := e.store.SaveActor(ctx, actor, rec); err != nil {
		e.Objectives.Restore(actor, rec.Objectives)
		return fmt.Errorf("save actor %q: %w", actor, err)
	}
	e.Actors.Forget(actor)
	delete(e.online, actor)
	e.log.Info("actor left", zap.String("actor", actor))
	return nil
}

// Reload tears down every objective, loads pkgs and restores the progress
// of every online actor against the new definitions.
func (e *Engine) Reload(_ context.Context, pkgs []types.Package) []error {
	e.mu.Lock()
	defer e.mu.Unlock()

	persisted := e.Objectives.PersistAll()
	errs := e.load(pkgs)
	for _, actor := range e.onlineLocked() {
		errs = append(errs, e.Objectives.Restore(actor, persisted[actor])...)
	}
	e.log.Info("definitions reloaded", zap.Int("actors", len(e.online)))
	return errs
}

// Shutdown tears down every objective and saves every online actor. The
// engine accepts no further assignments afterwards.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	persisted := e.Objectives.PersistAll()
	var errs []error
	for _, actor := range e.onlineLocked() {
		rec := types.ActorRecord{
			ActorState: e.Actors.Snapshot(actor),
			Objectives: persisted[actor],
		}
		if rec.Objectives == nil {
			rec.Objectives = map[string]string{}
		}
		if err := e.store.SaveActor(ctx, actor, rec); err != nil {
			errs = append(errs, fmt.Errorf("save actor %q: %w", actor, err))
			continue
		}
		e.Actors.Forget(actor)
		delete(e.online, actor)
	}
	e.log.Info("engine shut down", zap.Int("unsaved", len(errs)))
	return errors.Join(errs...)
}

// Online returns every joined actor, sorted.
func (e *Engine) Online() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.onlineLocked()
}

func (e *Engine) onlineLocked() []string {
	ids := make([]string, 0, len(e.online))
	for id := range e.online {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// IsOnline returns true if actor has joined.
func (e *Engine) IsOnline(actor string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.online[actor]
}

// Record returns the actor's current host data and objective progress.
func (e *Engine) Record(actor string) types.ActorRecord {
	return types.ActorRecord{
		ActorState: e.Actors.Snapshot(actor),
		Objectives: e.Objectives.Snapshot(actor),
	}
}

// Records returns the record of every online actor.
func (e *Engine) Records() map[string]types.ActorRecord {
	out := map[string]types.ActorRecord{}
	for _, actor := range e.Online() {
		out[actor] = e.Record(actor)
	}
	return out
}

// Restore replaces an actor's data and progress with rec and marks it
// online. It returns one error per dropped objective.
func (e *Engine) Restore(actor string, rec types.ActorRecord) []error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.restore(actor, rec)
}

// IsMet evaluates a qualified condition for actor.
func (e *Engine) IsMet(ctx context.Context, actor, condition string) (bool, error) {
	return e.Conditions.IsMet(ctx, actor, condition)
}

// Fire runs a qualified event for actor.
func (e *Engine) Fire(ctx context.Context, actor, event string) error {
	return e.Events.Run(ctx, actor, event)
}

// Assign gives a qualified objective to actor.
func (e *Engine) Assign(ctx context.Context, actor, objective string) error {
	return e.Objectives.Assign(ctx, actor, objective)
}

// Unassign removes a qualified objective from actor without completing it.
func (e *Engine) Unassign(ctx context.Context, actor, objective string) error {
	return e.Objectives.Unassign(ctx, actor, objective)
}

// Complete completes a qualified objective for actor and fires its events.
func (e *Engine) Complete(ctx context.Context, actor, objective string) error {
	return e.Objectives.Complete(ctx, actor, objective)
}

// Trigger delivers a host trigger for actor and returns how many
// objectives were listening.
func (e *Engine) Trigger(ctx context.Context, actor, kind string) int {
	return e.Triggers.Fire(ctx, kind, actor)
}
