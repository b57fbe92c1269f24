// Package events resolves and runs named events for an actor. Events are
// fire-and-forget: a list runs in declared order and one failure does not
// stop the rest.
package events

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nathoo/questrules/engine/instruction"
	"github.com/nathoo/questrules/engine/registry"
	"github.com/nathoo/questrules/types"
)

// maxDepth bounds nesting through folder events.
const maxDepth = 32

// ErrTooDeep is returned when folder events reference each other in a cycle.
var ErrTooDeep = errors.New("event nesting too deep")

// ExecutionError wraps a failure of an event's side effect.
type ExecutionError struct {
	Event string
	Actor string
	Err   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("event %q for %q failed: %v", e.Event, e.Actor, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// Source supplies parsed instructions by qualified name.
type Source interface {
	Instruction(cat types.Category, name string) (*instruction.Instruction, error)
}

// Executor resolves, caches and runs events.
type Executor struct {
	reg   *registry.Registry
	src   Source
	cache *registry.Cache[registry.Event]
	log   *zap.Logger
}

// NewExecutor creates an executor. A nil logger disables logging.
func NewExecutor(reg *registry.Registry, src Source, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		reg:   reg,
		src:   src,
		cache: registry.NewCache[registry.Event](),
		log:   log,
	}
}

// Run fires the event with the qualified name for actor. Resolution errors
// are returned as is; handler failures come back as *ExecutionError.
func (x *Executor) Run(ctx context.Context, actor, name string) error {
	depth, _ := ctx.Value(depthKey{}).(int)
	if depth >= maxDepth {
		return &ExecutionError{Event: name, Actor: actor, Err: ErrTooDeep}
	}
	ctx = context.WithValue(ctx, depthKey{}, depth+1)

	ev, err := x.cache.Get(name, func() (registry.Event, error) {
		ins, err := x.src.Instruction(types.CategoryEvent, name)
		if err != nil {
			return nil, err
		}
		return x.reg.ResolveEvent(ins)
	})
	if err != nil {
		return err
	}

	x.log.Debug("firing event", zap.String("actor", actor), zap.String("event", name))
	if err := ev.Run(ctx, actor); err != nil {
		var ee *ExecutionError
		if errors.As(err, &ee) {
			return err
		}
		return &ExecutionError{Event: name, Actor: actor, Err: err}
	}
	return nil
}

// RunAll fires every event in order. Failures are logged and skipped; the
// number of failed events is returned.
func (x *Executor) RunAll(ctx context.Context, actor string, names []string) int {
	failed := 0
	for _, name := range names {
		if err := x.Run(ctx, actor, name); err != nil {
			failed++
			x.log.Error("event failed",
				zap.String("actor", actor),
				zap.String("event", name),
				zap.Error(err))
		}
	}
	return failed
}

// Reset drops every cached handler, e.g. after a reload.
func (x *Executor) Reset() { x.cache.Reset() }

type depthKey struct{}
