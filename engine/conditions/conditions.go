// Package conditions evaluates named conditions for an actor. Handlers are
// built lazily from their instruction and reused across actors; the
// "--inverted" flag is applied here, uniformly, never inside a handler.
package conditions

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nathoo/questrules/engine/instruction"
	"github.com/nathoo/questrules/engine/registry"
	"github.com/nathoo/questrules/types"
)

// InvertedFlag is the flag name that negates a condition.
const InvertedFlag = "inverted"

// maxDepth bounds nested evaluation through and/or conditions.
const maxDepth = 32

// ErrTooDeep is returned when conditions reference each other in a cycle.
var ErrTooDeep = errors.New("condition nesting too deep")

// Source supplies parsed instructions by qualified name.
type Source interface {
	Instruction(cat types.Category, name string) (*instruction.Instruction, error)
}

type entry struct {
	cond     registry.Condition
	inverted bool
}

// Evaluator resolves, caches and evaluates conditions.
type Evaluator struct {
	reg   *registry.Registry
	src   Source
	cache *registry.Cache[entry]
	log   *zap.Logger
}

// NewEvaluator creates an evaluator. A nil logger disables logging.
func NewEvaluator(reg *registry.Registry, src Source, log *zap.Logger) *Evaluator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Evaluator{
		reg:   reg,
		src:   src,
		cache: registry.NewCache[entry](),
		log:   log,
	}
}

// IsMet evaluates the condition with the qualified name for actor.
// Unknown names and types fail with an error matching
// registry.ErrUnknownType; the caller decides whether that counts as unmet.
func (e *Evaluator) IsMet(ctx context.Context, actor, name string) (bool, error) {
	depth, _ := ctx.Value(depthKey{}).(int)
	if depth >= maxDepth {
		return false, fmt.Errorf("condition %q: %w", name, ErrTooDeep)
	}
	ctx = context.WithValue(ctx, depthKey{}, depth+1)

	ent, err := e.handler(name)
	if err != nil {
		return false, err
	}
	met, err := ent.cond.Evaluate(ctx, actor)
	if err != nil {
		return false, fmt.Errorf("condition %q: %w", name, err)
	}
	result := met != ent.inverted
	e.log.Debug("condition checked",
		zap.String("actor", actor),
		zap.String("condition", name),
		zap.Bool("met", result))
	return result, nil
}

// AllMet returns true if every condition is met (AND logic), stopping at
// the first unmet one. An empty list is vacuously true.
func (e *Evaluator) AllMet(ctx context.Context, actor string, names []string) (bool, error) {
	for _, name := range names {
		met, err := e.IsMet(ctx, actor, name)
		if err != nil {
			return false, err
		}
		if !met {
			return false, nil
		}
	}
	return true, nil
}

// AnyMet returns true at the first met condition. An empty list is false.
func (e *Evaluator) AnyMet(ctx context.Context, actor string, names []string) (bool, error) {
	for _, name := range names {
		met, err := e.IsMet(ctx, actor, name)
		if err != nil {
			return false, err
		}
		if met {
			return true, nil
		}
	}
	return false, nil
}

// Reset drops every cached handler, e.g. after a reload.
func (e *Evaluator) Reset() { e.cache.Reset() }

func (e *Evaluator) handler(name string) (entry, error) {
	return e.cache.Get(name, func() (entry, error) {
		ins, err := e.src.Instruction(types.CategoryCondition, name)
		if err != nil {
			return entry{}, err
		}
		c, err := e.reg.ResolveCondition(ins)
		if err != nil {
			return entry{}, err
		}
		return entry{cond: c, inverted: ins.Flag(InvertedFlag)}, nil
	})
}

type depthKey struct{}
