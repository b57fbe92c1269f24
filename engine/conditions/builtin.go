package conditions

import (
	"context"
	"strings"

	"github.com/nathoo/questrules/engine/instruction"
	"github.com/nathoo/questrules/engine/registry"
)

// Directory is the host actor data built-in conditions read.
type Directory interface {
	HasTag(actor, tag string) bool
	Points(actor, category string) int
}

// ObjectiveLookup reports whether an actor holds an objective.
type ObjectiveLookup interface {
	HasObjective(actor, name string) bool
}

// RegisterBuiltins registers the tag, point, objective, and and or types.
func RegisterBuiltins(reg *registry.Registry, dir Directory, objectives ObjectiveLookup, eval *Evaluator) {
	reg.RegisterCondition("tag", func(ins *instruction.Instruction) (registry.Condition, error) {
		return NewTag(ins, dir)
	})
	reg.RegisterCondition("point", func(ins *instruction.Instruction) (registry.Condition, error) {
		category, err := ins.Token(1)
		if err != nil {
			return nil, err
		}
		amount, err := ins.Int(2)
		if err != nil {
			return nil, err
		}
		return pointCondition{dir: dir, category: category, amount: amount}, nil
	})
	reg.RegisterCondition("objective", func(ins *instruction.Instruction) (registry.Condition, error) {
		name, err := ins.Token(1)
		if err != nil {
			return nil, err
		}
		return objectiveCondition{lookup: objectives, name: ins.Qualify(name)}, nil
	})
	reg.RegisterCondition("and", func(ins *instruction.Instruction) (registry.Condition, error) {
		names, err := requiredList(ins)
		if err != nil {
			return nil, err
		}
		return listCondition{eval: eval, names: names, any: false}, nil
	})
	reg.RegisterCondition("or", func(ins *instruction.Instruction) (registry.Condition, error) {
		names, err := requiredList(ins)
		if err != nil {
			return nil, err
		}
		return listCondition{eval: eval, names: names, any: true}, nil
	})
}

func requiredList(ins *instruction.Instruction) ([]string, error) {
	names := ins.List("conditions")
	if len(names) == 0 {
		return nil, ins.Malformed("conditions:", "missing required field")
	}
	return names, nil
}

// tagCondition is met when the actor carries the tag.
type tagCondition struct {
	dir Directory
	tag string
}

// NewTag builds a tag condition. The tag comes from a "tag:" field, or
// from the first argument when no field is given.
func NewTag(ins *instruction.Instruction, dir Directory) (registry.Condition, error) {
	tag, ok := ins.Field("tag")
	if !ok {
		toks := ins.Tokens()
		for i := 1; i < len(toks); i++ {
			if !strings.HasPrefix(toks[i], instruction.FlagPrefix) {
				tag = toks[i]
				break
			}
		}
	}
	if tag == "" {
		return nil, ins.Malformed("tag:", "missing tag")
	}
	return tagCondition{dir: dir, tag: tag}, nil
}

func (c tagCondition) Evaluate(_ context.Context, actor string) (bool, error) {
	return c.dir.HasTag(actor, c.tag), nil
}

type pointCondition struct {
	dir      Directory
	category string
	amount   int
}

func (c pointCondition) Evaluate(_ context.Context, actor string) (bool, error) {
	return c.dir.Points(actor, c.category) >= c.amount, nil
}

type objectiveCondition struct {
	lookup ObjectiveLookup
	name   string
}

func (c objectiveCondition) Evaluate(_ context.Context, actor string) (bool, error) {
	return c.lookup.HasObjective(actor, c.name), nil
}

type listCondition struct {
	eval  *Evaluator
	names []string
	any   bool
}

func (c listCondition) Evaluate(ctx context.Context, actor string) (bool, error) {
	if c.any {
		return c.eval.AnyMet(ctx, actor, c.names)
	}
	return c.eval.AllMet(ctx, actor, c.names)
}
