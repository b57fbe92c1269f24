package events

import (
	"context"
	"errors"

	"github.com/nathoo/questrules/engine/instruction"
	"github.com/nathoo/questrules/engine/registry"
)

// Directory is the host actor data built-in events mutate.
type Directory interface {
	AddTag(actor, tag string)
	RemoveTag(actor, tag string)
	AddPoints(actor, category string, amount int) int
}

// ObjectiveControl assigns, removes and completes objectives by
// qualified name.
type ObjectiveControl interface {
	Assign(ctx context.Context, actor, name string) error
	Unassign(ctx context.Context, actor, name string) error
	Complete(ctx context.Context, actor, name string) error
}

// RegisterBuiltins registers the tag, point, objective and folder types.
func RegisterBuiltins(reg *registry.Registry, dir Directory, objectives ObjectiveControl, x *Executor) {
	reg.RegisterEvent("tag", func(ins *instruction.Instruction) (registry.Event, error) {
		mode, err := ins.Token(1)
		if err != nil {
			return nil, err
		}
		if mode != "add" && mode != "del" {
			return nil, ins.Malformed(mode, "mode must be add or del")
		}
		list, err := ins.Token(2)
		if err != nil {
			return nil, err
		}
		tags := instruction.SplitList(list)
		if len(tags) == 0 {
			return nil, ins.Malformed(list, "no tags given")
		}
		return tagEvent{dir: dir, add: mode == "add", tags: tags}, nil
	})
	reg.RegisterEvent("point", func(ins *instruction.Instruction) (registry.Event, error) {
		category, err := ins.Token(1)
		if err != nil {
			return nil, err
		}
		amount, err := ins.Int(2)
		if err != nil {
			return nil, err
		}
		return pointEvent{dir: dir, category: category, amount: amount}, nil
	})
	reg.RegisterEvent("objective", func(ins *instruction.Instruction) (registry.Event, error) {
		mode, err := ins.Token(1)
		if err != nil {
			return nil, err
		}
		switch mode {
		case "add", "remove", "complete":
		default:
			return nil, ins.Malformed(mode, "mode must be add, remove or complete")
		}
		list, err := ins.Token(2)
		if err != nil {
			return nil, err
		}
		names := instruction.QualifyAll(instruction.SplitList(list), ins.Package())
		if len(names) == 0 {
			return nil, ins.Malformed(list, "no objectives given")
		}
		return objectiveEvent{ctl: objectives, mode: mode, names: names}, nil
	})
	reg.RegisterEvent("folder", func(ins *instruction.Instruction) (registry.Event, error) {
		names := ins.List("events")
		if len(names) == 0 {
			return nil, ins.Malformed("events:", "missing required field")
		}
		return folderEvent{x: x, names: names}, nil
	})
}

type tagEvent struct {
	dir  Directory
	add  bool
	tags []string
}

func (e tagEvent) Run(_ context.Context, actor string) error {
	for _, tag := range e.tags {
		if e.add {
			e.dir.AddTag(actor, tag)
		} else {
			e.dir.RemoveTag(actor, tag)
		}
	}
	return nil
}

// pointEvent adds points; negative amounts remove them.
type pointEvent struct {
	dir      Directory
	category string
	amount   int
}

func (e pointEvent) Run(_ context.Context, actor string) error {
	e.dir.AddPoints(actor, e.category, e.amount)
	return nil
}

type objectiveEvent struct {
	ctl   ObjectiveControl
	mode  string
	names []string
}

func (e objectiveEvent) Run(ctx context.Context, actor string) error {
	var errs []error
	for _, name := range e.names {
		var err error
		switch e.mode {
		case "add":
			err = e.ctl.Assign(ctx, actor, name)
		case "remove":
			err = e.ctl.Unassign(ctx, actor, name)
		case "complete":
			err = e.ctl.Complete(ctx, actor, name)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// folderEvent runs nested events in order, continuing past failures.
type folderEvent struct {
	x     *Executor
	names []string
}

func (e folderEvent) Run(ctx context.Context, actor string) error {
	var errs []error
	for _, name := range e.names {
		if err := e.x.Run(ctx, actor, name); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
