package objectives

import (
	"context"
	"strconv"
	"sync"

	"github.com/nathoo/questrules/engine/instruction"
	"github.com/nathoo/questrules/engine/registry"
	"github.com/nathoo/questrules/engine/triggers"
)

// Subscriber is the host trigger source objectives listen to while started.
type Subscriber interface {
	Subscribe(kind string, fn triggers.Handler) (cancel func())
}

// RegisterBuiltins registers the trigger and count objective types.
func RegisterBuiltins(reg *registry.Registry, bus Subscriber) {
	reg.RegisterObjective("trigger", func(ins *instruction.Instruction, t registry.Tracker) (registry.Objective, error) {
		kind, err := ins.Token(1)
		if err != nil {
			return nil, err
		}
		o := &triggerObjective{listener: listener{bus: bus, kind: kind}, tracker: t}
		o.listener.fn = o.handle
		return o, nil
	})
	reg.RegisterObjective("count", func(ins *instruction.Instruction, t registry.Tracker) (registry.Objective, error) {
		kind, err := ins.Token(1)
		if err != nil {
			return nil, err
		}
		amount, err := ins.Int(2)
		if err != nil {
			return nil, err
		}
		if amount < 1 {
			return nil, ins.Malformed(strconv.Itoa(amount), "amount must be at least 1")
		}
		o := &countObjective{listener: listener{bus: bus, kind: kind}, tracker: t, amount: amount}
		o.listener.fn = o.handle
		return o, nil
	})
}

// listener subscribes to one trigger kind between Start and Stop. Stop
// without a prior Start is a no-op.
type listener struct {
	bus  Subscriber
	kind string
	fn   triggers.Handler

	mu     sync.Mutex
	cancel func()
}

func (l *listener) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel == nil {
		l.cancel = l.bus.Subscribe(l.kind, l.fn)
	}
}

func (l *listener) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// triggerObjective completes on the first matching trigger.
type triggerObjective struct {
	listener
	tracker registry.Tracker
}

type noProgress struct{}

func (noProgress) String() string { return "" }

func (o *triggerObjective) DefaultData() string { return "" }

func (o *triggerObjective) ParseData(data string) (registry.Progress, error) {
	if data != "" {
		return nil, &instruction.MalformedError{Instruction: data, Token: data, Cause: "trigger objectives carry no data"}
	}
	return noProgress{}, nil
}

func (o *triggerObjective) handle(ctx context.Context, actor string) {
	_, _ = o.tracker.Advance(ctx, actor, func(p registry.Progress) (registry.Progress, bool, error) {
		return p, true, nil
	})
}

// countObjective completes after amount matching triggers. Progress is the
// remaining count.
type countObjective struct {
	listener
	tracker registry.Tracker
	amount  int
}

// CountProgress is the remaining number of triggers.
type CountProgress int

func (p CountProgress) String() string { return strconv.Itoa(int(p)) }

func (o *countObjective) DefaultData() string { return strconv.Itoa(o.amount) }

func (o *countObjective) ParseData(data string) (registry.Progress, error) {
	n, err := strconv.Atoi(data)
	if err != nil {
		return nil, &instruction.MalformedError{Instruction: data, Token: data, Cause: "could not parse a number"}
	}
	if n < 0 {
		return nil, &instruction.MalformedError{Instruction: data, Token: data, Cause: "remaining count cannot be negative"}
	}
	return CountProgress(n), nil
}

func (o *countObjective) handle(ctx context.Context, actor string) {
	_, _ = o.tracker.Advance(ctx, actor, func(p registry.Progress) (registry.Progress, bool, error) {
		left := p.(CountProgress) - 1
		return left, left <= 0, nil
	})
}
