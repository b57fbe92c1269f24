package registry

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nathoo/questrules/engine/instruction"
	"github.com/nathoo/questrules/types"
)

type constCondition bool

func (c constCondition) Evaluate(context.Context, string) (bool, error) { return bool(c), nil }

type nopEvent struct{ label string }

func (nopEvent) Run(context.Context, string) error { return nil }

func TestResolve_UnknownType(t *testing.T) {
	r := New()
	ins := instruction.Parse("unknown_type foo", "p")

	tests := []struct {
		category types.Category
		resolve  func() error
	}{
		{types.CategoryCondition, func() error { _, err := r.ResolveCondition(ins); return err }},
		{types.CategoryEvent, func() error { _, err := r.ResolveEvent(ins); return err }},
		{types.CategoryObjective, func() error { _, err := r.ResolveObjective(ins, nil); return err }},
	}

	for _, tt := range tests {
		t.Run(string(tt.category), func(t *testing.T) {
			err := tt.resolve()
			var ute *UnknownTypeError
			if !errors.As(err, &ute) {
				t.Fatalf("error = %v, want *UnknownTypeError", err)
			}
			if ute.Type != "unknown_type" || ute.Category != tt.category {
				t.Errorf("got %+v", ute)
			}
			if !errors.Is(err, ErrUnknownType) {
				t.Error("errors.Is(err, ErrUnknownType) = false")
			}
			msg := err.Error()
			if !strings.Contains(msg, "unknown_type") || !strings.Contains(msg, string(tt.category)) {
				t.Errorf("message %q does not name tag and category", msg)
			}
		})
	}
}

func TestRegister_LastWins(t *testing.T) {
	r := New()
	r.RegisterCondition("always", func(*instruction.Instruction) (Condition, error) {
		return constCondition(false), nil
	})
	r.RegisterCondition("always", func(*instruction.Instruction) (Condition, error) {
		return constCondition(true), nil
	})

	c, err := r.ResolveCondition(instruction.Parse("always", "p"))
	if err != nil {
		t.Fatalf("ResolveCondition: %v", err)
	}
	got, _ := c.Evaluate(context.Background(), "a")
	if !got {
		t.Error("expected the second registration to win")
	}
}

func TestCategoriesAreSeparate(t *testing.T) {
	r := New()
	r.RegisterEvent("tag", func(*instruction.Instruction) (Event, error) {
		return nopEvent{}, nil
	})

	if r.Has(types.CategoryCondition, "tag") {
		t.Error("event registration leaked into conditions")
	}
	if !r.Has(types.CategoryEvent, "tag") {
		t.Error("event tag not registered")
	}
	if _, err := r.ResolveCondition(instruction.Parse("tag x", "p")); !errors.Is(err, ErrUnknownType) {
		t.Errorf("ResolveCondition error = %v", err)
	}
}

func TestResolve_PropagatesMalformedUnchanged(t *testing.T) {
	r := New()
	r.RegisterEvent("point", func(ins *instruction.Instruction) (Event, error) {
		if _, err := ins.Int(2); err != nil {
			return nil, err
		}
		return nopEvent{}, nil
	})

	_, err := r.ResolveEvent(instruction.Parse("point fame lots", "p"))
	me, ok := err.(*instruction.MalformedError)
	if !ok {
		t.Fatalf("error = %T %v, want *instruction.MalformedError unwrapped", err, err)
	}
	if me.Token != "lots" {
		t.Errorf("Token = %q", me.Token)
	}
}

func TestCache_SingleConstruction(t *testing.T) {
	c := NewCache[Event]()
	var builds atomic.Int32
	start := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := c.Get("quest1.heal", func() (Event, error) {
				builds.Add(1)
				return nopEvent{label: "heal"}, nil
			})
			if err != nil {
				t.Errorf("Get: %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if n := builds.Load(); n != 1 {
		t.Errorf("builds = %d, want 1", n)
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestCache_ErrorsNotCached(t *testing.T) {
	c := NewCache[Event]()
	boom := errors.New("boom")

	if _, err := c.Get("x", func() (Event, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if c.Len() != 0 {
		t.Fatal("failed build was cached")
	}
	if _, err := c.Get("x", func() (Event, error) { return nopEvent{}, nil }); err != nil {
		t.Fatalf("retry: %v", err)
	}

	c.Reset()
	if c.Len() != 0 {
		t.Error("Reset left entries behind")
	}
}
