package conditions

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nathoo/questrules/engine/catalog"
	"github.com/nathoo/questrules/engine/instruction"
	"github.com/nathoo/questrules/engine/registry"
	"github.com/nathoo/questrules/engine/state"
	"github.com/nathoo/questrules/types"
)

type fakeObjectives map[string]bool

func (f fakeObjectives) HasObjective(actor, name string) bool { return f[actor+"/"+name] }

func condTestEvaluator(t *testing.T) (*Evaluator, *state.Directory) {
	t.Helper()
	cat := catalog.New([]types.Package{{
		Name: "quest1",
		Conditions: map[string]string{
			"cured":       "tag tag:cured",
			"not_cured":   "tag tag:cured --inverted",
			"bare_tag":    "tag cured",
			"famous":      "point fame 10",
			"hunting":     "objective hunt",
			"both":        "and conditions:cured,famous",
			"either":      "or conditions:cured,famous",
			"loop":        "and conditions:loop",
			"broken":      "point fame lots",
			"mystery":     "unknown_type x",
			"other_pkg":   "and conditions:town.mayor",
			"double_flag": "tag tag:cured --inverted --inverted",
		},
	}, {
		Name:       "town",
		Conditions: map[string]string{"mayor": "tag mayor"},
	}})
	dir := state.NewDirectory()
	reg := registry.New()
	eval := NewEvaluator(reg, cat, nil)
	RegisterBuiltins(reg, dir, fakeObjectives{"steve/quest1.hunt": true}, eval)
	return eval, dir
}

func TestIsMet_Builtins(t *testing.T) {
	eval, dir := condTestEvaluator(t)
	dir.AddTag("steve", "cured")
	dir.AddPoints("steve", "fame", 12)
	dir.AddPoints("alex", "fame", 3)
	dir.AddTag("alex", "mayor")

	tests := []struct {
		actor string
		name  string
		want  bool
	}{
		{"steve", "quest1.cured", true},
		{"alex", "quest1.cured", false},
		{"steve", "quest1.bare_tag", true},
		{"steve", "quest1.famous", true},
		{"alex", "quest1.famous", false},
		{"steve", "quest1.hunting", true},
		{"alex", "quest1.hunting", false},
		{"steve", "quest1.both", true},
		{"alex", "quest1.both", false},
		{"steve", "quest1.either", true},
		{"alex", "quest1.either", false},
		{"alex", "quest1.other_pkg", true},
	}

	for _, tt := range tests {
		t.Run(tt.actor+" "+tt.name, func(t *testing.T) {
			got, err := eval.IsMet(context.Background(), tt.actor, tt.name)
			if err != nil {
				t.Fatalf("IsMet: %v", err)
			}
			if got != tt.want {
				t.Errorf("IsMet = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsMet_InvertedTag(t *testing.T) {
	eval, dir := condTestEvaluator(t)
	ctx := context.Background()

	got, err := eval.IsMet(ctx, "steve", "quest1.not_cured")
	if err != nil || !got {
		t.Errorf("without tag: IsMet = %v, %v; want true", got, err)
	}

	dir.AddTag("steve", "cured")
	got, err = eval.IsMet(ctx, "steve", "quest1.not_cured")
	if err != nil || got {
		t.Errorf("with tag: IsMet = %v, %v; want false", got, err)
	}

	// Duplicated flag is the same as one.
	got, _ = eval.IsMet(ctx, "steve", "quest1.double_flag")
	if got {
		t.Error("double --inverted should still invert once")
	}
}

func TestInversionLaw(t *testing.T) {
	eval, dir := condTestEvaluator(t)
	ctx := context.Background()
	dir.AddTag("alex", "cured")

	for _, actor := range []string{"steve", "alex", "nobody"} {
		plain, err := eval.IsMet(ctx, actor, "quest1.cured")
		if err != nil {
			t.Fatal(err)
		}
		inverted, err := eval.IsMet(ctx, actor, "quest1.not_cured")
		if err != nil {
			t.Fatal(err)
		}
		if plain == inverted {
			t.Errorf("%s: plain = inverted = %v", actor, plain)
		}
	}
}

func TestTagScenario_FieldOnlyInstruction(t *testing.T) {
	dir := state.NewDirectory()
	ins := instruction.Parse("tag:cured --inverted", "quest1")
	c, err := NewTag(ins, dir)
	if err != nil {
		t.Fatalf("NewTag: %v", err)
	}
	ctx := context.Background()
	eval := func() bool {
		met, _ := c.Evaluate(ctx, "steve")
		return met != ins.Flag(InvertedFlag)
	}

	if !eval() {
		t.Error("actor lacking tag: want true")
	}
	dir.AddTag("steve", "cured")
	if eval() {
		t.Error("actor with tag: want false")
	}
}

func TestIsMet_Errors(t *testing.T) {
	eval, _ := condTestEvaluator(t)
	ctx := context.Background()

	_, err := eval.IsMet(ctx, "steve", "quest1.missing")
	if !errors.Is(err, registry.ErrUnknownType) {
		t.Errorf("undefined name: err = %v, want ErrUnknownType", err)
	}

	_, err = eval.IsMet(ctx, "steve", "quest1.mystery")
	var ute *registry.UnknownTypeError
	if !errors.As(err, &ute) || ute.Type != "unknown_type" {
		t.Errorf("unknown type: err = %v", err)
	}

	_, err = eval.IsMet(ctx, "steve", "quest1.broken")
	var me *instruction.MalformedError
	if !errors.As(err, &me) {
		t.Errorf("malformed: err = %v", err)
	}

	_, err = eval.IsMet(ctx, "steve", "quest1.loop")
	if !errors.Is(err, ErrTooDeep) {
		t.Errorf("cycle: err = %v, want ErrTooDeep", err)
	}
}

func TestAllMet_ShortCircuits(t *testing.T) {
	reg := registry.New()
	cat := catalog.New([]types.Package{{
		Name:       "p",
		Conditions: map[string]string{"no": "count no", "yes": "count yes"},
	}})
	eval := NewEvaluator(reg, cat, nil)

	var calls atomic.Int32
	reg.RegisterCondition("count", func(ins *instruction.Instruction) (registry.Condition, error) {
		want, _ := ins.Token(1)
		return countingCondition{calls: &calls, result: want == "yes"}, nil
	})

	ctx := context.Background()
	met, err := eval.AllMet(ctx, "a", []string{"p.no", "p.yes"})
	if err != nil || met {
		t.Fatalf("AllMet = %v, %v", met, err)
	}
	if calls.Load() != 1 {
		t.Errorf("evaluated %d conditions, want 1", calls.Load())
	}

	met, _ = eval.AllMet(ctx, "a", nil)
	if !met {
		t.Error("empty list should be met")
	}
}

type countingCondition struct {
	calls  *atomic.Int32
	result bool
}

func (c countingCondition) Evaluate(context.Context, string) (bool, error) {
	c.calls.Add(1)
	return c.result, nil
}

func TestHandlerCachedAcrossActors(t *testing.T) {
	reg := registry.New()
	cat := catalog.New([]types.Package{{Name: "p", Conditions: map[string]string{"c": "counted"}}})
	eval := NewEvaluator(reg, cat, nil)

	var builds atomic.Int32
	reg.RegisterCondition("counted", func(*instruction.Instruction) (registry.Condition, error) {
		builds.Add(1)
		return countingCondition{calls: new(atomic.Int32), result: true}, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := eval.IsMet(context.Background(), string(rune('a'+i)), "p.c"); err != nil {
				t.Errorf("IsMet: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if builds.Load() != 1 {
		t.Errorf("builds = %d, want 1", builds.Load())
	}

	eval.Reset()
	_, _ = eval.IsMet(context.Background(), "a", "p.c")
	if builds.Load() != 2 {
		t.Errorf("builds after Reset = %d, want 2", builds.Load())
	}
}
