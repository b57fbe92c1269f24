package catalog

import (
	"errors"
	"reflect"
	"testing"

	"github.com/nathoo/questrules/engine/registry"
	"github.com/nathoo/questrules/types"
)

func testPackages() []types.Package {
	return []types.Package{
		{
			Name:       "quest1",
			Conditions: map[string]string{"alive": "tag alive", "cured": "tag tag:cured"},
			Events:     map[string]string{"alive": "tag add alive"},
			Objectives: map[string]string{"hunt": "count kill 3 events:alive"},
		},
		{
			Name:       "town",
			Conditions: map[string]string{"mayor": "tag mayor"},
		},
	}
}

func TestGet(t *testing.T) {
	c := New(testPackages())

	d, err := c.Get(types.CategoryCondition, "quest1.alive")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if d.Package != "quest1" || d.Instruction != "tag alive" || d.Category != types.CategoryCondition {
		t.Errorf("got %+v", d)
	}

	// Same local name in another category is a different directive.
	e, err := c.Get(types.CategoryEvent, "quest1.alive")
	if err != nil {
		t.Fatalf("Get event: %v", err)
	}
	if e.Instruction != "tag add alive" {
		t.Errorf("event instruction = %q", e.Instruction)
	}
}

func TestGet_Undefined(t *testing.T) {
	c := New(testPackages())

	_, err := c.Get(types.CategoryCondition, "quest1.missing")
	var ue *UndefinedError
	if !errors.As(err, &ue) {
		t.Fatalf("err = %v, want *UndefinedError", err)
	}
	if !errors.Is(err, registry.ErrUnknownType) {
		t.Error("undefined name should match registry.ErrUnknownType")
	}
}

func TestNamesAndReplace(t *testing.T) {
	c := New(testPackages())

	want := []string{"quest1.alive", "quest1.cured", "town.mayor"}
	if got := c.Names(types.CategoryCondition); !reflect.DeepEqual(got, want) {
		t.Errorf("Names = %v, want %v", got, want)
	}

	c.Replace([]types.Package{{Name: "solo", Events: map[string]string{"x": "tag add x"}}})
	if got := c.Names(types.CategoryCondition); len(got) != 0 {
		t.Errorf("conditions after Replace = %v", got)
	}
	if got := c.All(types.CategoryEvent); len(got) != 1 || got[0].Name != "solo.x" {
		t.Errorf("events after Replace = %v", got)
	}
}

func TestInstruction(t *testing.T) {
	c := New(testPackages())
	ins, err := c.Instruction(types.CategoryObjective, "quest1.hunt")
	if err != nil {
		t.Fatalf("Instruction: %v", err)
	}
	if ins.Type() != "count" || ins.Package() != "quest1" {
		t.Errorf("Type = %q, Package = %q", ins.Type(), ins.Package())
	}
	if got := ins.List("events"); !reflect.DeepEqual(got, []string{"quest1.alive"}) {
		t.Errorf("events = %v", got)
	}
}
