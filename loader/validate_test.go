package loader

import (
	"errors"
	"testing"

	"github.com/nathoo/questrules/types"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name string
		want error
	}{
		{"quest1", nil},
		{"kill_zombies", nil},
		{"", errEmptyName},
		{"a.b", errDotInName},
		{"a b", errSpaceName},
		{"a\tb", errSpaceName},
	}
	for _, tt := range tests {
		if got := validateName(tt.name); !errors.Is(got, tt.want) {
			t.Errorf("validateName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestValidate_SkipsAndWarns(t *testing.T) {
	ve := &ValidationError{}
	kept := validate([]rawDef{
		{category: types.CategoryEvent, name: "heal", body: "point health 5", source: "a.yml"},
		{category: types.CategoryCondition, name: "heal", body: "tag healed", source: "a.yml"},
		{category: types.CategoryEvent, name: "heal", body: "point health 9", source: "b.lua"},
		{category: types.CategoryEvent, name: "x.y", body: "tag add x", source: "b.lua"},
		{category: types.CategoryEvent, name: "blank", body: " ", source: "b.lua"},
	}, ve)

	if len(kept) != 2 {
		t.Fatalf("expected 2 kept definitions, got %d", len(kept))
	}
	if kept[0].body != "point health 5" {
		t.Errorf("first definition should win, got %q", kept[0].body)
	}
	if len(ve.Warnings) != 3 {
		t.Errorf("expected 3 warnings, got %v", ve.Warnings)
	}
	assertContains(t, ve.Warnings, "first defined in a.yml")
	if len(ve.Errors) != 0 {
		t.Errorf("expected no errors, got %v", ve.Errors)
	}
}

func TestValidationError_Message(t *testing.T) {
	ve := &ValidationError{Errors: []string{"one", "two"}}
	want := "validation failed with 2 error(s):\n  one\n  two"
	if ve.Error() != want {
		t.Errorf("Error() = %q, want %q", ve.Error(), want)
	}
}
