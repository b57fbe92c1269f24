package loader

import (
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/questrules/engine/instruction"
	"github.com/nathoo/questrules/types"
)

// registerAPI registers the definition constructors and helpers as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerConstructor(L, coll, "Condition", types.CategoryCondition)
	registerConstructor(L, coll, "Event", types.CategoryEvent)
	registerConstructor(L, coll, "Objective", types.CategoryObjective)

	// Instruction { "count", "kill", 3, events = {"reward"}, inverted = true }
	L.SetGlobal("Instruction", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(buildInstruction(L.CheckTable(1))))
		return 1
	}))
}

// registerConstructor registers a global that accepts both
// Name("local", "instruction") and the curried Name "local" "instruction".
func registerConstructor(L *lua.LState, coll *collector, global string, cat types.Category) {
	L.SetGlobal(global, L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		if L.GetTop() >= 2 {
			coll.add(cat, name, L.CheckString(2))
			return 0
		}
		L.Push(L.NewFunction(func(L *lua.LState) int {
			coll.add(cat, name, L.CheckString(1))
			return 0
		}))
		return 1
	}))
}

// buildInstruction renders a table as instruction text: the array part as
// positional tokens, then list and scalar fields as key:value sorted by
// key, then true booleans as flags sorted by name.
func buildInstruction(tbl *lua.LTable) string {
	var tokens []string
	for i := 1; i <= tbl.Len(); i++ {
		tokens = append(tokens, tbl.RawGetInt(i).String())
	}

	var fields, flags []string
	tbl.ForEach(func(k, v lua.LValue) {
		key, ok := k.(lua.LString)
		if !ok {
			return
		}
		switch val := v.(type) {
		case lua.LBool:
			if val {
				flags = append(flags, instruction.FlagPrefix+string(key))
			}
		case *lua.LTable:
			var items []string
			for i := 1; i <= val.Len(); i++ {
				items = append(items, val.RawGetInt(i).String())
			}
			if len(items) > 0 {
				fields = append(fields, string(key)+instruction.FieldSeparator+strings.Join(items, instruction.ListSeparator))
			}
		default:
			fields = append(fields, string(key)+instruction.FieldSeparator+v.String())
		}
	})
	sort.Strings(fields)
	sort.Strings(flags)

	tokens = append(tokens, fields...)
	tokens = append(tokens, flags...)
	return strings.Join(tokens, " ")
}
