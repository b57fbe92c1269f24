// Package loader reads package directories of YAML and Lua files into
// definition packages. Lua files run in a sandboxed VM that is discarded
// after loading.
package loader

import (
	"strings"

	"github.com/nathoo/questrules/types"
)

// rawDef holds one definition before compilation.
type rawDef struct {
	category types.Category
	name     string
	body     string
	source   string // file the definition came from, relative to the root
}

// compile builds a package from validated definitions.
func compile(name string, defs []rawDef) types.Package {
	pkg := types.Package{
		Name:       name,
		Conditions: map[string]string{},
		Events:     map[string]string{},
		Objectives: map[string]string{},
	}
	for _, d := range defs {
		body := strings.TrimSpace(d.body)
		switch d.category {
		case types.CategoryCondition:
			pkg.Conditions[d.name] = body
		case types.CategoryEvent:
			pkg.Events[d.name] = body
		case types.CategoryObjective:
			pkg.Objectives[d.name] = body
		}
	}
	return pkg
}
