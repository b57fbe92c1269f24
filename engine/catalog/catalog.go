// Package catalog holds the directive definitions loaded from packages,
// indexed by category and qualified name.
package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nathoo/questrules/engine/instruction"
	"github.com/nathoo/questrules/engine/registry"
	"github.com/nathoo/questrules/types"
)

// UndefinedError reports a qualified name no package defines.
type UndefinedError struct {
	Category types.Category
	Name     string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("%s %q is not defined", e.Category, e.Name)
}

// Unwrap lets callers match registry.ErrUnknownType.
func (e *UndefinedError) Unwrap() error { return registry.ErrUnknownType }

// Catalog is safe for concurrent use. Replace swaps the whole content
// atomically on reload.
type Catalog struct {
	mu    sync.RWMutex
	items map[types.Category]map[string]types.Directive
}

// New creates a catalog from packages.
func New(pkgs []types.Package) *Catalog {
	c := &Catalog{}
	c.Replace(pkgs)
	return c
}

// Replace discards the current content and indexes pkgs instead.
func (c *Catalog) Replace(pkgs []types.Package) {
	items := map[types.Category]map[string]types.Directive{
		types.CategoryCondition: {},
		types.CategoryEvent:     {},
		types.CategoryObjective: {},
	}
	for _, p := range pkgs {
		add(items, p.Name, types.CategoryCondition, p.Conditions)
		add(items, p.Name, types.CategoryEvent, p.Events)
		add(items, p.Name, types.CategoryObjective, p.Objectives)
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
}

func add(items map[types.Category]map[string]types.Directive, pkg string, cat types.Category, defs map[string]string) {
	for local, body := range defs {
		name := instruction.Qualify(local, pkg)
		items[cat][name] = types.Directive{
			Name:        name,
			Package:     pkg,
			Category:    cat,
			Instruction: body,
		}
	}
}

// Get returns the directive with the qualified name in category.
func (c *Catalog) Get(cat types.Category, name string) (types.Directive, error) {
	c.mu.RLock()
	d, ok := c.items[cat][name]
	c.mu.RUnlock()
	if !ok {
		return types.Directive{}, &UndefinedError{Category: cat, Name: name}
	}
	return d, nil
}

// Instruction returns the parsed instruction of a directive.
func (c *Catalog) Instruction(cat types.Category, name string) (*instruction.Instruction, error) {
	d, err := c.Get(cat, name)
	if err != nil {
		return nil, err
	}
	return instruction.Parse(d.Instruction, d.Package), nil
}

// Names returns every qualified name in category, sorted.
func (c *Catalog) Names(cat types.Category) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, 0, len(c.items[cat]))
	for name := range c.items[cat] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every directive in category, sorted by name.
func (c *Catalog) All(cat types.Category) []types.Directive {
	names := c.Names(cat)
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]types.Directive, 0, len(names))
	for _, name := range names {
		if d, ok := c.items[cat][name]; ok {
			out = append(out, d)
		}
	}
	return out
}
