package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/questrules/types"
)

// Result is the outcome of loading a packages root.
type Result struct {
	Packages []types.Package
	// Warnings lists every definition or directory that was skipped.
	Warnings []string
}

// collector accumulates definitions during file execution.
type collector struct {
	source string
	defs   []rawDef
}

func (c *collector) add(cat types.Category, name, body string) {
	c.defs = append(c.defs, rawDef{category: cat, name: name, body: body, source: c.source})
}

// Load reads every package directory under root. Each subdirectory is one
// package named after the directory; its *.yml and *.lua files are read in
// name order. Files that cannot be read or executed fail the load; invalid
// definitions are skipped and reported as warnings.
func Load(root string) (*Result, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading packages directory %s: %w", root, err)
	}

	ve := &ValidationError{}
	res := &Result{}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if err := validateName(e.Name()); err != nil {
			ve.Warnings = append(ve.Warnings, fmt.Sprintf("skipping package directory %q: %v", e.Name(), err))
			continue
		}
		pkg, err := loadPackage(filepath.Join(root, e.Name()), e.Name(), ve)
		if err != nil {
			ve.Errors = append(ve.Errors, err.Error())
			continue
		}
		res.Packages = append(res.Packages, pkg)
	}
	if len(ve.Errors) > 0 {
		return nil, ve
	}
	if len(res.Packages) == 0 {
		return nil, fmt.Errorf("no packages found in %s", root)
	}
	sort.Slice(res.Packages, func(i, j int) bool { return res.Packages[i].Name < res.Packages[j].Name })
	res.Warnings = ve.Warnings
	return res, nil
}

// loadPackage reads the files of one package directory.
func loadPackage(dir, name string, ve *ValidationError) (types.Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return types.Package{}, fmt.Errorf("reading package %s: %w", name, err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".yml", ".yaml", ".lua":
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	coll := &collector{}
	var L *lua.LState
	defer func() {
		if L != nil {
			L.Close()
		}
	}()
	for _, f := range files {
		path := filepath.Join(dir, f)
		coll.source = filepath.Join(name, f)
		if filepath.Ext(f) == ".lua" {
			if L == nil {
				L = newVM(coll)
			}
			if err := L.DoFile(path); err != nil {
				return types.Package{}, fmt.Errorf("executing %s: %w", coll.source, err)
			}
			continue
		}
		if err := readYAML(path, coll); err != nil {
			return types.Package{}, fmt.Errorf("parsing %s: %w", coll.source, err)
		}
	}

	return compile(name, validate(coll.defs, ve)), nil
}

// newVM creates a sandboxed VM with the definition API registered. The VM
// is discarded once the package is loaded.
func newVM(coll *collector) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	openSafeLibs(L)
	sandbox(L)
	registerAPI(L, coll)
	return L
}

// openSafeLibs opens only the safe subset of Lua standard libraries.
func openSafeLibs(L *lua.LState) {
	// Base library (print, type, tostring, tonumber, pairs, ipairs, etc.)
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
}

// sandbox removes globals that reach outside the package.
func sandbox(L *lua.LState) {
	dangerous := []string{
		"dofile", "loadfile", "load", "loadstring", "require", "module",
		"rawset", "rawget", "rawequal",
		"collectgarbage",
	}
	for _, name := range dangerous {
		L.SetGlobal(name, lua.LNil)
	}
}
