package loader

import (
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/nathoo/questrules/types"
)

// yamlFile is the layout of a *.yml package file.
type yamlFile struct {
	Conditions map[string]string `yaml:"conditions"`
	Events     map[string]string `yaml:"events"`
	Objectives map[string]string `yaml:"objectives"`
}

// readYAML adds every definition of a YAML file to coll, sorted by name
// within each category.
func readYAML(path string, coll *collector) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return err
	}
	addSorted(coll, types.CategoryCondition, f.Conditions)
	addSorted(coll, types.CategoryEvent, f.Events)
	addSorted(coll, types.CategoryObjective, f.Objectives)
	return nil
}

func addSorted(coll *collector, cat types.Category, defs map[string]string) {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		coll.add(cat, name, defs[name])
	}
}
