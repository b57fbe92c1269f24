// Package types defines the shared data structures for the quest rule engine.
// This package contains only type definitions: no logic, no methods.
package types

// Category is the kind of a directive. The same local name may exist in
// more than one category without collision.
type Category string

const (
	CategoryCondition Category = "condition"
	CategoryEvent     Category = "event"
	CategoryObjective Category = "objective"
)

// Directive is a named, categorized definition loaded from a package.
type Directive struct {
	Name        string // qualified: "<package>.<local>"
	Package     string
	Category    Category
	Instruction string // raw instruction body, first token is the type tag
}

// Package holds the raw instruction text of every definition in one
// namespace, keyed by local (unqualified) name.
type Package struct {
	Name       string
	Conditions map[string]string
	Events     map[string]string
	Objectives map[string]string
}

// ActorState is the host-side data of one actor that built-in conditions
// and events read and mutate.
type ActorState struct {
	Tags   []string       `json:"tags"`
	Points map[string]int `json:"points"`
}

// ActorRecord is everything persisted for one actor: host data plus the
// serialized progress of each objective it holds, keyed by qualified name.
type ActorRecord struct {
	ActorState
	Objectives map[string]string `json:"objectives"`
}
