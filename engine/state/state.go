// Package state is the in-memory host actor directory: the tags and points
// built-in conditions read and built-in events mutate.
package state

import (
	"sort"
	"sync"

	"github.com/nathoo/questrules/types"
)

type actor struct {
	tags   map[string]bool
	points map[string]int
}

// Directory holds per-actor host data. Unknown actors behave as empty.
type Directory struct {
	mu     sync.RWMutex
	actors map[string]*actor
}

// NewDirectory creates an empty directory.
func NewDirectory() *Directory {
	return &Directory{actors: map[string]*actor{}}
}

// get returns the actor record, creating it. Caller holds the write lock.
func (d *Directory) get(id string) *actor {
	a, ok := d.actors[id]
	if !ok {
		a = &actor{tags: map[string]bool{}, points: map[string]int{}}
		d.actors[id] = a
	}
	return a
}

// HasTag returns true if the actor carries tag.
func (d *Directory) HasTag(id, tag string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	a, ok := d.actors[id]
	return ok && a.tags[tag]
}

// AddTag gives the actor tag.
func (d *Directory) AddTag(id, tag string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.get(id).tags[tag] = true
}

// RemoveTag removes tag from the actor. Absent tags are ignored.
func (d *Directory) RemoveTag(id, tag string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if a, ok := d.actors[id]; ok {
		delete(a.tags, tag)
	}
}

// Points returns the actor's points in category. Unset categories return 0.
func (d *Directory) Points(id, category string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if a, ok := d.actors[id]; ok {
		return a.points[category]
	}
	return 0
}

// AddPoints adds amount (possibly negative) to category and returns the
// new total.
func (d *Directory) AddPoints(id, category string, amount int) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	a := d.get(id)
	a.points[category] += amount
	return a.points[category]
}

// Snapshot returns a copy of the actor's data with tags sorted.
func (d *Directory) Snapshot(id string) types.ActorState {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st := types.ActorState{Tags: []string{}, Points: map[string]int{}}
	a, ok := d.actors[id]
	if !ok {
		return st
	}
	for tag := range a.tags {
		st.Tags = append(st.Tags, tag)
	}
	sort.Strings(st.Tags)
	for cat, n := range a.points {
		st.Points[cat] = n
	}
	return st
}

// Restore replaces the actor's data with st.
func (d *Directory) Restore(id string, st types.ActorState) {
	a := &actor{tags: map[string]bool{}, points: map[string]int{}}
	for _, tag := range st.Tags {
		a.tags[tag] = true
	}
	for cat, n := range st.Points {
		a.points[cat] = n
	}
	d.mu.Lock()
	d.actors[id] = a
	d.mu.Unlock()
}

// Forget drops the actor's data.
func (d *Directory) Forget(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.actors, id)
}

// Actors returns the IDs of every actor with data, sorted.
func (d *Directory) Actors() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	ids := make([]string, 0, len(d.actors))
	for id := range d.actors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
