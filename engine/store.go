package engine

import (
	"context"
	"sync"

	"github.com/nathoo/questrules/types"
)

// MemoryStore keeps actor records in memory. Unknown actors load as empty
// records.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]types.ActorRecord
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]types.ActorRecord{}}
}

// LoadActor returns a copy of the actor's saved record.
func (s *MemoryStore) LoadActor(_ context.Context, actor string) (types.ActorRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyRecord(s.records[actor]), nil
}

// SaveActor stores a copy of rec.
func (s *MemoryStore) SaveActor(_ context.Context, actor string, rec types.ActorRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[actor] = copyRecord(rec)
	return nil
}

func copyRecord(rec types.ActorRecord) types.ActorRecord {
	out := types.ActorRecord{
		ActorState: types.ActorState{
			Tags:   append([]string{}, rec.Tags...),
			Points: make(map[string]int, len(rec.Points)),
		},
		Objectives: make(map[string]string, len(rec.Objectives)),
	}
	for k, v := range rec.Points {
		out.Points[k] = v
	}
	for k, v := range rec.Objectives {
		out.Objectives[k] = v
	}
	return out
}
