package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nathoo/questrules/engine"
	"github.com/nathoo/questrules/types"
)

var _ engine.Store = (*Store)(nil)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "questrules.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLoadActor_Unknown(t *testing.T) {
	s := openTemp(t)

	rec, err := s.LoadActor(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, rec.Tags)
	assert.NotNil(t, rec.Tags)
	assert.NotNil(t, rec.Points)
	assert.NotNil(t, rec.Objectives)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	want := types.ActorRecord{
		ActorState: types.ActorState{
			Tags:   []string{"alive", "cured"},
			Points: map[string]int{"gold": 12, "debt": -3},
		},
		Objectives: map[string]string{"quest1.hunt": "2", "quest1.arrive": ""},
	}
	require.NoError(t, s.SaveActor(ctx, "steve", want))

	got, err := s.LoadActor(ctx, "steve")
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSaveActor_Replaces(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.SaveActor(ctx, "steve", types.ActorRecord{
		ActorState: types.ActorState{Tags: []string{"old"}, Points: map[string]int{"gold": 1}},
		Objectives: map[string]string{"quest1.hunt": "2"},
	}))
	require.NoError(t, s.SaveActor(ctx, "steve", types.ActorRecord{
		ActorState: types.ActorState{Tags: []string{"new"}},
	}))

	got, err := s.LoadActor(ctx, "steve")
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, got.Tags)
	assert.Empty(t, got.Points)
	assert.Empty(t, got.Objectives)
}

func TestActorsAndHolders(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	require.NoError(t, s.SaveActor(ctx, "steve", types.ActorRecord{
		Objectives: map[string]string{"quest1.hunt": "2"},
	}))
	require.NoError(t, s.SaveActor(ctx, "alex", types.ActorRecord{
		ActorState: types.ActorState{Tags: []string{"x"}},
		Objectives: map[string]string{"quest1.hunt": "1", "quest1.arrive": ""},
	}))
	require.NoError(t, s.SaveActor(ctx, "zed", types.ActorRecord{
		ActorState: types.ActorState{Points: map[string]int{"gold": 5}},
	}))

	actors, err := s.Actors(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alex", "steve", "zed"}, actors)

	holders, err := s.Holders(ctx, "quest1.hunt")
	require.NoError(t, err)
	assert.Equal(t, []string{"alex", "steve"}, holders)
}

func TestInMemory(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	require.NoError(t, s.SaveActor(ctx, "steve", types.ActorRecord{
		ActorState: types.ActorState{Tags: []string{"alive"}},
	}))
	got, err := s.LoadActor(ctx, "steve")
	require.NoError(t, err)
	assert.Equal(t, []string{"alive"}, got.Tags)
}

func TestEngineIntegration(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()

	e := engine.New(engine.Options{Store: s})
	require.Empty(t, e.Load([]types.Package{{
		Name:       "quest1",
		Objectives: map[string]string{"hunt": "count kill 3"},
	}}))

	require.NoError(t, e.Join(ctx, "steve"))
	require.NoError(t, e.Assign(ctx, "steve", "quest1.hunt"))
	e.Trigger(ctx, "steve", "kill")
	require.NoError(t, e.Leave(ctx, "steve"))

	saved, err := s.LoadActor(ctx, "steve")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"quest1.hunt": "2"}, saved.Objectives)

	require.NoError(t, e.Join(ctx, "steve"))
	assert.True(t, e.Objectives.HasObjective("steve", "quest1.hunt"))
}
