package save

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/nathoo/questrules/types"
)

type records map[string]types.ActorRecord

func (r records) Records() map[string]types.ActorRecord { return r }

// target records restores and drops objectives named "bad".
type target struct {
	order []string
	got   map[string]types.ActorRecord
}

func (t *target) Restore(actor string, rec types.ActorRecord) []error {
	t.order = append(t.order, actor)
	if t.got == nil {
		t.got = map[string]types.ActorRecord{}
	}
	t.got[actor] = rec
	if _, ok := rec.Objectives["bad"]; ok {
		return []error{errors.New("bad objective")}
	}
	return nil
}

func TestRoundTrip(t *testing.T) {
	src := records{
		"steve": {
			ActorState: types.ActorState{Tags: []string{"alive", "cured"}, Points: map[string]int{"gold": 12}},
			Objectives: map[string]string{"quest1.hunt": "3", "quest1.arrive": ""},
		},
		"alex": {
			ActorState: types.ActorState{Tags: []string{}, Points: map[string]int{}},
			Objectives: map[string]string{},
		},
	}

	data, err := Save(src)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	sd, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	dst := &target{}
	if errs := Apply(dst, sd); len(errs) != 0 {
		t.Fatalf("Apply errors: %v", errs)
	}
	if !reflect.DeepEqual(dst.order, []string{"alex", "steve"}) {
		t.Errorf("expected actors restored in name order, got %v", dst.order)
	}
	if !reflect.DeepEqual(map[string]types.ActorRecord(src), dst.got) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", dst.got, src)
	}
}

func TestSave_ProducesValidJSON(t *testing.T) {
	data, err := Save(records{})
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !json.Valid(data) {
		t.Fatal("Save output is not valid JSON")
	}

	var raw map[string]any
	json.Unmarshal(data, &raw)
	if raw["version"] != FormatVersion {
		t.Errorf("expected version %q, got %v", FormatVersion, raw["version"])
	}
}

func TestLoad_MissingOptionalFields(t *testing.T) {
	data := []byte(`{"version":"1","actors":{"steve":{"tags":null}}}`)

	sd, err := Load(data)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	rec := sd.Actors["steve"]
	if rec.Tags == nil {
		t.Error("expected non-nil tags")
	}
	if rec.Points == nil {
		t.Error("expected non-nil points")
	}
	if rec.Objectives == nil {
		t.Error("expected non-nil objectives")
	}

	sd, err = Load([]byte(`{"version":"1"}`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if sd.Actors == nil {
		t.Error("expected non-nil actors")
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{`},
		{"missing version", `{"actors":{}}`},
		{"future version", `{"version":"9","actors":{}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load([]byte(tt.data)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestApply_CollectsDroppedObjectives(t *testing.T) {
	sd := &SaveData{Version: FormatVersion, Actors: map[string]types.ActorRecord{
		"a": {Objectives: map[string]string{"bad": "x"}},
		"b": {Objectives: map[string]string{"ok": ""}},
		"c": {Objectives: map[string]string{"bad": "y"}},
	}}
	dst := &target{}
	if errs := Apply(dst, sd); len(errs) != 2 {
		t.Errorf("expected 2 errors, got %v", errs)
	}
	if len(dst.got) != 3 {
		t.Errorf("expected every actor restored, got %d", len(dst.got))
	}
}
