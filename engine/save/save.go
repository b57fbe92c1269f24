// Package save implements JSON serialization and deserialization of every
// online actor's host data and objective progress.
package save

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/nathoo/questrules/types"
)

// FormatVersion is written into every snapshot.
const FormatVersion = "1"

// SaveData is the JSON-serializable snapshot format.
type SaveData struct {
	Version string                       `json:"version"`
	Actors  map[string]types.ActorRecord `json:"actors"`
}

// Source provides the records to snapshot.
type Source interface {
	Records() map[string]types.ActorRecord
}

// Target accepts restored records, returning one error per objective it
// had to drop.
type Target interface {
	Restore(actor string, rec types.ActorRecord) []error
}

// Save serializes every record of src to JSON bytes.
func Save(src Source) ([]byte, error) {
	data := SaveData{
		Version: FormatVersion,
		Actors:  src.Records(),
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into SaveData.
func Load(data []byte) (*SaveData, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	if sd.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported snapshot version %q", sd.Version)
	}
	// Ensure maps are never nil after load.
	if sd.Actors == nil {
		sd.Actors = map[string]types.ActorRecord{}
	}
	for id, rec := range sd.Actors {
		if rec.Tags == nil {
			rec.Tags = []string{}
		}
		if rec.Points == nil {
			rec.Points = map[string]int{}
		}
		if rec.Objectives == nil {
			rec.Objectives = map[string]string{}
		}
		sd.Actors[id] = rec
	}
	return &sd, nil
}

// Apply restores every actor of sd onto dst in name order and returns the
// errors of every dropped objective.
func Apply(dst Target, sd *SaveData) []error {
	ids := make([]string, 0, len(sd.Actors))
	for id := range sd.Actors {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		errs = append(errs, dst.Restore(id, sd.Actors[id])...)
	}
	return errs
}
