package limits

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Record is the persisted classification state for one datasource. It lives
// in its own file under the state directory and survives restarts.
type Record struct {
	State State `json:"state"`

	// Value is the sample that produced the state, nil when it was
	// unknown.
	Value *float64 `json:"value,omitempty"`

	// Unknowns counts consecutive missing samples.
	Unknowns int `json:"unknowns"`

	// Updated is the unix time of the last evaluation.
	Updated int64 `json:"updated"`
}

// initialRecord is what an absent or unreadable record decays to: nothing
// is known about the datasource yet.
func initialRecord() Record {
	return Record{State: StateUnknown}
}

func (e *Evaluator) recordPath(id string) string {
	return filepath.Join(e.stateDir, id+".json")
}

// loadRecord reads the persisted record for id. A record that is absent,
// unparsable or carries an invalid state label is replaced by the initial
// record; corruption self-heals on the next save.
func (e *Evaluator) loadRecord(id string) Record {
	data, err := os.ReadFile(e.recordPath(id))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			e.log.Warn("unreadable state record", "datasource", id, "err", err)
		}
		return initialRecord()
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		e.log.Warn("corrupt state record", "datasource", id, "err", err)
		return initialRecord()
	}
	if !rec.State.valid() {
		e.log.Warn("corrupt state record", "datasource", id, "state", string(rec.State))
		return initialRecord()
	}
	if rec.Unknowns < 0 {
		rec.Unknowns = 0
	}
	return rec
}

// saveRecord overwrites the record for id atomically.
func (e *Evaluator) saveRecord(id string, rec Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state record: %w", err)
	}
	path := e.recordPath(id)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write state record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write state record: %w", err)
	}
	return nil
}
