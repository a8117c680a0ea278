package types

import "golang.org/x/exp/slices"

// MaxBackups is the number of previous consistent checkpoints kept for
// fallback.
const MaxBackups = 5

// CheckpointRecord is the controller's view of which checkpoints are
// globally consistent. Records are values: a commit builds a new one.
type CheckpointRecord struct {
	MostRecent CheckpointID   `json:"most_recent"`
	Backups    []CheckpointID `json:"backups,omitempty"`
}

// Add returns the record that results from committing id. The current
// MostRecent moves to the front of the backups, and the oldest backup is
// dropped once the chain is full.
func (r CheckpointRecord) Add(id CheckpointID) CheckpointRecord {
	if id == r.MostRecent {
		return r.Clone()
	}
	backups := make([]CheckpointID, 0, MaxBackups)
	if !r.MostRecent.IsEmpty() {
		backups = append(backups, r.MostRecent)
	}
	for _, b := range r.Backups {
		if len(backups) == MaxBackups {
			break
		}
		if b == id || slices.Contains(backups, b) {
			continue
		}
		backups = append(backups, b)
	}
	if len(backups) == 0 {
		backups = nil
	}
	return CheckpointRecord{
		MostRecent: id,
		Backups:    backups,
	}
}

// NextFallback returns the id to try after failed could not be restored.
// The empty id is returned both when the chain is exhausted and when failed
// is unknown to the record.
func (r CheckpointRecord) NextFallback(failed CheckpointID) CheckpointID {
	if !failed.IsEmpty() && failed == r.MostRecent {
		if len(r.Backups) > 0 {
			return r.Backups[0]
		}
		return EmptyCheckpointID
	}
	if i := slices.Index(r.Backups, failed); i >= 0 && i+1 < len(r.Backups) {
		return r.Backups[i+1]
	}
	return EmptyCheckpointID
}

func (r CheckpointRecord) IsEmpty() bool {
	return r.MostRecent.IsEmpty() && len(r.Backups) == 0
}

func (r CheckpointRecord) Clone() CheckpointRecord {
	return CheckpointRecord{
		MostRecent: r.MostRecent,
		Backups:    slices.Clone(r.Backups),
	}
}
