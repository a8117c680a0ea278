package types

import (
	"fmt"
	"strconv"
	"strings"
)

// CheckpointID identifies one checkpoint across the topology. Ids minted by
// NewCheckpointID are fixed width, so byte order is the generation/sequence
// order. The empty id means "from scratch".
type CheckpointID string

// EmptyCheckpointID is the from-scratch sentinel.
const EmptyCheckpointID CheckpointID = ""

const (
	generationWidth = 20
	sequenceWidth   = 10
)

// NewCheckpointID mints the id for the given controller generation and
// sequence number within that generation.
func NewCheckpointID(generation uint64, sequence uint32) CheckpointID {
	return CheckpointID(fmt.Sprintf("%0*d-%0*d", generationWidth, generation, sequenceWidth, sequence))
}

// ParseCheckpointID validates an id read from the wire or a config file.
func ParseCheckpointID(s string) (CheckpointID, error) {
	if len(s) == 0 {
		return EmptyCheckpointID, nil
	}
	gen, seq, ok := strings.Cut(s, "-")
	if !ok || len(gen) != generationWidth || len(seq) != sequenceWidth {
		return EmptyCheckpointID, fmt.Errorf("malformed checkpoint id %q", s)
	}
	if _, err := strconv.ParseUint(gen, 10, 64); err != nil {
		return EmptyCheckpointID, fmt.Errorf("malformed checkpoint generation %q: %w", s, err)
	}
	if _, err := strconv.ParseUint(seq, 10, 32); err != nil {
		return EmptyCheckpointID, fmt.Errorf("malformed checkpoint sequence %q: %w", s, err)
	}
	return CheckpointID(s), nil
}

func (c CheckpointID) IsEmpty() bool {
	return len(c) == 0
}

// Newer reports whether c was minted after other. Any id is newer than the
// empty one.
func (c CheckpointID) Newer(other CheckpointID) bool {
	return c > other
}

// Generation returns the generation part of the id, 0 for the empty id or
// for ids not minted by NewCheckpointID.
func (c CheckpointID) Generation() uint64 {
	gen, _, _ := strings.Cut(string(c), "-")
	g, _ := strconv.ParseUint(gen, 10, 64)
	return g
}

func (c CheckpointID) String() string {
	if c.IsEmpty() {
		return "<from-scratch>"
	}
	return string(c)
}

// TaskID identifies one running instance of a topology component.
type TaskID int32

// WorkerGroupID identifies the process hosting a subset of the tasks.
type WorkerGroupID string

// TxID numbers restore transactions. It only ever grows.
type TxID int64
