package models

import "time"

// PendingGrade is a local mark awarded to a single answer, waiting to be
// pushed. At most one pending value exists per (owner, field) key: a later
// edit supersedes an earlier unsynced one in place.
type PendingGrade struct {
	Owner     RecordRef
	FieldID   string
	Marks     float64
	Complete  bool // completion-status hint for the owning submission
	Synced    bool
	UpdatedAt time.Time
}
