// Package models defines the entities persisted in the client's local store:
// offline submissions and their binary assets, pending grade edits, cached
// reference data, the mirror of server-owned submissions, and the session.
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// RefKind tags a RecordRef as pointing at a locally created submission or a
// server-owned one.
type RefKind string

const (
	RefLocal  RefKind = "local"
	RefRemote RefKind = "remote"
)

// RecordRef identifies the owner of a pending grade edit. A submission that
// has not reached the server yet is addressed by its correlation id; a
// server-owned submission by its server id. The tagged form replaces any
// sentinel-value convention (e.g. negative ids) for "offline-only" records.
type RecordRef struct {
	Kind          RefKind
	CorrelationID string
	ServerID      int64
}

// LocalRef returns a reference to a not-yet-synced submission.
func LocalRef(correlationID string) RecordRef {
	return RecordRef{Kind: RefLocal, CorrelationID: correlationID}
}

// RemoteRef returns a reference to a server-owned submission.
func RemoteRef(serverID int64) RecordRef {
	return RecordRef{Kind: RefRemote, ServerID: serverID}
}

// Key returns the stable string encoding used as the composite-key owner
// column in the pending grades table: "local:<uuid>" or "remote:<id>".
func (r RecordRef) Key() string {
	if r.Kind == RefLocal {
		return string(RefLocal) + ":" + r.CorrelationID
	}
	return string(RefRemote) + ":" + strconv.FormatInt(r.ServerID, 10)
}

// ParseRef decodes the string form produced by Key.
func ParseRef(s string) (RecordRef, error) {
	kind, rest, ok := strings.Cut(s, ":")
	if !ok {
		return RecordRef{}, fmt.Errorf("invalid record ref: %q", s)
	}
	switch RefKind(kind) {
	case RefLocal:
		if rest == "" {
			return RecordRef{}, fmt.Errorf("invalid record ref: %q", s)
		}
		return LocalRef(rest), nil
	case RefRemote:
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil {
			return RecordRef{}, fmt.Errorf("invalid record ref %q: %w", s, err)
		}
		return RemoteRef(id), nil
	default:
		return RecordRef{}, fmt.Errorf("invalid record ref kind: %q", s)
	}
}
