// Package model contains domain models passed between layers.
package model

import "time"

// Change reasons carried by Change.Reason.
const (
	ReasonVote  = "vote"
	ReasonReset = "reset"
)

// Change notifies render subscribers that the sheet moved to a new revision.
// Subscribers pull the snapshot for that revision; the change carries no data.
type Change struct {
	Revision uint64    // monotonically increasing sheet revision
	Reason   string    // ReasonVote or ReasonReset
	At       time.Time // when the mutation completed
}
