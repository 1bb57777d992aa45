package model

import "time"

// Outcome records what happened to one candidate ruling ID.
type Outcome string

// Fetch outcomes.
const (
	OutcomeStored     Outcome = "stored"
	OutcomeShort      Outcome = "short"
	OutcomeHTTPStatus Outcome = "http_status"
	OutcomeNetwork    Outcome = "network"
)

// CursorState is the persisted position of the ID sweep for one prefix.
type CursorState struct {
	UpdatedAt   time.Time
	Prefix      string
	LastOutcome Outcome
	LastNumber  int
}
