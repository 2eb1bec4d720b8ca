package audit

import (
	"time"
)

// Statuses a privileged tool invocation can end with.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusBlocked = "blocked"
)

// Record is one audit trail entry, serialized as a single JSON line.
// Records are immutable once appended; the log itself never updates or
// deletes them.
//
// Command holds the text as submitted (or its sanitized form when full
// command logging is disabled); CommandSanitized is always the PII-redacted
// form and is the only field ever exported. Secret redaction is a separate,
// model-facing concern and is never applied here.
type Record struct {
	Timestamp        time.Time `json:"ts"`
	SessionID        string    `json:"sid"`
	Tool             string    `json:"tool"`
	Command          string    `json:"cmd"`
	CommandSanitized string    `json:"cmd_sanitized"`
	CommandHash      string    `json:"cmd_hash"`
	Status           string    `json:"status"`
	DurationMS       int64     `json:"duration_ms,omitempty"`
	Error            string    `json:"error,omitempty"`
	BlockReason      string    `json:"block_reason,omitempty"`
	Bytes            int       `json:"bytes,omitempty"`
	Lines            int       `json:"lines,omitempty"`
}

// Extra carries the optional fields of a Record.
type Extra struct {
	Duration    time.Duration
	Error       string
	BlockReason string
	Bytes       int
	Lines       int
}

// Filter narrows a Query. Zero values mean "no constraint". Filters apply
// in the order tool, status, since, lastN; lastN always runs last and takes
// the most recent N entries of the already-filtered result.
type Filter struct {
	Tool   string
	Status string
	Since  time.Time
	LastN  int
}

// Stats aggregates the whole audit trail.
type Stats struct {
	TotalEntries int
	First        time.Time
	Last         time.Time
	ByTool       map[string]int
	ByStatus     map[string]int
	BySession    map[string]int
}
