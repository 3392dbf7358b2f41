package app

import "time"

// Operation tracks the CLI command being run. Its ID tags every log line
// written while the command runs.
type Operation struct {
	ID        string
	Name      string
	StartedAt time.Time
	Status    string // "success" or "error"
}

// NewOperation creates an operation named after the command, e.g. "EntryAdd".
func NewOperation(name string, startedAt time.Time) *Operation {
	return &Operation{
		ID:        name + "-" + startedAt.UTC().Format("20060102T150405Z"),
		Name:      name,
		StartedAt: startedAt,
		Status:    "success",
	}
}

// Fail marks the operation as failed.
func (op *Operation) Fail() { op.Status = "error" }

// Failed reports whether Fail was called.
func (op *Operation) Failed() bool {
	return op.Status == "error"
}
