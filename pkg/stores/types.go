package stores

import "time"

// RunStatus is the recorded outcome of one plan application.
type RunStatus string

const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded plan application.
type Run struct {
	ID         string
	PlanID     string
	Status     RunStatus
	StartedAt  time.Time
	DurationMS int64
	Succeeded  int
	Failed     int
	Skipped    int
	CreatedAt  time.Time
}

// RunAction is one action's recorded outcome within a run.
type RunAction struct {
	RunID      string
	Seq        int
	Kind       string
	Package    string
	Service    string
	Target     string
	Status     string
	Error      string
	Reason     string
	DurationMS int64
}

// TrackedFile is a configuration target the tool wrote, with the hash
// of the content it last put there.
type TrackedFile struct {
	Target    string
	Package   string
	Slot      string
	Hash      string
	UpdatedAt time.Time
}

// Pin marks an installed package that removal planning must leave
// alone.
type Pin struct {
	Name      string
	Reason    string
	CreatedAt time.Time
}
