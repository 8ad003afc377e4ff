package pipeline

import (
	"sync"
	"time"
)

// Stage describes a step applied to one form file.
type Stage string

const (
	StageRead     Stage = "read"
	StageStrip    Stage = "strip"
	StageSnapshot Stage = "snapshot"
	StageAttach   Stage = "attach"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for a file, or for the whole run when File is empty.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent use; workers report from their own goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// Mode selects how far each file is taken.
type Mode string

const (
	// ModeCheck reads and strips, reporting invariant and consistency errors.
	ModeCheck Mode = "check"
	// ModeStrip additionally stores a snapshot of the stripped form.
	ModeStrip Mode = "strip"
	// ModeRoundTrip strips, reattaches and compares with the input.
	ModeRoundTrip Mode = "roundtrip"
)

// Stages returns the stages a mode runs, in order.
func (m Mode) Stages() []Stage {
	switch m {
	case ModeStrip:
		return []Stage{StageRead, StageStrip, StageSnapshot}
	case ModeRoundTrip:
		return []Stage{StageRead, StageStrip, StageAttach}
	}
	return []Stage{StageRead, StageStrip}
}

// Timings holds stage durations.
type Timings struct {
	mu     sync.Mutex
	stages map[Stage]time.Duration
}

// Add accumulates dur into stage.
func (t *Timings) Add(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
	t.stages[stage] += dur
}

func (t *Timings) Has(stage Stage) bool {
	if t == nil {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.stages[stage]
	return ok
}

func (t *Timings) Duration(stage Stage) time.Duration {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t *Timings) Sum(stages ...Stage) time.Duration {
	if t == nil {
		return 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
