// Package status provides a thread-safe status tracker for the soil-sensor daemon.
// It is written by the cycle controller and read by the HTTP status page.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/soil-sensor/internal/logic"
)

// DefaultHistory is the number of recent cycle records kept in memory.
const DefaultHistory = 24

// Phase is the duty-cycle phase the controller is in.
type Phase string

const (
	PhaseActive     Phase = "ACTIVE"
	PhaseSleeping   Phase = "SLEEPING"
	PhaseRecovering Phase = "RECOVERING"
)

// Outcome is how a cycle ended.
type Outcome string

const (
	OutcomeRecorded         Outcome = "RECORDED"
	OutcomeNoSamples        Outcome = "NO_SAMPLES"
	OutcomePersistenceFault Outcome = "PERSISTENCE_FAULT"
	OutcomeUnexpectedFault  Outcome = "UNEXPECTED_FAULT"
)

// Counts tracks cycle outcomes since startup.
type Counts struct {
	Cycles            int
	Recorded          int
	NoSamples         int
	PersistenceFaults int
	UnexpectedFaults  int
}

// NetworkInfo describes the host network as reported by pi-helper.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Mode        string
	WindowMs    int64
	IntervalMs  int64
	SleepMs     int64
	Profile     logic.Profile
	LogPath     string
	CounterPath string
	HTTPAddr    string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Phase       Phase
	LastCycle   uint64
	LastOutcome Outcome
	LastError   string
	Last        *logic.CycleRecord
	Recent      []logic.CycleRecord // oldest first
	Counts      Counts
	Network     *NetworkInfo
	StartTime   time.Time
	Now         time.Time
	Config      Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu     sync.RWMutex
	snap   Snapshot
	recent *recordRing
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		recent: newRecordRing(DefaultHistory),
	}
}

// Seed preloads recent history, e.g. the tail of the log at startup.
func (t *Tracker) Seed(records []logic.CycleRecord) {
	t.mu.Lock()
	for _, rec := range records {
		t.recent.push(rec)
	}
	if n := len(records); n > 0 {
		last := records[n-1]
		t.snap.Last = &last
		t.snap.LastCycle = last.Cycle
	}
	t.mu.Unlock()
}

// SetPhase records the current duty-cycle phase.
func (t *Tracker) SetPhase(p Phase) {
	t.mu.Lock()
	t.snap.Phase = p
	t.mu.Unlock()
}

// SetNetwork records the latest network info. Nil clears it.
func (t *Tracker) SetNetwork(n *NetworkInfo) {
	t.mu.Lock()
	if n != nil {
		c := *n
		n = &c
	}
	t.snap.Network = n
	t.mu.Unlock()
}

// CycleDone records the outcome of one cycle. rec is nil unless the outcome
// is OutcomeRecorded; err is nil for OutcomeRecorded.
func (t *Tracker) CycleDone(cycle uint64, outcome Outcome, rec *logic.CycleRecord, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.snap.Counts.Cycles++
	if cycle != 0 {
		t.snap.LastCycle = cycle
	}
	t.snap.LastOutcome = outcome
	t.snap.LastError = ""
	if err != nil {
		t.snap.LastError = err.Error()
	}

	switch outcome {
	case OutcomeRecorded:
		t.snap.Counts.Recorded++
	case OutcomeNoSamples:
		t.snap.Counts.NoSamples++
	case OutcomePersistenceFault:
		t.snap.Counts.PersistenceFaults++
	case OutcomeUnexpectedFault:
		t.snap.Counts.UnexpectedFaults++
	}

	if rec != nil {
		r := *rec
		t.snap.Last = &r
		t.recent.push(r)
	}
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	if s.Last != nil {
		last := *s.Last
		s.Last = &last
	}
	if s.Network != nil {
		net := *s.Network
		s.Network = &net
	}
	s.Recent = t.recent.items()
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
