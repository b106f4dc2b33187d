package engine

import (
	"sync"

	"github.com/vk/pipegrid/internal/matrix"
)

// JobState is the live scheduling state of one job, as reported by the
// status server. Distinct from Status: a job is Pending or Running before it
// has any outcome at all.
type JobState string

const (
	StatePending   JobState = "pending"
	StateRunning   JobState = "running"
	StateSucceeded JobState = "succeeded"
	StateFailed    JobState = "failed"
)

// Progress tracks per-job state across the worker pool. All methods are safe
// for concurrent use; Snapshot returns a copy so readers never observe a
// partially updated view.
type Progress struct {
	mu     sync.RWMutex
	order  []string
	states map[string]JobState
}

func newProgress() *Progress {
	return &Progress{states: make(map[string]JobState)}
}

func (p *Progress) register(specs []*matrix.JobSpec) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.order = make([]string, 0, len(specs))
	for _, s := range specs {
		p.order = append(p.order, s.ID())
		p.states[s.ID()] = StatePending
	}
}

func (p *Progress) start(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.states[id] = StateRunning
}

func (p *Progress) finish(id string, status Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if status == Success {
		p.states[id] = StateSucceeded
	} else {
		p.states[id] = StateFailed
	}
}

// JobProgress is one row of a progress snapshot.
type JobProgress struct {
	Job   string   `json:"job"`
	State JobState `json:"state"`
}

// Snapshot returns the current state of every job in expansion order.
func (p *Progress) Snapshot() []JobProgress {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]JobProgress, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, JobProgress{Job: id, State: p.states[id]})
	}
	return out
}
