// Package subagent coordinates concurrently running subordinate agents. The
// Supervisor owns one goroutine per spawned unit, hands out uuid handles, and
// answers status and cancellation requests against those handles. Results
// only ever reach the parent conversation through tool results; sub-agents
// never write into the parent transcript themselves.
package subagent

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentloop/agentloop/logging"
)

// Status of a spawned unit.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// ErrNotFound is returned for agent ids the supervisor has never issued or
// whose terminal record has been evicted.
var ErrNotFound = errors.New("sub-agent not found")

// Record is the externally visible state of a unit.
type Record struct {
	AgentID string
	Status  Status
	Result  string
	Err     string
}

// Terminal reports whether the record can no longer change.
func (r Record) Terminal() bool { return r.Status != StatusRunning }

// SpawnParams describes one unit of work. Empty Provider/Model/Tools mean
// the runner should fall back to whatever the parent uses.
type SpawnParams struct {
	Prompt     string
	WorkingDir string
	Tools      []string
	Provider   string
	Model      string
	Wait       bool
}

// RunFunc executes one sub-agent task to completion. The supervisor cancels
// the passed context to stop the unit; implementations are expected to honor
// it promptly.
type RunFunc func(ctx context.Context, params SpawnParams) (string, error)

// Options configures a Supervisor.
type Options struct {
	Logger logging.Logger

	// Grace bounds how long Cancel and CleanupAll wait for a unit to honor
	// its cancelled context before the record is force-reclassified.
	Grace time.Duration
}

// Supervisor tracks spawned units. Safe for concurrent use.
type Supervisor struct {
	run    RunFunc
	logger logging.Logger
	grace  time.Duration

	mu         sync.Mutex
	units      map[string]*unit
	tombstones map[string]Record
}

type unit struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	// record is written once by the runner goroutine before done is closed
	// and read only after done is closed.
	record Record
}

// NewSupervisor builds a supervisor around a runner. Default grace is 5s.
func NewSupervisor(run RunFunc, optFns ...func(o *Options)) *Supervisor {
	opts := Options{
		Logger: logging.NewNopLogger(),
		Grace:  5 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Supervisor{
		run:        run,
		logger:     opts.Logger,
		grace:      opts.Grace,
		units:      make(map[string]*unit),
		tombstones: make(map[string]Record),
	}
}

// Spawn launches a new unit. With Wait unset it returns immediately with a
// running record; with Wait set it blocks until the unit settles (or the
// caller's context is cancelled) and returns the terminal record.
//
// The unit's context is detached from the caller's: a caller that moves on
// does not tear down the unit, only Cancel and CleanupAll do.
func (s *Supervisor) Spawn(ctx context.Context, params SpawnParams) (Record, error) {
	id := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	u := &unit{id: id, cancel: cancel, done: make(chan struct{})}

	s.mu.Lock()
	s.units[id] = u
	s.mu.Unlock()

	s.logger.Info("sub-agent spawned", "agent_id", id, "wait", params.Wait)

	go func() {
		defer cancel()
		result, err := s.run(runCtx, params)
		switch {
		case err == nil:
			u.record = Record{AgentID: id, Status: StatusCompleted, Result: result}
		case errors.Is(err, context.Canceled):
			u.record = Record{AgentID: id, Status: StatusCancelled, Err: err.Error()}
		default:
			u.record = Record{AgentID: id, Status: StatusFailed, Err: err.Error()}
		}
		close(u.done)
		s.logger.Info("sub-agent settled", "agent_id", id, "status", string(u.record.Status))
	}()

	if !params.Wait {
		return Record{AgentID: id, Status: StatusRunning}, nil
	}

	select {
	case <-u.done:
		return s.reap(u), nil
	case <-ctx.Done():
		// The unit keeps running; its record stays reachable via Status.
		return Record{AgentID: id, Status: StatusRunning}, ctx.Err()
	}
}

// Status reports the current record for an id. The first observation of a
// terminal record moves it out of active tracking; subsequent calls return
// the same record from the retained terminal set, so repeated polling is
// idempotent.
func (s *Supervisor) Status(id string) (Record, error) {
	s.mu.Lock()
	u, live := s.units[id]
	if !live {
		rec, dead := s.tombstones[id]
		s.mu.Unlock()
		if dead {
			return rec, nil
		}
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.mu.Unlock()

	select {
	case <-u.done:
		return s.reap(u), nil
	default:
		return Record{AgentID: id, Status: StatusRunning}, nil
	}
}

// Cancel asks a running unit to stop and waits up to the grace period for it
// to settle. A unit that ignores its context past the grace period is
// force-reclassified as cancelled and dropped from active tracking. Already
// terminal units return their record unchanged.
func (s *Supervisor) Cancel(id string) (Record, error) {
	s.mu.Lock()
	u, live := s.units[id]
	if !live {
		rec, dead := s.tombstones[id]
		s.mu.Unlock()
		if dead {
			return rec, nil
		}
		return Record{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.mu.Unlock()

	s.logger.Info("sub-agent cancel requested", "agent_id", id)
	return s.stop(u), nil
}

// CleanupAll cancels every still-running unit and waits for each to settle
// within the grace period. Terminal records remain observable afterwards.
func (s *Supervisor) CleanupAll() {
	s.mu.Lock()
	units := make([]*unit, 0, len(s.units))
	for _, u := range s.units {
		units = append(units, u)
	}
	s.mu.Unlock()

	var wg sync.WaitGroup
	for _, u := range units {
		wg.Add(1)
		go func(u *unit) {
			defer wg.Done()
			s.stop(u)
		}(u)
	}
	wg.Wait()
}

// Running returns the ids of units that have not settled yet.
func (s *Supervisor) Running() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.units))
	for id, u := range s.units {
		select {
		case <-u.done:
		default:
			ids = append(ids, id)
		}
	}
	return ids
}

// stop cancels a unit and waits out the grace period.
func (s *Supervisor) stop(u *unit) Record {
	u.cancel()

	timer := time.NewTimer(s.grace)
	defer timer.Stop()
	select {
	case <-u.done:
		return s.reap(u)
	case <-timer.C:
	}

	// The runner ignored its context. Drop the unit with a forced record;
	// whatever it eventually produces is discarded.
	s.logger.Warn("sub-agent ignored cancellation", "agent_id", u.id, "grace", s.grace.String())
	rec := Record{
		AgentID: u.id,
		Status:  StatusCancelled,
		Err:     fmt.Sprintf("did not stop within %s of cancellation", s.grace),
	}
	s.mu.Lock()
	if _, live := s.units[u.id]; live {
		delete(s.units, u.id)
		s.tombstones[u.id] = rec
	} else {
		rec = s.tombstones[u.id]
	}
	s.mu.Unlock()
	return rec
}

// reap moves a settled unit's record into the terminal set. Must only be
// called after u.done is closed.
func (s *Supervisor) reap(u *unit) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, live := s.units[u.id]; live {
		delete(s.units, u.id)
		s.tombstones[u.id] = u.record
	}
	return s.tombstones[u.id]
}
