package schedule

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	tperrors "github.com/taskpool-go/taskpool/pkg/common/errors"
	"github.com/taskpool-go/taskpool/pkg/common/validation"
	"github.com/taskpool-go/taskpool/pkg/metrics"
	"github.com/taskpool-go/taskpool/pkg/pool"
)

// DefaultTickInterval is how often the scheduler checks for due entries.
const DefaultTickInterval = 50 * time.Millisecond

// Entry describes one registered recurring task.
type Entry struct {
	ID       string
	Next     time.Time
	Interval time.Duration // zero for cron entries
	Expr     string        // empty for interval entries
}

type scheduledTask struct {
	id       string
	task     pool.Task
	interval time.Duration
	schedule cron.Schedule // non-nil for cron entries
	expr     string
	next     time.Time
}

// Scheduler fires recurring tasks onto a worker pool.
//
// Each firing uses the pool's non-blocking submission; when the pool's
// queue is full the firing is dropped and counted, so a slow pool sheds
// scheduled load instead of queueing it without bound.
type Scheduler struct {
	pool     pool.Pool
	name     string
	logger   *slog.Logger
	registry *metrics.Registry
	tick     time.Duration
	parser   cron.Parser

	mu      sync.Mutex
	entries map[string]*scheduledTask
	running bool
	done    chan struct{}
	stopped chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for drop and lifecycle records.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithTickInterval overrides how often due entries are checked.
func WithTickInterval(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithMetrics enables firing/drop counters under the given name.
func WithMetrics(name string, registry *metrics.Registry) Option {
	return func(s *Scheduler) {
		s.name = name
		s.registry = registry
	}
}

// New creates a scheduler that submits onto p.
func New(p pool.Pool, opts ...Option) *Scheduler {
	s := &Scheduler{
		pool:    p,
		name:    "scheduler",
		tick:    DefaultTickInterval,
		parser:  cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow),
		entries: make(map[string]*scheduledTask),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Every registers a task to fire at a fixed interval. The first firing is
// one interval after registration.
func (s *Scheduler) Every(id string, interval time.Duration, task pool.Task) error {
	if err := validation.ValidateNotEmpty("schedule", "id", id); err != nil {
		return err
	}
	if interval <= 0 {
		return tperrors.NewValidationError("schedule", "interval", interval, "must be positive")
	}
	if task == nil {
		return tperrors.ErrNilTask
	}

	return s.add(&scheduledTask{
		id:       id,
		task:     task,
		interval: interval,
		next:     time.Now().Add(interval),
	})
}

// Cron registers a task to fire on a cron expression with a seconds field,
// e.g. "0 */5 * * * *" for every five minutes.
func (s *Scheduler) Cron(id, expr string, task pool.Task) error {
	if err := validation.ValidateNotEmpty("schedule", "id", id); err != nil {
		return err
	}
	if task == nil {
		return tperrors.ErrNilTask
	}
	sched, err := s.parser.Parse(expr)
	if err != nil {
		return tperrors.NewValidationError("schedule", "cron", expr, err.Error())
	}

	return s.add(&scheduledTask{
		id:       id,
		task:     task,
		schedule: sched,
		expr:     expr,
		next:     sched.Next(time.Now()),
	})
}

func (s *Scheduler) add(st *scheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[st.id]; exists {
		return fmt.Errorf("%w: %s", tperrors.ErrDuplicateEntry, st.id)
	}
	s.entries[st.id] = st
	return nil
}

// Cancel removes an entry. It reports whether the entry existed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.entries[id]
	delete(s.entries, id)
	return exists
}

// Entries returns the registered entries sorted by ID.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.entries))
	for _, st := range s.entries {
		out = append(out, Entry{
			ID:       st.id,
			Next:     st.next,
			Interval: st.interval,
			Expr:     st.expr,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Start begins firing due entries. It returns an error if the scheduler
// is already running.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("schedule: already running")
	}
	s.running = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go s.run(s.done, s.stopped)
	return nil
}

// Stop halts firing and blocks until the scheduler loop has exited.
// Entries stay registered; Start may be called again.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	done, stopped := s.done, s.stopped
	s.mu.Unlock()

	close(done)
	<-stopped
}

func (s *Scheduler) run(done <-chan struct{}, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case now := <-ticker.C:
			s.fireDue(now)
		}
	}
}

// fireDue submits every due entry and advances its next firing time.
func (s *Scheduler) fireDue(now time.Time) {
	s.mu.Lock()
	var due []*scheduledTask
	for _, st := range s.entries {
		if !st.next.After(now) {
			due = append(due, st)
			if st.schedule != nil {
				st.next = st.schedule.Next(now)
			} else {
				st.next = now.Add(st.interval)
			}
		}
	}
	s.mu.Unlock()

	for _, st := range due {
		if _, ok := s.pool.TrySubmit(st.task); ok {
			if s.registry != nil {
				s.registry.FiringsScheduled.WithLabelValues(s.name).Inc()
			}
			continue
		}
		if s.registry != nil {
			s.registry.FiringsDropped.WithLabelValues(s.name).Inc()
		}
		if s.logger != nil {
			s.logger.Warn("scheduled firing dropped, pool queue full", "entry", st.id)
		}
	}
}
