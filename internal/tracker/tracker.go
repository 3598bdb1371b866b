package tracker

import (
	"errors"
	"strconv"
	"sync"
	"time"

	"tutorhub/internal/metrics"
)

func labelFor(sessionID int) string {
	return strconv.Itoa(sessionID)
}

var (
	ErrNotRunning     = errors.New("tracker is not running")
	ErrNotPaused      = errors.New("tracker is not paused")
	ErrAlreadyTracked = errors.New("session is already being tracked")
	ErrNotTracked     = errors.New("session is not being tracked")
)

// Tracker accumulates active and paused wall-clock seconds for one session.
// Active time is floor(now - segment start) plus whatever earlier segments
// contributed; a resume resets the segment start and keeps the earlier total
// as a base offset. Sub-second remainders are dropped at every pause/resume
// boundary, so long pause/resume chains may drift by up to a second.
type Tracker struct {
	mu  sync.Mutex
	now func() time.Time

	startedAt   time.Time
	pausedAt    time.Time
	baseActive  int64
	totalPaused int64
	running     bool
}

func New(now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	t := &Tracker{now: now}
	t.startedAt = t.now()
	t.running = true
	return t
}

func (t *Tracker) Pause() (activeSeconds int64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return 0, ErrNotRunning
	}

	now := t.now()
	t.baseActive += int64(now.Sub(t.startedAt).Seconds())
	t.pausedAt = now
	t.running = false
	return t.baseActive, nil
}

func (t *Tracker) Resume() (pausedSeconds int64, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return 0, ErrNotPaused
	}

	now := t.now()
	t.totalPaused += int64(now.Sub(t.pausedAt).Seconds())
	t.startedAt = now
	t.running = true
	return t.totalPaused, nil
}

// ActiveSeconds reports accumulated non-paused time.
func (t *Tracker) ActiveSeconds() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.running {
		return t.baseActive
	}
	return t.baseActive + int64(t.now().Sub(t.startedAt).Seconds())
}

// PausedSeconds reports accumulated paused time, including the current pause
// if one is in progress.
func (t *Tracker) PausedSeconds() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.running {
		return t.totalPaused
	}
	return t.totalPaused + int64(t.now().Sub(t.pausedAt).Seconds())
}

func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

type entry struct {
	tracker *Tracker
	ticker  *time.Ticker
	done    chan struct{}
}

// Registry owns the in-memory trackers for all in-progress sessions. Each
// tracked session gets a one-second ticker goroutine that publishes the live
// elapsed gauge; the ticker is stopped on pause, completion and shutdown so
// no goroutine outlives its session.
type Registry struct {
	mu      sync.Mutex
	entries map[int]*entry
	now     func() time.Time
}

func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		entries: make(map[int]*entry),
		now:     now,
	}
}

func (r *Registry) Start(sessionID int) (*Tracker, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[sessionID]; exists {
		return nil, ErrAlreadyTracked
	}

	t := New(r.now)
	e := &entry{tracker: t}
	r.entries[sessionID] = e
	r.startTicking(sessionID, e)
	return t, nil
}

func (r *Registry) Get(sessionID int) (*Tracker, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[sessionID]
	if !ok {
		return nil, false
	}
	return e.tracker, true
}

func (r *Registry) Pause(sessionID int) (int64, error) {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	if !ok {
		r.mu.Unlock()
		return 0, ErrNotTracked
	}
	r.stopTicking(e)
	r.mu.Unlock()

	return e.tracker.Pause()
}

func (r *Registry) Resume(sessionID int) (int64, error) {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	if !ok {
		r.mu.Unlock()
		return 0, ErrNotTracked
	}
	r.mu.Unlock()

	paused, err := e.tracker.Resume()
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	r.startTicking(sessionID, e)
	r.mu.Unlock()
	return paused, nil
}

// Remove stops the ticker and forgets the session, returning the final
// active/paused totals.
func (r *Registry) Remove(sessionID int) (activeSeconds, pausedSeconds int64, err error) {
	r.mu.Lock()
	e, ok := r.entries[sessionID]
	if !ok {
		r.mu.Unlock()
		return 0, 0, ErrNotTracked
	}
	r.stopTicking(e)
	delete(r.entries, sessionID)
	r.mu.Unlock()

	if e.tracker.Running() {
		if _, err := e.tracker.Pause(); err != nil {
			return 0, 0, err
		}
	}

	metrics.SessionActiveSeconds.DeleteLabelValues(labelFor(sessionID))
	return e.tracker.ActiveSeconds(), e.tracker.PausedSeconds(), nil
}

// Shutdown stops every ticker. Trackers are discarded; the persistent rows
// remain the recoverable record.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, e := range r.entries {
		r.stopTicking(e)
		delete(r.entries, id)
	}
}

// callers hold r.mu
func (r *Registry) startTicking(sessionID int, e *entry) {
	ticker := time.NewTicker(time.Second)
	done := make(chan struct{})
	e.ticker = ticker
	e.done = done

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				metrics.SessionActiveSeconds.WithLabelValues(labelFor(sessionID)).Set(float64(e.tracker.ActiveSeconds()))
			}
		}
	}()
}

// callers hold r.mu
func (r *Registry) stopTicking(e *entry) {
	if e.ticker == nil {
		return
	}
	e.ticker.Stop()
	close(e.done)
	e.ticker = nil
	e.done = nil
}
