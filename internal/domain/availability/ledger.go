package availability

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"skill-connect/internal/domain/fault"

	"github.com/google/uuid"
)

// Ledger tracks per-worker availability windows and active holds. The
// per-worker mutex is the engine's single correctness-critical exclusion
// point: Hold checks and transitions window state in one step, so two
// concurrent offers on overlapping spans can never both succeed.
//
// Hold expiry is cooperative: every operation on a worker first drops that
// worker's expired holds, and an optional background sweeper does the same
// for idle workers. An expired hold is never honored by Confirm.
type Ledger struct {
	mu      sync.RWMutex
	workers map[uuid.UUID]*schedule

	clock   func() time.Time
	closed  atomic.Bool
	holdCnt atomic.Int64
}

type schedule struct {
	mu      sync.Mutex
	windows []Window // sorted by Span.Start, pairwise non-overlapping
	holds   map[uuid.UUID]Hold
}

type LedgerOption func(*Ledger)

// WithClock replaces the time source. Tests use it to drive TTL expiry.
func WithClock(clock func() time.Time) LedgerOption {
	return func(l *Ledger) { l.clock = clock }
}

func NewLedger(opts ...LedgerOption) *Ledger {
	l := &Ledger{
		workers: make(map[uuid.UUID]*schedule),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) scheduleFor(workerID uuid.UUID, create bool) *schedule {
	l.mu.RLock()
	s, ok := l.workers[workerID]
	l.mu.RUnlock()
	if ok || !create {
		return s
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok = l.workers[workerID]; ok {
		return s
	}
	s = &schedule{holds: make(map[uuid.UUID]Hold)}
	l.workers[workerID] = s
	return s
}

// SetWindows replaces the worker's free windows. Booked spans are kept
// untouched; a new span overlapping one of them is rejected as a whole (no
// partial mutation). The new free set must still cover every active hold,
// otherwise a pending hold could confirm into a span the worker withdrew.
func (l *Ledger) SetWindows(workerID uuid.UUID, spans []Span) error {
	for _, sp := range spans {
		if !sp.Valid() {
			return fault.InvalidInput("window end must be after start").With("worker_id", workerID.String())
		}
	}
	sorted := append([]Span(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start.Before(sorted[j].Start) })
	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Overlaps(sorted[i]) {
			return fault.InvalidInput("windows overlap").With("worker_id", workerID.String())
		}
	}

	s := l.scheduleFor(workerID, true)
	s.mu.Lock()
	defer s.mu.Unlock()
	l.expireLocked(s)

	kept := make([]Window, 0, len(s.windows))
	for _, w := range s.windows {
		if w.State != StateFree {
			kept = append(kept, w)
		}
	}
	for _, sp := range sorted {
		for _, w := range kept {
			if w.Span.Overlaps(sp) {
				return fault.Conflict("window overlaps a booked span").With("worker_id", workerID.String())
			}
		}
	}

	for _, sp := range sorted {
		kept = append(kept, Window{ID: uuid.New(), WorkerID: workerID, Span: sp, State: StateFree})
	}
	sortWindows(kept)

	for _, h := range s.holds {
		if !freeCoverage(kept, h.Span) {
			return fault.Conflict("windows update would strand an active hold").
				With("worker_id", workerID.String()).With("hold_id", h.ID.String())
		}
	}
	s.windows = kept
	return nil
}

// Restore loads windows as-is during cold start. Input must satisfy the
// non-overlap invariant already (it is the persisted state of this ledger).
func (l *Ledger) Restore(workerID uuid.UUID, windows []Window) error {
	ws := append([]Window(nil), windows...)
	sortWindows(ws)
	for i := range ws {
		if !ws[i].Span.Valid() {
			return fault.InvalidInput("window end must be after start").With("worker_id", workerID.String())
		}
		if i > 0 && ws[i-1].Span.Overlaps(ws[i].Span) {
			return fault.InvalidInput("windows overlap").With("worker_id", workerID.String())
		}
		if ws[i].ID == uuid.Nil {
			ws[i].ID = uuid.New()
		}
		ws[i].WorkerID = workerID
		// Holds are not persisted; a held window comes back as free.
		if ws[i].State == StateHeld || ws[i].State == "" {
			ws[i].State = StateFree
		}
	}

	s := l.scheduleFor(workerID, true)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows = ws
	s.holds = make(map[uuid.UUID]Hold)
	return nil
}

// IsFree reports whether span is fully covered by free windows with no
// active hold overlapping it. Adjacent free windows count as contiguous.
func (l *Ledger) IsFree(workerID uuid.UUID, span Span) bool {
	if !span.Valid() {
		return false
	}
	s := l.scheduleFor(workerID, false)
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l.expireLocked(s)
	return s.freeCovers(span)
}

// Hold atomically reserves span for (jobID, workerID) until ttl elapses.
// Overlap with a booked window, another active hold, or uncovered time
// fails with Conflict and mutates nothing.
func (l *Ledger) Hold(jobID, workerID uuid.UUID, span Span, ttl time.Duration) (Hold, error) {
	if !span.Valid() || ttl <= 0 {
		return Hold{}, fault.InvalidInput("hold needs a valid span and positive ttl").
			With("worker_id", workerID.String()).With("job_id", jobID.String())
	}
	if l.closed.Load() {
		return Hold{}, fault.Transient("ledger is draining, not accepting holds", nil)
	}

	s := l.scheduleFor(workerID, false)
	if s == nil {
		return Hold{}, fault.NotFound("worker", workerID.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l.expireLocked(s)

	if !s.freeCovers(span) {
		return Hold{}, fault.Conflict("window is not free for the requested span").
			With("worker_id", workerID.String()).With("job_id", jobID.String())
	}

	h := Hold{
		ID:        uuid.New(),
		JobID:     jobID,
		WorkerID:  workerID,
		Span:      span,
		ExpiresAt: l.clock().Add(ttl),
	}
	s.holds[h.ID] = h
	l.holdCnt.Add(1)
	return h, nil
}

// Confirm books the held span. The free window covering it splits into a
// deterministic pre/booked/post sequence. A hold past its TTL (or already
// released) yields Expired.
func (l *Ledger) Confirm(h Hold) (Window, error) {
	s := l.scheduleFor(h.WorkerID, false)
	if s == nil {
		return Window{}, fault.NotFound("worker", h.WorkerID.String())
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	l.expireLocked(s)

	stored, ok := s.holds[h.ID]
	if !ok || !stored.Span.Equal(h.Span) {
		return Window{}, fault.Expired("hold expired or released").
			With("hold_id", h.ID.String()).With("worker_id", h.WorkerID.String())
	}
	delete(s.holds, h.ID)
	l.holdCnt.Add(-1)

	booked := Window{ID: uuid.New(), WorkerID: h.WorkerID, Span: h.Span, State: StateBooked}
	next := make([]Window, 0, len(s.windows)+2)
	for _, w := range s.windows {
		if w.State != StateFree || !w.Span.Overlaps(h.Span) {
			next = append(next, w)
			continue
		}
		if w.Span.Start.Before(h.Span.Start) {
			next = append(next, Window{
				ID: uuid.New(), WorkerID: h.WorkerID,
				Span: Span{Start: w.Span.Start, End: h.Span.Start}, State: StateFree,
			})
		}
		if w.Span.End.After(h.Span.End) {
			next = append(next, Window{
				ID: uuid.New(), WorkerID: h.WorkerID,
				Span: Span{Start: h.Span.End, End: w.Span.End}, State: StateFree,
			})
		}
	}
	next = append(next, booked)
	sortWindows(next)
	s.windows = next
	return booked, nil
}

// Release drops the hold. Releasing an expired or unknown hold is a no-op;
// the window is already free either way.
func (l *Ledger) Release(h Hold) {
	s := l.scheduleFor(h.WorkerID, false)
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.holds[h.ID]; ok {
		delete(s.holds, h.ID)
		l.holdCnt.Add(-1)
	}
	l.expireLocked(s)
}

// Complete flips the booked window matching span back to free.
func (l *Ledger) Complete(workerID uuid.UUID, span Span) error {
	s := l.scheduleFor(workerID, false)
	if s == nil {
		return fault.NotFound("worker", workerID.String())
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l.expireLocked(s)

	for i, w := range s.windows {
		if w.State == StateBooked && w.Span.Equal(span) {
			s.windows[i].State = StateFree
			return nil
		}
	}
	return fault.NotFound("booking", workerID.String())
}

// FreeFitness scores how well the worker's free time fits a job of the
// given duration starting at or after `from`: 1.0 for a fully covering
// free stretch, the best partial coverage ratio otherwise, 0 with no free
// time at all.
func (l *Ledger) FreeFitness(workerID uuid.UUID, from time.Time, duration time.Duration) float64 {
	if duration <= 0 {
		return 0
	}
	s := l.scheduleFor(workerID, false)
	if s == nil {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l.expireLocked(s)

	best := 0.0
	for _, run := range s.freeRuns() {
		if !run.End.After(from) {
			continue
		}
		start := run.Start
		if start.Before(from) {
			start = from
		}
		avail := run.End.Sub(start)
		ratio := float64(avail) / float64(duration)
		if ratio > 1 {
			ratio = 1
		}
		if ratio > best {
			best = ratio
		}
		if best == 1 {
			break
		}
	}
	return best
}

// Windows returns a copy of the worker's current windows, sorted by start.
func (l *Ledger) Windows(workerID uuid.UUID) []Window {
	s := l.scheduleFor(workerID, false)
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	l.expireLocked(s)
	return append([]Window(nil), s.windows...)
}

func (l *Ledger) ActiveHolds() int {
	return int(l.holdCnt.Load())
}

// Close stops accepting new holds. In-flight holds still confirm, release,
// or expire normally.
func (l *Ledger) Close() {
	l.closed.Store(true)
}

// Drain blocks until every active hold has resolved or expired, or ctx is
// done. Call Close first so no new holds arrive.
func (l *Ledger) Drain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		if l.ActiveHolds() == 0 {
			return nil
		}
		l.Sweep()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Sweep expires stale holds across all workers. StartSweeper runs it on a
// ticker; it is also safe to call directly.
func (l *Ledger) Sweep() {
	l.mu.RLock()
	schedules := make([]*schedule, 0, len(l.workers))
	for _, s := range l.workers {
		schedules = append(schedules, s)
	}
	l.mu.RUnlock()

	for _, s := range schedules {
		s.mu.Lock()
		l.expireLocked(s)
		s.mu.Unlock()
	}
}

func (l *Ledger) StartSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}

// expireLocked drops holds past their TTL. Caller holds s.mu.
func (l *Ledger) expireLocked(s *schedule) {
	now := l.clock()
	for id, h := range s.holds {
		if !h.ExpiresAt.After(now) {
			delete(s.holds, id)
			l.holdCnt.Add(-1)
		}
	}
}

// freeCovers reports whether span is contiguously covered by free windows
// and untouched by active holds. Caller holds s.mu with holds already
// expired.
func (s *schedule) freeCovers(span Span) bool {
	for _, h := range s.holds {
		if h.Span.Overlaps(span) {
			return false
		}
	}
	for _, run := range s.freeRuns() {
		if run.Covers(span) {
			return true
		}
	}
	return false
}

// freeRuns merges adjacent free windows into contiguous spans, skipping any
// stretch an active hold overlaps.
func (s *schedule) freeRuns() []Span {
	runs := make([]Span, 0, len(s.windows))
	for _, w := range s.windows {
		if w.State != StateFree {
			continue
		}
		held := false
		for _, h := range s.holds {
			if h.Span.Overlaps(w.Span) {
				held = true
				break
			}
		}
		if held {
			continue
		}
		if n := len(runs); n > 0 && runs[n-1].End.Equal(w.Span.Start) {
			runs[n-1].End = w.Span.End
			continue
		}
		runs = append(runs, w.Span)
	}
	return runs
}

// freeCoverage reports whether span is contiguously covered by the free
// windows in ws, ignoring holds. ws must be sorted by start.
func freeCoverage(ws []Window, span Span) bool {
	var run Span
	for _, w := range ws {
		if w.State != StateFree {
			continue
		}
		if run.Valid() && run.End.Equal(w.Span.Start) {
			run.End = w.Span.End
		} else {
			run = w.Span
		}
		if run.Covers(span) {
			return true
		}
	}
	return false
}

func sortWindows(ws []Window) {
	sort.Slice(ws, func(i, j int) bool { return ws[i].Span.Start.Before(ws[j].Span.Start) })
}
