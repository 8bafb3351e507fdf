package availability

import (
	"sync"
	"testing"
	"time"

	"skill-connect/internal/domain/fault"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func day(t *testing.T, hhmm string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", "2025-03-10 "+hhmm)
	require.NoError(t, err)
	return ts
}

func span(t *testing.T, from, to string) Span {
	t.Helper()
	return Span{Start: day(t, from), End: day(t, to)}
}

func newTestLedger(t *testing.T) (*Ledger, *fakeClock, uuid.UUID) {
	t.Helper()
	clock := &fakeClock{now: day(t, "08:00")}
	l := NewLedger(WithClock(clock.Now))
	workerID := uuid.New()
	require.NoError(t, l.SetWindows(workerID, []Span{span(t, "09:00", "17:00")}))
	return l, clock, workerID
}

func TestLedger_SetWindows_RejectsOverlap(t *testing.T) {
	l := NewLedger()
	err := l.SetWindows(uuid.New(), []Span{
		{Start: time.Now(), End: time.Now().Add(2 * time.Hour)},
		{Start: time.Now().Add(time.Hour), End: time.Now().Add(3 * time.Hour)},
	})
	assert.Equal(t, fault.KindInvalidInput, fault.KindOf(err))
}

func TestLedger_SetWindows_CannotStrandActiveHold(t *testing.T) {
	l, _, workerID := newTestLedger(t)
	target := span(t, "09:00", "11:00")

	h, err := l.Hold(uuid.New(), workerID, target, time.Minute)
	require.NoError(t, err)

	// Withdrawing all free time would leave the hold confirmable into a
	// span with no coverage underneath it.
	err = l.SetWindows(workerID, nil)
	assert.Equal(t, fault.KindConflict, fault.KindOf(err))

	// Same for a replacement set that uncovers part of the held span.
	err = l.SetWindows(workerID, []Span{span(t, "10:00", "18:00")})
	assert.Equal(t, fault.KindConflict, fault.KindOf(err))

	// The rejected updates must not have mutated anything.
	windows := l.Windows(workerID)
	require.Len(t, windows, 1)
	assert.True(t, windows[0].Span.Equal(span(t, "09:00", "17:00")))

	// A replacement set that still covers the hold is fine, and the hold
	// confirms against it.
	require.NoError(t, l.SetWindows(workerID, []Span{span(t, "08:00", "18:00")}))
	booked, err := l.Confirm(h)
	require.NoError(t, err)
	assert.True(t, booked.Span.Equal(target))

	windows = l.Windows(workerID)
	require.Len(t, windows, 3)
	assert.True(t, windows[0].Span.Equal(span(t, "08:00", "09:00")))
	assert.Equal(t, StateBooked, windows[1].State)
	assert.True(t, windows[2].Span.Equal(span(t, "11:00", "18:00")))
}

func TestLedger_IsFree(t *testing.T) {
	l, _, workerID := newTestLedger(t)

	assert.True(t, l.IsFree(workerID, span(t, "09:00", "11:00")))
	assert.True(t, l.IsFree(workerID, span(t, "09:00", "17:00")))
	assert.False(t, l.IsFree(workerID, span(t, "08:00", "10:00")))
	assert.False(t, l.IsFree(workerID, span(t, "16:00", "18:00")))
	assert.False(t, l.IsFree(uuid.New(), span(t, "09:00", "10:00")))
}

func TestLedger_HoldThenConfirm_SplitsWindow(t *testing.T) {
	l, _, workerID := newTestLedger(t)
	jobID := uuid.New()

	h, err := l.Hold(jobID, workerID, span(t, "09:00", "11:00"), time.Minute)
	require.NoError(t, err)

	booked, err := l.Confirm(h)
	require.NoError(t, err)
	assert.Equal(t, StateBooked, booked.State)
	assert.True(t, booked.Span.Equal(span(t, "09:00", "11:00")))

	// Deterministic split policy: booked head, free tail.
	windows := l.Windows(workerID)
	require.Len(t, windows, 2)
	assert.Equal(t, StateBooked, windows[0].State)
	assert.True(t, windows[0].Span.Equal(span(t, "09:00", "11:00")))
	assert.Equal(t, StateFree, windows[1].State)
	assert.True(t, windows[1].Span.Equal(span(t, "11:00", "17:00")))

	// Mid-window booking splits into pre and post free segments.
	h2, err := l.Hold(uuid.New(), workerID, span(t, "13:00", "14:00"), time.Minute)
	require.NoError(t, err)
	_, err = l.Confirm(h2)
	require.NoError(t, err)

	windows = l.Windows(workerID)
	require.Len(t, windows, 4)
	assert.True(t, windows[1].Span.Equal(span(t, "11:00", "13:00")))
	assert.Equal(t, StateFree, windows[1].State)
	assert.True(t, windows[2].Span.Equal(span(t, "13:00", "14:00")))
	assert.Equal(t, StateBooked, windows[2].State)
	assert.True(t, windows[3].Span.Equal(span(t, "14:00", "17:00")))
	assert.Equal(t, StateFree, windows[3].State)
}

func TestLedger_Hold_ConflictOnOverlap(t *testing.T) {
	l, _, workerID := newTestLedger(t)

	_, err := l.Hold(uuid.New(), workerID, span(t, "09:00", "11:00"), time.Minute)
	require.NoError(t, err)

	_, err = l.Hold(uuid.New(), workerID, span(t, "10:00", "12:00"), time.Minute)
	assert.Equal(t, fault.KindConflict, fault.KindOf(err))

	// Non-overlapping span on the same worker still holds fine.
	_, err = l.Hold(uuid.New(), workerID, span(t, "12:00", "13:00"), time.Minute)
	assert.NoError(t, err)
}

func TestLedger_Hold_ConcurrentExactlyOneWins(t *testing.T) {
	l, _, workerID := newTestLedger(t)
	target := span(t, "09:00", "11:00")

	const attempts = 32
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = l.Hold(uuid.New(), workerID, target, time.Minute)
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.Equal(t, fault.KindConflict, fault.KindOf(err))
		}
	}
	assert.Equal(t, 1, winners)
}

func TestLedger_HoldExpiry(t *testing.T) {
	l, clock, workerID := newTestLedger(t)
	target := span(t, "09:00", "11:00")

	h, err := l.Hold(uuid.New(), workerID, target, 30*time.Second)
	require.NoError(t, err)
	assert.False(t, l.IsFree(workerID, target))

	clock.Advance(31 * time.Second)

	// Expired holds are never honored, and the window reverts to free.
	_, err = l.Confirm(h)
	assert.Equal(t, fault.KindExpired, fault.KindOf(err))
	assert.True(t, l.IsFree(workerID, target))
	assert.Equal(t, 0, l.ActiveHolds())
}

func TestLedger_Sweep(t *testing.T) {
	l, clock, workerID := newTestLedger(t)

	_, err := l.Hold(uuid.New(), workerID, span(t, "09:00", "10:00"), 30*time.Second)
	require.NoError(t, err)
	require.Equal(t, 1, l.ActiveHolds())

	clock.Advance(time.Minute)
	l.Sweep()
	assert.Equal(t, 0, l.ActiveHolds())
}

func TestLedger_ReleaseReturnsWindowToFree(t *testing.T) {
	l, _, workerID := newTestLedger(t)
	target := span(t, "09:00", "11:00")

	h, err := l.Hold(uuid.New(), workerID, target, time.Minute)
	require.NoError(t, err)

	l.Release(h)
	assert.True(t, l.IsFree(workerID, target))

	_, err = l.Confirm(h)
	assert.Equal(t, fault.KindExpired, fault.KindOf(err))
}

func TestLedger_Complete(t *testing.T) {
	l, _, workerID := newTestLedger(t)
	target := span(t, "09:00", "11:00")

	h, err := l.Hold(uuid.New(), workerID, target, time.Minute)
	require.NoError(t, err)
	_, err = l.Confirm(h)
	require.NoError(t, err)
	require.False(t, l.IsFree(workerID, target))

	require.NoError(t, l.Complete(workerID, target))
	assert.True(t, l.IsFree(workerID, target))

	err = l.Complete(workerID, target)
	assert.Equal(t, fault.KindNotFound, fault.KindOf(err))
}

func TestLedger_FreeFitness(t *testing.T) {
	l, _, workerID := newTestLedger(t)

	// Full coverage from the posting time onward.
	assert.InDelta(t, 1.0, l.FreeFitness(workerID, day(t, "08:00"), 2*time.Hour), 1e-9)

	// Only 8h free for a 16h job: half credit.
	assert.InDelta(t, 0.5, l.FreeFitness(workerID, day(t, "08:00"), 16*time.Hour), 1e-9)

	// No free time at all.
	assert.Zero(t, l.FreeFitness(uuid.New(), day(t, "08:00"), time.Hour))

	// Active hold suppresses the window.
	_, err := l.Hold(uuid.New(), workerID, span(t, "09:00", "17:00"), time.Minute)
	require.NoError(t, err)
	assert.Zero(t, l.FreeFitness(workerID, day(t, "08:00"), time.Hour))
}

func TestLedger_CloseRejectsNewHolds(t *testing.T) {
	l, _, workerID := newTestLedger(t)

	h, err := l.Hold(uuid.New(), workerID, span(t, "09:00", "10:00"), time.Minute)
	require.NoError(t, err)

	l.Close()
	_, err = l.Hold(uuid.New(), workerID, span(t, "11:00", "12:00"), time.Minute)
	assert.Equal(t, fault.KindTransient, fault.KindOf(err))

	// In-flight hold still confirms.
	_, err = l.Confirm(h)
	assert.NoError(t, err)
}
