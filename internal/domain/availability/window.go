package availability

import (
	"time"

	"github.com/google/uuid"
)

type State string

const (
	StateFree   State = "free"
	StateHeld   State = "held"
	StateBooked State = "booked"
)

// Span is a half-open interval [Start, End).
type Span struct {
	Start time.Time
	End   time.Time
}

func (s Span) Valid() bool {
	return s.End.After(s.Start)
}

func (s Span) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

func (s Span) Overlaps(o Span) bool {
	return s.Start.Before(o.End) && o.Start.Before(s.End)
}

func (s Span) Covers(o Span) bool {
	return !s.Start.After(o.Start) && !s.End.Before(o.End)
}

func (s Span) Equal(o Span) bool {
	return s.Start.Equal(o.Start) && s.End.Equal(o.End)
}

// Window is a declared bookable interval for one worker.
type Window struct {
	ID       uuid.UUID
	WorkerID uuid.UUID
	Span     Span
	State    State
}

// Hold is a TTL-bounded pessimistic reservation taken during offer
// negotiation. It is the proof token Confirm and Release act on.
type Hold struct {
	ID        uuid.UUID
	JobID     uuid.UUID
	WorkerID  uuid.UUID
	Span      Span
	ExpiresAt time.Time
}
