package reputation

import (
	"math"
	"sync"
	"time"

	"skill-connect/internal/domain/fault"

	"github.com/google/uuid"
)

// Record is one completed-job rating. History is append-only; past records
// are never edited.
type Record struct {
	WorkerID    uuid.UUID
	Rating      float64
	CompletedAt time.Time
}

// Aggregator keeps a decayed rolling score per worker. Each rating weighs
// exp(-ln2/halfLife * ageDays), so a recent rating always outweighs an
// equal older one. Workers without ratings score the neutral prior.
//
// The score is a weighted mean, and aging multiplies every weight by the
// same factor, so the cached value stays correct between appends and only
// invalidates when a rating lands.
type Aggregator struct {
	mu           sync.RWMutex
	halfLifeDays float64
	prior        float64
	clock        func() time.Time
	history      map[uuid.UUID][]Record
	cached       map[uuid.UUID]float64
}

type Option func(*Aggregator)

func WithClock(clock func() time.Time) Option {
	return func(a *Aggregator) { a.clock = clock }
}

func NewAggregator(halfLifeDays, neutralPrior float64, opts ...Option) *Aggregator {
	if halfLifeDays <= 0 {
		halfLifeDays = 90
	}
	if neutralPrior <= 0 {
		neutralPrior = 3.0
	}
	a := &Aggregator{
		halfLifeDays: halfLifeDays,
		prior:        neutralPrior,
		clock:        time.Now,
		history:      make(map[uuid.UUID][]Record),
		cached:       make(map[uuid.UUID]float64),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) Record(workerID uuid.UUID, rating float64, completedAt time.Time) error {
	if rating < 1 || rating > 5 {
		return fault.InvalidInput("rating must be between 1 and 5").With("worker_id", workerID.String())
	}
	if completedAt.IsZero() {
		completedAt = a.clock()
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.history[workerID] = append(a.history[workerID], Record{
		WorkerID:    workerID,
		Rating:      rating,
		CompletedAt: completedAt,
	})
	delete(a.cached, workerID)
	return nil
}

// ScoreOf returns the decayed weighted average in [0,5], or the neutral
// prior for a worker with no ratings.
func (a *Aggregator) ScoreOf(workerID uuid.UUID) float64 {
	a.mu.RLock()
	if score, ok := a.cached[workerID]; ok {
		a.mu.RUnlock()
		return score
	}
	records := a.history[workerID]
	a.mu.RUnlock()

	if len(records) == 0 {
		return a.prior
	}

	lambda := math.Ln2 / a.halfLifeDays
	now := a.clock()

	var weighted, total float64
	for _, r := range records {
		ageDays := now.Sub(r.CompletedAt).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		w := math.Exp(-lambda * ageDays)
		weighted += w * r.Rating
		total += w
	}
	if total == 0 {
		return a.prior
	}
	score := weighted / total

	// History is append-only, so an unchanged length means no Record landed
	// between the read and here; caching then cannot bury an invalidation.
	a.mu.Lock()
	if len(a.history[workerID]) == len(records) {
		a.cached[workerID] = score
	}
	a.mu.Unlock()
	return score
}

// SampleCount reports how many ratings the worker has accumulated.
func (a *Aggregator) SampleCount(workerID uuid.UUID) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.history[workerID])
}
