package reputation

import (
	"sync"
	"testing"
	"time"

	"skill-connect/internal/domain/fault"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregator_NeutralPriorWithoutHistory(t *testing.T) {
	a := NewAggregator(90, 3.0)
	assert.InDelta(t, 3.0, a.ScoreOf(uuid.New()), 1e-9)
}

func TestAggregator_RejectsOutOfRangeRating(t *testing.T) {
	a := NewAggregator(90, 3.0)
	workerID := uuid.New()

	err := a.Record(workerID, 0.5, time.Now())
	assert.Equal(t, fault.KindInvalidInput, fault.KindOf(err))
	err = a.Record(workerID, 5.5, time.Now())
	assert.Equal(t, fault.KindInvalidInput, fault.KindOf(err))
	assert.Zero(t, a.SampleCount(workerID))
}

func TestAggregator_RecentRatingOutweighsOlder(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	a := NewAggregator(90, 3.0, WithClock(func() time.Time { return now }))
	workerID := uuid.New()

	// An old 5 and a fresh 1: the mean must sit below the unweighted 3.0.
	require.NoError(t, a.Record(workerID, 5, now.AddDate(0, 0, -180)))
	require.NoError(t, a.Record(workerID, 1, now))

	score := a.ScoreOf(workerID)
	assert.Less(t, score, 3.0)
	assert.Greater(t, score, 1.0)

	// Swapping recency flips the bias above 3.0.
	b := NewAggregator(90, 3.0, WithClock(func() time.Time { return now }))
	require.NoError(t, b.Record(workerID, 1, now.AddDate(0, 0, -180)))
	require.NoError(t, b.Record(workerID, 5, now))
	assert.Greater(t, b.ScoreOf(workerID), 3.0)
}

func TestAggregator_HalfLifeWeighting(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	a := NewAggregator(90, 3.0, WithClock(func() time.Time { return now }))
	workerID := uuid.New()

	// One half-life old: weight 0.5 against a fresh rating's 1.0.
	require.NoError(t, a.Record(workerID, 5, now.AddDate(0, 0, -90)))
	require.NoError(t, a.Record(workerID, 2, now))

	// (0.5*5 + 1.0*2) / 1.5 = 3.0
	assert.InDelta(t, 3.0, a.ScoreOf(workerID), 1e-6)
}

func TestAggregator_CacheInvalidatedOnRecord(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	a := NewAggregator(90, 3.0, WithClock(func() time.Time { return now }))
	workerID := uuid.New()

	require.NoError(t, a.Record(workerID, 4, now))
	assert.InDelta(t, 4.0, a.ScoreOf(workerID), 1e-9)

	require.NoError(t, a.Record(workerID, 2, now))
	assert.InDelta(t, 3.0, a.ScoreOf(workerID), 1e-9)
	assert.Equal(t, 2, a.SampleCount(workerID))
}

func TestAggregator_ConcurrentRecordAndScore(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	a := NewAggregator(90, 3.0, WithClock(func() time.Time { return now }))
	workerID := uuid.New()

	// Readers hammer the cache while ratings land; a score computed from a
	// shorter history must never be cached over a later invalidation.
	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					a.ScoreOf(workerID)
				}
			}
		}()
	}

	ratings := []float64{1, 2, 3, 4, 5, 4, 3, 2, 1, 5}
	var sum float64
	for _, r := range ratings {
		require.NoError(t, a.Record(workerID, r, now))
		sum += r
	}
	close(done)
	wg.Wait()

	// All ratings share a timestamp, so the decayed mean is the plain mean.
	assert.Equal(t, len(ratings), a.SampleCount(workerID))
	assert.InDelta(t, sum/float64(len(ratings)), a.ScoreOf(workerID), 1e-9)
}

func TestAggregator_ScoreStaysInRange(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	a := NewAggregator(90, 3.0, WithClock(func() time.Time { return now }))
	workerID := uuid.New()

	for i := 0; i < 10; i++ {
		require.NoError(t, a.Record(workerID, 5, now.AddDate(0, 0, -i*30)))
	}
	score := a.ScoreOf(workerID)
	assert.InDelta(t, 5.0, score, 1e-9)
	assert.LessOrEqual(t, score, 5.0)
}
