package usecase

import (
	"context"
	"time"

	"skill-connect/internal/domain/availability"
	"skill-connect/internal/domain/fault"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommitMatch starts the offer negotiation: it takes a TTL-bounded hold on
// the worker's window. A Conflict means another job got there first — the
// caller should re-offer to the next ranked candidate, not retry this one.
func (e *Engine) CommitMatch(ctx context.Context, jobID, workerID uuid.UUID, span availability.Span) (availability.Hold, error) {
	if e.closed.Load() {
		return availability.Hold{}, fault.Transient("engine is shutting down", nil)
	}

	job, err := e.Job(jobID)
	if err != nil {
		return availability.Hold{}, err
	}
	if job.Status != JobOpen {
		return availability.Hold{}, faultJobNotOpen(job)
	}
	worker, err := e.Worker(workerID)
	if err != nil {
		return availability.Hold{}, err
	}
	if !worker.Active {
		return availability.Hold{}, fault.Conflict("worker is inactive").With("worker_id", workerID.String())
	}

	hold, err := e.ledger.Hold(jobID, workerID, span, e.cfg.HoldTTL)
	if err != nil {
		return availability.Hold{}, err
	}

	// Cached pages computed before the hold still advertise this worker as
	// free; drop them like every other availability transition does.
	e.invalidateMatches(ctx)
	e.log.Info("hold placed",
		zap.String("hold_id", hold.ID.String()),
		zap.String("job_id", jobID.String()),
		zap.String("worker_id", workerID.String()),
		zap.Time("expires_at", hold.ExpiresAt))
	return hold, nil
}

// ConfirmMatch finalizes a mutual acceptance: the held span books and the
// job leaves the open pool. Confirming an expired hold fails with Expired
// and the caller must re-query.
func (e *Engine) ConfirmMatch(ctx context.Context, hold availability.Hold) (availability.Window, error) {
	booked, err := e.ledger.Confirm(hold)
	if err != nil {
		return availability.Window{}, err
	}

	e.mu.Lock()
	if job, ok := e.jobs[hold.JobID]; ok {
		job.Status = JobMatched
		e.jobs[hold.JobID] = job
	}
	e.mu.Unlock()
	e.jobGeo.Remove(hold.JobID)

	e.invalidateMatches(ctx)
	e.log.Info("match confirmed",
		zap.String("hold_id", hold.ID.String()),
		zap.String("job_id", hold.JobID.String()),
		zap.String("worker_id", hold.WorkerID.String()))
	return booked, nil
}

// RejectMatch releases the hold; the job automatically returns to the open
// candidate pool with no further action from the caller.
func (e *Engine) RejectMatch(ctx context.Context, hold availability.Hold) {
	e.ledger.Release(hold)
	e.invalidateMatches(ctx)
	e.log.Info("hold released",
		zap.String("hold_id", hold.ID.String()),
		zap.String("job_id", hold.JobID.String()),
		zap.String("worker_id", hold.WorkerID.String()))
}

// CompleteJob closes out a matched job: the booked span frees up and the
// employer's rating joins the worker's reputation history.
func (e *Engine) CompleteJob(ctx context.Context, jobID, workerID uuid.UUID, span availability.Span, rating float64) error {
	job, err := e.Job(jobID)
	if err != nil {
		return err
	}
	if job.Status != JobMatched {
		return fault.Conflict("job is not in matched state").With("job_id", jobID.String())
	}

	if err := e.ledger.Complete(workerID, span); err != nil {
		return err
	}
	if err := e.reputation.Record(workerID, rating, time.Now().UTC()); err != nil {
		return err
	}

	e.mu.Lock()
	job.Status = JobCompleted
	e.jobs[jobID] = job
	e.mu.Unlock()

	e.invalidateMatches(ctx)
	e.log.Info("job completed",
		zap.String("job_id", jobID.String()),
		zap.String("worker_id", workerID.String()),
		zap.Float64("rating", rating))
	return nil
}

func faultJobNotOpen(job JobPosting) error {
	return fault.Conflict("job is not open").
		With("job_id", job.ID.String()).With("status", string(job.Status))
}
