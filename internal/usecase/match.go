package usecase

import (
	"context"
	"time"

	"skill-connect/internal/domain/matching"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MatchItem is one ranked candidate with its auditable explanation.
type MatchItem struct {
	ID          uuid.UUID            `json:"id"`
	Score       float64              `json:"score"`
	DistanceKm  float64              `json:"distance_km"`
	Explanation matching.Explanation `json:"explanation"`
}

type MatchPage struct {
	Items      []MatchItem `json:"items"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	Candidates int         `json:"candidates"`
}

// MatchWorkersForJob ranks workers for a job posting. Candidates come from
// the geo radius query around the job, filtered by taxonomy compatibility,
// proficiency, service radius and (for emergency jobs) availability, then
// scored and deterministically ordered.
func (e *Engine) MatchWorkersForJob(ctx context.Context, jobID uuid.UUID, page, pageSize int) (MatchPage, error) {
	job, err := e.Job(jobID)
	if err != nil {
		return MatchPage{}, err
	}
	if job.Status != JobOpen {
		return MatchPage{}, faultJobNotOpen(job)
	}
	// Fail fast on an unresolvable skill: no partial results.
	if _, err := e.taxonomy.Resolve(job.SkillID); err != nil {
		return MatchPage{}, err
	}

	page, pageSize = e.clampPaging(page, pageSize)

	cacheKey := jobMatchCacheKey(jobID, page, pageSize)
	var cached MatchPage
	if hit, _ := e.cache.GetJSON(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	started := time.Now()
	candidates := e.collectWorkerCandidates(job)
	result := paginate(matching.Rank(candidates, e.weights()), page, pageSize)
	e.log.Debug("matched workers for job",
		zap.String("job_id", jobID.String()),
		zap.Int("candidates", result.Candidates),
		zap.Duration("took", time.Since(started)))

	_ = e.cache.SetJSON(ctx, cacheKey, result)
	return result, nil
}

// MatchJobsForWorker is the symmetric query: open jobs ranked for a worker.
func (e *Engine) MatchJobsForWorker(ctx context.Context, workerID uuid.UUID, page, pageSize int) (MatchPage, error) {
	worker, err := e.Worker(workerID)
	if err != nil {
		return MatchPage{}, err
	}

	page, pageSize = e.clampPaging(page, pageSize)

	cacheKey := workerMatchCacheKey(workerID, page, pageSize)
	var cached MatchPage
	if hit, _ := e.cache.GetJSON(ctx, cacheKey, &cached); hit {
		return cached, nil
	}

	started := time.Now()
	candidates := e.collectJobCandidates(worker)
	result := paginate(matching.Rank(candidates, e.weights()), page, pageSize)
	e.log.Debug("matched jobs for worker",
		zap.String("worker_id", workerID.String()),
		zap.Int("candidates", result.Candidates),
		zap.Duration("took", time.Since(started)))

	_ = e.cache.SetJSON(ctx, cacheKey, result)
	return result, nil
}

func (e *Engine) collectWorkerCandidates(job JobPosting) []matching.Candidate {
	radius := e.cfg.DefaultSearchRadiusKm
	hits := e.workerGeo.Query(job.Location, radius)

	out := make([]matching.Candidate, 0, len(hits))
	for _, hit := range hits {
		worker, err := e.Worker(hit.ID)
		if err != nil || !worker.Active {
			continue
		}
		if worker.ServiceRadiusKm > 0 && hit.DistanceKm > worker.ServiceRadiusKm {
			continue
		}
		skillFit := e.bestSkillFit(worker, job)
		if skillFit == 0 {
			continue
		}
		availFit := e.ledger.FreeFitness(worker.ID, job.PostedAt, job.Duration)
		if job.Urgency == matching.UrgencyEmergency && availFit == 0 {
			continue
		}
		out = append(out, matching.Candidate{
			ID:                  worker.ID,
			SkillFit:            skillFit,
			DistanceKm:          hit.DistanceKm,
			RadiusKm:            radius,
			Reputation:          e.reputation.ScoreOf(worker.ID),
			AvailabilityFitness: availFit,
		})
	}
	return out
}

func (e *Engine) collectJobCandidates(worker WorkerProfile) []matching.Candidate {
	radius := worker.ServiceRadiusKm
	if radius <= 0 {
		radius = e.cfg.DefaultSearchRadiusKm
	}
	hits := e.jobGeo.Query(worker.Location, radius)

	out := make([]matching.Candidate, 0, len(hits))
	for _, hit := range hits {
		job, err := e.Job(hit.ID)
		if err != nil || job.Status != JobOpen {
			continue
		}
		skillFit := e.bestSkillFit(worker, job)
		if skillFit == 0 {
			continue
		}
		availFit := e.ledger.FreeFitness(worker.ID, job.PostedAt, job.Duration)
		if job.Urgency == matching.UrgencyEmergency && availFit == 0 {
			continue
		}
		// Reputation stays an axis of the composite even when ranking jobs:
		// a strong worker sees a consistent score for the same pairing.
		out = append(out, matching.Candidate{
			ID:                  job.ID,
			SkillFit:            skillFit,
			DistanceKm:          hit.DistanceKm,
			RadiusKm:            radius,
			Reputation:          e.reputation.ScoreOf(worker.ID),
			AvailabilityFitness: availFit,
		})
	}
	return out
}

// bestSkillFit picks the worker's best-fitting claim for the job's required
// skill: equal, ancestor, or descendant within the configured taxonomy
// distance, with proficiency at or above the job's minimum.
func (e *Engine) bestSkillFit(worker WorkerProfile, job JobPosting) float64 {
	best := 0.0
	for _, claim := range worker.Skills {
		hops, related := e.taxonomy.Distance(claim.SkillID, job.SkillID)
		if !related {
			continue
		}
		fit := matching.SkillFit(claim.Proficiency, job.MinProficiency, hops, e.cfg.TaxonomyDistanceLimit)
		if fit > best {
			best = fit
		}
	}
	return best
}

func (e *Engine) clampPaging(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = e.cfg.PageSizeDefault
	}
	if pageSize > e.cfg.PageSizeMax {
		pageSize = e.cfg.PageSizeMax
	}
	return page, pageSize
}

func paginate(ranked []matching.Scored, page, pageSize int) MatchPage {
	start := (page - 1) * pageSize
	if start > len(ranked) {
		start = len(ranked)
	}
	end := start + pageSize
	if end > len(ranked) {
		end = len(ranked)
	}

	items := make([]MatchItem, 0, end-start)
	for _, s := range ranked[start:end] {
		items = append(items, MatchItem{
			ID:          s.ID,
			Score:       s.Score,
			DistanceKm:  s.DistanceKm,
			Explanation: s.Explanation,
		})
	}
	return MatchPage{Items: items, Page: page, PageSize: pageSize, Candidates: len(ranked)}
}
