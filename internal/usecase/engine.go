package usecase

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"skill-connect/internal/config"
	"skill-connect/internal/domain/availability"
	"skill-connect/internal/domain/fault"
	"skill-connect/internal/domain/geo"
	"skill-connect/internal/domain/matching"
	"skill-connect/internal/domain/reputation"
	"skill-connect/internal/domain/skill"
	"skill-connect/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ClaimedSkill struct {
	SkillID     string `json:"skill_id"`
	Proficiency int    `json:"proficiency"`
}

type WorkerProfile struct {
	ID              uuid.UUID      `json:"id"`
	Skills          []ClaimedSkill `json:"skills"`
	Location        geo.Location   `json:"location"`
	ServiceRadiusKm float64        `json:"service_radius_km"`
	Active          bool           `json:"active"`
}

type JobStatus string

const (
	JobOpen      JobStatus = "open"
	JobMatched   JobStatus = "matched"
	JobCompleted JobStatus = "completed"
	JobCancelled JobStatus = "cancelled"
)

type JobPosting struct {
	ID             uuid.UUID        `json:"id"`
	SkillID        string           `json:"skill_id"`
	MinProficiency int              `json:"min_proficiency"`
	Location       geo.Location     `json:"location"`
	BudgetMin      float64          `json:"budget_min"`
	BudgetMax      float64          `json:"budget_max"`
	Urgency        matching.Urgency `json:"urgency"`
	PostedAt       time.Time        `json:"posted_at"`
	Duration       time.Duration    `json:"duration"`
	Status         JobStatus        `json:"status"`
}

// Engine is the matching orchestrator. It owns the in-process registries of
// workers and jobs, fans match queries out to the taxonomy, geo indexes,
// availability ledger and reputation aggregator, and runs the hold/confirm
// negotiation. Match queries take no global lock; the ledger's per-worker
// lock is the only contended point.
type Engine struct {
	cfg   config.MatchingConfig
	log   *zap.Logger
	cache MatchCache

	taxonomy   *skill.Taxonomy
	workerGeo  *geo.Index
	jobGeo     *geo.Index
	ledger     *availability.Ledger
	reputation *reputation.Aggregator
	snapshots  repository.SnapshotRepository

	mu      sync.RWMutex
	workers map[uuid.UUID]WorkerProfile
	jobs    map[uuid.UUID]JobPosting

	closed atomic.Bool
}

type EngineOption func(*Engine)

// WithSnapshots attaches the cold-start snapshot store.
func WithSnapshots(repo repository.SnapshotRepository) EngineOption {
	return func(e *Engine) { e.snapshots = repo }
}

// WithCache attaches a match-result cache.
func WithCache(c MatchCache) EngineOption {
	return func(e *Engine) { e.cache = c }
}

// WithLedger replaces the availability ledger (tests inject a fake clock).
func WithLedger(l *availability.Ledger) EngineOption {
	return func(e *Engine) { e.ledger = l }
}

// WithReputation replaces the reputation aggregator.
func WithReputation(a *reputation.Aggregator) EngineOption {
	return func(e *Engine) { e.reputation = a }
}

func NewEngine(cfg config.MatchingConfig, taxonomy *skill.Taxonomy, log *zap.Logger, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:        cfg,
		log:        log,
		cache:      noopCache{},
		taxonomy:   taxonomy,
		workerGeo:  geo.NewIndex(cfg.DefaultSearchRadiusKm),
		jobGeo:     geo.NewIndex(cfg.DefaultSearchRadiusKm),
		ledger:     availability.NewLedger(),
		reputation: reputation.NewAggregator(cfg.ReputationHalfLifeDays, cfg.ReputationPrior),
		workers:    make(map[uuid.UUID]WorkerProfile),
		jobs:       make(map[uuid.UUID]JobPosting),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Ledger exposes availability state to the delivery layer (windows view).
func (e *Engine) Ledger() *availability.Ledger {
	return e.ledger
}

func (e *Engine) weights() matching.Weights {
	return matching.Weights{
		Skill:      e.cfg.WeightSkill,
		Distance:   e.cfg.WeightDistance,
		Reputation: e.cfg.WeightReputation,
		Urgency:    e.cfg.WeightUrgency,
	}
}

// AddSkill publishes a taxonomy node. Administrative, append-only.
func (e *Engine) AddSkill(s skill.Skill) error {
	if err := e.taxonomy.Add(s); err != nil {
		return err
	}
	e.log.Info("skill published", zap.String("skill_id", s.ID), zap.String("parent", s.Parent))
	return nil
}

// UpsertWorker registers or refreshes a worker profile together with its
// declared free windows, re-indexes the location, and invalidates cached
// match pages. Claimed skills must already be canonical.
func (e *Engine) UpsertWorker(ctx context.Context, profile WorkerProfile, windows []availability.Span) error {
	if profile.ID == uuid.Nil {
		return fault.InvalidInput("worker id is required")
	}
	for _, claim := range profile.Skills {
		resolved, err := e.taxonomy.Resolve(claim.SkillID)
		if err != nil {
			return err
		}
		if resolved.ID != claim.SkillID {
			return fault.InvalidInput("claimed skill is not canonical").
				With("worker_id", profile.ID.String()).With("skill", claim.SkillID)
		}
		if claim.Proficiency < 1 || claim.Proficiency > 5 {
			return fault.InvalidInput("proficiency must be between 1 and 5").
				With("worker_id", profile.ID.String()).With("skill", claim.SkillID)
		}
	}

	if err := e.ledger.SetWindows(profile.ID, windows); err != nil {
		return err
	}

	e.mu.Lock()
	e.workers[profile.ID] = profile
	e.mu.Unlock()

	if profile.Active {
		e.workerGeo.Upsert(profile.ID, profile.Location)
	} else {
		e.workerGeo.Remove(profile.ID)
	}

	e.invalidateMatches(ctx)
	return nil
}

func (e *Engine) RemoveWorker(ctx context.Context, workerID uuid.UUID) error {
	e.mu.Lock()
	_, ok := e.workers[workerID]
	delete(e.workers, workerID)
	e.mu.Unlock()
	if !ok {
		return fault.NotFound("worker", workerID.String())
	}
	e.workerGeo.Remove(workerID)
	e.invalidateMatches(ctx)
	return nil
}

// UpsertJob registers or refreshes a job posting. The required skill must
// resolve; an unresolvable skill fails fast before any indexing.
func (e *Engine) UpsertJob(ctx context.Context, job JobPosting) error {
	if job.ID == uuid.Nil {
		return fault.InvalidInput("job id is required")
	}
	resolved, err := e.taxonomy.Resolve(job.SkillID)
	if err != nil {
		return err
	}
	job.SkillID = resolved.ID
	if !job.Urgency.Valid() {
		return fault.InvalidInput("unknown urgency tier").With("job_id", job.ID.String())
	}
	if job.MinProficiency < 1 || job.MinProficiency > 5 {
		return fault.InvalidInput("min proficiency must be between 1 and 5").With("job_id", job.ID.String())
	}
	if job.Duration <= 0 {
		return fault.InvalidInput("job duration must be positive").With("job_id", job.ID.String())
	}
	if job.Status == "" {
		job.Status = JobOpen
	}
	if job.PostedAt.IsZero() {
		job.PostedAt = time.Now().UTC()
	}

	e.mu.Lock()
	e.jobs[job.ID] = job
	e.mu.Unlock()

	if job.Status == JobOpen {
		e.jobGeo.Upsert(job.ID, job.Location)
	} else {
		e.jobGeo.Remove(job.ID)
	}

	e.invalidateMatches(ctx)
	return nil
}

func (e *Engine) CancelJob(ctx context.Context, jobID uuid.UUID) error {
	e.mu.Lock()
	job, ok := e.jobs[jobID]
	if ok {
		job.Status = JobCancelled
		e.jobs[jobID] = job
	}
	e.mu.Unlock()
	if !ok {
		return fault.NotFound("job", jobID.String())
	}
	e.jobGeo.Remove(jobID)
	e.invalidateMatches(ctx)
	return nil
}

func (e *Engine) Worker(workerID uuid.UUID) (WorkerProfile, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	w, ok := e.workers[workerID]
	if !ok {
		return WorkerProfile{}, fault.NotFound("worker", workerID.String())
	}
	return w, nil
}

func (e *Engine) Job(jobID uuid.UUID) (JobPosting, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	j, ok := e.jobs[jobID]
	if !ok {
		return JobPosting{}, fault.NotFound("job", jobID.String())
	}
	return j, nil
}

// WorkerDirectoryEntry is the directory listing view: profile plus current
// reputation.
type WorkerDirectoryEntry struct {
	WorkerProfile
	Reputation  float64 `json:"reputation"`
	SampleCount int     `json:"sample_count"`
}

// ListWorkers returns the worker directory sorted by reputation descending,
// ties by id. A non-empty skillQuery narrows the listing to workers claiming
// that skill or one of its descendant specializations; unresolvable queries
// fail rather than silently matching nothing.
func (e *Engine) ListWorkers(activeOnly bool, skillQuery string) ([]WorkerDirectoryEntry, error) {
	var skillID string
	if skillQuery != "" {
		resolved, err := e.taxonomy.Resolve(skillQuery)
		if err != nil {
			return nil, err
		}
		skillID = resolved.ID
	}

	e.mu.RLock()
	out := make([]WorkerDirectoryEntry, 0, len(e.workers))
	for _, w := range e.workers {
		if activeOnly && !w.Active {
			continue
		}
		if skillID != "" && !e.claimsSkill(w, skillID) {
			continue
		}
		out = append(out, WorkerDirectoryEntry{WorkerProfile: w})
	}
	e.mu.RUnlock()

	for i := range out {
		out[i].Reputation = e.reputation.ScoreOf(out[i].ID)
		out[i].SampleCount = e.reputation.SampleCount(out[i].ID)
	}
	sortDirectory(out)
	return out, nil
}

func (e *Engine) claimsSkill(w WorkerProfile, skillID string) bool {
	for _, claim := range w.Skills {
		if claim.SkillID == skillID || e.taxonomy.IsDescendant(claim.SkillID, skillID) {
			return true
		}
	}
	return false
}

type Stats struct {
	Workers       int `json:"workers"`
	ActiveWorkers int `json:"active_workers"`
	OpenJobs      int `json:"open_jobs"`
	MatchedJobs   int `json:"matched_jobs"`
	CompletedJobs int `json:"completed_jobs"`
	ActiveHolds   int `json:"active_holds"`
}

func (e *Engine) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := Stats{Workers: len(e.workers), ActiveHolds: e.ledger.ActiveHolds()}
	for _, w := range e.workers {
		if w.Active {
			s.ActiveWorkers++
		}
	}
	for _, j := range e.jobs {
		switch j.Status {
		case JobOpen:
			s.OpenJobs++
		case JobMatched:
			s.MatchedJobs++
		case JobCompleted:
			s.CompletedJobs++
		}
	}
	return s
}

// RebuildFromSnapshot cold-starts every index from the external store:
// taxonomy, worker and job registries, availability windows, reputation
// history. Store failures surface as Transient.
func (e *Engine) RebuildFromSnapshot(ctx context.Context) error {
	if e.snapshots == nil {
		return fault.InvalidInput("no snapshot store configured")
	}

	skillsRows, err := e.snapshots.LoadSkills(ctx)
	if err != nil {
		return fault.Transient("loading skills snapshot", err)
	}
	for _, row := range skillsRows {
		err := e.taxonomy.Add(skill.Skill{ID: row.ID, Name: row.Name, Parent: row.Parent, Synonyms: row.Synonyms})
		if err != nil && !fault.IsKind(err, fault.KindConflict) {
			return err
		}
	}

	workerRows, err := e.snapshots.LoadWorkers(ctx)
	if err != nil {
		return fault.Transient("loading workers snapshot", err)
	}
	claimRows, err := e.snapshots.LoadWorkerSkills(ctx)
	if err != nil {
		return fault.Transient("loading worker skills snapshot", err)
	}
	claims := make(map[uuid.UUID][]ClaimedSkill, len(workerRows))
	for _, c := range claimRows {
		claims[c.WorkerID] = append(claims[c.WorkerID], ClaimedSkill{SkillID: c.SkillID, Proficiency: c.Proficiency})
	}

	windowRows, err := e.snapshots.LoadWindows(ctx)
	if err != nil {
		return fault.Transient("loading windows snapshot", err)
	}
	windowsByWorker := make(map[uuid.UUID][]availability.Window)
	for _, w := range windowRows {
		windowsByWorker[w.WorkerID] = append(windowsByWorker[w.WorkerID], availability.Window{
			WorkerID: w.WorkerID,
			Span:     availability.Span{Start: w.Start, End: w.End},
			State:    availability.State(w.State),
		})
	}

	e.mu.Lock()
	for _, row := range workerRows {
		profile := WorkerProfile{
			ID:              row.ID,
			Skills:          claims[row.ID],
			Location:        geo.Location{Lat: row.Lat, Lon: row.Lon},
			ServiceRadiusKm: row.ServiceRadiusKm,
			Active:          row.Active,
		}
		e.workers[row.ID] = profile
	}
	e.mu.Unlock()

	for _, row := range workerRows {
		if row.Active {
			e.workerGeo.Upsert(row.ID, geo.Location{Lat: row.Lat, Lon: row.Lon})
		}
		if err := e.ledger.Restore(row.ID, windowsByWorker[row.ID]); err != nil {
			return err
		}
	}

	jobRows, err := e.snapshots.LoadJobs(ctx)
	if err != nil {
		return fault.Transient("loading jobs snapshot", err)
	}
	e.mu.Lock()
	for _, row := range jobRows {
		job := JobPosting{
			ID:             row.ID,
			SkillID:        row.SkillID,
			MinProficiency: row.MinProficiency,
			Location:       geo.Location{Lat: row.Lat, Lon: row.Lon},
			BudgetMin:      row.BudgetMin,
			BudgetMax:      row.BudgetMax,
			Urgency:        matching.Urgency(row.Urgency),
			PostedAt:       row.PostedAt,
			Duration:       time.Duration(row.DurationMin) * time.Minute,
			Status:         JobStatus(row.Status),
		}
		e.jobs[row.ID] = job
	}
	e.mu.Unlock()
	for _, row := range jobRows {
		if JobStatus(row.Status) == JobOpen {
			e.jobGeo.Upsert(row.ID, geo.Location{Lat: row.Lat, Lon: row.Lon})
		}
	}

	repRows, err := e.snapshots.LoadReputation(ctx)
	if err != nil {
		return fault.Transient("loading reputation snapshot", err)
	}
	for _, row := range repRows {
		if err := e.reputation.Record(row.WorkerID, row.Rating, row.CompletedAt); err != nil {
			return err
		}
	}

	e.log.Info("rebuilt engine state from snapshot",
		zap.Int("skills", len(skillsRows)),
		zap.Int("workers", len(workerRows)),
		zap.Int("jobs", len(jobRows)),
		zap.Int("windows", len(windowRows)),
		zap.Int("ratings", len(repRows)))
	return nil
}

// StartSweeper launches the background hold-expiry sweep.
func (e *Engine) StartSweeper(ctx context.Context) {
	e.ledger.StartSweeper(ctx, e.cfg.HoldSweepInterval)
}

// Shutdown drains gracefully: new holds are rejected immediately, in-flight
// holds get until ctx's deadline to confirm, release, or expire.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.closed.Store(true)
	e.ledger.Close()
	if err := e.ledger.Drain(ctx); err != nil {
		e.log.Warn("shutdown drain interrupted",
			zap.Int("active_holds", e.ledger.ActiveHolds()), zap.Error(err))
		return err
	}
	e.log.Info("engine drained")
	return nil
}

func (e *Engine) invalidateMatches(ctx context.Context) {
	if err := e.cache.DeleteByPattern(ctx, matchCachePrefix+"*"); err != nil {
		e.log.Debug("match cache invalidation failed", zap.Error(err))
	}
}

func sortDirectory(entries []WorkerDirectoryEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Reputation != entries[j].Reputation {
			return entries[i].Reputation > entries[j].Reputation
		}
		return bytes.Compare(entries[i].ID[:], entries[j].ID[:]) < 0
	})
}
