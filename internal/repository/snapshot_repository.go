package repository

import (
	"context"
	"time"

	"skill-connect/internal/database"

	"github.com/google/uuid"
)

// Snapshot rows mirror the externally-owned storage schema. The engine maps
// them into its own domain types during RebuildFromSnapshot; nothing here is
// written back.

type SkillRow struct {
	ID       string
	Name     string
	Parent   string
	Synonyms []string
}

type WorkerRow struct {
	ID              uuid.UUID
	Lat             float64
	Lon             float64
	ServiceRadiusKm float64
	Active          bool
}

type SkillClaimRow struct {
	WorkerID    uuid.UUID
	SkillID     string
	Proficiency int
}

type JobRow struct {
	ID             uuid.UUID
	SkillID        string
	MinProficiency int
	Lat            float64
	Lon            float64
	BudgetMin      float64
	BudgetMax      float64
	Urgency        string
	PostedAt       time.Time
	DurationMin    int
	Status         string
}

type WindowRow struct {
	WorkerID uuid.UUID
	Start    time.Time
	End      time.Time
	State    string
}

type ReputationRow struct {
	WorkerID    uuid.UUID
	Rating      float64
	CompletedAt time.Time
}

type SnapshotRepository interface {
	LoadSkills(ctx context.Context) ([]SkillRow, error)
	LoadWorkers(ctx context.Context) ([]WorkerRow, error)
	LoadWorkerSkills(ctx context.Context) ([]SkillClaimRow, error)
	LoadJobs(ctx context.Context) ([]JobRow, error)
	LoadWindows(ctx context.Context) ([]WindowRow, error)
	LoadReputation(ctx context.Context) ([]ReputationRow, error)
}

type PostgresSnapshotRepository struct {
	db database.DB
}

func NewPostgresSnapshotRepository(db database.DB) *PostgresSnapshotRepository {
	return &PostgresSnapshotRepository{db: db}
}

func (r *PostgresSnapshotRepository) LoadSkills(ctx context.Context) ([]SkillRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, COALESCE(parent_id, ''), COALESCE(synonyms, '{}')
		FROM skills
		ORDER BY depth ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SkillRow, 0)
	for rows.Next() {
		var s SkillRow
		if err := rows.Scan(&s.ID, &s.Name, &s.Parent, &s.Synonyms); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *PostgresSnapshotRepository) LoadWorkers(ctx context.Context) ([]WorkerRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, lat, lon, service_radius_km, is_active
		FROM worker_profiles`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]WorkerRow, 0)
	for rows.Next() {
		var w WorkerRow
		if err := rows.Scan(&w.ID, &w.Lat, &w.Lon, &w.ServiceRadiusKm, &w.Active); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *PostgresSnapshotRepository) LoadWorkerSkills(ctx context.Context) ([]SkillClaimRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT worker_id, skill_id, proficiency_level
		FROM worker_skills
		ORDER BY worker_id, position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]SkillClaimRow, 0)
	for rows.Next() {
		var c SkillClaimRow
		if err := rows.Scan(&c.WorkerID, &c.SkillID, &c.Proficiency); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresSnapshotRepository) LoadJobs(ctx context.Context) ([]JobRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, skill_id, min_proficiency, lat, lon,
		       COALESCE(budget_min, 0), COALESCE(budget_max, 0),
		       urgency, posted_at, duration_minutes, status
		FROM job_postings
		WHERE status IN ('open', 'matched')`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]JobRow, 0)
	for rows.Next() {
		var j JobRow
		if err := rows.Scan(&j.ID, &j.SkillID, &j.MinProficiency, &j.Lat, &j.Lon,
			&j.BudgetMin, &j.BudgetMax, &j.Urgency, &j.PostedAt, &j.DurationMin, &j.Status); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (r *PostgresSnapshotRepository) LoadWindows(ctx context.Context) ([]WindowRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT worker_id, start_at, end_at, state
		FROM availability_windows
		WHERE end_at > now()
		ORDER BY worker_id, start_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]WindowRow, 0)
	for rows.Next() {
		var w WindowRow
		if err := rows.Scan(&w.WorkerID, &w.Start, &w.End, &w.State); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *PostgresSnapshotRepository) LoadReputation(ctx context.Context) ([]ReputationRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT worker_id, rating, completed_at
		FROM reputation_records
		ORDER BY completed_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ReputationRow, 0)
	for rows.Next() {
		var rec ReputationRow
		if err := rows.Scan(&rec.WorkerID, &rec.Rating, &rec.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
