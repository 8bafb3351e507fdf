package dto

import "time"

type ClaimedSkillRequest struct {
	SkillID     string `json:"skill_id"`
	Proficiency int    `json:"proficiency"`
}

type WindowRequest struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type UpsertWorkerRequest struct {
	Skills          []ClaimedSkillRequest `json:"skills"`
	Lat             float64               `json:"lat"`
	Lon             float64               `json:"lon"`
	ServiceRadiusKm float64               `json:"service_radius_km"`
	Active          bool                  `json:"active"`
	Windows         []WindowRequest       `json:"windows"`
}

type UpsertJobRequest struct {
	SkillID         string    `json:"skill_id"`
	MinProficiency  int       `json:"min_proficiency"`
	Lat             float64   `json:"lat"`
	Lon             float64   `json:"lon"`
	BudgetMin       float64   `json:"budget_min"`
	BudgetMax       float64   `json:"budget_max"`
	Urgency         string    `json:"urgency"`
	PostedAt        time.Time `json:"posted_at"`
	DurationMinutes int       `json:"duration_minutes"`
}

type HoldRequest struct {
	WorkerID string    `json:"worker_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type HoldActionRequest struct {
	HoldID   string    `json:"hold_id"`
	JobID    string    `json:"job_id"`
	WorkerID string    `json:"worker_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type CompleteJobRequest struct {
	WorkerID string    `json:"worker_id"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Rating   float64   `json:"rating"`
}

type AddSkillRequest struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Parent   string   `json:"parent"`
	Synonyms []string `json:"synonyms"`
}
