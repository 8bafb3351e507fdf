package dto

import (
	"time"

	"skill-connect/internal/domain/matching"

	"github.com/google/uuid"
)

type MatchItemResponse struct {
	ID          uuid.UUID            `json:"id"`
	Score       float64              `json:"score"`
	DistanceKm  float64              `json:"distance_km"`
	Explanation matching.Explanation `json:"explanation"`
}

type MatchPageResponse struct {
	Items      []MatchItemResponse `json:"items"`
	Page       int                 `json:"page"`
	PageSize   int                 `json:"page_size"`
	Candidates int                 `json:"candidates"`
}

type HoldResponse struct {
	HoldID    uuid.UUID `json:"hold_id"`
	JobID     uuid.UUID `json:"job_id"`
	WorkerID  uuid.UUID `json:"worker_id"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	ExpiresAt time.Time `json:"expires_at"`
}

type WindowResponse struct {
	ID    uuid.UUID `json:"id"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	State string    `json:"state"`
}
