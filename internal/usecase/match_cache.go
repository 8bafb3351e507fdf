package usecase

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

// MatchCache stores serialized match pages. Implementations must treat
// unavailability as a miss, never an error surfaced to queries.
type MatchCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type noopCache struct{}

func (noopCache) GetJSON(context.Context, string, any) (bool, error) { return false, nil }
func (noopCache) SetJSON(context.Context, string, any) error         { return nil }
func (noopCache) DeleteByPattern(context.Context, string) error      { return nil }

const matchCachePrefix = "match:"

type matchCacheKeyInput struct {
	Side     string    `json:"side"`
	ID       uuid.UUID `json:"id"`
	Page     int       `json:"page"`
	PageSize int       `json:"page_size"`
}

func jobMatchCacheKey(jobID uuid.UUID, page, pageSize int) string {
	return matchCacheKey(matchCacheKeyInput{Side: "job", ID: jobID, Page: page, PageSize: pageSize})
}

func workerMatchCacheKey(workerID uuid.UUID, page, pageSize int) string {
	return matchCacheKey(matchCacheKeyInput{Side: "worker", ID: workerID, Page: page, PageSize: pageSize})
}

func matchCacheKey(in matchCacheKeyInput) string {
	b, _ := json.Marshal(in)
	sum := sha256.Sum256(b)
	return matchCachePrefix + in.Side + ":" + hex.EncodeToString(sum[:])
}
