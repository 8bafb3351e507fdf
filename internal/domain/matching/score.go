package matching

import (
	"bytes"
	"sort"

	"github.com/google/uuid"
)

type Urgency string

const (
	UrgencyStandard  Urgency = "standard"
	UrgencyUrgent    Urgency = "urgent"
	UrgencyEmergency Urgency = "emergency"
)

func (u Urgency) Valid() bool {
	switch u {
	case UrgencyStandard, UrgencyUrgent, UrgencyEmergency:
		return true
	}
	return false
}

// Weights are the configured coefficients of the composite score.
type Weights struct {
	Skill      float64
	Distance   float64
	Reputation float64
	Urgency    float64
}

// Candidate carries the normalized per-axis inputs for one candidate pair.
// All fits are already in [0,1] except Reputation (0..5) and the raw
// distances, which Score normalizes itself so the explanation can show both.
type Candidate struct {
	ID                  uuid.UUID
	SkillFit            float64
	DistanceKm          float64
	RadiusKm            float64
	Reputation          float64
	AvailabilityFitness float64
}

// Explanation itemizes the sub-scores behind a ranking position. It is part
// of the result contract: marketplace trust depends on auditable matches.
type Explanation struct {
	SkillFit               float64 `json:"skill_fit"`
	DistanceFit            float64 `json:"distance_fit"`
	ReputationFit          float64 `json:"reputation_fit"`
	AvailabilityFitness    float64 `json:"availability_fitness"`
	SkillContribution      float64 `json:"skill_contribution"`
	DistanceContribution   float64 `json:"distance_contribution"`
	ReputationContribution float64 `json:"reputation_contribution"`
	UrgencyContribution    float64 `json:"urgency_contribution"`
}

type Scored struct {
	ID          uuid.UUID
	Score       float64
	DistanceKm  float64
	Explanation Explanation
}

// SkillFit turns a proficiency level and taxonomy hop distance into a [0,1]
// fit. Proficiency below the minimum or hops beyond the limit disqualify;
// each hop away from the exact required skill halves the credit.
func SkillFit(proficiency, minProficiency, hops, hopLimit int) float64 {
	if proficiency < minProficiency || proficiency <= 0 {
		return 0
	}
	if hops < 0 || hops > hopLimit {
		return 0
	}
	fit := float64(clamp(proficiency, 1, 5)) / 5.0
	for i := 0; i < hops; i++ {
		fit /= 2
	}
	return fit
}

// Score combines the axes with the configured weights.
func Score(c Candidate, w Weights) Scored {
	distanceFit := 0.0
	if c.RadiusKm > 0 {
		distanceFit = 1 - c.DistanceKm/c.RadiusKm
		if distanceFit < 0 {
			distanceFit = 0
		}
	}
	reputationFit := c.Reputation / 5.0

	ex := Explanation{
		SkillFit:               c.SkillFit,
		DistanceFit:            distanceFit,
		ReputationFit:          reputationFit,
		AvailabilityFitness:    c.AvailabilityFitness,
		SkillContribution:      w.Skill * c.SkillFit,
		DistanceContribution:   w.Distance * distanceFit,
		ReputationContribution: w.Reputation * reputationFit,
		UrgencyContribution:    w.Urgency * c.AvailabilityFitness,
	}

	return Scored{
		ID:         c.ID,
		DistanceKm: c.DistanceKm,
		Score: ex.SkillContribution + ex.DistanceContribution +
			ex.ReputationContribution + ex.UrgencyContribution,
		Explanation: ex,
	}
}

// Rank scores every candidate and orders the result: score descending,
// then distance ascending, then id ascending, so identical inputs always
// yield identical output order.
func Rank(candidates []Candidate, w Weights) []Scored {
	out := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, Score(c, w))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out
}

func clamp(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}
