package workout

import (
	"slices"
	"strings"
	"time"
)

// Pain severity tiers by reported max pain level.
const (
	noProgressionPainLevel = 3
	reduceWeightPainLevel  = 5
	skipPainLevel          = 7
	// ReduceWeightMultiplier scales the reference weight of a reduce_weight adjustment.
	ReduceWeightMultiplier = 0.8
)

// severity orders adjustment kinds. The zero value means no adjustment.
func severity(k AdjustmentKind) int {
	switch k {
	case AdjustmentNoProgression:
		return 1
	case AdjustmentReduceWeight:
		return 2 //nolint:mnd // ordering.
	case AdjustmentSkip:
		return 3 //nolint:mnd // ordering.
	default:
		return 0
	}
}

func tierFor(painLevel int) AdjustmentKind {
	switch {
	case painLevel >= skipPainLevel:
		return AdjustmentSkip
	case painLevel >= reduceWeightPainLevel:
		return AdjustmentReduceWeight
	case painLevel >= noProgressionPainLevel:
		return AdjustmentNoProgression
	default:
		return ""
	}
}

func multiplierFor(k AdjustmentKind) float64 {
	switch k {
	case AdjustmentReduceWeight:
		return ReduceWeightMultiplier
	case AdjustmentSkip:
		return 0
	case AdjustmentNoProgression:
		return 1
	default:
		return 1
	}
}

// CalculatePainAdjustments turns an end-of-session pain check into per-exercise adjustments.
//
// An exercise contraindicated for a reported zone gets that zone's tier. An exercise named as painful in
// any entry gets at least no_progression. Rules do not stack: the most severe one wins. Exercises
// without any match are absent from the result. referenceWeights maps exercise IDs to the last known
// weight and may be nil.
func CalculatePainAdjustments(
	feedback []PainFeedbackEntry,
	exercises []Exercise,
	referenceWeights map[int]float64,
) []PainAdjustment {
	var adjustments []PainAdjustment
	for _, e := range exercises {
		var (
			kind  AdjustmentKind
			zones []Zone
		)
		for _, entry := range feedback {
			tier := AdjustmentKind("")
			if slices.Contains(e.Contraindications, entry.Zone) {
				tier = tierFor(entry.MaxPainLevel)
			}
			if mentions(entry.DuringExercises, e.Name) && severity(tier) < severity(AdjustmentNoProgression) {
				tier = AdjustmentNoProgression
			}
			if tier == "" {
				continue
			}
			if !slices.Contains(zones, entry.Zone) {
				zones = append(zones, entry.Zone)
			}
			if severity(tier) > severity(kind) {
				kind = tier
			}
		}
		if kind == "" {
			continue
		}

		adjustment := PainAdjustment{
			ExerciseID:        e.ID,
			ExerciseName:      e.Name,
			Kind:              kind,
			WeightMultiplier:  multiplierFor(kind),
			ReferenceWeightKg: nil,
			Zones:             zones,
		}
		if w, ok := referenceWeights[e.ID]; ok && kind == AdjustmentReduceWeight {
			adjustment.ReferenceWeightKg = &w
		}
		adjustments = append(adjustments, adjustment)
	}
	return adjustments
}

func mentions(names []string, name string) bool {
	return slices.ContainsFunc(names, func(n string) bool {
		return strings.EqualFold(strings.TrimSpace(n), strings.TrimSpace(name))
	})
}

// ConditionChanges are the health conditions to create or update after a pain check.
type ConditionChanges struct {
	Created []HealthCondition
	Updated []HealthCondition
}

// DetectConditions flags zones reported at [ContraindicationPainThreshold] or above. A zone without an
// active condition gets a new one, and an active condition takes the higher of its stored and reported
// pain level.
func DetectConditions(
	feedback []PainFeedbackEntry,
	existing []HealthCondition,
	userID int,
	now time.Time,
) ConditionChanges {
	var changes ConditionChanges
	existing = slices.Clone(existing)
	for _, entry := range feedback {
		if entry.MaxPainLevel < ContraindicationPainThreshold {
			continue
		}
		idx := slices.IndexFunc(existing, func(c HealthCondition) bool {
			return c.IsActive && c.Zone == entry.Zone
		})
		if idx >= 0 {
			c := existing[idx]
			if entry.MaxPainLevel > c.PainLevel {
				c.PainLevel = entry.MaxPainLevel
				c.UpdatedAt = now
				existing[idx] = c
				if u := slices.IndexFunc(changes.Updated, func(u HealthCondition) bool { return u.ID == c.ID }); u >= 0 {
					changes.Updated[u] = c
				} else {
					changes.Updated = append(changes.Updated, c)
				}
			}
			continue
		}
		if idx = slices.IndexFunc(changes.Created, func(c HealthCondition) bool {
			return c.Zone == entry.Zone
		}); idx >= 0 {
			changes.Created[idx].PainLevel = max(changes.Created[idx].PainLevel, entry.MaxPainLevel)
			continue
		}
		changes.Created = append(changes.Created, HealthCondition{
			ID:        0,
			UserID:    userID,
			Zone:      entry.Zone,
			PainLevel: entry.MaxPainLevel,
			IsActive:  true,
			Label:     "Reported pain: " + strings.ReplaceAll(string(entry.Zone), "_", " "),
			Diagnosis: "",
			Notes:     "Detected from a post-workout pain check.",
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return changes
}
