package workout

import (
	"fmt"
	"math"
	"slices"
)

// ProgressionAction is the load decision for the next session of an exercise.
type ProgressionAction string

const (
	ActionIncreaseWeight ProgressionAction = "increase_weight"
	ActionMaintain       ProgressionAction = "maintain"
	ActionDecrease       ProgressionAction = "decrease"
	ActionDeload         ProgressionAction = "deload"
)

// Progression rules.
const (
	// MinRIRForIncrease is the average reps in reserve needed on top of hitting every target.
	MinRIRForIncrease = 2.0
	// painRIR is the average RIR below which the effort is treated as pain limited.
	painRIR = 1.0
	// RestInflationFactor is how much longer than prescribed the rests may get before progression stalls.
	RestInflationFactor = 1.5
	// MaxRepDeficit is the share of prescribed reps that may be missed before the load is decreased.
	MaxRepDeficit = 0.25
	// DeloadFactor scales the last working weight during a deload week.
	DeloadFactor = 0.6
	// WeeksBeforeDeload is how many weeks of training trigger a deload.
	WeeksBeforeDeload = 5
)

// ProgressionInput describes the last session of one exercise.
type ProgressionInput struct {
	LastWeightKg          float64
	TargetReps            int
	TargetSets            int
	ActualReps            []int
	Outcome               PerformanceOutcome
	AvgRestSeconds        float64
	PrescribedRestSeconds int
	AvailableWeights      []float64
	Phase                 Phase
}

type ProgressionResult struct {
	Action         ProgressionAction
	NextWeightKg   float64
	NextTargetReps int
	Reason         string
}

// CalculateProgression decides the load of the next session. The first matching rule wins:
//
//  1. pain during the exercise, or an average RIR below 1, holds the weight;
//  2. rests longer than 1.5 times the prescription hold the weight;
//  3. missing more than a quarter of the prescribed reps moves one weight down;
//  4. hitting every target with at least 2 RIR moves one weight up;
//  5. anything else holds the weight.
//
// Weights always come from the available weights. When there is no neighbour in the requested direction
// the weight is held. In a deload phase the rules are skipped and 60 % of the last weight is prescribed.
func CalculateProgression(in ProgressionInput) (ProgressionResult, error) {
	if err := validateProgression(in); err != nil {
		return ProgressionResult{}, err
	}
	weights := slices.Clone(in.AvailableWeights)
	slices.Sort(weights)

	result := ProgressionResult{
		Action:         ActionMaintain,
		NextWeightKg:   in.LastWeightKg,
		NextTargetReps: in.TargetReps,
		Reason:         "",
	}

	if in.Phase == PhaseDeload {
		result.Action = ActionDeload
		result.NextWeightKg = DeloadWeight(in.LastWeightKg, weights)
		result.Reason = "deload week"
		return result, nil
	}

	normal, ok := in.Outcome.(NormalOutcome)
	if !ok || normal.AvgRIR < painRIR {
		result.Reason = "pain or near failure"
		return result, nil
	}

	if in.AvgRestSeconds > float64(in.PrescribedRestSeconds)*RestInflationFactor {
		result.Reason = fmt.Sprintf("rest %.0fs exceeded %.1fx the prescribed %ds",
			in.AvgRestSeconds, RestInflationFactor, in.PrescribedRestSeconds)
		return result, nil
	}

	sets := in.TargetSets
	if sets <= 0 {
		sets = len(in.ActualReps)
	}
	prescribed := float64(sets * in.TargetReps)
	total := 0
	allAtTarget := true
	for _, r := range in.ActualReps {
		total += r
		if r < in.TargetReps {
			allAtTarget = false
		}
	}

	if (prescribed-float64(total))/prescribed > MaxRepDeficit {
		if lower, ok := nextLower(in.LastWeightKg, weights); ok {
			result.Action = ActionDecrease
			result.NextWeightKg = lower
			result.Reason = fmt.Sprintf("%d of %.0f prescribed reps", total, prescribed)
			return result, nil
		}
		result.Reason = "reps fell short but no lighter weight is available"
		return result, nil
	}

	if allAtTarget && normal.AvgRIR >= MinRIRForIncrease {
		if higher, ok := nextHigher(in.LastWeightKg, weights); ok {
			result.Action = ActionIncreaseWeight
			result.NextWeightKg = higher
			result.Reason = "all sets at target with reps in reserve"
			return result, nil
		}
		result.Reason = "ready to progress but no heavier weight is available"
		return result, nil
	}

	result.Reason = "keep building reps"
	return result, nil
}

func validateProgression(in ProgressionInput) error {
	switch {
	case len(in.ActualReps) == 0:
		return fmt.Errorf("%w: no sets logged", ErrInvalidInput)
	case in.TargetReps <= 0:
		return fmt.Errorf("%w: target reps must be positive, got %d", ErrInvalidInput, in.TargetReps)
	case len(in.AvailableWeights) == 0:
		return fmt.Errorf("%w: no available weights", ErrInvalidInput)
	case in.LastWeightKg < 0:
		return fmt.Errorf("%w: negative weight %v", ErrInvalidInput, in.LastWeightKg)
	case in.Outcome == nil:
		return fmt.Errorf("%w: missing outcome", ErrInvalidInput)
	}
	for _, r := range in.ActualReps {
		if r < 0 {
			return fmt.Errorf("%w: negative reps %d", ErrInvalidInput, r)
		}
	}
	return nil
}

// ShouldDeload reports whether enough weeks have passed to schedule a deload.
func ShouldDeload(weeksInCurrentPhase int) bool {
	return weeksInCurrentPhase >= WeeksBeforeDeload
}

// DeloadWeight is 60 % of lastWeightKg rounded to whole kilograms and snapped down to an available weight.
// When every available weight is heavier than the target the lightest one is used.
func DeloadWeight(lastWeightKg float64, weights []float64) float64 {
	target := math.Round(lastWeightKg * DeloadFactor)
	return SnapDown(target, weights)
}

// SnapDown returns the largest weight <= target, the smallest weight when none is, or target for an empty list.
func SnapDown(target float64, weights []float64) float64 {
	if len(weights) == 0 {
		return target
	}
	best, found := 0.0, false
	lightest := weights[0]
	for _, w := range weights {
		lightest = min(lightest, w)
		if w <= target && (!found || w > best) {
			best, found = w, true
		}
	}
	if !found {
		return lightest
	}
	return best
}

// SnapNearest returns the weight closest to target. Ties resolve to the lighter weight.
func SnapNearest(target float64, weights []float64) float64 {
	if len(weights) == 0 {
		return target
	}
	best := weights[0]
	for _, w := range weights[1:] {
		d, bd := math.Abs(w-target), math.Abs(best-target)
		if d < bd || (d == bd && w < best) {
			best = w
		}
	}
	return best
}

// nextHigher returns the lightest weight above current from the sorted weights.
func nextHigher(current float64, sorted []float64) (float64, bool) {
	for _, w := range sorted {
		if w > current {
			return w, true
		}
	}
	return 0, false
}

// nextLower returns the heaviest weight below current from the sorted weights.
func nextLower(current float64, sorted []float64) (float64, bool) {
	for i := len(sorted) - 1; i >= 0; i-- {
		if sorted[i] < current {
			return sorted[i], true
		}
	}
	return 0, false
}
