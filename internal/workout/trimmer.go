package workout

import (
	"math"
	"slices"
)

// Duration model shared by estimation and trimming.
const (
	setExecutionSeconds       = 45
	transitionSeconds         = 90
	fixedOverheadMinutes      = 10
	MinExercisesAfterTrimming = 3
)

// SlotExercise is a resolved slot: the prescription plus the drop priority of the slot it came from.
type SlotExercise struct {
	ProgramExercise

	Priority int
}

// EstimateMinutes estimates the duration of a session including transitions between exercises and a
// fixed warm-up and cooldown allowance.
func EstimateMinutes(exercises []ProgramExercise) int {
	seconds := 0
	for _, pe := range exercises {
		seconds += pe.Sets*(setExecutionSeconds+pe.RestSeconds) + transitionSeconds
	}
	return int(math.Round(float64(seconds)/60)) + fixedOverheadMinutes //nolint:mnd // seconds per minute.
}

// TrimToBudget drops slots until the estimate fits minutesPerSession or only
// [MinExercisesAfterTrimming] exercises remain. The slot with the highest priority value goes first and
// ties drop the later slot. Orders are renumbered from 1.
func TrimToBudget(exercises []SlotExercise, minutesPerSession int) []SlotExercise {
	trimmed := slices.Clone(exercises)
	for len(trimmed) > MinExercisesAfterTrimming && EstimateMinutes(prescriptions(trimmed)) > minutesPerSession {
		drop := 0
		for i, se := range trimmed {
			if se.Priority >= trimmed[drop].Priority {
				drop = i
			}
		}
		trimmed = slices.Delete(trimmed, drop, drop+1)
	}
	for i := range trimmed {
		trimmed[i].Order = i + 1
	}
	return trimmed
}

func prescriptions(exercises []SlotExercise) []ProgramExercise {
	out := make([]ProgramExercise, len(exercises))
	for i, se := range exercises {
		out[i] = se.ProgramExercise
	}
	return out
}
