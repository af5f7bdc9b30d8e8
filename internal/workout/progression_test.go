package workout_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/trainplan/internal/workout"
)

var plates = []float64{20, 22.5, 25, 30, 35, 40, 42.5, 45, 50, 60, 70, 80, 90, 100}

func progressionInput(lastWeight float64, reps []int, rir float64) workout.ProgressionInput {
	return workout.ProgressionInput{
		LastWeightKg:          lastWeight,
		TargetReps:            10,
		TargetSets:            3,
		ActualReps:            reps,
		Outcome:               workout.NormalOutcome{AvgRIR: rir},
		AvgRestSeconds:        90,
		PrescribedRestSeconds: 90,
		AvailableWeights:      plates,
		Phase:                 workout.PhaseHypertrophy,
	}
}

func TestCalculateProgression(t *testing.T) {
	tests := []struct {
		name       string
		modify     func(in *workout.ProgressionInput)
		wantAction workout.ProgressionAction
		wantWeight float64
	}{
		{
			name:       "all reps with reps in reserve",
			modify:     func(*workout.ProgressionInput) {},
			wantAction: workout.ActionIncreaseWeight,
			wantWeight: 42.5,
		},
		{
			name:       "unsorted weights",
			modify:     func(in *workout.ProgressionInput) { in.AvailableWeights = []float64{50, 45, 42.5, 20} },
			wantAction: workout.ActionIncreaseWeight,
			wantWeight: 42.5,
		},
		{
			name:       "close to failure",
			modify:     func(in *workout.ProgressionInput) { in.Outcome = workout.NormalOutcome{AvgRIR: 1} },
			wantAction: workout.ActionMaintain,
			wantWeight: 40,
		},
		{
			name:       "pain interrupted",
			modify:     func(in *workout.ProgressionInput) { in.Outcome = workout.PainInterrupted{} },
			wantAction: workout.ActionMaintain,
			wantWeight: 40,
		},
		{
			name: "pain blocks a decrease",
			modify: func(in *workout.ProgressionInput) {
				in.Outcome = workout.PainInterrupted{}
				in.ActualReps = []int{4, 3, 2}
			},
			wantAction: workout.ActionMaintain,
			wantWeight: 40,
		},
		{
			name:       "failure",
			modify:     func(in *workout.ProgressionInput) { in.Outcome = workout.NormalOutcome{AvgRIR: 0.5} },
			wantAction: workout.ActionMaintain,
			wantWeight: 40,
		},
		{
			name:       "rest at exactly the inflation limit",
			modify:     func(in *workout.ProgressionInput) { in.AvgRestSeconds = 135 },
			wantAction: workout.ActionIncreaseWeight,
			wantWeight: 42.5,
		},
		{
			name:       "rest over the inflation limit",
			modify:     func(in *workout.ProgressionInput) { in.AvgRestSeconds = 136 },
			wantAction: workout.ActionMaintain,
			wantWeight: 40,
		},
		{
			name:       "too many missed reps",
			modify:     func(in *workout.ProgressionInput) { in.ActualReps = []int{8, 7, 7} },
			wantAction: workout.ActionDecrease,
			wantWeight: 35,
		},
		{
			name:       "missed reps within tolerance",
			modify:     func(in *workout.ProgressionInput) { in.ActualReps = []int{8, 8, 7} },
			wantAction: workout.ActionMaintain,
			wantWeight: 40,
		},
		{
			name:       "fewer sets than prescribed count as missed reps",
			modify:     func(in *workout.ProgressionInput) { in.ActualReps = []int{10, 10} },
			wantAction: workout.ActionDecrease,
			wantWeight: 35,
		},
		{
			name: "lightest weight cannot decrease",
			modify: func(in *workout.ProgressionInput) {
				in.LastWeightKg = 20
				in.ActualReps = []int{5, 5, 5}
			},
			wantAction: workout.ActionMaintain,
			wantWeight: 20,
		},
		{
			name:       "heaviest weight cannot increase",
			modify:     func(in *workout.ProgressionInput) { in.LastWeightKg = 100 },
			wantAction: workout.ActionMaintain,
			wantWeight: 100,
		},
		{
			name:       "one rep short holds",
			modify:     func(in *workout.ProgressionInput) { in.ActualReps = []int{10, 10, 9} },
			wantAction: workout.ActionMaintain,
			wantWeight: 40,
		},
		{
			name:       "not enough reps in reserve",
			modify:     func(in *workout.ProgressionInput) { in.Outcome = workout.NormalOutcome{AvgRIR: 1.5} },
			wantAction: workout.ActionMaintain,
			wantWeight: 40,
		},
		{
			name: "deload overrides everything",
			modify: func(in *workout.ProgressionInput) {
				in.Phase = workout.PhaseDeload
				in.LastWeightKg = 100
				in.Outcome = workout.PainInterrupted{}
			},
			wantAction: workout.ActionDeload,
			wantWeight: 60,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := progressionInput(40, []int{10, 10, 10}, 2)
			tt.modify(&in)
			got, err := workout.CalculateProgression(in)
			if err != nil {
				t.Fatalf("CalculateProgression() error = %v", err)
			}
			if got.Action != tt.wantAction || got.NextWeightKg != tt.wantWeight {
				t.Errorf("CalculateProgression() = %s at %v kg (%s), want %s at %v kg", got.Action, got.NextWeightKg,
					got.Reason, tt.wantAction, tt.wantWeight)
			}
			if got.NextTargetReps != in.TargetReps {
				t.Errorf("NextTargetReps = %d, want %d", got.NextTargetReps, in.TargetReps)
			}
			if got.Reason == "" {
				t.Errorf("CalculateProgression() returned no reason")
			}
		})
	}
}

func TestCalculateProgression_consecutiveSessions(t *testing.T) {
	weight := 40.0
	var got []float64
	for range 2 {
		result, err := workout.CalculateProgression(progressionInput(weight, []int{10, 10, 10}, 3))
		if err != nil {
			t.Fatalf("CalculateProgression() error = %v", err)
		}
		weight = result.NextWeightKg
		got = append(got, weight)
	}
	if diff := cmp.Diff([]float64{42.5, 45}, got); diff != "" {
		t.Errorf("weights mismatch (-want +got):\n%s", diff)
	}
}

func TestCalculateProgression_invalidInput(t *testing.T) {
	tests := []struct {
		name   string
		modify func(in *workout.ProgressionInput)
	}{
		{"no sets", func(in *workout.ProgressionInput) { in.ActualReps = nil }},
		{"no target reps", func(in *workout.ProgressionInput) { in.TargetReps = 0 }},
		{"no weights", func(in *workout.ProgressionInput) { in.AvailableWeights = nil }},
		{"negative weight", func(in *workout.ProgressionInput) { in.LastWeightKg = -1 }},
		{"negative reps", func(in *workout.ProgressionInput) { in.ActualReps = []int{10, -1, 10} }},
		{"no outcome", func(in *workout.ProgressionInput) { in.Outcome = nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := progressionInput(40, []int{10, 10, 10}, 2)
			tt.modify(&in)
			if _, err := workout.CalculateProgression(in); !errors.Is(err, workout.ErrInvalidInput) {
				t.Errorf("CalculateProgression() error = %v, want %v", err, workout.ErrInvalidInput)
			}
		})
	}
}

func TestDeloadWeight(t *testing.T) {
	tests := []struct {
		last    float64
		weights []float64
		want    float64
	}{
		{100, plates, 60},
		{70, plates, 40},
		{45, plates, 25},
		{30, plates, 20},
		{100, nil, 60},
		{22.5, []float64{20, 25}, 20},
	}
	for _, tt := range tests {
		if got := workout.DeloadWeight(tt.last, tt.weights); got != tt.want {
			t.Errorf("DeloadWeight(%v) = %v, want %v", tt.last, got, tt.want)
		}
	}
}

func TestShouldDeload(t *testing.T) {
	for weeks, want := range map[int]bool{0: false, 4: false, 5: true, 9: true} {
		if got := workout.ShouldDeload(weeks); got != want {
			t.Errorf("ShouldDeload(%d) = %v, want %v", weeks, got, want)
		}
	}
}

func TestSnap(t *testing.T) {
	weights := []float64{10, 12.5, 15, 20}
	tests := []struct {
		target      float64
		wantDown    float64
		wantNearest float64
	}{
		{12, 10, 12.5},
		{11.25, 10, 10},
		{17.5, 15, 15},
		{5, 10, 10},
		{25, 20, 20},
		{15, 15, 15},
	}
	for _, tt := range tests {
		if got := workout.SnapDown(tt.target, weights); got != tt.wantDown {
			t.Errorf("SnapDown(%v) = %v, want %v", tt.target, got, tt.wantDown)
		}
		if got := workout.SnapNearest(tt.target, weights); got != tt.wantNearest {
			t.Errorf("SnapNearest(%v) = %v, want %v", tt.target, got, tt.wantNearest)
		}
	}
}

func TestRecommendPhase(t *testing.T) {
	tests := []struct {
		name string
		in   workout.PhaseInput
		want workout.Phase
	}{
		{"hypertrophy too short", workout.PhaseInput{
			Current: workout.PhaseHypertrophy, WeeksInPhase: 5, ProgressionConsistency: 1, AvgPainLevel: 0,
		}, workout.PhaseHypertrophy},
		{"hypertrophy done", workout.PhaseInput{
			Current: workout.PhaseHypertrophy, WeeksInPhase: 6, ProgressionConsistency: 0.7, AvgPainLevel: 2,
		}, workout.PhaseTransition},
		{"inconsistent", workout.PhaseInput{
			Current: workout.PhaseHypertrophy, WeeksInPhase: 8, ProgressionConsistency: 0.69, AvgPainLevel: 0,
		}, workout.PhaseHypertrophy},
		{"too painful", workout.PhaseInput{
			Current: workout.PhaseTransition, WeeksInPhase: 8, ProgressionConsistency: 0.9, AvgPainLevel: 2.1,
		}, workout.PhaseTransition},
		{"transition done", workout.PhaseInput{
			Current: workout.PhaseTransition, WeeksInPhase: 4, ProgressionConsistency: 0.8, AvgPainLevel: 1,
		}, workout.PhaseStrength},
		{"strength is terminal", workout.PhaseInput{
			Current: workout.PhaseStrength, WeeksInPhase: 20, ProgressionConsistency: 1, AvgPainLevel: 0,
		}, workout.PhaseStrength},
		{"deload is left alone", workout.PhaseInput{
			Current: workout.PhaseDeload, WeeksInPhase: 20, ProgressionConsistency: 1, AvgPainLevel: 0,
		}, workout.PhaseDeload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := workout.RecommendPhase(tt.in); got != tt.want {
				t.Errorf("RecommendPhase() = %s, want %s", got, tt.want)
			}
		})
	}
}
