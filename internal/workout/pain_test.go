package workout_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/trainplan/internal/ptr"
	"github.com/myrjola/trainplan/internal/workout"
)

func painExercises() []workout.Exercise {
	return []workout.Exercise{
		{ID: 1, Name: "Goblet Squat", Contraindications: []workout.Zone{workout.ZoneKneeRight}},
		{ID: 2, Name: "Reverse Lunge", Contraindications: []workout.Zone{workout.ZoneKneeRight, workout.ZoneLowerBack}},
		{ID: 3, Name: "Dumbbell Row"},
		{ID: 4, Name: "Glute Bridge"},
	}
}

func feedback(zone workout.Zone, pain int, during ...string) workout.PainFeedbackEntry {
	return workout.PainFeedbackEntry{Zone: zone, MaxPainLevel: pain, DuringExercises: during}
}

func TestCalculatePainAdjustments(t *testing.T) {
	weights := map[int]float64{1: 20, 2: 15, 3: 25}

	tests := []struct {
		name     string
		feedback []workout.PainFeedbackEntry
		want     []workout.PainAdjustment
	}{
		{
			name:     "mild pain is ignored",
			feedback: []workout.PainFeedbackEntry{feedback(workout.ZoneKneeRight, 2)},
			want:     nil,
		},
		{
			name:     "no progression tier",
			feedback: []workout.PainFeedbackEntry{feedback(workout.ZoneKneeRight, 4)},
			want: []workout.PainAdjustment{
				{ExerciseID: 1, ExerciseName: "Goblet Squat", Kind: workout.AdjustmentNoProgression,
					WeightMultiplier: 1, ReferenceWeightKg: nil, Zones: []workout.Zone{workout.ZoneKneeRight}},
				{ExerciseID: 2, ExerciseName: "Reverse Lunge", Kind: workout.AdjustmentNoProgression,
					WeightMultiplier: 1, ReferenceWeightKg: nil, Zones: []workout.Zone{workout.ZoneKneeRight}},
			},
		},
		{
			name: "the most severe zone wins",
			feedback: []workout.PainFeedbackEntry{
				feedback(workout.ZoneKneeRight, 5),
				feedback(workout.ZoneLowerBack, 8),
			},
			want: []workout.PainAdjustment{
				{ExerciseID: 1, ExerciseName: "Goblet Squat", Kind: workout.AdjustmentReduceWeight,
					WeightMultiplier: 0.8, ReferenceWeightKg: ptr.Ref(20.0), Zones: []workout.Zone{workout.ZoneKneeRight}},
				{ExerciseID: 2, ExerciseName: "Reverse Lunge", Kind: workout.AdjustmentSkip, WeightMultiplier: 0,
					ReferenceWeightKg: nil, Zones: []workout.Zone{workout.ZoneKneeRight, workout.ZoneLowerBack}},
			},
		},
		{
			name:     "named exercises hold progression",
			feedback: []workout.PainFeedbackEntry{feedback(workout.ZoneShoulderLeft, 1, " dumbbell row ")},
			want: []workout.PainAdjustment{
				{ExerciseID: 3, ExerciseName: "Dumbbell Row", Kind: workout.AdjustmentNoProgression,
					WeightMultiplier: 1, ReferenceWeightKg: nil, Zones: []workout.Zone{workout.ZoneShoulderLeft}},
			},
		},
		{
			name:     "naming does not soften a contraindication",
			feedback: []workout.PainFeedbackEntry{feedback(workout.ZoneKneeRight, 7, "Goblet Squat")},
			want: []workout.PainAdjustment{
				{ExerciseID: 1, ExerciseName: "Goblet Squat", Kind: workout.AdjustmentSkip, WeightMultiplier: 0,
					ReferenceWeightKg: nil, Zones: []workout.Zone{workout.ZoneKneeRight}},
				{ExerciseID: 2, ExerciseName: "Reverse Lunge", Kind: workout.AdjustmentSkip, WeightMultiplier: 0,
					ReferenceWeightKg: nil, Zones: []workout.Zone{workout.ZoneKneeRight}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := workout.CalculatePainAdjustments(tt.feedback, painExercises(), weights)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CalculatePainAdjustments() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCalculatePainAdjustments_withoutReferenceWeights(t *testing.T) {
	got := workout.CalculatePainAdjustments([]workout.PainFeedbackEntry{feedback(workout.ZoneKneeRight, 6)},
		painExercises()[:1], nil)
	if len(got) != 1 || got[0].Kind != workout.AdjustmentReduceWeight || got[0].ReferenceWeightKg != nil {
		t.Errorf("CalculatePainAdjustments() = %+v", got)
	}
}

func TestDetectConditions(t *testing.T) {
	shoulder := condition(workout.ZoneShoulderLeft, 4)
	shoulder.ID = 7
	resolved := condition(workout.ZoneNeck, 5)
	resolved.ID = 8
	resolved.IsActive = false
	existing := []workout.HealthCondition{shoulder, resolved}
	later := testNow.AddDate(0, 0, 2)

	got := workout.DetectConditions([]workout.PainFeedbackEntry{
		feedback(workout.ZoneKneeRight, 5),
		feedback(workout.ZoneLowerBack, 2),
		feedback(workout.ZoneShoulderLeft, 6),
		feedback(workout.ZoneKneeRight, 8),
		feedback(workout.ZoneNeck, 3),
	}, existing, 1, later)

	updatedShoulder := shoulder
	updatedShoulder.PainLevel = 6
	updatedShoulder.UpdatedAt = later
	want := workout.ConditionChanges{
		Created: []workout.HealthCondition{
			{
				ID: 0, UserID: 1, Zone: workout.ZoneKneeRight, PainLevel: 8, IsActive: true,
				Label: "Reported pain: knee right", Diagnosis: "", Notes: "Detected from a post-workout pain check.",
				CreatedAt: later, UpdatedAt: later,
			},
			{
				ID: 0, UserID: 1, Zone: workout.ZoneNeck, PainLevel: 3, IsActive: true,
				Label: "Reported pain: neck", Diagnosis: "", Notes: "Detected from a post-workout pain check.",
				CreatedAt: later, UpdatedAt: later,
			},
		},
		Updated: []workout.HealthCondition{updatedShoulder},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DetectConditions() mismatch (-want +got):\n%s", diff)
	}
	if existing[0].PainLevel != 4 {
		t.Errorf("DetectConditions() modified its input")
	}

	// Lower pain than stored leaves the condition alone.
	if got = workout.DetectConditions([]workout.PainFeedbackEntry{feedback(workout.ZoneShoulderLeft, 3)},
		existing, 1, later); len(got.Created)+len(got.Updated) != 0 {
		t.Errorf("DetectConditions() = %+v, want no changes", got)
	}
}
