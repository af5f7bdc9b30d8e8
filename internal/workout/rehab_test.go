package workout_test

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/trainplan/internal/workout"
)

func rehabExercise(name string, placement workout.Placement) workout.RehabExercise {
	return workout.RehabExercise{Name: name, Sets: 2, Reps: "12", Intensity: "light", Notes: "", Placement: placement}
}

func testProtocols() []workout.RehabProtocol {
	return []workout.RehabProtocol{
		{
			ID:            1,
			Zone:          workout.ZoneKneeRight,
			ConditionName: "Patellofemoral pain",
			Exercises: []workout.RehabExercise{
				rehabExercise("Terminal Knee Extension", workout.PlacementWarmup),
				rehabExercise("Spanish Squat", workout.PlacementActiveWait),
				rehabExercise("Quad Stretch", workout.PlacementCooldown),
				rehabExercise("Easy Walk", workout.PlacementRestDay),
			},
			Frequency:           "daily",
			Priority:            2,
			ProgressionCriteria: "",
		},
		{
			ID:            2,
			Zone:          workout.ZoneLowerBack,
			ConditionName: "Nonspecific low back pain",
			Exercises: []workout.RehabExercise{
				rehabExercise("Bird Dog", workout.PlacementWarmup),
				rehabExercise("Cat-Camel", workout.PlacementCooldown),
				rehabExercise("terminal knee extension ", workout.PlacementWarmup),
			},
			Frequency:           "daily",
			Priority:            1,
			ProgressionCriteria: "",
		},
		{
			ID:            3,
			Zone:          workout.ZoneShoulderLeft,
			ConditionName: "Impingement",
			Exercises: []workout.RehabExercise{
				rehabExercise("Wall Slide", workout.PlacementWarmup),
			},
			Frequency:           "3x per week",
			Priority:            3,
			ProgressionCriteria: "",
		},
	}
}

func assignments(t *testing.T, got []workout.RehabAssignment) []string {
	t.Helper()
	var out []string
	for _, a := range got {
		out = append(out, fmt.Sprintf("%s/%d", a.Name, a.ProtocolID))
	}
	return out
}

func TestIntegrateRehab(t *testing.T) {
	session := workout.ProgramSession{
		Name:      "Lower A",
		Intensity: workout.IntensityHeavy,
		Exercises: []workout.ProgramExercise{
			{ExerciseID: 2, Order: 1, Sets: 4, TargetReps: 6, RestSeconds: 120, IsRehab: false, SlotLabel: "quad compound"},
		},
		EstimatedMinutes: 25,
		Rehab:            workout.RehabPlan{WarmupRehab: nil, ActiveWaitPool: nil, CooldownRehab: nil},
		Cooldown:         nil,
	}
	shoulder := condition(workout.ZoneShoulderLeft, 6)
	shoulder.IsActive = false

	got := workout.IntegrateRehab(session, []workout.HealthCondition{
		condition(workout.ZoneKneeLeft, 4),
		condition(workout.ZoneKneeRight, 2),
		condition(workout.ZoneLowerBack, 3),
		shoulder,
	}, testProtocols())

	if diff := cmp.Diff(session, got.Session); diff != "" {
		t.Errorf("session was modified (-want +got):\n%s", diff)
	}
	tests := []struct {
		bucket string
		got    []workout.RehabAssignment
		want   []string
	}{
		{"warmup", got.WarmupRehab, []string{"Bird Dog/2", "terminal knee extension /2"}},
		{"active wait", got.ActiveWaitPool, []string{"Spanish Squat/1"}},
		{"cooldown", got.CooldownRehab, []string{"Cat-Camel/2", "Quad Stretch/1"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, assignments(t, tt.got)); diff != "" {
			t.Errorf("%s bucket mismatch (-want +got):\n%s", tt.bucket, diff)
		}
	}
	if got.CooldownRehab[1].ConditionName != "Patellofemoral pain" || got.CooldownRehab[1].Priority != 2 {
		t.Errorf("assignment lost its protocol: %+v", got.CooldownRehab[1])
	}
}

func TestIntegrateRehab_noConditions(t *testing.T) {
	got := workout.IntegrateRehab(workout.ProgramSession{Name: "Upper A"}, nil, testProtocols()) //nolint:exhaustruct // test data.
	if len(got.WarmupRehab)+len(got.ActiveWaitPool)+len(got.CooldownRehab) != 0 {
		t.Errorf("IntegrateRehab() = %+v, want an empty plan", got.RehabPlan)
	}
}

func TestIntegrateRehab_mirrorOnlyWithoutOwnProtocol(t *testing.T) {
	protocols := append(testProtocols(), workout.RehabProtocol{
		ID:                  4,
		Zone:                workout.ZoneKneeLeft,
		ConditionName:       "Left knee",
		Exercises:           []workout.RehabExercise{rehabExercise("Heel Slide", workout.PlacementWarmup)},
		Frequency:           "daily",
		Priority:            5,
		ProgressionCriteria: "",
	})
	got := workout.IntegrateRehab(workout.ProgramSession{Name: "Lower A"}, //nolint:exhaustruct // test data.
		[]workout.HealthCondition{condition(workout.ZoneKneeLeft, 4)}, protocols)
	if diff := cmp.Diff([]string{"Heel Slide/4"}, assignments(t, got.WarmupRehab)); diff != "" {
		t.Errorf("warmup mismatch (-want +got):\n%s", diff)
	}
}

func TestIntegrateRehab_caps(t *testing.T) {
	protocol := workout.RehabProtocol{
		ID:                  1,
		Zone:                workout.ZoneNeck,
		ConditionName:       "Neck pain",
		Exercises:           nil,
		Frequency:           "daily",
		Priority:            1,
		ProgressionCriteria: "",
	}
	for i := range 10 {
		protocol.Exercises = append(protocol.Exercises,
			rehabExercise(fmt.Sprintf("Warmup %d", i), workout.PlacementWarmup),
			rehabExercise(fmt.Sprintf("Cooldown %d", i), workout.PlacementCooldown),
			rehabExercise(fmt.Sprintf("Active %d", i), workout.PlacementActiveWait))
	}
	got := workout.IntegrateRehab(workout.ProgramSession{Name: "Upper A"}, //nolint:exhaustruct // test data.
		[]workout.HealthCondition{condition(workout.ZoneNeck, 5)}, []workout.RehabProtocol{protocol})
	if len(got.WarmupRehab) != workout.MaxWarmupRehab || got.WarmupRehab[0].Name != "Warmup 0" {
		t.Errorf("got %d warmup exercises", len(got.WarmupRehab))
	}
	if len(got.CooldownRehab) != workout.MaxCooldownRehab {
		t.Errorf("got %d cooldown exercises", len(got.CooldownRehab))
	}
	if len(got.ActiveWaitPool) != 10 {
		t.Errorf("got %d active wait exercises, want all 10", len(got.ActiveWaitPool))
	}
}

func TestSelectCooldown(t *testing.T) {
	mobility := func(id int, name string, muscles ...string) workout.Exercise {
		return workout.Exercise{ID: id, Name: name, Category: workout.CategoryMobility, PrimaryMuscles: muscles} //nolint:exhaustruct // test data.
	}
	catalog := []workout.Exercise{
		{ID: 1, Name: "Goblet Squat", Category: workout.CategoryCompound, PrimaryMuscles: []string{"quadriceps", "glutes"}}, //nolint:exhaustruct // test data.
		mobility(2, "Quad Stretch", "Quadriceps"),
		mobility(3, "Hamstring Stretch", "hamstrings"),
		mobility(4, "Couch Stretch", "quadriceps"),
		mobility(5, "Pigeon Stretch", "glutes", "hips"),
		mobility(6, "Figure Four Stretch", "glutes"),
		{ID: 7, Name: "Glute Bridge", Category: workout.CategoryCompound, PrimaryMuscles: []string{"glutes"}}, //nolint:exhaustruct // test data.
	}
	session := workout.ProgramSession{ //nolint:exhaustruct // test data.
		Name:      "Lower A",
		Exercises: []workout.ProgramExercise{{ExerciseID: 1, Order: 1, Sets: 3, TargetReps: 8, RestSeconds: 90}}, //nolint:exhaustruct // test data.
	}
	rehabCooldown := []workout.RehabAssignment{{RehabExercise: rehabExercise(" quad stretch", workout.PlacementCooldown)}} //nolint:exhaustruct // test data.

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{"default limit", 0, []string{"Couch Stretch", "Pigeon Stretch", "Figure Four Stretch"}},
		{"limit", 1, []string{"Couch Stretch"}},
		{"fewer candidates than limit", 10, []string{"Couch Stretch", "Pigeon Stretch", "Figure Four Stretch"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, e := range workout.SelectCooldown(session, catalog, rehabCooldown, tt.limit) {
				got = append(got, e.Name)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("SelectCooldown() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
