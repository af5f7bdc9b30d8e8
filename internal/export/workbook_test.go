package export_test

import (
	"bytes"
	"slices"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/trainplan/internal/catalog"
	"github.com/myrjola/trainplan/internal/export"
	"github.com/myrjola/trainplan/internal/workout"
	"github.com/xuri/excelize/v2"
)

func testProgram(t *testing.T) (workout.Program, workout.UserProfile, []workout.Exercise) {
	t.Helper()
	exercises, err := catalog.Exercises()
	if err != nil {
		t.Fatalf("load exercises: %v", err)
	}
	protocols, err := catalog.Protocols()
	if err != nil {
		t.Fatalf("load protocols: %v", err)
	}
	var equipment []workout.GymEquipment
	for _, eq := range workout.AllEquipment() {
		equipment = append(equipment, workout.GymEquipment{UserID: 1, Name: eq, IsAvailable: true})
	}
	conditions := []workout.HealthCondition{{ //nolint:exhaustruct // test data.
		UserID: 1, Zone: workout.ZoneLowerBack, PainLevel: 4, IsActive: true,
	}}
	p, err := workout.GenerateProgram(workout.ProgramInput{
		UserID:            1,
		Goals:             []workout.Goal{workout.GoalRehab},
		Conditions:        conditions,
		Equipment:         equipment,
		AvailableWeights:  []float64{10, 20},
		DaysPerWeek:       4,
		MinutesPerSession: 60,
	}, exercises)
	if err != nil {
		t.Fatalf("GenerateProgram() error = %v", err)
	}
	p = workout.AttachRehab(p, conditions, protocols, exercises)
	p.CreatedAt = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	profile := workout.UserProfile{ //nolint:exhaustruct // test data.
		ID: 1, DaysPerWeek: 4, MinutesPerSession: 60, Phase: workout.PhaseHypertrophy,
	}
	return p, profile, exercises
}

func TestWrite(t *testing.T) {
	p, profile, exercises := testProgram(t)

	var buf bytes.Buffer
	if err := export.Write(&buf, p, profile, exercises); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })

	want := []string{export.SheetOverview}
	for i, s := range p.Sessions {
		want = append(want, export.SessionSheetName(i, s.Name))
	}
	want = append(want, export.SheetRehab)
	if diff := cmp.Diff(want, f.GetSheetList()); diff != "" {
		t.Errorf("sheets mismatch (-want +got):\n%s", diff)
	}

	title, err := f.GetCellValue(export.SheetOverview, "A1")
	if err != nil {
		t.Fatalf("GetCellValue() error = %v", err)
	}
	if title != p.Name {
		t.Errorf("overview title = %q, want %q", title, p.Name)
	}

	names := make(map[int]string, len(exercises))
	for _, e := range exercises {
		names[e.ID] = e.Name
	}
	for i, s := range p.Sessions {
		rows, rowsErr := f.GetRows(export.SessionSheetName(i, s.Name))
		if rowsErr != nil {
			t.Fatalf("GetRows() error = %v", rowsErr)
		}
		var got []string
		for _, row := range rows {
			if len(row) > 1 && slices.ContainsFunc(s.Exercises, func(pe workout.ProgramExercise) bool {
				return names[pe.ExerciseID] == row[1]
			}) {
				got = append(got, row[1])
			}
		}
		var wantNames []string
		for _, pe := range s.Exercises {
			wantNames = append(wantNames, names[pe.ExerciseID])
		}
		if diff := cmp.Diff(wantNames, got); diff != "" {
			t.Errorf("session %s exercises mismatch (-want +got):\n%s", s.Name, diff)
		}
	}

	rehab, err := f.GetRows(export.SheetRehab)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	wantRehab := 0
	for _, s := range p.Sessions {
		wantRehab += len(s.Rehab.WarmupRehab) + len(s.Rehab.ActiveWaitPool) + len(s.Rehab.CooldownRehab)
	}
	// Title, blank and header rows come first.
	if wantRehab == 0 || len(rehab)-3 != wantRehab {
		t.Errorf("rehab sheet has %d rows, want %d assignments", len(rehab)-3, wantRehab)
	}
}

func TestSessionSheetName(t *testing.T) {
	tests := []struct {
		i    int
		name string
		want string
	}{
		{0, "Upper A", "1 Upper A"},
		{3, "Lower B (hamstring focus)", "4 Lower B (hamstring focus)"},
		{1, "Push/Pull: [heavy]?", "2 Push-Pull (heavy)"},
		{9, "A very long session name that does not fit", "10 A very long session name tha"},
	}
	for _, tt := range tests {
		if got := export.SessionSheetName(tt.i, tt.name); got != tt.want {
			t.Errorf("SessionSheetName(%d, %q) = %q, want %q", tt.i, tt.name, got, tt.want)
		}
	}
}
