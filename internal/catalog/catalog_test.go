package catalog_test

import (
	"testing"

	"github.com/myrjola/trainplan/internal/catalog"
	"github.com/myrjola/trainplan/internal/workout"
)

func allEquipment() []workout.GymEquipment {
	var out []workout.GymEquipment
	for _, eq := range workout.AllEquipment() {
		out = append(out, workout.GymEquipment{UserID: 1, Name: eq, IsAvailable: true})
	}
	return out
}

func TestExercises(t *testing.T) {
	exercises, err := catalog.Exercises()
	if err != nil {
		t.Fatalf("Exercises() error = %v", err)
	}
	if len(exercises) == 0 {
		t.Fatal("catalog is empty")
	}
	mobility := 0
	for _, e := range exercises {
		if e.Category == workout.CategoryMobility {
			mobility++
		}
		if e.IsRehab != (e.Category == workout.CategoryRehab) {
			t.Errorf("exercise %q: is_rehab = %v with category %s", e.Name, e.IsRehab, e.Category)
		}
	}
	if mobility < workout.DefaultCooldownLimit {
		t.Errorf("got %d mobility exercises, want at least %d", mobility, workout.DefaultCooldownLimit)
	}
}

func TestProtocols(t *testing.T) {
	protocols, err := catalog.Protocols()
	if err != nil {
		t.Fatalf("Protocols() error = %v", err)
	}
	zones := make(map[workout.Zone]bool)
	for _, p := range protocols {
		zones[p.Zone] = true
		if len(p.Exercises) == 0 {
			t.Errorf("protocol %d has no exercises", p.ID)
		}
	}
	for _, z := range []workout.Zone{workout.ZoneKneeRight, workout.ZoneLowerBack, workout.ZoneShoulderLeft} {
		if !zones[z] {
			t.Errorf("no protocol for zone %s", z)
		}
	}
}

// Every schedule with a fully equipped gym resolves every template slot.
func TestExercises_fillEveryTemplate(t *testing.T) {
	exercises, err := catalog.Exercises()
	if err != nil {
		t.Fatalf("Exercises() error = %v", err)
	}
	for days := 1; days <= 7; days++ {
		p, err := workout.GenerateProgram(workout.ProgramInput{
			UserID:            1,
			Goals:             []workout.Goal{workout.GoalHypertrophy},
			Conditions:        nil,
			Equipment:         allEquipment(),
			AvailableWeights:  []float64{2.5, 5, 10, 20},
			DaysPerWeek:       days,
			MinutesPerSession: 240,
		}, exercises)
		if err != nil {
			t.Fatalf("GenerateProgram(%d days) error = %v", days, err)
		}
		for _, s := range p.Sessions {
			if len(s.Exercises) < 5 {
				t.Errorf("%d days: session %s has %d exercises", days, s.Name, len(s.Exercises))
			}
		}
	}
}

// Without any equipment the bodyweight exercises still fill a usable session.
func TestExercises_bodyweightOnly(t *testing.T) {
	exercises, err := catalog.Exercises()
	if err != nil {
		t.Fatalf("Exercises() error = %v", err)
	}
	p, err := workout.GenerateProgram(workout.ProgramInput{
		UserID:            1,
		Goals:             nil,
		Conditions:        nil,
		Equipment:         nil,
		AvailableWeights:  nil,
		DaysPerWeek:       3,
		MinutesPerSession: 60,
	}, exercises)
	if err != nil {
		t.Fatalf("GenerateProgram() error = %v", err)
	}
	for _, s := range p.Sessions {
		if len(s.Exercises) < workout.MinExercisesAfterTrimming {
			t.Errorf("session %s has %d exercises", s.Name, len(s.Exercises))
		}
	}
}
