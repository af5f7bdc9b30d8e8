package workout

import (
	"fmt"
	"slices"
	"time"
)

// ProgramInput is everything the generator needs about a user.
type ProgramInput struct {
	UserID            int
	Goals             []Goal
	Conditions        []HealthCondition
	Equipment         []GymEquipment
	AvailableWeights  []float64
	DaysPerWeek       int
	MinutesPerSession int
}

// generator builds programs from a validated catalog.
type generator struct {
	input ProgramInput
	// catalog after contraindication and equipment filtering.
	pool []Exercise
	// byID indexes the unfiltered catalog.
	byID map[int]Exercise
}

// newGenerator validates the inputs and filters the catalog down to the exercises the user can do.
func newGenerator(input ProgramInput, catalog []Exercise) (*generator, error) {
	if input.DaysPerWeek <= 0 {
		return nil, fmt.Errorf("%w: days per week must be positive, got %d", ErrInvalidInput, input.DaysPerWeek)
	}
	if input.MinutesPerSession <= 0 {
		return nil, fmt.Errorf("%w: minutes per session must be positive, got %d",
			ErrInvalidInput, input.MinutesPerSession)
	}
	byID, err := indexCatalog(catalog)
	if err != nil {
		return nil, err
	}

	pool := FilterContraindicated(catalog, input.Conditions, ContraindicationPainThreshold)
	pool = FilterByEquipment(pool, input.Equipment)

	return &generator{
		input: input,
		pool:  pool,
		byID:  byID,
	}, nil
}

func indexCatalog(catalog []Exercise) (map[int]Exercise, error) {
	byID := make(map[int]Exercise, len(catalog))
	for _, e := range catalog {
		if _, err := ParseCategory(string(e.Category)); err != nil {
			return nil, fmt.Errorf("exercise %d: %w", e.ID, err)
		}
		if _, ok := byID[e.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate exercise ID %d in catalog", ErrInvalidInput, e.ID)
		}
		byID[e.ID] = e
	}
	return byID, nil
}

// GenerateProgram builds a program for input from catalog. Nothing is persisted.
//
// The catalog is filtered by contraindications and equipment, the split is chosen from the schedule,
// each session template is resolved slot by slot, intensity variants are applied and finally the sessions
// are trimmed to the time budget.
func GenerateProgram(input ProgramInput, catalog []Exercise) (Program, error) {
	g, err := newGenerator(input, catalog)
	if err != nil {
		return Program{}, err
	}
	split, err := SelectSplit(input.DaysPerWeek)
	if err != nil {
		return Program{}, err
	}

	templates := templatesFor(split, input.DaysPerWeek)
	sessions := make([]ProgramSession, 0, len(templates))
	for _, tmpl := range templates {
		sessions = append(sessions, g.buildSession(tmpl))
	}

	program := Program{
		ID:        0,
		UserID:    input.UserID,
		Name:      programName(split, input.DaysPerWeek),
		Split:     split,
		Sessions:  sessions,
		IsActive:  true,
		CreatedAt: time.Time{},
	}
	if err = g.verify(program); err != nil {
		return Program{}, err
	}
	return program, nil
}

// buildSession resolves the slots greedily in template order. A slot without candidates is left out.
func (g *generator) buildSession(tmpl sessionTemplate) ProgramSession {
	used := make(map[int]struct{})
	resolved := make([]SlotExercise, 0, len(tmpl.slots))
	for _, s := range tmpl.slots {
		e, ok := g.pick(s, used)
		if !ok {
			continue
		}
		used[e.ID] = struct{}{}
		pe := ProgramExercise{
			ExerciseID:  e.ID,
			Order:       len(resolved) + 1,
			Sets:        s.sets,
			TargetReps:  s.reps,
			RestSeconds: s.restSeconds,
			IsRehab:     e.IsRehab,
			SlotLabel:   s.label,
		}
		resolved = append(resolved, SlotExercise{
			ProgramExercise: applyIntensity(pe, e.Category, tmpl.intensity),
			Priority:        s.priority,
		})
	}

	// Trimming comes after the intensity adjustments so that heavy sessions are not under-counted.
	exercises := prescriptions(TrimToBudget(resolved, g.input.MinutesPerSession))
	return ProgramSession{
		Name:             tmpl.name,
		Intensity:        tmpl.intensity,
		Exercises:        exercises,
		EstimatedMinutes: EstimateMinutes(exercises),
		Rehab:            RehabPlan{WarmupRehab: nil, ActiveWaitPool: nil, CooldownRehab: nil},
		Cooldown:         nil,
	}
}

// pick returns the first unused exercise in catalog order that matches the slot.
func (g *generator) pick(s slot, used map[int]struct{}) (Exercise, bool) {
	for _, e := range g.pool {
		if _, ok := used[e.ID]; ok {
			continue
		}
		if s.matches(e) {
			return e, true
		}
	}
	return Exercise{}, false //nolint:exhaustruct // zero value signals no candidate.
}

// verify checks the invariants of a generated program.
func (g *generator) verify(p Program) error {
	for _, s := range p.Sessions {
		seen := make(map[int]struct{}, len(s.Exercises))
		for _, pe := range s.Exercises {
			if _, ok := g.byID[pe.ExerciseID]; !ok {
				return fmt.Errorf("%w: session %s references unknown exercise %d", ErrInvalidInput, s.Name,
					pe.ExerciseID)
			}
			if _, ok := seen[pe.ExerciseID]; ok {
				return fmt.Errorf("%w: session %s contains exercise %d twice", ErrInvalidInput, s.Name,
					pe.ExerciseID)
			}
			seen[pe.ExerciseID] = struct{}{}
		}
	}
	return VerifyUndulation(p)
}

// minSessionsForUndulation is the session count from which the week must mix heavy and volume days.
const minSessionsForUndulation = 4

// VerifyUndulation checks daily undulating periodization: upper/lower and push/pull/legs programs with at
// least four sessions need at least one heavy and one volume session.
func VerifyUndulation(p Program) error {
	if p.Split == SplitFullBody || len(p.Sessions) < minSessionsForUndulation {
		return nil
	}
	intensities := make([]Intensity, 0, len(p.Sessions))
	for _, s := range p.Sessions {
		intensities = append(intensities, s.Intensity)
	}
	if !slices.Contains(intensities, IntensityHeavy) || !slices.Contains(intensities, IntensityVolume) {
		return fmt.Errorf("%w: %s program lacks heavy or volume sessions: %v", ErrInvalidInput, p.Split, intensities)
	}
	return nil
}

func programName(split Split, daysPerWeek int) string {
	switch split {
	case SplitFullBody:
		return fmt.Sprintf("Full Body (%d days)", daysPerWeek)
	case SplitUpperLower:
		return fmt.Sprintf("Upper/Lower (%d days)", daysPerWeek)
	case SplitPushPullLegs:
		return fmt.Sprintf("Push/Pull/Legs (%d days)", daysPerWeek)
	default:
		return string(split)
	}
}
