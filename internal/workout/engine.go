package workout

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

// ExerciseStatus tracks one exercise through a workout.
type ExerciseStatus string

const (
	StatusPending    ExerciseStatus = "pending"
	StatusInProgress ExerciseStatus = "in_progress"
	StatusCompleted  ExerciseStatus = "completed"
	StatusSkipped    ExerciseStatus = "skipped"
)

// Starting weights as a share of bodyweight when an exercise has no history.
const (
	lowRepBodyweightShare  = 0.25
	highRepBodyweightShare = 0.15
	lowRepThreshold        = 6
	// defaultRIR is assumed for sets logged without reps in reserve.
	defaultRIR = 2
)

// LoggedSet is one performed set.
type LoggedSet struct {
	WeightKg    float64 `json:"weight_kg"`
	Reps        int     `json:"reps"`
	RIR         *int    `json:"rir,omitempty"`
	RestSeconds int     `json:"rest_seconds"`
	Pain        bool    `json:"pain"`
}

// Prescription is the load planned for an exercise in this workout.
type Prescription struct {
	WeightKg    float64
	TargetReps  int
	Sets        int
	RestSeconds int
	Action      ProgressionAction
	Reason      string
}

// ExerciseState is the runtime state of one exercise of the workout.
type ExerciseState struct {
	Exercise     Exercise
	Planned      ProgramExercise
	Prescription Prescription
	Status       ExerciseStatus
	Sets         []LoggedSet
	SkipReason   string
}

// EngineConfig carries the inputs of a workout. History is keyed by exercise ID.
type EngineConfig struct {
	WorkoutID        uuid.UUID
	Date             time.Time
	Session          ProgramSession
	Catalog          []Exercise
	History          map[int]ExerciseHistoryEntry
	BodyweightKg     *float64
	AvailableWeights []float64
	Phase            Phase
	Conditions       []HealthCondition
	Adjustments      []PainAdjustment
}

// SessionEngine walks the exercises of a session in order. It is owned by a single caller.
type SessionEngine struct {
	workoutID       uuid.UUID
	date            time.Time
	sessionName     string
	states          []ExerciseState
	current         int
	machineOccupied bool
}

// NewSessionEngine prepares the prescriptions of every exercise.
//
// Exercises contraindicated by a condition at [SessionSkipPainThreshold] or above and exercises with a skip
// adjustment start as skipped. The remaining ones are prescribed from history through
// [CalculateProgression] or, without history, from bodyweight. Without available weights the history
// weight is held, except in a deload week where [DeloadWeight] still applies.
//
// Exercises that need no equipment are not estimated from bodyweight: bodyweight is their load, so they
// are prescribed at 0 kg until an external load is logged for them.
func NewSessionEngine(cfg EngineConfig) (*SessionEngine, error) {
	byID := make(map[int]Exercise, len(cfg.Catalog))
	for _, e := range cfg.Catalog {
		byID[e.ID] = e
	}
	workoutID := cfg.WorkoutID
	if workoutID == uuid.Nil {
		workoutID = uuid.New()
	}

	allowed := make(map[int]struct{})
	sessionExercises := make([]Exercise, 0, len(cfg.Session.Exercises))
	for _, pe := range cfg.Session.Exercises {
		e, ok := byID[pe.ExerciseID]
		if !ok {
			return nil, fmt.Errorf("%w: session %s references unknown exercise %d",
				ErrInvalidInput, cfg.Session.Name, pe.ExerciseID)
		}
		sessionExercises = append(sessionExercises, e)
	}
	for _, e := range FilterContraindicated(sessionExercises, cfg.Conditions, SessionSkipPainThreshold) {
		allowed[e.ID] = struct{}{}
	}

	states := make([]ExerciseState, 0, len(cfg.Session.Exercises))
	for i, pe := range cfg.Session.Exercises {
		state := ExerciseState{
			Exercise:     sessionExercises[i],
			Planned:      pe,
			Prescription: Prescription{},
			Status:       StatusPending,
			Sets:         nil,
			SkipReason:   "",
		}
		adjustment, hasAdjustment := findAdjustment(cfg.Adjustments, pe.ExerciseID)
		switch {
		case !isAllowed(allowed, pe.ExerciseID):
			state.Status = StatusSkipped
			state.SkipReason = "contraindicated by a painful condition"
		case hasAdjustment && adjustment.Kind == AdjustmentSkip:
			state.Status = StatusSkipped
			state.SkipReason = "skipped after reported pain"
		default:
			prescription, err := prescribe(cfg, sessionExercises[i], pe, adjustment, hasAdjustment)
			if err != nil {
				return nil, fmt.Errorf("prescribe exercise %d: %w", pe.ExerciseID, err)
			}
			state.Prescription = prescription
		}
		states = append(states, state)
	}

	engine := &SessionEngine{
		workoutID:       workoutID,
		date:            cfg.Date,
		sessionName:     cfg.Session.Name,
		states:          states,
		current:         0,
		machineOccupied: false,
	}
	engine.skipFinished()
	return engine, nil
}

func isAllowed(allowed map[int]struct{}, id int) bool {
	_, ok := allowed[id]
	return ok
}

func findAdjustment(adjustments []PainAdjustment, exerciseID int) (PainAdjustment, bool) {
	idx := slices.IndexFunc(adjustments, func(a PainAdjustment) bool { return a.ExerciseID == exerciseID })
	if idx < 0 {
		return PainAdjustment{}, false //nolint:exhaustruct // absence.
	}
	return adjustments[idx], true
}

func prescribe(
	cfg EngineConfig,
	e Exercise,
	pe ProgramExercise,
	adj PainAdjustment,
	hasAdj bool,
) (Prescription, error) {
	p := Prescription{
		WeightKg:    0,
		TargetReps:  pe.TargetReps,
		Sets:        pe.Sets,
		RestSeconds: pe.RestSeconds,
		Action:      ActionMaintain,
		Reason:      "",
	}

	history, hasHistory := cfg.History[pe.ExerciseID]
	switch {
	case len(e.EquipmentNeeded) == 0 && (!hasHistory || history.WeightKg == 0):
		p.Reason = "bodyweight exercise"
	case hasHistory && len(cfg.AvailableWeights) == 0 && cfg.Phase == PhaseDeload:
		p.WeightKg = DeloadWeight(history.WeightKg, nil)
		p.Action = ActionDeload
		p.Reason = "deload week"
	case hasHistory && len(cfg.AvailableWeights) == 0:
		p.WeightKg = history.WeightKg
		p.Reason = "no available weights to progress with"
	case hasHistory:
		result, err := CalculateProgression(ProgressionInput{
			LastWeightKg:          history.WeightKg,
			TargetReps:            pe.TargetReps,
			TargetSets:            pe.Sets,
			ActualReps:            history.Reps,
			Outcome:               history.Outcome,
			AvgRestSeconds:        history.AvgRestSeconds,
			PrescribedRestSeconds: pe.RestSeconds,
			AvailableWeights:      cfg.AvailableWeights,
			Phase:                 cfg.Phase,
		})
		if err != nil {
			return Prescription{}, err
		}
		p.WeightKg = result.NextWeightKg
		p.TargetReps = result.NextTargetReps
		p.Action = result.Action
		p.Reason = result.Reason
	default:
		p.WeightKg = startingWeight(cfg.BodyweightKg, pe.TargetReps, cfg.AvailableWeights)
		p.Reason = "no history, estimated from bodyweight"
	}

	if !hasAdj {
		return p, nil
	}
	switch adj.Kind {
	case AdjustmentNoProgression:
		if hasHistory && p.WeightKg > history.WeightKg {
			p.WeightKg = history.WeightKg
			p.Action = ActionMaintain
			p.Reason = "no progression after reported pain"
		}
	case AdjustmentReduceWeight:
		reference := p.WeightKg
		if hasHistory {
			reference = history.WeightKg
		}
		if adj.ReferenceWeightKg != nil {
			reference = *adj.ReferenceWeightKg
		}
		p.WeightKg = 0
		if reference > 0 {
			p.WeightKg = SnapDown(reference*adj.WeightMultiplier, cfg.AvailableWeights)
		}
		p.Action = ActionDecrease
		p.Reason = "weight reduced after reported pain"
	case AdjustmentSkip:
	}
	return p, nil
}

// startingWeight estimates a first working weight for a loaded exercise. Without bodyweight the
// exercise is assumed to be a bodyweight exercise.
func startingWeight(bodyweightKg *float64, targetReps int, weights []float64) float64 {
	if bodyweightKg == nil || *bodyweightKg <= 0 {
		return 0
	}
	share := highRepBodyweightShare
	if targetReps <= lowRepThreshold {
		share = lowRepBodyweightShare
	}
	return SnapNearest(*bodyweightKg*share, weights)
}

// WorkoutID identifies this run of the session.
func (s *SessionEngine) WorkoutID() uuid.UUID {
	return s.workoutID
}

func (s *SessionEngine) SessionName() string {
	return s.sessionName
}

// Current returns the exercise at the pointer. It reports false once the session is complete.
func (s *SessionEngine) Current() (ExerciseState, bool) {
	if s.IsComplete() {
		return ExerciseState{}, false //nolint:exhaustruct // complete.
	}
	return s.cloneState(s.current), true
}

// Start marks the current exercise as in progress.
func (s *SessionEngine) Start() error {
	if s.IsComplete() {
		return fmt.Errorf("%w: session is complete", ErrInvalidInput)
	}
	if s.states[s.current].Status == StatusPending {
		s.states[s.current].Status = StatusInProgress
	}
	return nil
}

// LogSet appends a set to the current exercise. The exercise completes and the pointer advances once the
// prescribed number of sets is logged.
func (s *SessionEngine) LogSet(set LoggedSet) error {
	if err := s.Start(); err != nil {
		return err
	}
	if set.Reps < 0 || set.WeightKg < 0 {
		return fmt.Errorf("%w: negative reps or weight", ErrInvalidInput)
	}
	state := &s.states[s.current]
	state.Sets = append(state.Sets, set)
	if len(state.Sets) >= state.Prescription.Sets {
		state.Status = StatusCompleted
		s.advance()
	}
	return nil
}

// Skip marks the current exercise as skipped and advances.
func (s *SessionEngine) Skip(reason string) error {
	if s.IsComplete() {
		return fmt.Errorf("%w: session is complete", ErrInvalidInput)
	}
	s.states[s.current].Status = StatusSkipped
	s.states[s.current].SkipReason = reason
	s.advance()
	return nil
}

// SetMachineOccupied marks equipment contention without moving the pointer.
func (s *SessionEngine) SetMachineOccupied(occupied bool) {
	s.machineOccupied = occupied
}

func (s *SessionEngine) MachineOccupied() bool {
	return s.machineOccupied
}

// IsComplete reports whether the pointer has passed the last exercise.
func (s *SessionEngine) IsComplete() bool {
	return s.current >= len(s.states)
}

// States returns a copy of every exercise state in session order.
func (s *SessionEngine) States() []ExerciseState {
	out := make([]ExerciseState, len(s.states))
	for i := range s.states {
		out[i] = s.cloneState(i)
	}
	return out
}

func (s *SessionEngine) cloneState(i int) ExerciseState {
	st := s.states[i]
	st.Sets = slices.Clone(st.Sets)
	return st
}

func (s *SessionEngine) advance() {
	s.current++
	s.machineOccupied = false
	s.skipFinished()
}

// skipFinished moves the pointer past exercises that were skipped before they were reached.
func (s *SessionEngine) skipFinished() {
	for s.current < len(s.states) && s.states[s.current].Status == StatusSkipped {
		s.current++
	}
}

// HistoryEntries summarises the completed exercises. Pain during any set marks the outcome as
// [PainInterrupted].
func (s *SessionEngine) HistoryEntries(now time.Time) []ExerciseHistoryEntry {
	var entries []ExerciseHistoryEntry
	for _, st := range s.states {
		if st.Status != StatusCompleted || len(st.Sets) == 0 {
			continue
		}
		var (
			reps               []int
			rirSum, rirCount   int
			restSum, restCount int
			pain               bool
			weight             float64
		)
		for _, set := range st.Sets {
			reps = append(reps, set.Reps)
			weight = max(weight, set.WeightKg)
			if set.RIR != nil {
				rirSum += *set.RIR
				rirCount++
			}
			if set.RestSeconds > 0 {
				restSum += set.RestSeconds
				restCount++
			}
			pain = pain || set.Pain
		}

		avgRIR := float64(defaultRIR)
		if rirCount > 0 {
			avgRIR = float64(rirSum) / float64(rirCount)
		}
		var outcome PerformanceOutcome = NormalOutcome{AvgRIR: avgRIR}
		if pain {
			outcome = PainInterrupted{}
		}
		avgRest := 0.0
		if restCount > 0 {
			avgRest = math.Round(float64(restSum) / float64(restCount))
		}

		entries = append(entries, ExerciseHistoryEntry{
			ExerciseID:     st.Exercise.ID,
			WeightKg:       weight,
			Reps:           reps,
			Outcome:        outcome,
			AvgRestSeconds: avgRest,
			LastAction:     st.Prescription.Action,
			RecordedAt:     now,
		})
	}
	return entries
}

// NotebookEntries returns every logged set for persistence.
func (s *SessionEngine) NotebookEntries() []NotebookEntry {
	var entries []NotebookEntry
	for _, st := range s.states {
		for i, set := range st.Sets {
			entries = append(entries, NotebookEntry{
				ID:          0,
				UserID:      0,
				WorkoutID:   s.workoutID.String(),
				Date:        s.date,
				ExerciseID:  st.Exercise.ID,
				SetNumber:   i + 1,
				WeightKg:    set.WeightKg,
				Reps:        set.Reps,
				RIR:         set.RIR,
				RestSeconds: set.RestSeconds,
				Pain:        set.Pain,
			})
		}
	}
	return entries
}
