package workout

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/trainplan/internal/errors"
	"github.com/myrjola/trainplan/internal/ptr"
	"github.com/myrjola/trainplan/internal/sqlite"
	"golang.org/x/sync/errgroup"
)

// Service handles the business logic of the training planner. Every method operates on the user stored
// in the context with contexthelpers.WithUserID.
type Service struct {
	repo      *repository
	logger    *slog.Logger
	protocols []RehabProtocol
}

// NewService creates a new planner service. protocols are the rehab protocols available for integration.
func NewService(db *sqlite.Database, logger *slog.Logger, protocols []RehabProtocol) *Service {
	factory := newRepositoryFactory(db, logger)
	return &Service{
		repo:      factory.newRepository(),
		logger:    logger,
		protocols: protocols,
	}
}

// SeedCatalog validates and upserts the exercise catalog. Seeding the same catalog twice is a no-op.
func (s *Service) SeedCatalog(ctx context.Context, exercises []Exercise) error {
	if _, err := indexCatalog(exercises); err != nil {
		return fmt.Errorf("validate catalog: %w", err)
	}
	if err := s.repo.exercises.Upsert(ctx, exercises); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "catalog seeded", slog.Int("exercises", len(exercises)))
	return nil
}

// Exercises returns the stored exercise catalog.
func (s *Service) Exercises(ctx context.Context) ([]Exercise, error) {
	exercises, err := s.repo.exercises.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("get exercises: %w", err)
	}
	return exercises, nil
}

// SaveProfile creates or updates the schedule of the user. The training phase state of an existing
// profile is kept and a new profile starts in the hypertrophy phase at now.
func (s *Service) SaveProfile(ctx context.Context, p UserProfile, now time.Time) error {
	if err := validateProfile(p); err != nil {
		return err
	}
	existing, err := s.repo.profiles.Get(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		if p.Phase == "" {
			p.Phase = PhaseHypertrophy
		}
		if p.PhaseStartedAt.IsZero() {
			p.PhaseStartedAt = now
		}
	case err != nil:
		return fmt.Errorf("get user profile: %w", err)
	default:
		p.Phase = existing.Phase
		p.PhaseStartedAt = existing.PhaseStartedAt
		p.LastDeloadAt = existing.LastDeloadAt
		p.PhaseBeforeDeload = existing.PhaseBeforeDeload
	}
	if err = s.repo.profiles.Set(ctx, p); err != nil {
		return fmt.Errorf("save user profile: %w", err)
	}
	return nil
}

const maxDaysPerWeek = 7

func validateProfile(p UserProfile) error {
	if p.DaysPerWeek <= 0 || p.DaysPerWeek > maxDaysPerWeek {
		return fmt.Errorf("%w: days per week must be between 1 and 7, got %d", ErrInvalidInput, p.DaysPerWeek)
	}
	if p.MinutesPerSession <= 0 {
		return fmt.Errorf("%w: minutes per session must be positive, got %d", ErrInvalidInput, p.MinutesPerSession)
	}
	if p.BodyweightKg != nil && *p.BodyweightKg <= 0 {
		return fmt.Errorf("%w: bodyweight must be positive", ErrInvalidInput)
	}
	for _, w := range p.AvailableWeights {
		if w < 0 {
			return fmt.Errorf("%w: negative available weight %v", ErrInvalidInput, w)
		}
	}
	for _, g := range p.Goals {
		if _, err := ParseGoal(string(g)); err != nil {
			return err
		}
	}
	return nil
}

// Profile returns the profile of the user.
func (s *Service) Profile(ctx context.Context) (UserProfile, error) {
	p, err := s.repo.profiles.Get(ctx)
	if err != nil {
		return UserProfile{}, fmt.Errorf("get user profile: %w", err)
	}
	return p, nil
}

const maxPainLevel = 10

func validatePain(painLevel int) error {
	if painLevel < 0 || painLevel > maxPainLevel {
		return fmt.Errorf("%w: pain level must be between 0 and 10, got %d", ErrInvalidInput, painLevel)
	}
	return nil
}

// AddCondition records a new active health condition.
func (s *Service) AddCondition(ctx context.Context, c HealthCondition, now time.Time) (HealthCondition, error) {
	if _, err := ParseZone(string(c.Zone)); err != nil {
		return HealthCondition{}, err
	}
	if err := validatePain(c.PainLevel); err != nil {
		return HealthCondition{}, err
	}
	c.IsActive = true
	c.CreatedAt = now
	c.UpdatedAt = now
	created, err := s.repo.conditions.Create(ctx, c)
	if err != nil {
		return HealthCondition{}, fmt.Errorf("add condition: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "condition added",
		slog.Int("condition_id", created.ID), slog.String("zone", string(created.Zone)))
	return created, nil
}

// UpdateConditionPain sets the current pain level of a condition.
func (s *Service) UpdateConditionPain(ctx context.Context, id int, painLevel int, now time.Time) error {
	if err := validatePain(painLevel); err != nil {
		return err
	}
	if err := s.repo.conditions.Update(ctx, id, func(c *HealthCondition) (bool, error) {
		if c.PainLevel == painLevel {
			return false, nil
		}
		c.PainLevel = painLevel
		c.UpdatedAt = now
		return true, nil
	}); err != nil {
		return fmt.Errorf("update condition pain: %w", err)
	}
	return nil
}

// DeactivateCondition marks a condition as resolved. Conditions are never deleted.
func (s *Service) DeactivateCondition(ctx context.Context, id int, now time.Time) error {
	if err := s.repo.conditions.Update(ctx, id, func(c *HealthCondition) (bool, error) {
		if !c.IsActive {
			return false, nil
		}
		c.IsActive = false
		c.UpdatedAt = now
		return true, nil
	}); err != nil {
		return fmt.Errorf("deactivate condition: %w", err)
	}
	return nil
}

// ListConditions returns the conditions of the user, optionally only the active ones.
func (s *Service) ListConditions(ctx context.Context, activeOnly bool) ([]HealthCondition, error) {
	conditions, err := s.repo.conditions.List(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list conditions: %w", err)
	}
	return conditions, nil
}

// SetEquipment stores the full equipment inventory, marking the given equipment as available.
func (s *Service) SetEquipment(ctx context.Context, available []Equipment) error {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return err
	}
	for _, eq := range available {
		if _, err = ParseEquipment(string(eq)); err != nil {
			return err
		}
	}
	inventory := make([]GymEquipment, 0, len(AllEquipment()))
	for _, eq := range AllEquipment() {
		inventory = append(inventory, GymEquipment{
			UserID:      userID,
			Name:        eq,
			IsAvailable: slices.Contains(available, eq),
		})
	}
	if err = s.repo.equipment.Set(ctx, inventory); err != nil {
		return fmt.Errorf("set equipment: %w", err)
	}
	return nil
}

// ListEquipment returns the equipment inventory of the user.
func (s *Service) ListEquipment(ctx context.Context) ([]GymEquipment, error) {
	equipment, err := s.repo.equipment.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return equipment, nil
}

// RegenerateProgram generates a new program from the current profile, conditions and equipment and
// stores it as the active program.
func (s *Service) RegenerateProgram(ctx context.Context, now time.Time) (Program, error) {
	var (
		profile    UserProfile
		conditions []HealthCondition
		equipment  []GymEquipment
		catalog    []Exercise
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		profile, err = s.repo.profiles.Get(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		conditions, err = s.repo.conditions.List(gctx, true)
		return err
	})
	g.Go(func() error {
		var err error
		equipment, err = s.repo.equipment.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		catalog, err = s.repo.exercises.List(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Program{}, fmt.Errorf("load program inputs: %w", err)
	}

	program, err := GenerateProgram(ProgramInput{
		UserID:            profile.ID,
		Goals:             profile.Goals,
		Conditions:        conditions,
		Equipment:         equipment,
		AvailableWeights:  profile.AvailableWeights,
		DaysPerWeek:       profile.DaysPerWeek,
		MinutesPerSession: profile.MinutesPerSession,
	}, catalog)
	if err != nil {
		return Program{}, fmt.Errorf("generate program: %w", err)
	}
	program = AttachRehab(program, conditions, s.protocols, catalog)
	program.CreatedAt = now

	if program, err = s.repo.programs.Replace(ctx, program); err != nil {
		return Program{}, fmt.Errorf("store program: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "program regenerated",
		slog.Int("program_id", program.ID),
		slog.String("split", string(program.Split)),
		slog.Int("sessions", len(program.Sessions)))
	return program, nil
}

// ActiveProgram returns the active program of the user.
func (s *Service) ActiveProgram(ctx context.Context) (Program, error) {
	p, err := s.repo.programs.GetActive(ctx)
	if err != nil {
		return Program{}, fmt.Errorf("get active program: %w", err)
	}
	return p, nil
}

// StartWorkout prepares a session engine for the session at sessionIndex of the active program.
// The pain reported after the previous workout adjusts the prescriptions.
func (s *Service) StartWorkout(ctx context.Context, sessionIndex int, date time.Time) (*SessionEngine, error) {
	program, err := s.ActiveProgram(ctx)
	if err != nil {
		return nil, err
	}
	if sessionIndex < 0 || sessionIndex >= len(program.Sessions) {
		return nil, fmt.Errorf("%w: session %d out of range, the program has %d sessions",
			ErrInvalidInput, sessionIndex+1, len(program.Sessions))
	}
	session := program.Sessions[sessionIndex]

	var (
		profile    UserProfile
		catalog    []Exercise
		history    map[int]ExerciseHistoryEntry
		conditions []HealthCondition
		reports    []PainReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var loadErr error
		profile, loadErr = s.repo.profiles.Get(gctx)
		return loadErr
	})
	g.Go(func() error {
		var loadErr error
		catalog, loadErr = s.repo.exercises.List(gctx)
		return loadErr
	})
	g.Go(func() error {
		var loadErr error
		history, loadErr = s.repo.history.List(gctx)
		return loadErr
	})
	g.Go(func() error {
		var loadErr error
		conditions, loadErr = s.repo.conditions.List(gctx, true)
		return loadErr
	})
	g.Go(func() error {
		var loadErr error
		reports, loadErr = s.repo.workouts.LatestPainReports(gctx)
		return loadErr
	})
	if err = g.Wait(); err != nil {
		return nil, fmt.Errorf("load workout inputs: %w", err)
	}

	adjustments := CalculatePainAdjustments(feedbackFrom(reports), sessionExercises(session, catalog),
		referenceWeights(history))

	engine, err := NewSessionEngine(EngineConfig{
		WorkoutID:        uuid.New(),
		Date:             date,
		Session:          session,
		Catalog:          catalog,
		History:          history,
		BodyweightKg:     profile.BodyweightKg,
		AvailableWeights: profile.AvailableWeights,
		Phase:            profile.Phase,
		Conditions:       conditions,
		Adjustments:      adjustments,
	})
	if err != nil {
		return nil, fmt.Errorf("start workout: %w", err)
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "workout started",
		slog.String("workout_id", engine.WorkoutID().String()),
		slog.String("session", session.Name),
		slog.Int("pain_adjustments", len(adjustments)))
	return engine, nil
}

func feedbackFrom(reports []PainReport) []PainFeedbackEntry {
	feedback := make([]PainFeedbackEntry, 0, len(reports))
	for _, r := range reports {
		feedback = append(feedback, PainFeedbackEntry{
			Zone:            r.Zone,
			MaxPainLevel:    r.MaxPainLevel,
			DuringExercises: r.DuringExercises,
		})
	}
	return feedback
}

func sessionExercises(session ProgramSession, catalog []Exercise) []Exercise {
	var exercises []Exercise
	for _, pe := range session.Exercises {
		if idx := slices.IndexFunc(catalog, func(e Exercise) bool { return e.ID == pe.ExerciseID }); idx >= 0 {
			exercises = append(exercises, catalog[idx])
		}
	}
	return exercises
}

func referenceWeights(history map[int]ExerciseHistoryEntry) map[int]float64 {
	weights := make(map[int]float64, len(history))
	for id, h := range history {
		weights[id] = h.WeightKg
	}
	return weights
}

// WorkoutSummary is what finishing a workout recorded and what it changes for the next one.
type WorkoutSummary struct {
	WorkoutID   uuid.UUID
	History     []ExerciseHistoryEntry
	Adjustments []PainAdjustment
	Conditions  ConditionChanges
}

// FinishWorkout persists the logged sets, the exercise history, the pain check and any detected health
// conditions in one transaction.
func (s *Service) FinishWorkout(
	ctx context.Context,
	engine *SessionEngine,
	feedback []PainFeedbackEntry,
	now time.Time,
) (WorkoutSummary, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return WorkoutSummary{}, err
	}
	for _, f := range feedback {
		if _, err = ParseZone(string(f.Zone)); err != nil {
			return WorkoutSummary{}, err
		}
		if err = validatePain(f.MaxPainLevel); err != nil {
			return WorkoutSummary{}, err
		}
	}

	conditions, err := s.repo.conditions.List(ctx, true)
	if err != nil {
		return WorkoutSummary{}, fmt.Errorf("list conditions: %w", err)
	}
	changes := DetectConditions(feedback, conditions, userID, now)
	history := engine.HistoryEntries(now)

	reports := make([]PainReport, 0, len(feedback))
	for _, f := range feedback {
		reports = append(reports, PainReport{
			ID:              0,
			UserID:          userID,
			WorkoutID:       engine.WorkoutID().String(),
			Date:            engine.date,
			Zone:            f.Zone,
			MaxPainLevel:    f.MaxPainLevel,
			DuringExercises: f.DuringExercises,
		})
	}

	if err = s.repo.workouts.Record(ctx, workoutLog{
		workoutID:         engine.WorkoutID().String(),
		sessionName:       engine.SessionName(),
		date:              engine.date,
		finishedAt:        now,
		notebook:          engine.NotebookEntries(),
		history:           history,
		painReports:       reports,
		createdConditions: changes.Created,
		updatedConditions: changes.Updated,
	}); err != nil {
		return WorkoutSummary{}, fmt.Errorf("finish workout: %w", err)
	}

	weights := make(map[int]float64, len(history))
	for _, h := range history {
		weights[h.ExerciseID] = h.WeightKg
	}
	var exercises []Exercise
	for _, st := range engine.States() {
		exercises = append(exercises, st.Exercise)
	}
	summary := WorkoutSummary{
		WorkoutID:   engine.WorkoutID(),
		History:     history,
		Adjustments: CalculatePainAdjustments(feedback, exercises, weights),
		Conditions:  changes,
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, "workout finished",
		slog.String("workout_id", summary.WorkoutID.String()),
		slog.Int("exercises_recorded", len(history)),
		slog.Int("conditions_created", len(changes.Created)),
		slog.Int("conditions_updated", len(changes.Updated)))
	return summary, nil
}

// Notebook returns the sets logged on or after since.
func (s *Service) Notebook(ctx context.Context, since time.Time) ([]NotebookEntry, error) {
	entries, err := s.repo.workouts.NotebookSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("get notebook: %w", err)
	}
	return entries, nil
}

// PhaseChange reports the outcome of [Service.EvaluatePhase].
type PhaseChange struct {
	From   Phase
	To     Phase
	Reason string
}

func (c PhaseChange) Changed() bool {
	return c.From != c.To
}

const (
	deloadWeeks = 1
	daysPerWeek = 7
)

func weeksBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	return int(to.Sub(from).Hours() / 24 / daysPerWeek) //nolint:mnd // hours per day.
}

// EvaluatePhase advances the training phase of the user. At most one change is applied per call:
//
//  1. a deload ends after one week and the phase before it is restored;
//  2. otherwise [RecommendPhase] decides on a transition from the history recorded in the current phase;
//  3. otherwise a deload starts when [ShouldDeload] says so, counting from the last deload.
func (s *Service) EvaluatePhase(ctx context.Context, now time.Time) (PhaseChange, error) {
	profile, err := s.repo.profiles.Get(ctx)
	if err != nil {
		return PhaseChange{}, fmt.Errorf("get user profile: %w", err)
	}
	var (
		history map[int]ExerciseHistoryEntry
		reports []PainReport
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var loadErr error
		history, loadErr = s.repo.history.List(gctx)
		return loadErr
	})
	g.Go(func() error {
		var loadErr error
		reports, loadErr = s.repo.workouts.PainReportsSince(gctx, profile.PhaseStartedAt)
		return loadErr
	})
	if err = g.Wait(); err != nil {
		return PhaseChange{}, fmt.Errorf("load phase inputs: %w", err)
	}

	var change PhaseChange
	err = s.repo.profiles.Update(ctx, func(p *UserProfile) (bool, error) {
		change = evaluatePhase(p, history, reports, now)
		return change.Changed(), nil
	})
	if err != nil {
		return PhaseChange{}, fmt.Errorf("evaluate phase: %w", err)
	}
	if change.Changed() {
		s.logger.LogAttrs(ctx, slog.LevelInfo, "phase changed",
			slog.String("from", string(change.From)),
			slog.String("to", string(change.To)),
			slog.String("reason", change.Reason))
	}
	return change, nil
}

// evaluatePhase applies the phase rules to p in place.
func evaluatePhase(
	p *UserProfile,
	history map[int]ExerciseHistoryEntry,
	reports []PainReport,
	now time.Time,
) PhaseChange {
	change := PhaseChange{From: p.Phase, To: p.Phase, Reason: ""}

	if p.Phase == PhaseDeload {
		started := ptr.ValueOr(p.LastDeloadAt, p.PhaseStartedAt)
		if weeksBetween(started, now) < deloadWeeks {
			change.Reason = "deload week in progress"
			return change
		}
		p.Phase = ptr.ValueOr(p.PhaseBeforeDeload, PhaseHypertrophy)
		p.PhaseBeforeDeload = nil
		change.To = p.Phase
		change.Reason = "deload week finished"
		return change
	}

	consistent, total := 0, 0
	for _, h := range history {
		if h.RecordedAt.Before(p.PhaseStartedAt) {
			continue
		}
		total++
		if _, pain := h.Outcome.(PainInterrupted); !pain && h.LastAction != ActionDecrease {
			consistent++
		}
	}
	consistency := 0.0
	if total > 0 {
		consistency = float64(consistent) / float64(total)
	}
	avgPain := 0.0
	if len(reports) > 0 {
		sum := 0
		for _, r := range reports {
			sum += r.MaxPainLevel
		}
		avgPain = float64(sum) / float64(len(reports))
	}

	next := RecommendPhase(PhaseInput{
		Current:                p.Phase,
		WeeksInPhase:           weeksBetween(p.PhaseStartedAt, now),
		ProgressionConsistency: consistency,
		AvgPainLevel:           avgPain,
	})
	if next != p.Phase {
		p.Phase = next
		p.PhaseStartedAt = now
		change.To = next
		change.Reason = fmt.Sprintf("consistency %.0f%% with average pain %.1f", consistency*100, avgPain) //nolint:mnd // percent.
		return change
	}

	if ShouldDeload(weeksBetween(ptr.ValueOr(p.LastDeloadAt, p.PhaseStartedAt), now)) {
		p.PhaseBeforeDeload = ptr.Ref(p.Phase)
		p.Phase = PhaseDeload
		p.LastDeloadAt = ptr.Ref(now)
		change.To = PhaseDeload
		change.Reason = fmt.Sprintf("%d weeks since the last deload", WeeksBeforeDeload)
		return change
	}

	change.Reason = "no change"
	return change
}
