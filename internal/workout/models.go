package workout

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/myrjola/trainplan/internal/errors"
)

var (
	// ErrInvalidInput marks contract violations by the caller such as a non-positive schedule
	// or a session referencing an exercise that the catalog lacks.
	ErrInvalidInput = errors.NewSentinel("invalid input")
	// ErrNotFound is returned when a stored profile, program or session does not exist.
	ErrNotFound = errors.NewSentinel("not found")
)

// parseEnum validates s against the closed set valid.
func parseEnum[T ~string](kind string, s string, valid []T) (T, error) {
	v := T(strings.TrimSpace(s))
	if slices.Contains(valid, v) {
		return v, nil
	}
	return "", fmt.Errorf("%w: unknown %s %q", ErrInvalidInput, kind, s)
}

// Zone is a body zone that health conditions, contraindications and rehab protocols refer to.
type Zone string

const (
	ZoneNeck          Zone = "neck"
	ZoneShoulderLeft  Zone = "shoulder_left"
	ZoneShoulderRight Zone = "shoulder_right"
	ZoneElbowLeft     Zone = "elbow_left"
	ZoneElbowRight    Zone = "elbow_right"
	ZoneWristLeft     Zone = "wrist_left"
	ZoneWristRight    Zone = "wrist_right"
	ZoneUpperBack     Zone = "upper_back"
	ZoneLowerBack     Zone = "lower_back"
	ZoneHipLeft       Zone = "hip_left"
	ZoneHipRight      Zone = "hip_right"
	ZoneKneeLeft      Zone = "knee_left"
	ZoneKneeRight     Zone = "knee_right"
	ZoneAnkleLeft     Zone = "ankle_left"
	ZoneAnkleRight    Zone = "ankle_right"
)

// Zones lists every known body zone.
func Zones() []Zone {
	return []Zone{
		ZoneNeck, ZoneShoulderLeft, ZoneShoulderRight, ZoneElbowLeft, ZoneElbowRight, ZoneWristLeft,
		ZoneWristRight, ZoneUpperBack, ZoneLowerBack, ZoneHipLeft, ZoneHipRight, ZoneKneeLeft, ZoneKneeRight,
		ZoneAnkleLeft, ZoneAnkleRight,
	}
}

func ParseZone(s string) (Zone, error) {
	return parseEnum("zone", s, Zones())
}

// Mirror returns the bilateral counterpart of z. Zones without a left/right pair report false.
func (z Zone) Mirror() (Zone, bool) {
	var mirrored Zone
	switch {
	case strings.HasSuffix(string(z), "_left"):
		mirrored = Zone(strings.TrimSuffix(string(z), "_left") + "_right")
	case strings.HasSuffix(string(z), "_right"):
		mirrored = Zone(strings.TrimSuffix(string(z), "_right") + "_left")
	default:
		return "", false
	}
	if !slices.Contains(Zones(), mirrored) {
		return "", false
	}
	return mirrored, true
}

// Equipment identifies a piece of gym equipment.
type Equipment string

const (
	EquipmentBarbell        Equipment = "barbell"
	EquipmentDumbbell       Equipment = "dumbbell"
	EquipmentBench          Equipment = "bench"
	EquipmentSquatRack      Equipment = "squat_rack"
	EquipmentPullUpBar      Equipment = "pull_up_bar"
	EquipmentCableMachine   Equipment = "cable_machine"
	EquipmentLegPress       Equipment = "leg_press"
	EquipmentLegCurlMachine Equipment = "leg_curl_machine"
	EquipmentKettlebell     Equipment = "kettlebell"
	EquipmentResistanceBand Equipment = "resistance_band"
	EquipmentDipStation     Equipment = "dip_station"
	EquipmentFoamRoller     Equipment = "foam_roller"
)

func AllEquipment() []Equipment {
	return []Equipment{
		EquipmentBarbell, EquipmentDumbbell, EquipmentBench, EquipmentSquatRack, EquipmentPullUpBar,
		EquipmentCableMachine, EquipmentLegPress, EquipmentLegCurlMachine, EquipmentKettlebell,
		EquipmentResistanceBand, EquipmentDipStation, EquipmentFoamRoller,
	}
}

func ParseEquipment(s string) (Equipment, error) {
	return parseEnum("equipment", s, AllEquipment())
}

// Tag is a movement or muscle label used to match exercises to session slots.
type Tag string

const (
	TagPush       Tag = "push"
	TagPull       Tag = "pull"
	TagUpperBody  Tag = "upper_body"
	TagLegs       Tag = "legs"
	TagHorizontal Tag = "horizontal"
	TagVertical   Tag = "vertical"
	TagQuad       Tag = "quad"
	TagHamstring  Tag = "hamstring"
	TagGlute      Tag = "glute"
	TagChest      Tag = "chest"
	TagBack       Tag = "back"
	TagShoulders  Tag = "shoulders"
	TagBiceps     Tag = "biceps"
	TagTriceps    Tag = "triceps"
	TagCalves     Tag = "calves"
	TagCore       Tag = "core"
	TagUnilateral Tag = "unilateral"
	TagHinge      Tag = "hinge"
	TagSquat      Tag = "squat"
	TagRearDelt   Tag = "rear_delt"
)

func ParseTag(s string) (Tag, error) {
	return parseEnum("tag", s, []Tag{
		TagPush, TagPull, TagUpperBody, TagLegs, TagHorizontal, TagVertical, TagQuad, TagHamstring, TagGlute,
		TagChest, TagBack, TagShoulders, TagBiceps, TagTriceps, TagCalves, TagCore, TagUnilateral, TagHinge,
		TagSquat, TagRearDelt,
	})
}

// Category represents the type of exercise.
type Category string

const (
	CategoryCompound  Category = "compound"
	CategoryIsolation Category = "isolation"
	CategoryRehab     Category = "rehab"
	CategoryMobility  Category = "mobility"
	CategoryCore      Category = "core"
)

func ParseCategory(s string) (Category, error) {
	return parseEnum("category", s, []Category{
		CategoryCompound, CategoryIsolation, CategoryRehab, CategoryMobility, CategoryCore,
	})
}

type Goal string

const (
	GoalStrength       Goal = "strength"
	GoalHypertrophy    Goal = "hypertrophy"
	GoalRehab          Goal = "rehab"
	GoalGeneralFitness Goal = "general_fitness"
)

func ParseGoal(s string) (Goal, error) {
	return parseEnum("goal", s, []Goal{GoalStrength, GoalHypertrophy, GoalRehab, GoalGeneralFitness})
}

// Phase is the training block the user is currently in.
type Phase string

const (
	PhaseHypertrophy Phase = "hypertrophy"
	PhaseTransition  Phase = "transition"
	PhaseStrength    Phase = "strength"
	PhaseDeload      Phase = "deload"
)

func ParsePhase(s string) (Phase, error) {
	return parseEnum("phase", s, []Phase{PhaseHypertrophy, PhaseTransition, PhaseStrength, PhaseDeload})
}

// Split is the weekly division of training sessions.
type Split string

const (
	SplitFullBody     Split = "full_body"
	SplitUpperLower   Split = "upper_lower"
	SplitPushPullLegs Split = "push_pull_legs"
)

// Intensity is the daily undulating periodization variant of a session.
type Intensity string

const (
	IntensityHeavy    Intensity = "heavy"
	IntensityModerate Intensity = "moderate"
	IntensityVolume   Intensity = "volume"
)

// Placement tells where in the training week a rehab exercise is performed.
type Placement string

const (
	PlacementWarmup     Placement = "warmup"
	PlacementActiveWait Placement = "active_wait"
	PlacementCooldown   Placement = "cooldown"
	PlacementRestDay    Placement = "rest_day"
)

func ParsePlacement(s string) (Placement, error) {
	return parseEnum("placement", s, []Placement{
		PlacementWarmup, PlacementActiveWait, PlacementCooldown, PlacementRestDay,
	})
}

// Exercise represents a single exercise type, e.g. Goblet Squat, Dumbbell Row, etc.
type Exercise struct {
	ID                   int         `json:"id"`
	Name                 string      `json:"name"`
	Category             Category    `json:"category"`
	PrimaryMuscles       []string    `json:"primary_muscles"`
	SecondaryMuscles     []string    `json:"secondary_muscles"`
	EquipmentNeeded      []Equipment `json:"equipment_needed"`
	Contraindications    []Zone      `json:"contraindications"`
	Alternatives         []string    `json:"alternatives"`
	InstructionsMarkdown string      `json:"instructions_markdown"`
	IsRehab              bool        `json:"is_rehab"`
	TargetZone           *Zone       `json:"target_zone,omitempty"`
	Tags                 []Tag       `json:"tags"`
}

// HasTags reports whether e carries every tag in tags.
func (e Exercise) HasTags(tags ...Tag) bool {
	for _, t := range tags {
		if !slices.Contains(e.Tags, t) {
			return false
		}
	}
	return true
}

// HealthCondition is a pain or injury on a body zone. Conditions are deactivated, never deleted.
type HealthCondition struct {
	ID        int
	UserID    int
	Zone      Zone
	PainLevel int
	IsActive  bool
	Label     string
	Diagnosis string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GymEquipment marks whether a piece of equipment is available to the user.
type GymEquipment struct {
	UserID      int
	Name        Equipment
	IsAvailable bool
}

// UserProfile holds the schedule and training state of a user.
type UserProfile struct {
	ID                int
	Name              string
	BodyweightKg      *float64
	Goals             []Goal
	DaysPerWeek       int
	MinutesPerSession int
	AvailableWeights  []float64
	Phase             Phase
	PhaseStartedAt    time.Time
	LastDeloadAt      *time.Time
	PhaseBeforeDeload *Phase
}

// Program is a generated multi-session plan. Only one program per user is active at a time.
type Program struct {
	ID        int
	UserID    int
	Name      string
	Split     Split
	Sessions  []ProgramSession
	IsActive  bool
	CreatedAt time.Time
}

// ProgramSession is an ordered list of exercise prescriptions with advisory rehab work attached.
type ProgramSession struct {
	Name             string
	Intensity        Intensity
	Exercises        []ProgramExercise
	EstimatedMinutes int
	Rehab            RehabPlan
	Cooldown         []Exercise
}

// ProgramExercise prescribes one exercise of a session. Order starts from 1.
type ProgramExercise struct {
	ExerciseID  int
	Order       int
	Sets        int
	TargetReps  int
	RestSeconds int
	IsRehab     bool
	SlotLabel   string
}

// PerformanceOutcome summarises how an exercise went. It is either [NormalOutcome] or [PainInterrupted].
type PerformanceOutcome interface {
	isPerformanceOutcome()
}

// NormalOutcome carries the average reps in reserve over the logged sets.
type NormalOutcome struct {
	AvgRIR float64
}

// PainInterrupted means pain occurred while performing the exercise.
type PainInterrupted struct{}

func (NormalOutcome) isPerformanceOutcome()   {}
func (PainInterrupted) isPerformanceOutcome() {}

// legacyPainRIR is how older records encoded a pain interruption in the average RIR column.
const legacyPainRIR = -1

// OutcomeFromRIR decodes a stored outcome. The legacy avg_rir of -1 is read as [PainInterrupted].
func OutcomeFromRIR(avgRIR float64, painInterrupted bool) PerformanceOutcome {
	if painInterrupted || avgRIR == legacyPainRIR {
		return PainInterrupted{}
	}
	return NormalOutcome{AvgRIR: avgRIR}
}

// OutcomeRIR encodes an outcome for storage.
func OutcomeRIR(o PerformanceOutcome) (float64, bool) {
	switch v := o.(type) {
	case NormalOutcome:
		return v.AvgRIR, false
	case PainInterrupted:
		return legacyPainRIR, true
	default:
		return 0, false
	}
}

// ExerciseHistoryEntry is the latest observed performance of an exercise. Older entries are overwritten.
type ExerciseHistoryEntry struct {
	ExerciseID     int
	WeightKg       float64
	Reps           []int
	Outcome        PerformanceOutcome
	AvgRestSeconds float64
	LastAction     ProgressionAction
	RecordedAt     time.Time
}

// RehabExercise is one corrective exercise of a protocol. Reps is a count such as "12" or a time such as "30s".
type RehabExercise struct {
	Name      string    `json:"name"`
	Sets      int       `json:"sets"`
	Reps      string    `json:"reps"`
	Intensity string    `json:"intensity"`
	Notes     string    `json:"notes"`
	Placement Placement `json:"placement"`
}

// RehabProtocol is a set of corrective exercises for a condition on a body zone.
// Lower Priority values take precedence.
type RehabProtocol struct {
	ID                  int             `json:"id"`
	Zone                Zone            `json:"zone"`
	ConditionName       string          `json:"condition_name"`
	Exercises           []RehabExercise `json:"exercises"`
	Frequency           string          `json:"frequency"`
	Priority            int             `json:"priority"`
	ProgressionCriteria string          `json:"progression_criteria"`
}

// RehabAssignment is a rehab exercise together with the protocol it was taken from.
type RehabAssignment struct {
	RehabExercise

	ProtocolID    int    `json:"protocol_id"`
	ConditionName string `json:"condition_name"`
	Priority      int    `json:"priority"`
}

// RehabPlan buckets the rehab exercises attached to a session by placement.
type RehabPlan struct {
	WarmupRehab    []RehabAssignment `json:"warmup_rehab"`
	ActiveWaitPool []RehabAssignment `json:"active_wait_pool"`
	CooldownRehab  []RehabAssignment `json:"cooldown_rehab"`
}

// PainFeedbackEntry is the end-of-session pain check for one zone.
type PainFeedbackEntry struct {
	Zone            Zone     `json:"zone"`
	MaxPainLevel    int      `json:"max_pain_level"`
	DuringExercises []string `json:"during_exercises"`
}

type AdjustmentKind string

const (
	AdjustmentNoProgression AdjustmentKind = "no_progression"
	AdjustmentReduceWeight  AdjustmentKind = "reduce_weight"
	AdjustmentSkip          AdjustmentKind = "skip"
)

// PainAdjustment downgrades the next prescription of an exercise after reported pain.
type PainAdjustment struct {
	ExerciseID        int
	ExerciseName      string
	Kind              AdjustmentKind
	WeightMultiplier  float64
	ReferenceWeightKg *float64
	Zones             []Zone
}

// NotebookEntry is one logged set.
type NotebookEntry struct {
	ID          int
	UserID      int
	WorkoutID   string
	Date        time.Time
	ExerciseID  int
	SetNumber   int
	WeightKg    float64
	Reps        int
	RIR         *int
	RestSeconds int
	Pain        bool
}

// PainReport is a persisted [PainFeedbackEntry].
type PainReport struct {
	ID              int
	UserID          int
	WorkoutID       string
	Date            time.Time
	Zone            Zone
	MaxPainLevel    int
	DuringExercises []string
}
