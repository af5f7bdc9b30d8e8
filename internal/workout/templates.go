package workout

import (
	"slices"
)

// slot is a typed placeholder in a session template that resolves to one catalog exercise.
//
// When a session runs over its time budget the slot with the highest priority value is dropped first.
type slot struct {
	label       string
	priority    int
	categories  []Category
	tags        []Tag
	sets        int
	reps        int
	restSeconds int
}

func (s slot) matches(e Exercise) bool {
	return slices.Contains(s.categories, e.Category) && e.HasTags(s.tags...)
}

type sessionTemplate struct {
	name      string
	intensity Intensity
	slots     []slot
}

var (
	compound  = []Category{CategoryCompound}
	isolation = []Category{CategoryIsolation}
	coreWork  = []Category{CategoryCore}
	anyLift   = []Category{CategoryCompound, CategoryIsolation}
)

//nolint:mnd // slot defaults are training constants.
func compoundSlot(label string, priority int, reps int, rest int, tags ...Tag) slot {
	return slot{label: label, priority: priority, categories: compound, tags: tags, sets: 3, reps: reps, restSeconds: rest}
}

//nolint:mnd // slot defaults are training constants.
func accessorySlot(label string, priority int, tags ...Tag) slot {
	return slot{label: label, priority: priority, categories: isolation, tags: tags, sets: 3, reps: 12, restSeconds: 60}
}

//nolint:mnd // slot defaults are training constants.
func coreSlot(priority int) slot {
	return slot{label: "core", priority: priority, categories: coreWork, tags: []Tag{TagCore}, sets: 3, reps: 12,
		restSeconds: 45}
}

//nolint:mnd // the templates are data.
var (
	fullBodyTemplates = []sessionTemplate{
		{
			name:      "Full Body A",
			intensity: IntensityHeavy,
			slots: []slot{
				compoundSlot("quad compound", 1, 8, 120, TagSquat),
				compoundSlot("horizontal push", 2, 8, 120, TagPush, TagHorizontal),
				compoundSlot("horizontal pull", 3, 10, 90, TagPull, TagHorizontal),
				compoundSlot("hip hinge", 4, 8, 120, TagHinge),
				accessorySlot("shoulder accessory", 6, TagShoulders),
				coreSlot(7),
			},
		},
		{
			name:      "Full Body B",
			intensity: IntensityVolume,
			slots: []slot{
				compoundSlot("hip hinge", 1, 10, 90, TagHinge),
				compoundSlot("vertical pull", 2, 8, 120, TagPull, TagVertical),
				compoundSlot("vertical push", 3, 8, 120, TagPush, TagVertical),
				compoundSlot("single-leg", 4, 10, 90, TagLegs, TagUnilateral),
				accessorySlot("biceps", 6, TagBiceps),
				coreSlot(7),
			},
		},
		{
			name:      "Full Body C",
			intensity: IntensityModerate,
			slots: []slot{
				compoundSlot("quad compound", 1, 10, 90, TagSquat),
				compoundSlot("horizontal pull", 2, 10, 90, TagPull, TagHorizontal),
				compoundSlot("horizontal push", 3, 10, 90, TagPush, TagHorizontal),
				{label: "glutes", priority: 5, categories: anyLift, tags: []Tag{TagGlute}, sets: 3, reps: 12,
					restSeconds: 60},
				accessorySlot("triceps", 6, TagTriceps),
				coreSlot(7),
			},
		},
	}

	upperLowerTemplates = []sessionTemplate{
		{
			name:      "Upper A",
			intensity: IntensityHeavy,
			slots: []slot{
				compoundSlot("horizontal push", 1, 8, 120, TagPush, TagHorizontal),
				compoundSlot("horizontal pull", 2, 8, 120, TagPull, TagHorizontal),
				compoundSlot("vertical push", 3, 10, 90, TagPush, TagVertical),
				compoundSlot("vertical pull", 4, 10, 90, TagPull, TagVertical),
				accessorySlot("rear delts", 6, TagRearDelt),
				accessorySlot("biceps", 7, TagBiceps),
				accessorySlot("triceps", 8, TagTriceps),
			},
		},
		{
			name:      "Lower A (quad focus)",
			intensity: IntensityHeavy,
			slots: []slot{
				compoundSlot("quad compound", 1, 8, 120, TagSquat),
				compoundSlot("single-leg", 2, 10, 90, TagLegs, TagUnilateral),
				compoundSlot("hip hinge", 3, 10, 90, TagHinge),
				accessorySlot("quad isolation", 5, TagQuad),
				accessorySlot("calves", 7, TagCalves),
				coreSlot(8),
			},
		},
		{
			name:      "Upper B",
			intensity: IntensityVolume,
			slots: []slot{
				compoundSlot("vertical push", 1, 8, 120, TagPush, TagVertical),
				compoundSlot("vertical pull", 2, 8, 120, TagPull, TagVertical),
				compoundSlot("horizontal push", 3, 10, 90, TagPush, TagHorizontal),
				compoundSlot("horizontal pull", 4, 10, 90, TagPull, TagHorizontal),
				accessorySlot("shoulder accessory", 6, TagShoulders),
				accessorySlot("triceps", 7, TagTriceps),
				accessorySlot("biceps", 8, TagBiceps),
			},
		},
		{
			name:      "Lower B (hamstring focus)",
			intensity: IntensityVolume,
			slots: []slot{
				compoundSlot("hip hinge", 1, 8, 120, TagHinge),
				accessorySlot("hamstring isolation", 2, TagHamstring),
				compoundSlot("single-leg", 3, 10, 90, TagLegs, TagUnilateral),
				{label: "glutes", priority: 5, categories: anyLift, tags: []Tag{TagGlute}, sets: 3, reps: 12,
					restSeconds: 60},
				accessorySlot("calves", 7, TagCalves),
				coreSlot(8),
			},
		},
	}

	pushPullLegsTemplates = []sessionTemplate{
		{
			name:      "Push A",
			intensity: IntensityHeavy,
			slots: []slot{
				compoundSlot("horizontal push", 1, 8, 120, TagPush, TagHorizontal),
				compoundSlot("vertical push", 2, 10, 90, TagPush, TagVertical),
				accessorySlot("chest isolation", 4, TagChest),
				accessorySlot("shoulder accessory", 5, TagShoulders),
				accessorySlot("triceps", 6, TagTriceps),
			},
		},
		{
			name:      "Pull A",
			intensity: IntensityHeavy,
			slots: []slot{
				compoundSlot("vertical pull", 1, 8, 120, TagPull, TagVertical),
				compoundSlot("horizontal pull", 2, 10, 90, TagPull, TagHorizontal),
				accessorySlot("rear delts", 4, TagRearDelt),
				accessorySlot("biceps", 5, TagBiceps),
				coreSlot(6),
			},
		},
		{
			name:      "Legs A",
			intensity: IntensityHeavy,
			slots: []slot{
				compoundSlot("quad compound", 1, 8, 120, TagSquat),
				compoundSlot("hip hinge", 2, 10, 90, TagHinge),
				compoundSlot("single-leg", 3, 10, 90, TagLegs, TagUnilateral),
				accessorySlot("quad isolation", 5, TagQuad),
				accessorySlot("calves", 6, TagCalves),
				coreSlot(7),
			},
		},
		{
			name:      "Push B",
			intensity: IntensityVolume,
			slots: []slot{
				compoundSlot("vertical push", 1, 8, 120, TagPush, TagVertical),
				compoundSlot("horizontal push", 2, 10, 90, TagPush, TagHorizontal),
				accessorySlot("triceps", 4, TagTriceps),
				accessorySlot("shoulder accessory", 5, TagShoulders),
				accessorySlot("chest isolation", 6, TagChest),
			},
		},
		{
			name:      "Pull B",
			intensity: IntensityVolume,
			slots: []slot{
				compoundSlot("horizontal pull", 1, 8, 120, TagPull, TagHorizontal),
				compoundSlot("vertical pull", 2, 10, 90, TagPull, TagVertical),
				accessorySlot("biceps", 4, TagBiceps),
				accessorySlot("rear delts", 5, TagRearDelt),
				coreSlot(6),
			},
		},
		{
			name:      "Legs B",
			intensity: IntensityVolume,
			slots: []slot{
				compoundSlot("hip hinge", 1, 8, 120, TagHinge),
				compoundSlot("single-leg", 2, 10, 90, TagLegs, TagUnilateral),
				accessorySlot("hamstring isolation", 3, TagHamstring),
				{label: "glutes", priority: 5, categories: anyLift, tags: []Tag{TagGlute}, sets: 3, reps: 12,
					restSeconds: 60},
				accessorySlot("calves", 6, TagCalves),
				coreSlot(7),
			},
		},
	}
)

// templatesFor returns the session templates used for split on the given number of training days.
func templatesFor(split Split, daysPerWeek int) []sessionTemplate {
	switch split {
	case SplitFullBody:
		return fullBodyTemplates[:min(daysPerWeek, len(fullBodyTemplates))]
	case SplitUpperLower:
		return upperLowerTemplates
	case SplitPushPullLegs:
		if daysPerWeek == 5 { //nolint:mnd // five days drops Legs B.
			return pushPullLegsTemplates[:5]
		}
		return pushPullLegsTemplates
	default:
		return nil
	}
}

// Intensity adjustments.
const (
	heavyMaxReps          = 6
	heavyRestSeconds      = 120
	volumeMinCompoundReps = 10
	volumeMinAccessory    = 12
	volumeCompoundRest    = 75
	volumeAccessoryRest   = 60
	moderateMaxRest       = 90
)

// applyIntensity adapts the slot defaults to the session's intensity variant.
func applyIntensity(pe ProgramExercise, category Category, intensity Intensity) ProgramExercise {
	if category == CategoryCompound {
		switch intensity {
		case IntensityHeavy:
			pe.TargetReps = min(pe.TargetReps, heavyMaxReps)
			pe.Sets++
			pe.RestSeconds = heavyRestSeconds
		case IntensityVolume:
			pe.TargetReps = max(pe.TargetReps, volumeMinCompoundReps)
			pe.RestSeconds = min(pe.RestSeconds, volumeCompoundRest)
		case IntensityModerate:
			pe.RestSeconds = min(pe.RestSeconds, moderateMaxRest)
		}
		return pe
	}

	switch intensity {
	case IntensityHeavy, IntensityModerate:
		pe.RestSeconds = min(pe.RestSeconds, moderateMaxRest)
	case IntensityVolume:
		pe.TargetReps = max(pe.TargetReps, volumeMinAccessory)
		pe.RestSeconds = min(pe.RestSeconds, volumeAccessoryRest)
	}
	return pe
}
