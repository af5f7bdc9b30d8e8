package workout

// Pain thresholds at or above which an active condition excludes the exercises contraindicated for its zone.
// Program generation uses the lower threshold so painful zones are planned around early. The session
// engine only auto-skips at workout start when the pain is severe.
const (
	ContraindicationPainThreshold = 3
	SessionSkipPainThreshold      = 7
)

// FilterContraindicated keeps the exercises that have no contraindicated zone with an active condition at
// or above threshold. The order of exercises is kept.
func FilterContraindicated(exercises []Exercise, conditions []HealthCondition, threshold int) []Exercise {
	blocked := make(map[Zone]struct{})
	for _, c := range conditions {
		if c.IsActive && c.PainLevel >= threshold {
			blocked[c.Zone] = struct{}{}
		}
	}
	if len(blocked) == 0 {
		return exercises
	}

	kept := make([]Exercise, 0, len(exercises))
	for _, e := range exercises {
		if !isContraindicated(e, blocked) {
			kept = append(kept, e)
		}
	}
	return kept
}

func isContraindicated(e Exercise, blocked map[Zone]struct{}) bool {
	for _, z := range e.Contraindications {
		if _, ok := blocked[z]; ok {
			return true
		}
	}
	return false
}

// FilterByEquipment keeps the exercises whose every required equipment is available.
// Bodyweight exercises with no requirements always pass.
func FilterByEquipment(exercises []Exercise, equipment []GymEquipment) []Exercise {
	available := make(map[Equipment]struct{})
	for _, eq := range equipment {
		if eq.IsAvailable {
			available[eq.Name] = struct{}{}
		}
	}

	kept := make([]Exercise, 0, len(exercises))
	for _, e := range exercises {
		if hasEquipment(e, available) {
			kept = append(kept, e)
		}
	}
	return kept
}

func hasEquipment(e Exercise, available map[Equipment]struct{}) bool {
	for _, need := range e.EquipmentNeeded {
		if _, ok := available[need]; !ok {
			return false
		}
	}
	return true
}
