package workout

import (
	"strings"
)

const DefaultCooldownLimit = 3

// SelectCooldown picks mobility exercises that stretch the muscles trained in session.
//
// Exercises already prescribed as rehab cooldown are left out. Candidates keep catalog order and at most
// limit are returned. A non-positive limit means [DefaultCooldownLimit].
func SelectCooldown(
	session ProgramSession,
	catalog []Exercise,
	rehabCooldown []RehabAssignment,
	limit int,
) []Exercise {
	if limit <= 0 {
		limit = DefaultCooldownLimit
	}

	byID := make(map[int]Exercise, len(catalog))
	for _, e := range catalog {
		byID[e.ID] = e
	}
	trained := make(map[string]struct{})
	for _, pe := range session.Exercises {
		for _, m := range byID[pe.ExerciseID].PrimaryMuscles {
			trained[strings.ToLower(m)] = struct{}{}
		}
	}
	prescribed := make(map[string]struct{}, len(rehabCooldown))
	for _, r := range rehabCooldown {
		prescribed[strings.ToLower(strings.TrimSpace(r.Name))] = struct{}{}
	}

	var selected []Exercise
	for _, e := range catalog {
		if len(selected) == limit {
			break
		}
		if e.Category != CategoryMobility {
			continue
		}
		if _, ok := prescribed[strings.ToLower(strings.TrimSpace(e.Name))]; ok {
			continue
		}
		for _, m := range e.PrimaryMuscles {
			if _, ok := trained[strings.ToLower(m)]; ok {
				selected = append(selected, e)
				break
			}
		}
	}
	return selected
}
