package workout

// Phase transition requirements.
const (
	MinWeeksHypertrophy       = 6
	MinWeeksTransition        = 4
	MinProgressionConsistency = 0.7
	MaxAvgPainForTransition   = 2.0
)

// PhaseInput summarises the training since the current phase started.
type PhaseInput struct {
	Current      Phase
	WeeksInPhase int
	// ProgressionConsistency is the share of exercises that progressed or held without pain, from 0 to 1.
	ProgressionConsistency float64
	AvgPainLevel           float64
}

// RecommendPhase moves hypertrophy to transition and transition to strength once the phase has lasted long
// enough with consistent progression and little pain. Strength is terminal and a deload is left alone.
func RecommendPhase(in PhaseInput) Phase {
	var minWeeks int
	var next Phase
	switch in.Current {
	case PhaseHypertrophy:
		minWeeks, next = MinWeeksHypertrophy, PhaseTransition
	case PhaseTransition:
		minWeeks, next = MinWeeksTransition, PhaseStrength
	case PhaseStrength, PhaseDeload:
		return in.Current
	default:
		return in.Current
	}

	if in.WeeksInPhase >= minWeeks &&
		in.ProgressionConsistency >= MinProgressionConsistency &&
		in.AvgPainLevel <= MaxAvgPainForTransition {
		return next
	}
	return in.Current
}
