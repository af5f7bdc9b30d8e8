package workout

import (
	"slices"
	"strings"
)

// Caps of the rehab buckets. The active-wait pool is unbounded.
const (
	MaxWarmupRehab   = 8
	MaxCooldownRehab = 5
)

// RehabResult is the session passed to [IntegrateRehab] together with the rehab work attached to it.
type RehabResult struct {
	Session ProgramSession

	RehabPlan
}

// IntegrateRehab collects the rehab exercises for the active conditions and buckets them by placement.
//
// A condition matches the protocols of its own zone. Only when there are none the protocols of the
// mirrored zone are used. Rest-day exercises are left out. An exercise name is attached once across
// all buckets, taken from the protocol with the best priority. Buckets are ordered by protocol priority
// and the warmup and cooldown buckets are capped. The session's exercises are never modified.
func IntegrateRehab(session ProgramSession, conditions []HealthCondition, protocols []RehabProtocol) RehabResult {
	var matched []RehabProtocol
	seenProtocols := make(map[int]struct{})
	for _, c := range conditions {
		if !c.IsActive {
			continue
		}
		for _, p := range protocolsForZone(c.Zone, protocols) {
			if _, ok := seenProtocols[p.ID]; ok {
				continue
			}
			seenProtocols[p.ID] = struct{}{}
			matched = append(matched, p)
		}
	}
	// Stable so that protocols of equal priority keep the condition order.
	slices.SortStableFunc(matched, func(a, b RehabProtocol) int {
		return a.Priority - b.Priority
	})

	var plan RehabPlan
	placed := make(map[string]struct{})
	for _, p := range matched {
		for _, re := range p.Exercises {
			if re.Placement == PlacementRestDay {
				continue
			}
			key := strings.ToLower(strings.TrimSpace(re.Name))
			if _, ok := placed[key]; ok {
				continue
			}
			placed[key] = struct{}{}

			assignment := RehabAssignment{
				RehabExercise: re,
				ProtocolID:    p.ID,
				ConditionName: p.ConditionName,
				Priority:      p.Priority,
			}
			switch re.Placement {
			case PlacementWarmup:
				plan.WarmupRehab = append(plan.WarmupRehab, assignment)
			case PlacementActiveWait:
				plan.ActiveWaitPool = append(plan.ActiveWaitPool, assignment)
			case PlacementCooldown:
				plan.CooldownRehab = append(plan.CooldownRehab, assignment)
			case PlacementRestDay:
			}
		}
	}

	if len(plan.WarmupRehab) > MaxWarmupRehab {
		plan.WarmupRehab = plan.WarmupRehab[:MaxWarmupRehab]
	}
	if len(plan.CooldownRehab) > MaxCooldownRehab {
		plan.CooldownRehab = plan.CooldownRehab[:MaxCooldownRehab]
	}

	return RehabResult{Session: session, RehabPlan: plan}
}

// protocolsForZone returns the protocols for zone, falling back to its bilateral mirror.
func protocolsForZone(zone Zone, protocols []RehabProtocol) []RehabProtocol {
	if exact := protocolsWithZone(zone, protocols); len(exact) > 0 {
		return exact
	}
	mirrored, ok := zone.Mirror()
	if !ok {
		return nil
	}
	return protocolsWithZone(mirrored, protocols)
}

func protocolsWithZone(zone Zone, protocols []RehabProtocol) []RehabProtocol {
	var out []RehabProtocol
	for _, p := range protocols {
		if p.Zone == zone {
			out = append(out, p)
		}
	}
	return out
}

// AttachRehab integrates rehab work and cooldown mobility into every session of p.
func AttachRehab(
	p Program,
	conditions []HealthCondition,
	protocols []RehabProtocol,
	catalog []Exercise,
) Program {
	sessions := make([]ProgramSession, len(p.Sessions))
	for i, s := range p.Sessions {
		result := IntegrateRehab(s, conditions, protocols)
		session := result.Session
		session.Rehab = result.RehabPlan
		session.Cooldown = SelectCooldown(session, catalog, result.CooldownRehab, DefaultCooldownLimit)
		sessions[i] = session
	}
	p.Sessions = sessions
	return p
}
