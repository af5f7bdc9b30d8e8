// Package catalog embeds the built-in exercise catalog and rehab protocols.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/myrjola/trainplan/internal/workout"
)

var (
	//go:embed exercises.json
	exercisesJSON []byte
	//go:embed protocols.json
	protocolsJSON []byte
)

// Exercises decodes and validates the built-in exercise catalog.
func Exercises() ([]workout.Exercise, error) {
	return parseExercises(exercisesJSON)
}

// Protocols decodes and validates the built-in rehab protocols.
func Protocols() ([]workout.RehabProtocol, error) {
	return parseProtocols(protocolsJSON)
}

func parseExercises(data []byte) ([]workout.Exercise, error) {
	var exercises []workout.Exercise
	if err := json.Unmarshal(data, &exercises); err != nil {
		return nil, fmt.Errorf("decode exercises: %w", err)
	}
	ids := make(map[int]struct{}, len(exercises))
	names := make(map[string]struct{}, len(exercises))
	for _, e := range exercises {
		if err := validateExercise(e); err != nil {
			return nil, fmt.Errorf("exercise %d %q: %w", e.ID, e.Name, err)
		}
		if _, ok := ids[e.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate exercise id %d", workout.ErrInvalidInput, e.ID)
		}
		ids[e.ID] = struct{}{}
		name := strings.ToLower(e.Name)
		if _, ok := names[name]; ok {
			return nil, fmt.Errorf("%w: duplicate exercise name %q", workout.ErrInvalidInput, e.Name)
		}
		names[name] = struct{}{}
	}
	return exercises, nil
}

func validateExercise(e workout.Exercise) error {
	if e.ID <= 0 || strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("%w: exercise needs an id and a name", workout.ErrInvalidInput)
	}
	if _, err := workout.ParseCategory(string(e.Category)); err != nil {
		return err
	}
	for _, eq := range e.EquipmentNeeded {
		if _, err := workout.ParseEquipment(string(eq)); err != nil {
			return err
		}
	}
	for _, z := range e.Contraindications {
		if _, err := workout.ParseZone(string(z)); err != nil {
			return err
		}
	}
	for _, t := range e.Tags {
		if _, err := workout.ParseTag(string(t)); err != nil {
			return err
		}
	}
	if e.TargetZone != nil {
		if _, err := workout.ParseZone(string(*e.TargetZone)); err != nil {
			return err
		}
	}
	return nil
}

func parseProtocols(data []byte) ([]workout.RehabProtocol, error) {
	var protocols []workout.RehabProtocol
	if err := json.Unmarshal(data, &protocols); err != nil {
		return nil, fmt.Errorf("decode protocols: %w", err)
	}
	ids := make(map[int]struct{}, len(protocols))
	for _, p := range protocols {
		if _, ok := ids[p.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate protocol id %d", workout.ErrInvalidInput, p.ID)
		}
		ids[p.ID] = struct{}{}
		if _, err := workout.ParseZone(string(p.Zone)); err != nil {
			return nil, fmt.Errorf("protocol %d: %w", p.ID, err)
		}
		if p.Priority < 1 {
			return nil, fmt.Errorf("%w: protocol %d priority must be positive", workout.ErrInvalidInput, p.ID)
		}
		for _, re := range p.Exercises {
			if _, err := workout.ParsePlacement(string(re.Placement)); err != nil {
				return nil, fmt.Errorf("protocol %d exercise %q: %w", p.ID, re.Name, err)
			}
			if re.Sets <= 0 {
				return nil, fmt.Errorf("%w: protocol %d exercise %q has no sets",
					workout.ErrInvalidInput, p.ID, re.Name)
			}
		}
	}
	return protocols, nil
}
