package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/myrjola/trainplan/internal/contexthelpers"
)

// errNoUser is returned when the context is not scoped to a user.
var errNoUser = errors.New("no user in context")

func userIDFrom(ctx context.Context) (int, error) {
	userID := contexthelpers.AuthenticatedUserID(ctx)
	if userID <= 0 {
		return 0, errNoUser
	}
	return userID, nil
}

// sqliteProfileRepository implements profileRepository.
type sqliteProfileRepository struct {
	baseRepository
}

// Get retrieves the profile of the user in the context.
func (r *sqliteProfileRepository) Get(ctx context.Context) (UserProfile, error) {
	return r.get(ctx, r.db.ReadOnly)
}

type rowQueryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *sqliteProfileRepository) get(ctx context.Context, q rowQueryer) (UserProfile, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return UserProfile{}, err
	}

	var (
		p                              UserProfile
		bodyweight                     sql.NullFloat64
		goals, weights, phaseStartedAt string
		lastDeloadAt, phaseBefore      sql.NullString
	)
	err = q.QueryRowContext(ctx, `
		SELECT id, name, bodyweight_kg, goals, days_per_week, minutes_per_session, available_weights,
		       phase, phase_started_at, last_deload_at, phase_before_deload
		FROM user_profiles
		WHERE id = ?`, userID).Scan(
		&p.ID, &p.Name, &bodyweight, &goals, &p.DaysPerWeek, &p.MinutesPerSession, &weights,
		&p.Phase, &phaseStartedAt, &lastDeloadAt, &phaseBefore,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return UserProfile{}, fmt.Errorf("profile of user %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return UserProfile{}, fmt.Errorf("query user profile: %w", err)
	}

	if bodyweight.Valid {
		p.BodyweightKg = &bodyweight.Float64
	}
	if err = scanJSON(goals, &p.Goals); err != nil {
		return UserProfile{}, fmt.Errorf("goals: %w", err)
	}
	if err = scanJSON(weights, &p.AvailableWeights); err != nil {
		return UserProfile{}, fmt.Errorf("available weights: %w", err)
	}
	if p.PhaseStartedAt, err = parseTimestamp(phaseStartedAt); err != nil {
		return UserProfile{}, fmt.Errorf("phase_started_at: %w", err)
	}
	if p.LastDeloadAt, err = parseNullTimestamp(lastDeloadAt); err != nil {
		return UserProfile{}, fmt.Errorf("last_deload_at: %w", err)
	}
	if phaseBefore.Valid {
		phase := Phase(phaseBefore.String)
		p.PhaseBeforeDeload = &phase
	}
	return p, nil
}

// Set creates or replaces the profile of the user in the context.
func (r *sqliteProfileRepository) Set(ctx context.Context, p UserProfile) error {
	if err := r.set(ctx, r.db.ReadWrite, p); err != nil {
		return fmt.Errorf("save user profile: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (r *sqliteProfileRepository) set(ctx context.Context, e execer, p UserProfile) error {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return err
	}
	goals, err := jsonColumn(p.Goals)
	if err != nil {
		return err
	}
	weights, err := jsonColumn(p.AvailableWeights)
	if err != nil {
		return err
	}
	var lastDeloadAt, phaseBefore *string
	if p.LastDeloadAt != nil {
		s := formatTimestamp(*p.LastDeloadAt)
		lastDeloadAt = &s
	}
	if p.PhaseBeforeDeload != nil {
		s := string(*p.PhaseBeforeDeload)
		phaseBefore = &s
	}

	_, err = e.ExecContext(ctx, `
		INSERT INTO user_profiles (id, name, bodyweight_kg, goals, days_per_week, minutes_per_session,
		                           available_weights, phase, phase_started_at, last_deload_at, phase_before_deload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			bodyweight_kg = excluded.bodyweight_kg,
			goals = excluded.goals,
			days_per_week = excluded.days_per_week,
			minutes_per_session = excluded.minutes_per_session,
			available_weights = excluded.available_weights,
			phase = excluded.phase,
			phase_started_at = excluded.phase_started_at,
			last_deload_at = excluded.last_deload_at,
			phase_before_deload = excluded.phase_before_deload`,
		userID, p.Name, p.BodyweightKg, goals, p.DaysPerWeek, p.MinutesPerSession, weights,
		p.Phase, formatTimestamp(p.PhaseStartedAt), lastDeloadAt, phaseBefore,
	)
	if err != nil {
		return fmt.Errorf("upsert user profile: %w", err)
	}
	return nil
}

// Update applies updateFn to the stored profile inside a transaction. Nothing is written when updateFn
// reports no change.
func (r *sqliteProfileRepository) Update(ctx context.Context, updateFn func(p *UserProfile) (bool, error)) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		p, err := r.get(ctx, tx)
		if err != nil {
			return err
		}
		updated, err := updateFn(&p)
		if err != nil {
			return fmt.Errorf("update function: %w", err)
		}
		if !updated {
			return nil
		}
		return r.set(ctx, tx, p)
	})
	if err != nil {
		return fmt.Errorf("update user profile: %w", err)
	}
	return nil
}
