package workout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// sqliteProgramRepository implements programRepository.
type sqliteProgramRepository struct {
	baseRepository
}

// Replace stores p as the only active program of the user. The previous active program is kept inactive.
func (r *sqliteProgramRepository) Replace(ctx context.Context, p Program) (Program, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return Program{}, err
	}
	p.UserID = userID
	p.IsActive = true

	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, execErr := tx.ExecContext(ctx, `
			UPDATE workout_programs SET is_active = 0 WHERE user_id = ? AND is_active = 1`, userID); execErr != nil {
			return fmt.Errorf("deactivate programs: %w", execErr)
		}
		if scanErr := tx.QueryRowContext(ctx, `
			INSERT INTO workout_programs (user_id, name, split, is_active, created_at)
			VALUES (?, ?, ?, 1, ?)
			RETURNING id`, userID, p.Name, p.Split, formatTimestamp(p.CreatedAt)).Scan(&p.ID); scanErr != nil {
			return fmt.Errorf("insert program: %w", scanErr)
		}
		for i, s := range p.Sessions {
			if insertErr := insertSession(ctx, tx, p.ID, i+1, s); insertErr != nil {
				return fmt.Errorf("session %s: %w", s.Name, insertErr)
			}
		}
		return nil
	})
	if err != nil {
		return Program{}, fmt.Errorf("replace program: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelDebug, "program stored",
		slog.Int("program_id", p.ID), slog.Int("sessions", len(p.Sessions)))
	return p, nil
}

func insertSession(ctx context.Context, tx *sql.Tx, programID int, position int, s ProgramSession) error {
	rehab, err := json.Marshal(s.Rehab)
	if err != nil {
		return fmt.Errorf("marshal rehab plan: %w", err)
	}
	cooldown, err := jsonColumn(s.Cooldown)
	if err != nil {
		return err
	}
	var sessionID int
	if err = tx.QueryRowContext(ctx, `
		INSERT INTO program_sessions (program_id, position, name, intensity, estimated_minutes, rehab, cooldown)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		programID, position, s.Name, s.Intensity, s.EstimatedMinutes, string(rehab), cooldown).Scan(&sessionID); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	for _, pe := range s.Exercises {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO program_exercises (session_id, position, exercise_id, sets, target_reps, rest_seconds,
			                               is_rehab, slot_label)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			sessionID, pe.Order, pe.ExerciseID, pe.Sets, pe.TargetReps, pe.RestSeconds, pe.IsRehab,
			pe.SlotLabel); err != nil {
			return fmt.Errorf("insert exercise %d: %w", pe.ExerciseID, err)
		}
	}
	return nil
}

// GetActive loads the active program of the user with its sessions in order.
func (r *sqliteProgramRepository) GetActive(ctx context.Context) (Program, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return Program{}, err
	}

	var (
		p         Program
		createdAt string
	)
	err = r.db.ReadOnly.QueryRowContext(ctx, `
		SELECT id, user_id, name, split, is_active, created_at
		FROM workout_programs
		WHERE user_id = ? AND is_active = 1`, userID).
		Scan(&p.ID, &p.UserID, &p.Name, &p.Split, &p.IsActive, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Program{}, fmt.Errorf("active program: %w", ErrNotFound)
	}
	if err != nil {
		return Program{}, fmt.Errorf("query active program: %w", err)
	}
	if p.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return Program{}, fmt.Errorf("created_at: %w", err)
	}

	sessionIDs, err := r.loadSessions(ctx, &p)
	if err != nil {
		return Program{}, err
	}
	if err = r.loadExercises(ctx, &p, sessionIDs); err != nil {
		return Program{}, err
	}
	return p, nil
}

// loadSessions appends the sessions of p and returns their IDs in the same order.
func (r *sqliteProgramRepository) loadSessions(ctx context.Context, p *Program) ([]int, error) {
	var ids []int
	err := queryRows(ctx, r.db.ReadOnly, func(rows *sql.Rows) error {
		var (
			id              int
			s               ProgramSession
			rehab, cooldown string
		)
		if err := rows.Scan(&id, &s.Name, &s.Intensity, &s.EstimatedMinutes, &rehab, &cooldown); err != nil {
			return err //nolint:wrapcheck // wrapped by queryRows.
		}
		if err := scanJSON(rehab, &s.Rehab); err != nil {
			return fmt.Errorf("rehab: %w", err)
		}
		if err := scanJSON(cooldown, &s.Cooldown); err != nil {
			return fmt.Errorf("cooldown: %w", err)
		}
		ids = append(ids, id)
		p.Sessions = append(p.Sessions, s)
		return nil
	}, `
		SELECT id, name, intensity, estimated_minutes, rehab, cooldown
		FROM program_sessions
		WHERE program_id = ?
		ORDER BY position`, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list program sessions: %w", err)
	}
	return ids, nil
}

func (r *sqliteProgramRepository) loadExercises(ctx context.Context, p *Program, sessionIDs []int) error {
	index := make(map[int]int, len(sessionIDs))
	for i, id := range sessionIDs {
		index[id] = i
	}
	err := queryRows(ctx, r.db.ReadOnly, func(rows *sql.Rows) error {
		var (
			sessionID int
			pe        ProgramExercise
		)
		if err := rows.Scan(&sessionID, &pe.Order, &pe.ExerciseID, &pe.Sets, &pe.TargetReps, &pe.RestSeconds,
			&pe.IsRehab, &pe.SlotLabel); err != nil {
			return err //nolint:wrapcheck // wrapped by queryRows.
		}
		i := index[sessionID]
		p.Sessions[i].Exercises = append(p.Sessions[i].Exercises, pe)
		return nil
	}, `
		SELECT pe.session_id, pe.position, pe.exercise_id, pe.sets, pe.target_reps, pe.rest_seconds, pe.is_rehab,
		       pe.slot_label
		FROM program_exercises pe
		JOIN program_sessions ps ON ps.id = pe.session_id
		WHERE ps.program_id = ?
		ORDER BY ps.position, pe.position`, p.ID)
	if err != nil {
		return fmt.Errorf("list program exercises: %w", err)
	}
	return nil
}
