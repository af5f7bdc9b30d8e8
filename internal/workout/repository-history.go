package workout

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// sqliteHistoryRepository implements historyRepository.
type sqliteHistoryRepository struct {
	baseRepository
}

// List returns the latest history entry of every exercise the user has performed.
func (r *sqliteHistoryRepository) List(ctx context.Context) (map[int]ExerciseHistoryEntry, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	history := make(map[int]ExerciseHistoryEntry)
	err = queryRows(ctx, r.db.ReadOnly, func(rows *sql.Rows) error {
		var (
			h               ExerciseHistoryEntry
			reps            string
			avgRIR          float64
			painInterrupted bool
			recordedAt      string
		)
		if scanErr := rows.Scan(&h.ExerciseID, &h.WeightKg, &reps, &avgRIR, &painInterrupted, &h.AvgRestSeconds,
			&h.LastAction, &recordedAt); scanErr != nil {
			return scanErr //nolint:wrapcheck // wrapped by queryRows.
		}
		if scanErr := scanJSON(reps, &h.Reps); scanErr != nil {
			return scanErr
		}
		h.Outcome = OutcomeFromRIR(avgRIR, painInterrupted)
		var parseErr error
		if h.RecordedAt, parseErr = parseTimestamp(recordedAt); parseErr != nil {
			return parseErr
		}
		history[h.ExerciseID] = h
		return nil
	}, `
		SELECT exercise_id, weight_kg, reps, avg_rir, pain_interrupted, avg_rest_seconds, last_action, recorded_at
		FROM exercise_history
		WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("list exercise history: %w", err)
	}
	return history, nil
}

// sqliteWorkoutLogRepository implements workoutLogRepository.
type sqliteWorkoutLogRepository struct {
	baseRepository
}

// Record marks the workout as finished and writes its notebook entries, history, pain reports and condition
// changes in one transaction.
func (r *sqliteWorkoutLogRepository) Record(ctx context.Context, log workoutLog) error {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return err
	}
	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, execErr := tx.ExecContext(ctx, `
			INSERT INTO finished_workouts (user_id, workout_id, session_name, date, finished_at)
			VALUES (?, ?, ?, ?, ?)`,
			userID, log.workoutID, log.sessionName, formatDate(log.date), formatTimestamp(log.finishedAt)); execErr != nil {
			return fmt.Errorf("insert finished workout: %w", execErr)
		}
		for _, n := range log.notebook {
			if _, execErr := tx.ExecContext(ctx, `
				INSERT INTO notebook_entries (user_id, workout_id, date, exercise_id, set_number, weight_kg, reps, rir,
				                              rest_seconds, pain)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				userID, n.WorkoutID, formatDate(n.Date), n.ExerciseID, n.SetNumber, n.WeightKg, n.Reps, n.RIR,
				n.RestSeconds, n.Pain); execErr != nil {
				return fmt.Errorf("insert notebook entry: %w", execErr)
			}
		}
		for _, h := range log.history {
			if execErr := upsertHistory(ctx, tx, userID, h); execErr != nil {
				return execErr
			}
		}
		for _, p := range log.painReports {
			during, jsonErr := jsonColumn(p.DuringExercises)
			if jsonErr != nil {
				return jsonErr
			}
			if _, execErr := tx.ExecContext(ctx, `
				INSERT INTO pain_reports (user_id, workout_id, date, zone, max_pain_level, during_exercises)
				VALUES (?, ?, ?, ?, ?, ?)`,
				userID, p.WorkoutID, formatDate(p.Date), p.Zone, p.MaxPainLevel, during); execErr != nil {
				return fmt.Errorf("insert pain report: %w", execErr)
			}
		}
		for _, c := range log.createdConditions {
			c.UserID = userID
			if _, insertErr := insertCondition(ctx, tx, c); insertErr != nil {
				return insertErr
			}
		}
		for _, c := range log.updatedConditions {
			c.UserID = userID
			if updateErr := updateCondition(ctx, tx, c); updateErr != nil {
				return updateErr
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("record workout: %w", err)
	}
	return nil
}

func upsertHistory(ctx context.Context, tx *sql.Tx, userID int, h ExerciseHistoryEntry) error {
	reps, err := jsonColumn(h.Reps)
	if err != nil {
		return err
	}
	avgRIR, painInterrupted := OutcomeRIR(h.Outcome)
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO exercise_history (user_id, exercise_id, weight_kg, reps, avg_rir, pain_interrupted,
		                              avg_rest_seconds, last_action, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (user_id, exercise_id) DO UPDATE SET
			weight_kg = excluded.weight_kg,
			reps = excluded.reps,
			avg_rir = excluded.avg_rir,
			pain_interrupted = excluded.pain_interrupted,
			avg_rest_seconds = excluded.avg_rest_seconds,
			last_action = excluded.last_action,
			recorded_at = excluded.recorded_at`,
		userID, h.ExerciseID, h.WeightKg, reps, avgRIR, painInterrupted, h.AvgRestSeconds, h.LastAction,
		formatTimestamp(h.RecordedAt)); err != nil {
		return fmt.Errorf("upsert history of exercise %d: %w", h.ExerciseID, err)
	}
	return nil
}

const painReportColumns = `id, user_id, workout_id, date, zone, max_pain_level, during_exercises`

func scanPainReport(rows *sql.Rows) (PainReport, error) {
	var (
		p            PainReport
		date, during string
	)
	if err := rows.Scan(&p.ID, &p.UserID, &p.WorkoutID, &date, &p.Zone, &p.MaxPainLevel, &during); err != nil {
		return PainReport{}, err //nolint:wrapcheck // wrapped by queryRows.
	}
	var err error
	if p.Date, err = time.Parse(dateFormat, date); err != nil {
		return PainReport{}, fmt.Errorf("parse date: %w", err)
	}
	if err = scanJSON(during, &p.DuringExercises); err != nil {
		return PainReport{}, err
	}
	return p, nil
}

// LatestPainReports returns the pain reports of the most recently finished workout. A workout finished
// without pain yields none.
func (r *sqliteWorkoutLogRepository) LatestPainReports(ctx context.Context) ([]PainReport, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	var reports []PainReport
	err = queryRows(ctx, r.db.ReadOnly, func(rows *sql.Rows) error {
		p, scanErr := scanPainReport(rows)
		if scanErr != nil {
			return scanErr
		}
		reports = append(reports, p)
		return nil
	}, `SELECT `+painReportColumns+`
		FROM pain_reports
		WHERE user_id = ?
		  AND workout_id = (SELECT workout_id FROM finished_workouts WHERE user_id = ? ORDER BY id DESC LIMIT 1)
		ORDER BY id`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("list latest pain reports: %w", err)
	}
	return reports, nil
}

// PainReportsSince returns the pain reports dated on or after since.
func (r *sqliteWorkoutLogRepository) PainReportsSince(ctx context.Context, since time.Time) ([]PainReport, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	var reports []PainReport
	err = queryRows(ctx, r.db.ReadOnly, func(rows *sql.Rows) error {
		p, scanErr := scanPainReport(rows)
		if scanErr != nil {
			return scanErr
		}
		reports = append(reports, p)
		return nil
	}, `SELECT `+painReportColumns+`
		FROM pain_reports
		WHERE user_id = ? AND date >= ?
		ORDER BY date, id`, userID, formatDate(since))
	if err != nil {
		return nil, fmt.Errorf("list pain reports: %w", err)
	}
	return reports, nil
}

// NotebookSince returns the logged sets dated on or after since in logging order.
func (r *sqliteWorkoutLogRepository) NotebookSince(ctx context.Context, since time.Time) ([]NotebookEntry, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	var entries []NotebookEntry
	err = queryRows(ctx, r.db.ReadOnly, func(rows *sql.Rows) error {
		var (
			n    NotebookEntry
			date string
			rir  sql.NullInt64
		)
		if scanErr := rows.Scan(&n.ID, &n.UserID, &n.WorkoutID, &date, &n.ExerciseID, &n.SetNumber, &n.WeightKg,
			&n.Reps, &rir, &n.RestSeconds, &n.Pain); scanErr != nil {
			return scanErr //nolint:wrapcheck // wrapped by queryRows.
		}
		var parseErr error
		if n.Date, parseErr = time.Parse(dateFormat, date); parseErr != nil {
			return fmt.Errorf("parse date: %w", parseErr)
		}
		if rir.Valid {
			v := int(rir.Int64)
			n.RIR = &v
		}
		entries = append(entries, n)
		return nil
	}, `
		SELECT id, user_id, workout_id, date, exercise_id, set_number, weight_kg, reps, rir, rest_seconds, pain
		FROM notebook_entries
		WHERE user_id = ? AND date >= ?
		ORDER BY id`, userID, formatDate(since))
	if err != nil {
		return nil, fmt.Errorf("list notebook entries: %w", err)
	}
	return entries, nil
}
