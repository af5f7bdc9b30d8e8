package workout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/myrjola/trainplan/internal/sqlite"
)

const timestampFormat = "2006-01-02T15:04:05.000Z"
const dateFormat = time.DateOnly

// repository contains the repositories for the workout domain aggregates.
type repository struct {
	exercises  exerciseRepository
	profiles   profileRepository
	conditions conditionRepository
	equipment  equipmentRepository
	programs   programRepository
	history    historyRepository
	workouts   workoutLogRepository
}

type exerciseRepository interface {
	List(ctx context.Context) ([]Exercise, error)
	Upsert(ctx context.Context, exercises []Exercise) error
}

type profileRepository interface {
	Get(ctx context.Context) (UserProfile, error)
	Set(ctx context.Context, profile UserProfile) error
	Update(ctx context.Context, updateFn func(p *UserProfile) (bool, error)) error
}

type conditionRepository interface {
	List(ctx context.Context, activeOnly bool) ([]HealthCondition, error)
	Create(ctx context.Context, c HealthCondition) (HealthCondition, error)
	Update(ctx context.Context, id int, updateFn func(c *HealthCondition) (bool, error)) error
}

type equipmentRepository interface {
	List(ctx context.Context) ([]GymEquipment, error)
	Set(ctx context.Context, equipment []GymEquipment) error
}

type programRepository interface {
	// Replace deactivates the current active program and stores p as the active one.
	Replace(ctx context.Context, p Program) (Program, error)
	GetActive(ctx context.Context) (Program, error)
}

type historyRepository interface {
	List(ctx context.Context) (map[int]ExerciseHistoryEntry, error)
}

type workoutLogRepository interface {
	// Record persists everything a finished workout produced atomically.
	Record(ctx context.Context, log workoutLog) error
	LatestPainReports(ctx context.Context) ([]PainReport, error)
	PainReportsSince(ctx context.Context, since time.Time) ([]PainReport, error)
	NotebookSince(ctx context.Context, since time.Time) ([]NotebookEntry, error)
}

// workoutLog is the outcome of a finished workout.
type workoutLog struct {
	workoutID         string
	sessionName       string
	date              time.Time
	finishedAt        time.Time
	notebook          []NotebookEntry
	history           []ExerciseHistoryEntry
	painReports       []PainReport
	createdConditions []HealthCondition
	updatedConditions []HealthCondition
}

// repositoryFactory creates repository instances.
type repositoryFactory struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newRepositoryFactory(db *sqlite.Database, logger *slog.Logger) *repositoryFactory {
	return &repositoryFactory{
		db:     db,
		logger: logger,
	}
}

// newRepository creates a new repository aggregate.
func (f *repositoryFactory) newRepository() *repository {
	base := newBaseRepository(f.db, f.logger)
	return &repository{
		exercises:  &sqliteExerciseRepository{baseRepository: base},
		profiles:   &sqliteProfileRepository{baseRepository: base},
		conditions: &sqliteConditionRepository{baseRepository: base},
		equipment:  &sqliteEquipmentRepository{baseRepository: base},
		programs:   &sqliteProgramRepository{baseRepository: base},
		history:    &sqliteHistoryRepository{baseRepository: base},
		workouts:   &sqliteWorkoutLogRepository{baseRepository: base},
	}
}

// baseRepository holds the shared database handles.
type baseRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func newBaseRepository(db *sqlite.Database, logger *slog.Logger) baseRepository {
	return baseRepository{
		db:     db,
		logger: logger,
	}
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// queryRows runs query and scans every row with scan.
func queryRows(ctx context.Context, q queryer, scan func(rows *sql.Rows) error, query string, args ...any) (err error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close rows: %w", closeErr))
		}
	}()
	for rows.Next() {
		if err = scan(rows); err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampFormat)
}

func formatDate(t time.Time) string {
	return t.Format(dateFormat)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timestampFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp format: %w", err)
	}
	return t, nil
}

// parseNullTimestamp parses a timestamp from a nullable database string.
func parseNullTimestamp(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil //nolint:nilnil // nil time.Time is expected when the string is NULL.
	}
	t, err := parseTimestamp(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// jsonColumn encodes v for a JSON text column. Nil slices are stored as empty arrays.
func jsonColumn[T any](v []T) (string, error) {
	if v == nil {
		v = []T{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("marshal json column: %w", err)
	}
	return string(b), nil
}

func scanJSON(s string, v any) error {
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("unmarshal json column: %w", err)
	}
	return nil
}
