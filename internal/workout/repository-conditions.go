package workout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// sqliteConditionRepository implements conditionRepository.
type sqliteConditionRepository struct {
	baseRepository
}

const conditionColumns = `id, user_id, zone, pain_level, is_active, label, diagnosis, notes, created_at, updated_at`

func scanCondition(s interface{ Scan(dest ...any) error }) (HealthCondition, error) {
	var (
		c                    HealthCondition
		createdAt, updatedAt string
	)
	if err := s.Scan(&c.ID, &c.UserID, &c.Zone, &c.PainLevel, &c.IsActive, &c.Label, &c.Diagnosis, &c.Notes,
		&createdAt, &updatedAt); err != nil {
		return HealthCondition{}, err //nolint:wrapcheck // callers wrap.
	}
	var err error
	if c.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return HealthCondition{}, err
	}
	if c.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return HealthCondition{}, err
	}
	return c, nil
}

// List returns the conditions of the user ordered by creation.
func (r *sqliteConditionRepository) List(ctx context.Context, activeOnly bool) ([]HealthCondition, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	var conditions []HealthCondition
	err = queryRows(ctx, r.db.ReadOnly, func(rows *sql.Rows) error {
		c, scanErr := scanCondition(rows)
		if scanErr != nil {
			return scanErr
		}
		conditions = append(conditions, c)
		return nil
	}, `SELECT `+conditionColumns+`
		FROM health_conditions
		WHERE user_id = ? AND (is_active = 1 OR NOT ?)
		ORDER BY id`, userID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list health conditions: %w", err)
	}
	return conditions, nil
}

// Create stores a new condition for the user and returns it with its ID.
func (r *sqliteConditionRepository) Create(ctx context.Context, c HealthCondition) (HealthCondition, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return HealthCondition{}, err
	}
	c.UserID = userID
	if c, err = insertCondition(ctx, r.db.ReadWrite, c); err != nil {
		return HealthCondition{}, fmt.Errorf("create health condition: %w", err)
	}
	return c, nil
}

type rowExecQueryer interface {
	execer
	rowQueryer
}

func insertCondition(ctx context.Context, q rowExecQueryer, c HealthCondition) (HealthCondition, error) {
	row := q.QueryRowContext(ctx, `
		INSERT INTO health_conditions (user_id, zone, pain_level, is_active, label, diagnosis, notes, created_at,
		                               updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING `+conditionColumns,
		c.UserID, c.Zone, c.PainLevel, c.IsActive, c.Label, c.Diagnosis, c.Notes,
		formatTimestamp(c.CreatedAt), formatTimestamp(c.UpdatedAt))
	created, err := scanCondition(row)
	if err != nil {
		return HealthCondition{}, fmt.Errorf("insert health condition: %w", err)
	}
	return created, nil
}

func updateCondition(ctx context.Context, e execer, c HealthCondition) error {
	result, err := e.ExecContext(ctx, `
		UPDATE health_conditions
		SET zone = ?, pain_level = ?, is_active = ?, label = ?, diagnosis = ?, notes = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		c.Zone, c.PainLevel, c.IsActive, c.Label, c.Diagnosis, c.Notes, formatTimestamp(c.UpdatedAt),
		c.ID, c.UserID)
	if err != nil {
		return fmt.Errorf("update health condition: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("health condition %d: %w", c.ID, ErrNotFound)
	}
	return nil
}

// Update applies updateFn to a condition of the user inside a transaction.
func (r *sqliteConditionRepository) Update(
	ctx context.Context,
	id int,
	updateFn func(c *HealthCondition) (bool, error),
) error {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return err
	}
	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		c, scanErr := scanCondition(tx.QueryRowContext(ctx, `SELECT `+conditionColumns+`
			FROM health_conditions
			WHERE id = ? AND user_id = ?`, id, userID))
		if errors.Is(scanErr, sql.ErrNoRows) {
			return fmt.Errorf("health condition %d: %w", id, ErrNotFound)
		}
		if scanErr != nil {
			return fmt.Errorf("query health condition: %w", scanErr)
		}
		updated, fnErr := updateFn(&c)
		if fnErr != nil {
			return fmt.Errorf("update function: %w", fnErr)
		}
		if !updated {
			return nil
		}
		return updateCondition(ctx, tx, c)
	})
	if err != nil {
		return fmt.Errorf("update health condition %d: %w", id, err)
	}
	return nil
}

// sqliteEquipmentRepository implements equipmentRepository.
type sqliteEquipmentRepository struct {
	baseRepository
}

// List returns the equipment inventory of the user ordered by name.
func (r *sqliteEquipmentRepository) List(ctx context.Context) ([]GymEquipment, error) {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return nil, err
	}
	var equipment []GymEquipment
	err = queryRows(ctx, r.db.ReadOnly, func(rows *sql.Rows) error {
		var eq GymEquipment
		if scanErr := rows.Scan(&eq.UserID, &eq.Name, &eq.IsAvailable); scanErr != nil {
			return scanErr //nolint:wrapcheck // wrapped by queryRows.
		}
		equipment = append(equipment, eq)
		return nil
	}, `
		SELECT user_id, name, is_available
		FROM gym_equipment
		WHERE user_id = ?
		ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list gym equipment: %w", err)
	}
	return equipment, nil
}

// Set replaces the equipment inventory of the user.
func (r *sqliteEquipmentRepository) Set(ctx context.Context, equipment []GymEquipment) error {
	userID, err := userIDFrom(ctx)
	if err != nil {
		return err
	}
	err = r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, execErr := tx.ExecContext(ctx, `DELETE FROM gym_equipment WHERE user_id = ?`, userID); execErr != nil {
			return fmt.Errorf("delete gym equipment: %w", execErr)
		}
		for _, eq := range equipment {
			if _, execErr := tx.ExecContext(ctx, `
				INSERT INTO gym_equipment (user_id, name, is_available)
				VALUES (?, ?, ?)
				ON CONFLICT (user_id, name) DO UPDATE SET is_available = excluded.is_available`,
				userID, eq.Name, eq.IsAvailable); execErr != nil {
				return fmt.Errorf("insert gym equipment %s: %w", eq.Name, execErr)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("set gym equipment: %w", err)
	}
	return nil
}
