package workout

import (
	"context"
	"database/sql"
	"fmt"
)

// sqliteExerciseRepository implements exerciseRepository. The catalog is shared by every user.
type sqliteExerciseRepository struct {
	baseRepository
}

// List returns the whole catalog ordered by ID.
func (r *sqliteExerciseRepository) List(ctx context.Context) ([]Exercise, error) {
	var exercises []Exercise
	err := queryRows(ctx, r.db.ReadOnly, func(rows *sql.Rows) error {
		var e Exercise
		var primary, secondary, equipment, contra, alternatives, tagsJS string
		var targetZone sql.NullString
		if err := rows.Scan(&e.ID, &e.Name, &e.Category, &primary, &secondary, &equipment, &contra,
			&alternatives, &tagsJS, &e.InstructionsMarkdown, &e.IsRehab, &targetZone); err != nil {
			return err //nolint:wrapcheck // wrapped by queryRows.
		}
		for _, c := range []struct {
			src string
			dst any
		}{
			{primary, &e.PrimaryMuscles},
			{secondary, &e.SecondaryMuscles},
			{equipment, &e.EquipmentNeeded},
			{contra, &e.Contraindications},
			{alternatives, &e.Alternatives},
			{tagsJS, &e.Tags},
		} {
			if err := scanJSON(c.src, c.dst); err != nil {
				return fmt.Errorf("exercise %d: %w", e.ID, err)
			}
		}
		if targetZone.Valid {
			z := Zone(targetZone.String)
			e.TargetZone = &z
		}
		exercises = append(exercises, e)
		return nil
	}, `
		SELECT id, name, category, primary_muscles, secondary_muscles, equipment_needed, contraindications,
		       alternatives, tags, instructions_markdown, is_rehab, target_zone
		FROM exercises
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	return exercises, nil
}

// Upsert inserts or updates the exercises by name in a single transaction.
func (r *sqliteExerciseRepository) Upsert(ctx context.Context, exercises []Exercise) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, e := range exercises {
			cols, err := exerciseJSONColumns(e)
			if err != nil {
				return fmt.Errorf("exercise %q: %w", e.Name, err)
			}
			var targetZone *string
			if e.TargetZone != nil {
				z := string(*e.TargetZone)
				targetZone = &z
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO exercises (id, name, category, primary_muscles, secondary_muscles, equipment_needed,
				                       contraindications, alternatives, tags, instructions_markdown, is_rehab,
				                       target_zone)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (name) DO UPDATE SET
					category = excluded.category,
					primary_muscles = excluded.primary_muscles,
					secondary_muscles = excluded.secondary_muscles,
					equipment_needed = excluded.equipment_needed,
					contraindications = excluded.contraindications,
					alternatives = excluded.alternatives,
					tags = excluded.tags,
					instructions_markdown = excluded.instructions_markdown,
					is_rehab = excluded.is_rehab,
					target_zone = excluded.target_zone`,
				e.ID, e.Name, e.Category, cols[0], cols[1], cols[2], cols[3], cols[4], cols[5],
				e.InstructionsMarkdown, e.IsRehab, targetZone)
			if err != nil {
				return fmt.Errorf("upsert exercise %q: %w", e.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("upsert exercises: %w", err)
	}
	return nil
}

//nolint:mnd // one column per list field.
func exerciseJSONColumns(e Exercise) ([6]string, error) {
	var cols [6]string
	var err error
	if cols[0], err = jsonColumn(e.PrimaryMuscles); err != nil {
		return cols, err
	}
	if cols[1], err = jsonColumn(e.SecondaryMuscles); err != nil {
		return cols, err
	}
	if cols[2], err = jsonColumn(e.EquipmentNeeded); err != nil {
		return cols, err
	}
	if cols[3], err = jsonColumn(e.Contraindications); err != nil {
		return cols, err
	}
	if cols[4], err = jsonColumn(e.Alternatives); err != nil {
		return cols, err
	}
	if cols[5], err = jsonColumn(e.Tags); err != nil {
		return cols, err
	}
	return cols, nil
}
