package sqlite

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// migrateTo makes the live schema match schemaDefinition.
//
// The target schema is created in an attached in-memory database and diffed against the live one:
// removed tables are dropped, new tables created and changed tables rebuilt with the
// 12-step procedure from https://www.sqlite.org/lang_altertable.html#otheralter keeping the common columns.
// Indexes and triggers are then dropped and recreated where they differ.
func (db *Database) migrateTo(ctx context.Context, schemaDefinition string) error {
	start := time.Now()

	detach, err := db.attachSchemaTarget(ctx, schemaDefinition)
	if err != nil {
		return fmt.Errorf("attach schema target: %w", err)
	}
	defer detach()

	// Foreign keys cannot be toggled inside a transaction.
	if _, err = db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disable foreign keys: %w", err)
	}
	defer func() {
		if _, fkErr := db.ReadWrite.ExecContext(ctx, "PRAGMA foreign_keys = ON"); fkErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to re-enable foreign keys", slog.Any("error", fkErr))
		}
	}()

	err = db.WithTx(ctx, func(tx *sql.Tx) error {
		if err = db.migrateTables(ctx, tx); err != nil {
			return fmt.Errorf("migrate tables: %w", err)
		}
		for _, typ := range []string{"trigger", "index"} {
			if err = db.migrateObjects(ctx, tx, typ); err != nil {
				return fmt.Errorf("migrate %ss: %w", typ, err)
			}
		}
		var violations []string
		if violations, err = queryStrings(ctx, tx, `SELECT "table" FROM pragma_foreign_key_check`); err != nil {
			return fmt.Errorf("foreign key check: %w", err)
		}
		if len(violations) > 0 {
			return fmt.Errorf("foreign key violations in %s", strings.Join(violations, ", "))
		}
		return nil
	})
	if err != nil {
		return err
	}

	db.logger.LogAttrs(ctx, slog.LevelInfo, "migrated database", slog.Duration("duration", time.Since(start)))
	return nil
}

func (db *Database) attachSchemaTarget(ctx context.Context, schemaDefinition string) (func(), error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", rand.Text())
	target, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open schema target: %w", err)
	}
	// The shared cache keeps the in-memory database alive while it is attached.
	defer func() {
		if closeErr := target.Close(); closeErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to close schema target", slog.Any("error", closeErr))
		}
	}()
	if _, err = target.ExecContext(ctx, schemaDefinition); err != nil {
		return nil, fmt.Errorf("create schema target: %w", err)
	}
	if _, err = db.ReadWrite.ExecContext(ctx, "ATTACH DATABASE ? AS schemaTarget", dsn); err != nil {
		return nil, fmt.Errorf("attach: %w", err)
	}
	return func() {
		if _, detachErr := db.ReadWrite.ExecContext(ctx, "DETACH DATABASE schemaTarget"); detachErr != nil {
			db.logger.LogAttrs(ctx, slog.LevelError, "failed to detach schema target", slog.Any("error", detachErr))
		}
	}, nil
}

const (
	deletedObjectsQuery = `SELECT live.name
FROM sqlite_schema AS live
         LEFT JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ?
  AND target.type IS NULL
  AND live.name NOT LIKE 'sqlite_%'`
	createdObjectsQuery = `SELECT target.sql
FROM schemaTarget.sqlite_schema AS target
         LEFT JOIN sqlite_schema AS live ON live.name = target.name AND live.type = target.type
WHERE target.type = ?
  AND live.type IS NULL
  AND target.name NOT LIKE 'sqlite_%'`
	// Renaming a table quotes its name in sqlite_schema so quotes are ignored in the comparison.
	changedObjectsQuery = `SELECT live.name, target.sql
FROM sqlite_schema AS live
         JOIN schemaTarget.sqlite_schema AS target ON live.name = target.name AND live.type = target.type
WHERE live.type = ?
  AND live.name NOT LIKE 'sqlite_%'
  AND REPLACE(live.sql, '"', '') <> REPLACE(target.sql, '"', '')`
)

func (db *Database) migrateTables(ctx context.Context, tx *sql.Tx) error {
	deleted, err := queryStrings(ctx, tx, deletedObjectsQuery, "table")
	if err != nil {
		return fmt.Errorf("query deleted tables: %w", err)
	}
	for _, name := range deleted {
		if err = db.exec(ctx, tx, fmt.Sprintf("DROP TABLE %q", name)); err != nil {
			return err
		}
	}

	created, err := queryStrings(ctx, tx, createdObjectsQuery, "table")
	if err != nil {
		return fmt.Errorf("query created tables: %w", err)
	}
	for _, createSQL := range created {
		if err = db.exec(ctx, tx, createSQL); err != nil {
			return err
		}
	}

	changed, err := queryPairs(ctx, tx, changedObjectsQuery, "table")
	if err != nil {
		return fmt.Errorf("query changed tables: %w", err)
	}
	for _, table := range changed {
		if err = db.rebuildTable(ctx, tx, table.name, table.sql); err != nil {
			return fmt.Errorf("rebuild table %s: %w", table.name, err)
		}
	}
	return nil
}

// rebuildTable creates the new definition under a temporary name, copies the shared columns and swaps the tables.
func (db *Database) rebuildTable(ctx context.Context, tx *sql.Tx, name string, newSQL string) error {
	tempName := name + "_migration_temp"
	if err := db.exec(ctx, tx, strings.Replace(newSQL, name, tempName, 1)); err != nil {
		return err
	}

	columns, err := queryStrings(ctx, tx, `SELECT '"' || target.name || '"'
FROM pragma_table_info(:table_name) AS live
         JOIN pragma_table_info(:table_name, 'schemaTarget') AS target ON target.name = live.name`,
		sql.Named("table_name", name))
	if err != nil {
		return fmt.Errorf("query common columns: %w", err)
	}
	common := strings.Join(columns, ", ")

	for _, stmt := range []string{
		fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s", tempName, common, common, name),
		fmt.Sprintf("DROP TABLE %s", name),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", tempName, name),
	} {
		if err = db.exec(ctx, tx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// migrateObjects synchronises indexes or triggers. Changed ones are dropped and recreated.
func (db *Database) migrateObjects(ctx context.Context, tx *sql.Tx, typ string) error {
	deleted, err := queryStrings(ctx, tx, deletedObjectsQuery, typ)
	if err != nil {
		return fmt.Errorf("query deleted: %w", err)
	}
	changed, err := queryPairs(ctx, tx, changedObjectsQuery, typ)
	if err != nil {
		return fmt.Errorf("query changed: %w", err)
	}
	for _, c := range changed {
		deleted = append(deleted, c.name)
	}
	for _, name := range deleted {
		if err = db.exec(ctx, tx, fmt.Sprintf("DROP %s IF EXISTS %q", strings.ToUpper(typ), name)); err != nil {
			return err
		}
	}

	// Rebuilt tables lose their indexes and triggers so everything missing is recreated.
	created, err := queryStrings(ctx, tx, createdObjectsQuery, typ)
	if err != nil {
		return fmt.Errorf("query created: %w", err)
	}
	for _, createSQL := range created {
		if err = db.exec(ctx, tx, createSQL); err != nil {
			return err
		}
	}
	return nil
}

func (db *Database) exec(ctx context.Context, tx *sql.Tx, query string) error {
	db.logger.LogAttrs(ctx, slog.LevelDebug, "migration statement", slog.String("query", query))
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("exec %q: %w", query, err)
	}
	return nil
}

type schemaObject struct {
	name string
	sql  string
}

func queryPairs(ctx context.Context, tx *sql.Tx, query string, args ...any) (_ []schemaObject, err error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()
	var objects []schemaObject
	for rows.Next() {
		var o schemaObject
		if err = rows.Scan(&o.name, &o.sql); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		objects = append(objects, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return objects, nil
}

func queryStrings(ctx context.Context, tx *sql.Tx, query string, args ...any) (_ []string, err error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer func() {
		err = errors.Join(err, rows.Close())
	}()
	var results []string
	for rows.Next() {
		var s string
		if err = rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		results = append(results, s)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return results, nil
}
