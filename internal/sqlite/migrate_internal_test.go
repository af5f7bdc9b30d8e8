package sqlite

import (
	"log/slog"
	"testing"

	"github.com/myrjola/trainplan/internal/testhelpers"
)

func TestDatabase_migrateTo(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name              string
		schemaDefinitions []string
		testQueries       []string
		wantErr           bool
	}{
		{
			name:              "empty schema",
			schemaDefinitions: []string{""},
			testQueries:       []string{"SELECT * FROM sqlite_schema"},
			wantErr:           false,
		},
		{
			name:              "create table",
			schemaDefinitions: []string{"CREATE TABLE gym_equipment (user_id INTEGER, equipment TEXT)"},
			testQueries: []string{
				"INSERT INTO gym_equipment (user_id, equipment) VALUES (1, 'dumbbells')",
				"SELECT * FROM gym_equipment",
			},
			wantErr: false,
		},
		{
			name: "drop table",
			schemaDefinitions: []string{
				"CREATE TABLE gym_equipment (user_id INTEGER, equipment TEXT)",
				"",
			},
			testQueries: []string{"INSERT INTO gym_equipment (user_id, equipment) VALUES (1, 'dumbbells')"},
			wantErr:     true,
		},
		{
			name: "add column",
			schemaDefinitions: []string{
				"CREATE TABLE exercises (id INTEGER PRIMARY KEY, name TEXT)",
				"CREATE TABLE exercises (id INTEGER PRIMARY KEY, name TEXT, category TEXT NOT NULL DEFAULT 'compound')",
			},
			testQueries: []string{
				"INSERT INTO exercises (name, category) VALUES ('Goblet Squat', 'compound')",
			},
			wantErr: false,
		},
		{
			name: "remove column",
			schemaDefinitions: []string{
				"CREATE TABLE exercises (id INTEGER PRIMARY KEY)",
				"CREATE TABLE exercises (id INTEGER PRIMARY KEY, name TEXT)",
				"CREATE TABLE exercises (id INTEGER PRIMARY KEY)",
			},
			testQueries: []string{"INSERT INTO exercises (name) VALUES ('Goblet Squat')"},
			wantErr:     true,
		},
		{
			name: "create index",
			schemaDefinitions: []string{
				"CREATE TABLE notebook_entries (id INTEGER PRIMARY KEY, user_id INTEGER, date TEXT);" +
					"CREATE INDEX notebook_entries_user_date ON notebook_entries (user_id, date)",
			},
			testQueries: []string{"DROP INDEX notebook_entries_user_date"},
			wantErr:     false,
		},
		{
			name: "drop index",
			schemaDefinitions: []string{
				"CREATE TABLE notebook_entries (id INTEGER PRIMARY KEY, user_id INTEGER, date TEXT);" +
					"CREATE INDEX notebook_entries_user_date ON notebook_entries (user_id, date)",
				"CREATE TABLE notebook_entries (id INTEGER PRIMARY KEY, user_id INTEGER, date TEXT)",
			},
			testQueries: []string{"DROP INDEX notebook_entries_user_date"},
			wantErr:     true,
		},
		{
			name: "update index",
			schemaDefinitions: []string{
				"CREATE TABLE notebook_entries (id INTEGER PRIMARY KEY, user_id INTEGER, date TEXT);" +
					"CREATE INDEX notebook_entries_user_date ON notebook_entries (user_id)",
				"CREATE TABLE notebook_entries (id INTEGER PRIMARY KEY, user_id INTEGER, date TEXT);" +
					"CREATE INDEX notebook_entries_user_date ON notebook_entries (user_id, date)",
			},
			testQueries: []string{"DROP INDEX notebook_entries_user_date"},
			wantErr:     false,
		},
		{
			name: "index survives table rebuild",
			schemaDefinitions: []string{
				"CREATE TABLE notebook_entries (id INTEGER PRIMARY KEY, user_id INTEGER);" +
					"CREATE INDEX notebook_entries_user ON notebook_entries (user_id)",
				"CREATE TABLE notebook_entries (id INTEGER PRIMARY KEY, user_id INTEGER, date TEXT);" +
					"CREATE INDEX notebook_entries_user ON notebook_entries (user_id)",
			},
			testQueries: []string{"DROP INDEX notebook_entries_user"},
			wantErr:     false,
		},
		{
			name: "create trigger",
			schemaDefinitions: []string{
				`CREATE TABLE pain_reports (id INTEGER PRIMARY KEY, severity INTEGER);
                 CREATE TRIGGER pain_reports_fail AFTER INSERT ON pain_reports BEGIN SELECT RAISE(FAIL, 'fail'); END;`,
			},
			testQueries: []string{"INSERT INTO pain_reports (severity) VALUES (4)"},
			wantErr:     true,
		},
		{
			name: "delete trigger",
			schemaDefinitions: []string{
				`CREATE TABLE pain_reports (id INTEGER PRIMARY KEY, severity INTEGER);
                 CREATE TRIGGER pain_reports_fail AFTER INSERT ON pain_reports BEGIN SELECT RAISE(FAIL, 'fail'); END;`,
				"CREATE TABLE pain_reports (id INTEGER PRIMARY KEY, severity INTEGER)",
			},
			testQueries: []string{"INSERT INTO pain_reports (severity) VALUES (4)"},
			wantErr:     false,
		},
		{
			name: "update trigger",
			schemaDefinitions: []string{
				`CREATE TABLE pain_reports (id INTEGER PRIMARY KEY, severity INTEGER);
                 CREATE TRIGGER pain_reports_fail AFTER INSERT ON pain_reports BEGIN SELECT RAISE(FAIL, 'fail'); END;`,
				`CREATE TABLE pain_reports (id INTEGER PRIMARY KEY, severity INTEGER);
                 CREATE TRIGGER pain_reports_fail AFTER INSERT ON pain_reports BEGIN SELECT 1; END;`,
			},
			testQueries: []string{"INSERT INTO pain_reports (severity) VALUES (4)"},
			wantErr:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := t.Context()
			logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
			db, err := connect(ctx, ":memory:", logger)
			if err != nil {
				t.Fatalf("Failed to connect to database: %v", err)
			}
			t.Cleanup(func() {
				if closeErr := db.Close(); closeErr != nil {
					t.Errorf("Failed to close database: %v", closeErr)
				}
			})

			for _, schemaDefinition := range tt.schemaDefinitions {
				logger.LogAttrs(ctx, slog.LevelInfo, "migrating", slog.String("schema", schemaDefinition))
				if err = db.migrateTo(ctx, schemaDefinition); err != nil {
					t.Fatalf("Failed to migrate: %v", err)
				}
			}

			for _, query := range tt.testQueries {
				_, err = db.ReadWrite.ExecContext(ctx, query)
				if tt.wantErr && err == nil {
					t.Errorf("Expected error for query %q, but got none", query)
				}
				if !tt.wantErr && err != nil {
					t.Errorf("Unexpected error for query %q: %v", query, err)
				}
			}
		})
	}
}

func TestNewDatabase_schemaIsStable(t *testing.T) {
	t.Parallel()
	ctx := t.Context()
	logger := testhelpers.NewLogger(testhelpers.NewWriter(t))
	db, err := NewDatabase(ctx, ":memory:", logger)
	if err != nil {
		t.Fatalf("NewDatabase() error = %v", err)
	}
	t.Cleanup(func() {
		if closeErr := db.Close(); closeErr != nil {
			t.Errorf("Close() error = %v", closeErr)
		}
	})

	// A second migration against an up-to-date schema is a no-op.
	if err = db.migrateTo(ctx, schemaDefinition); err != nil {
		t.Fatalf("migrateTo() error = %v", err)
	}

	var tables int
	if err = db.ReadOnly.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_schema WHERE type = 'table' AND name NOT LIKE 'sqlite_%'").
		Scan(&tables); err != nil {
		t.Fatalf("count tables: %v", err)
	}
	if want := 11; tables != want {
		t.Errorf("tables = %d, want %d", tables, want)
	}
}
