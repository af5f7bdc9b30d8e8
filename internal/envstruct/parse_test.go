package envstruct_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/myrjola/trainplan/internal/envstruct"
)

type plannerConfig struct {
	SqliteURL  string  `env:"TRAINPLAN_SQLITE_URL" envDefault:"./trainplan.sqlite3"`
	UserID     int     `env:"TRAINPLAN_USER_ID" envDefault:"1"`
	Verbose    bool    `env:"TRAINPLAN_VERBOSE" envDefault:"false"`
	Bodyweight float64 `env:"TRAINPLAN_BODYWEIGHT" envDefault:"0"`
	Untagged   string
}

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestPopulate(t *testing.T) {
	tests := []struct {
		name    string
		v       any
		env     map[string]string
		want    any
		wantErr error
	}{
		{
			name:    "nil",
			v:       nil,
			env:     nil,
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name:    "not pointer",
			v:       plannerConfig{}, //nolint:exhaustruct // populated later.
			env:     nil,
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
		{
			name: "defaults",
			v:    &plannerConfig{}, //nolint:exhaustruct // populated later.
			env:  map[string]string{},
			want: &plannerConfig{
				SqliteURL:  "./trainplan.sqlite3",
				UserID:     1,
				Verbose:    false,
				Bodyweight: 0,
				Untagged:   "",
			},
			wantErr: nil,
		},
		{
			name: "typed values from environment",
			v:    &plannerConfig{}, //nolint:exhaustruct // populated later.
			env: map[string]string{
				"TRAINPLAN_SQLITE_URL": ":memory:",
				"TRAINPLAN_USER_ID":    "42",
				"TRAINPLAN_VERBOSE":    "true",
				"TRAINPLAN_BODYWEIGHT": "81.5",
			},
			want: &plannerConfig{
				SqliteURL:  ":memory:",
				UserID:     42,
				Verbose:    true,
				Bodyweight: 81.5,
				Untagged:   "",
			},
			wantErr: nil,
		},
		{
			name:    "unparseable int",
			v:       &plannerConfig{}, //nolint:exhaustruct // populated later.
			env:     map[string]string{"TRAINPLAN_USER_ID": "one"},
			want:    nil,
			wantErr: envstruct.ErrParse,
		},
		{
			name: "missing without default",
			v: &struct { //nolint:exhaustruct // populated later.
				Required string `env:"REQUIRED"`
			}{},
			env:     map[string]string{},
			want:    nil,
			wantErr: envstruct.ErrEnvNotSet,
		},
		{
			name: "unsupported kind",
			v: &struct { //nolint:exhaustruct // populated later.
				Weights []float64 `env:"WEIGHTS" envDefault:"2.5"`
			}{},
			env:     map[string]string{},
			want:    nil,
			wantErr: envstruct.ErrInvalidValue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := envstruct.Populate(tt.v, lookupFrom(tt.env))

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Populate() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Populate() unexpected error = %v", err)
			}
			if diff := cmp.Diff(tt.want, tt.v); diff != "" {
				t.Errorf("Populate() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
