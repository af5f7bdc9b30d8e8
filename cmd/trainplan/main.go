package main

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/myrjola/trainplan/internal/catalog"
	"github.com/myrjola/trainplan/internal/contexthelpers"
	"github.com/myrjola/trainplan/internal/envstruct"
	"github.com/myrjola/trainplan/internal/errors"
	"github.com/myrjola/trainplan/internal/logging"
	"github.com/myrjola/trainplan/internal/sqlite"
	"github.com/myrjola/trainplan/internal/workout"
)

type config struct {
	// SqliteURL is the path to the SQLite database. ":memory:" gives a database that lives for one command.
	SqliteURL string `env:"TRAINPLAN_SQLITE_URL" envDefault:"./trainplan.sqlite3"`
	// UserID selects whose records the command reads and writes.
	UserID   int    `env:"TRAINPLAN_USER_ID" envDefault:"1"`
	LogLevel string `env:"TRAINPLAN_LOG_LEVEL" envDefault:"warn"`
	// EnvFile is an optional dotenv file. Variables set in the environment take precedence over it.
	EnvFile string `env:"TRAINPLAN_ENV_FILE" envDefault:".env"`
}

type application struct {
	logger  *slog.Logger
	service *workout.Service
	stdout  io.Writer
	stderr  io.Writer
	now     func() time.Time
}

// withEnvFile extends lookupEnv with the variables of the dotenv file named by TRAINPLAN_ENV_FILE.
// A missing file is not an error.
func withEnvFile(lookupEnv func(string) (string, bool)) (func(string) (string, bool), error) {
	path, ok := lookupEnv("TRAINPLAN_ENV_FILE")
	if !ok {
		path = ".env"
	}
	values, err := godotenv.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return lookupEnv, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "read env file", slog.String("path", path))
	}
	return func(key string) (string, bool) {
		if v, found := lookupEnv(key); found {
			return v, true
		}
		v, found := values[key]
		return v, found
	}, nil
}

func run(
	ctx context.Context,
	args []string,
	stdout io.Writer,
	stderr io.Writer,
	lookupEnv func(string) (string, bool),
	now func() time.Time,
) error {
	var (
		cancel context.CancelFunc
		err    error
	)
	ctx, cancel = signal.NotifyContext(ctx, os.Interrupt)
	defer cancel()

	if len(args) == 0 {
		printUsage(stderr)
		return errUsage
	}

	if lookupEnv, err = withEnvFile(lookupEnv); err != nil {
		return err
	}
	var cfg config
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return errors.Wrap(err, "populate config")
	}
	logger := logging.NewLogger(stderr, logging.ParseLevel(cfg.LogLevel))

	protocols, err := catalog.Protocols()
	if err != nil {
		return errors.Wrap(err, "load rehab protocols")
	}
	db, err := sqlite.NewDatabase(ctx, cfg.SqliteURL, logger)
	if err != nil {
		return errors.Wrap(err, "open db", slog.String("url", cfg.SqliteURL))
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			logger.LogAttrs(ctx, slog.LevelWarn, "failed to close db", errors.SlogError(closeErr))
		}
	}()

	ctx = contexthelpers.WithUserID(ctx, cfg.UserID)
	ctx = logging.WithAttrs(ctx, slog.Int("user_id", cfg.UserID), slog.String("command", args[0]))

	app := application{
		logger:  logger,
		service: workout.NewService(db, logger, protocols),
		stdout:  stdout,
		stderr:  stderr,
		now:     now,
	}
	if err = app.dispatch(ctx, args[0], args[1:]); err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}
	return nil
}

func main() {
	ctx := context.Background()
	logger := logging.NewLogger(os.Stderr, slog.LevelInfo)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr, os.LookupEnv, time.Now)
	if errors.Is(err, errUsage) {
		os.Exit(2) //nolint:mnd // usage error.
	}
	if err != nil {
		logger.LogAttrs(ctx, slog.LevelError, "command failed", errors.SlogError(err))
		os.Exit(1)
	}
}
