package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/myrjola/trainplan/internal/catalog"
	"github.com/myrjola/trainplan/internal/errors"
	"github.com/myrjola/trainplan/internal/export"
	"github.com/myrjola/trainplan/internal/ptr"
	"github.com/myrjola/trainplan/internal/report"
	"github.com/myrjola/trainplan/internal/workout"
)

var errUsage = errors.New("invalid usage")

const usage = `usage: trainplan <command> [flags] [args]

commands:
  seed                                  store the bundled exercise catalog
  profile [flags]                       show or update the training profile
  condition add|pain|deactivate|list    manage health conditions
  equipment [name...]                   show or set the available equipment
  generate                              generate a new active program
  show                                  print the active program
  workout -session n -log file.json     record a workout from a set log
  notebook [-since date]                print the logged sets
  phase                                 advance the training phase
  export -o file.xlsx                   write the active program as a workbook
  report -o file.html                   write the active program as a printable page
`

func printUsage(w io.Writer) {
	_, _ = fmt.Fprint(w, usage)
}

func (app *application) dispatch(ctx context.Context, command string, args []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.DecoratePanic(r)
		}
	}()
	switch command {
	case "seed":
		return app.seed(ctx)
	case "profile":
		return app.profile(ctx, args)
	case "condition":
		return app.condition(ctx, args)
	case "equipment":
		return app.equipment(ctx, args)
	case "generate":
		return app.generate(ctx)
	case "show":
		return app.show(ctx)
	case "workout":
		return app.workout(ctx, args)
	case "notebook":
		return app.notebook(ctx, args)
	case "phase":
		return app.phase(ctx)
	case "export":
		return app.export(ctx, args)
	case "report":
		return app.report(ctx, args)
	case "help":
		printUsage(app.stdout)
		return nil
	default:
		printUsage(app.stderr)
		return errUsage
	}
}

func (app *application) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(app.stderr)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errors.Join(errUsage, err)
	}
	return nil
}

func (app *application) seed(ctx context.Context) error {
	exercises, err := catalog.Exercises()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if err = app.service.SeedCatalog(ctx, exercises); err != nil {
		return err //nolint:wrapcheck // already wrapped by the service.
	}
	_, err = fmt.Fprintf(app.stdout, "seeded %d exercises\n", len(exercises))
	return err
}

func (app *application) profile(ctx context.Context, args []string) error {
	fs := app.flagSet("profile")
	fs.String("name", "", "display name")
	fs.Float64("bodyweight", 0, "bodyweight in kg")
	fs.String("goals", "", "comma separated goals: strength, hypertrophy, rehab, general_fitness")
	fs.Int("days", 0, "training days per week")
	fs.Int("minutes", 0, "minutes per session")
	fs.String("weights", "", "comma separated available weights in kg, e.g. 2.5,5,7.5")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	profile, err := app.service.Profile(ctx)
	notFound := errors.Is(err, workout.ErrNotFound)
	if err != nil && !notFound {
		return err //nolint:wrapcheck // already wrapped by the service.
	}
	if fs.NFlag() == 0 {
		if notFound {
			return fmt.Errorf("no profile yet, create one with flags: %w", err)
		}
		return printProfile(app.stdout, profile)
	}
	if notFound {
		profile = workout.UserProfile{ //nolint:exhaustruct // phase state is set by the service.
			DaysPerWeek:       3, //nolint:mnd // default schedule.
			MinutesPerSession: 60, //nolint:mnd // default schedule.
			Goals:             []workout.Goal{workout.GoalGeneralFitness},
		}
	}

	var errs []error
	fs.Visit(func(f *flag.Flag) {
		value := f.Value.String()
		switch f.Name {
		case "name":
			profile.Name = value
		case "bodyweight":
			bodyweight, parseErr := strconv.ParseFloat(value, 64)
			errs = append(errs, parseErr)
			profile.BodyweightKg = ptr.Ref(bodyweight)
		case "goals":
			profile.Goals = nil
			for _, s := range splitList(value) {
				goal, parseErr := workout.ParseGoal(s)
				errs = append(errs, parseErr)
				profile.Goals = append(profile.Goals, goal)
			}
		case "days":
			profile.DaysPerWeek, err = strconv.Atoi(value)
			errs = append(errs, err)
		case "minutes":
			profile.MinutesPerSession, err = strconv.Atoi(value)
			errs = append(errs, err)
		case "weights":
			profile.AvailableWeights = nil
			for _, s := range splitList(value) {
				weight, parseErr := strconv.ParseFloat(s, 64)
				errs = append(errs, parseErr)
				profile.AvailableWeights = append(profile.AvailableWeights, weight)
			}
		}
	})
	if err = errors.Join(errs...); err != nil {
		return fmt.Errorf("parse profile flags: %w", err)
	}
	if err = app.service.SaveProfile(ctx, profile, app.now()); err != nil {
		return err //nolint:wrapcheck // already wrapped by the service.
	}
	if profile, err = app.service.Profile(ctx); err != nil {
		return err //nolint:wrapcheck // already wrapped by the service.
	}
	return printProfile(app.stdout, profile)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func formatWeight(kg float64) string {
	return strconv.FormatFloat(kg, 'f', -1, 64)
}

func printProfile(w io.Writer, p workout.UserProfile) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0) //nolint:mnd // padding.
	goals := make([]string, 0, len(p.Goals))
	for _, g := range p.Goals {
		goals = append(goals, string(g))
	}
	weights := make([]string, 0, len(p.AvailableWeights))
	for _, kg := range p.AvailableWeights {
		weights = append(weights, formatWeight(kg))
	}
	bodyweight := "-"
	if p.BodyweightKg != nil {
		bodyweight = formatWeight(*p.BodyweightKg) + " kg"
	}
	_, _ = fmt.Fprintf(tw, "name\t%s\n", p.Name)
	_, _ = fmt.Fprintf(tw, "bodyweight\t%s\n", bodyweight)
	_, _ = fmt.Fprintf(tw, "goals\t%s\n", strings.Join(goals, ", "))
	_, _ = fmt.Fprintf(tw, "schedule\t%d days, %d min\n", p.DaysPerWeek, p.MinutesPerSession)
	_, _ = fmt.Fprintf(tw, "weights\t%s\n", strings.Join(weights, ", "))
	_, _ = fmt.Fprintf(tw, "phase\t%s since %s\n", p.Phase, p.PhaseStartedAt.Format(time.DateOnly))
	if p.LastDeloadAt != nil {
		_, _ = fmt.Fprintf(tw, "last deload\t%s\n", p.LastDeloadAt.Format(time.DateOnly))
	}
	return tw.Flush()
}

func (app *application) condition(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printUsage(app.stderr)
		return errUsage
	}
	switch args[0] {
	case "add":
		fs := app.flagSet("condition add")
		zone := fs.String("zone", "", "body zone, e.g. knee_left")
		pain := fs.Int("pain", 0, "current pain level 0-10")
		label := fs.String("label", "", "short label")
		diagnosis := fs.String("diagnosis", "", "diagnosis if known")
		notes := fs.String("notes", "", "free text notes")
		if err := parseFlags(fs, args[1:]); err != nil {
			return err
		}
		created, err := app.service.AddCondition(ctx, workout.HealthCondition{ //nolint:exhaustruct // set by service.
			Zone:      workout.Zone(*zone),
			PainLevel: *pain,
			Label:     *label,
			Diagnosis: *diagnosis,
			Notes:     *notes,
		}, app.now())
		if err != nil {
			return err //nolint:wrapcheck // already wrapped by the service.
		}
		_, err = fmt.Fprintf(app.stdout, "added condition %d (%s)\n", created.ID, created.Zone)
		return err
	case "pain", "deactivate":
		want := 2 //nolint:mnd // id and level.
		if args[0] == "deactivate" {
			want = 1
		}
		if len(args)-1 != want {
			printUsage(app.stderr)
			return errUsage
		}
		id, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("parse condition id: %w", err)
		}
		if args[0] == "deactivate" {
			return app.service.DeactivateCondition(ctx, id, app.now()) //nolint:wrapcheck // wrapped by the service.
		}
		level, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("parse pain level: %w", err)
		}
		return app.service.UpdateConditionPain(ctx, id, level, app.now()) //nolint:wrapcheck // wrapped by the service.
	case "list":
		fs := app.flagSet("condition list")
		all := fs.Bool("all", false, "include resolved conditions")
		if err := parseFlags(fs, args[1:]); err != nil {
			return err
		}
		conditions, err := app.service.ListConditions(ctx, !*all)
		if err != nil {
			return err //nolint:wrapcheck // already wrapped by the service.
		}
		tw := tabwriter.NewWriter(app.stdout, 0, 0, 2, ' ', 0) //nolint:mnd // padding.
		_, _ = fmt.Fprintln(tw, "ID\tZONE\tPAIN\tACTIVE\tLABEL\tUPDATED")
		for _, c := range conditions {
			_, _ = fmt.Fprintf(tw, "%d\t%s\t%d\t%t\t%s\t%s\n",
				c.ID, c.Zone, c.PainLevel, c.IsActive, c.Label, c.UpdatedAt.Format(time.DateOnly))
		}
		return tw.Flush()
	default:
		printUsage(app.stderr)
		return errUsage
	}
}

func (app *application) equipment(ctx context.Context, args []string) error {
	if len(args) > 0 {
		available := make([]workout.Equipment, 0, len(args))
		for _, arg := range args {
			for _, s := range splitList(arg) {
				available = append(available, workout.Equipment(s))
			}
		}
		if err := app.service.SetEquipment(ctx, available); err != nil {
			return err //nolint:wrapcheck // already wrapped by the service.
		}
	}
	inventory, err := app.service.ListEquipment(ctx)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by the service.
	}
	for _, eq := range inventory {
		if eq.IsAvailable {
			if _, err = fmt.Fprintln(app.stdout, eq.Name); err != nil {
				return fmt.Errorf("print equipment: %w", err)
			}
		}
	}
	return nil
}

func (app *application) generate(ctx context.Context) error {
	program, err := app.service.RegenerateProgram(ctx, app.now())
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by the service.
	}
	_, err = fmt.Fprintf(app.stdout, "generated %s with %d sessions\n", program.Name, len(program.Sessions))
	return err
}

func (app *application) show(ctx context.Context) error {
	program, err := app.service.ActiveProgram(ctx)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by the service.
	}
	exercises, err := app.service.Exercises(ctx)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by the service.
	}
	names := make(map[int]string, len(exercises))
	for _, e := range exercises {
		names[e.ID] = e.Name
	}

	tw := tabwriter.NewWriter(app.stdout, 0, 0, 2, ' ', 0) //nolint:mnd // padding.
	_, _ = fmt.Fprintf(tw, "%s (%s)\n", program.Name, program.Split)
	for i, s := range program.Sessions {
		_, _ = fmt.Fprintf(tw, "\n%d. %s\t%s\t~%d min\n", i+1, s.Name, s.Intensity, s.EstimatedMinutes)
		for _, a := range s.Rehab.WarmupRehab {
			_, _ = fmt.Fprintf(tw, "  warmup\t%s\t%d x %s\n", a.Name, a.Sets, a.Reps)
		}
		for _, pe := range s.Exercises {
			_, _ = fmt.Fprintf(tw, "  %d\t%s\t%d x %d\trest %ds\n",
				pe.Order, names[pe.ExerciseID], pe.Sets, pe.TargetReps, pe.RestSeconds)
		}
		for _, a := range s.Rehab.ActiveWaitPool {
			_, _ = fmt.Fprintf(tw, "  between sets\t%s\t%d x %s\n", a.Name, a.Sets, a.Reps)
		}
		for _, a := range s.Rehab.CooldownRehab {
			_, _ = fmt.Fprintf(tw, "  cooldown\t%s\t%d x %s\n", a.Name, a.Sets, a.Reps)
		}
		for _, e := range s.Cooldown {
			_, _ = fmt.Fprintf(tw, "  cooldown\t%s\t\n", e.Name)
		}
	}
	return tw.Flush()
}

// workoutLog is the JSON set log replayed by the workout command. Exercises are matched by ID and those
// missing from the log are skipped.
type workoutLog struct {
	Exercises []struct {
		ExerciseID int                 `json:"exercise_id"`
		Sets       []workout.LoggedSet `json:"sets"`
		Skip       string              `json:"skip"`
	} `json:"exercises"`
	Pain []workout.PainFeedbackEntry `json:"pain"`
}

// painFlag collects repeated -pain zone=level values.
type painFlag []workout.PainFeedbackEntry

func (p *painFlag) String() string {
	parts := make([]string, 0, len(*p))
	for _, f := range *p {
		parts = append(parts, fmt.Sprintf("%s=%d", f.Zone, f.MaxPainLevel))
	}
	return strings.Join(parts, ",")
}

func (p *painFlag) Set(s string) error {
	zone, level, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("%w: want zone=level, got %q", workout.ErrInvalidInput, s)
	}
	painLevel, err := strconv.Atoi(level)
	if err != nil {
		return fmt.Errorf("parse pain level: %w", err)
	}
	*p = append(*p, workout.PainFeedbackEntry{Zone: workout.Zone(zone), MaxPainLevel: painLevel, DuringExercises: nil})
	return nil
}

func readWorkoutLog(path string) (wl workoutLog, err error) {
	f, err := os.Open(path)
	if err != nil {
		return wl, fmt.Errorf("open set log: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			err = errors.Join(err, fmt.Errorf("close set log: %w", closeErr))
		}
	}()
	dec := json.NewDecoder(f)
	dec.DisallowUnknownFields()
	if err = dec.Decode(&wl); err != nil {
		return wl, fmt.Errorf("decode set log: %w", err)
	}
	return wl, nil
}

func (app *application) workout(ctx context.Context, args []string) error {
	fs := app.flagSet("workout")
	session := fs.Int("session", 1, "session number in the active program")
	logPath := fs.String("log", "", "JSON set log")
	var pain painFlag
	fs.Var(&pain, "pain", "pain after the workout as zone=level, repeatable")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if *logPath == "" {
		return errors.Join(errUsage, errors.New("-log is required"))
	}
	wl, err := readWorkoutLog(*logPath)
	if err != nil {
		return err
	}

	now := app.now()
	engine, err := app.service.StartWorkout(ctx, *session-1, now)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by the service.
	}
	if err = replay(engine, wl); err != nil {
		return err
	}
	summary, err := app.service.FinishWorkout(ctx, engine, append(wl.Pain, pain...), now)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by the service.
	}

	tw := tabwriter.NewWriter(app.stdout, 0, 0, 2, ' ', 0) //nolint:mnd // padding.
	_, _ = fmt.Fprintf(tw, "workout %s: %s\n", summary.WorkoutID, engine.SessionName())
	for _, st := range engine.States() {
		switch st.Status {
		case workout.StatusCompleted, workout.StatusInProgress, workout.StatusPending:
			_, _ = fmt.Fprintf(tw, "  %s\t%s\t%s kg x %d\t%s\n", st.Exercise.Name, st.Prescription.Action,
				formatWeight(st.Prescription.WeightKg), st.Prescription.TargetReps, st.Status)
		case workout.StatusSkipped:
			_, _ = fmt.Fprintf(tw, "  %s\tskipped\t%s\t\n", st.Exercise.Name, st.SkipReason)
		}
	}
	for _, c := range summary.Conditions.Created {
		_, _ = fmt.Fprintf(tw, "new condition\t%s\tpain %d\t\n", c.Zone, c.PainLevel)
	}
	for _, a := range summary.Adjustments {
		_, _ = fmt.Fprintf(tw, "next time\t%s\t%s\t\n", a.ExerciseName, a.Kind)
	}
	return tw.Flush()
}

// replay feeds the set log to the engine in session order. An exercise logged with fewer sets than
// prescribed is skipped once its sets are in.
func replay(engine *workout.SessionEngine, wl workoutLog) error {
	for {
		st, ok := engine.Current()
		if !ok {
			return nil
		}
		idx := -1
		for i, e := range wl.Exercises {
			if e.ExerciseID == st.Exercise.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			if err := engine.Skip("not logged"); err != nil {
				return fmt.Errorf("skip %s: %w", st.Exercise.Name, err)
			}
			continue
		}
		entry := wl.Exercises[idx]
		if entry.Skip != "" || len(entry.Sets) == 0 {
			reason := entry.Skip
			if reason == "" {
				reason = "no sets logged"
			}
			if err := engine.Skip(reason); err != nil {
				return fmt.Errorf("skip %s: %w", st.Exercise.Name, err)
			}
			continue
		}
		for n, set := range entry.Sets {
			if err := engine.LogSet(set); err != nil {
				return fmt.Errorf("log set %d of %s: %w", n+1, st.Exercise.Name, err)
			}
			if cur, more := engine.Current(); !more || cur.Exercise.ID != st.Exercise.ID {
				break
			}
		}
		if cur, more := engine.Current(); more && cur.Exercise.ID == st.Exercise.ID {
			if err := engine.Skip(fmt.Sprintf("stopped after %d sets", len(cur.Sets))); err != nil {
				return fmt.Errorf("skip %s: %w", st.Exercise.Name, err)
			}
		}
	}
}

func (app *application) notebook(ctx context.Context, args []string) error {
	fs := app.flagSet("notebook")
	since := fs.String("since", "", "first date to include as YYYY-MM-DD, defaults to four weeks ago")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	from := app.now().AddDate(0, 0, -28) //nolint:mnd // four weeks.
	if *since != "" {
		var err error
		if from, err = time.Parse(time.DateOnly, *since); err != nil {
			return fmt.Errorf("parse since: %w", err)
		}
	}
	entries, err := app.service.Notebook(ctx, from)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by the service.
	}
	exercises, err := app.service.Exercises(ctx)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by the service.
	}
	names := make(map[int]string, len(exercises))
	for _, e := range exercises {
		names[e.ID] = e.Name
	}

	tw := tabwriter.NewWriter(app.stdout, 0, 0, 2, ' ', 0) //nolint:mnd // padding.
	_, _ = fmt.Fprintln(tw, "DATE\tEXERCISE\tSET\tKG\tREPS\tRIR\tREST\tPAIN")
	for _, e := range entries {
		rir := "-"
		if e.RIR != nil {
			rir = strconv.Itoa(*e.RIR)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%d\t%s\t%ds\t%t\n", e.Date.Format(time.DateOnly),
			names[e.ExerciseID], e.SetNumber, formatWeight(e.WeightKg), e.Reps, rir, e.RestSeconds, e.Pain)
	}
	return tw.Flush()
}

func (app *application) phase(ctx context.Context) error {
	change, err := app.service.EvaluatePhase(ctx, app.now())
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by the service.
	}
	if !change.Changed() {
		_, err = fmt.Fprintf(app.stdout, "staying in %s\n", change.From)
		return err
	}
	_, err = fmt.Fprintf(app.stdout, "%s -> %s: %s\n", change.From, change.To, change.Reason)
	return err
}

// programData loads what the export and report commands need.
func (app *application) programData(ctx context.Context) (workout.Program, workout.UserProfile, []workout.Exercise, error) {
	program, err := app.service.ActiveProgram(ctx)
	if err != nil {
		return workout.Program{}, workout.UserProfile{}, nil, err //nolint:exhaustruct,wrapcheck // error path.
	}
	profile, err := app.service.Profile(ctx)
	if err != nil {
		return workout.Program{}, workout.UserProfile{}, nil, err //nolint:exhaustruct,wrapcheck // error path.
	}
	exercises, err := app.service.Exercises(ctx)
	if err != nil {
		return workout.Program{}, workout.UserProfile{}, nil, err //nolint:exhaustruct,wrapcheck // error path.
	}
	return program, profile, exercises, nil
}

// createOutput opens path for writing, or returns stdout for "-".
func (app *application) createOutput(path string) (io.Writer, func() error, error) {
	if path == "-" {
		return app.stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, f.Close, nil
}

func (app *application) export(ctx context.Context, args []string) error {
	fs := app.flagSet("export")
	out := fs.String("o", "program.xlsx", "output file, - for stdout")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	program, profile, exercises, err := app.programData(ctx)
	if err != nil {
		return err
	}
	w, closeFn, err := app.createOutput(*out)
	if err != nil {
		return err
	}
	if err = export.Write(w, program, profile, exercises); err != nil {
		return errors.Join(err, closeFn())
	}
	return closeFn()
}

func (app *application) report(ctx context.Context, args []string) error {
	fs := app.flagSet("report")
	out := fs.String("o", "program.html", "output file, - for stdout")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	program, profile, exercises, err := app.programData(ctx)
	if err != nil {
		return err
	}
	conditions, err := app.service.ListConditions(ctx, true)
	if err != nil {
		return err //nolint:wrapcheck // already wrapped by the service.
	}
	renderer, err := report.NewRenderer(app.logger)
	if err != nil {
		return fmt.Errorf("new renderer: %w", err)
	}
	w, closeFn, err := app.createOutput(*out)
	if err != nil {
		return err
	}
	data := report.NewProgramData(program, profile, conditions, exercises)
	if err = renderer.Render(ctx, w, data); err != nil {
		return errors.Join(err, closeFn())
	}
	return closeFn()
}
