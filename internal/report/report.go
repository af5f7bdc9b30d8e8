// Package report renders a printable HTML sheet of a training program.
package report

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strconv"

	"github.com/myrjola/trainplan/internal/errors"
	"github.com/myrjola/trainplan/internal/workout"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates
var templateFS embed.FS

// Renderer renders program sheets. It is safe for concurrent use.
type Renderer struct {
	logger   *slog.Logger
	tmpl     *template.Template
	markdown goldmark.Markdown
}

// formatFloat formats a float without trailing zeros.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// baseTemplateFuncs returns placeholders that are replaced per render by [Renderer.contextTemplateFuncs].
func baseTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"mdToHTML": func(string) template.HTML {
			panic("not implemented")
		},
		"formatFloat": formatFloat,
	}
}

// NewRenderer parses the embedded templates.
func NewRenderer(logger *slog.Logger) (*Renderer, error) {
	t, err := template.New("program").Funcs(baseTemplateFuncs()).ParseFS(templateFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{
		logger:   logger,
		tmpl:     t,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}, nil
}

func (r *Renderer) contextTemplateFuncs(ctx context.Context) template.FuncMap {
	return template.FuncMap{
		"mdToHTML": func(markdown string) template.HTML {
			return r.renderMarkdownToHTML(ctx, markdown)
		},
		"formatFloat": formatFloat,
	}
}

// renderMarkdownToHTML converts markdown to HTML. Errors are logged and produce empty output.
func (r *Renderer) renderMarkdownToHTML(ctx context.Context, markdown string) template.HTML {
	var buf bytes.Buffer
	if err := r.markdown.Convert([]byte(markdown), &buf); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelError, "failed to render markdown", errors.SlogError(err))
		return ""
	}
	// Instructions come from the bundled catalog and goldmark escapes raw HTML by default.
	return template.HTML(buf.String()) //nolint:gosec // see above.
}

// Exercise is one prescribed exercise with its catalog details.
type Exercise struct {
	workout.ProgramExercise

	Name         string
	Equipment    []workout.Equipment
	Instructions string
}

// Session is a program session with its exercises resolved.
type Session struct {
	workout.ProgramSession

	Resolved []Exercise
}

// ProgramData is the data of the program sheet.
type ProgramData struct {
	Program    workout.Program
	Profile    workout.UserProfile
	Conditions []workout.HealthCondition
	Sessions   []Session
}

// NewProgramData resolves the exercises of p from catalog. Exercises missing from catalog are left out.
func NewProgramData(
	p workout.Program,
	profile workout.UserProfile,
	conditions []workout.HealthCondition,
	catalog []workout.Exercise,
) ProgramData {
	byID := make(map[int]workout.Exercise, len(catalog))
	for _, e := range catalog {
		byID[e.ID] = e
	}
	sessions := make([]Session, 0, len(p.Sessions))
	for _, s := range p.Sessions {
		session := Session{ProgramSession: s, Resolved: make([]Exercise, 0, len(s.Exercises))}
		for _, pe := range s.Exercises {
			e, ok := byID[pe.ExerciseID]
			if !ok {
				continue
			}
			session.Resolved = append(session.Resolved, Exercise{
				ProgramExercise: pe,
				Name:            e.Name,
				Equipment:       e.EquipmentNeeded,
				Instructions:    e.InstructionsMarkdown,
			})
		}
		sessions = append(sessions, session)
	}
	return ProgramData{
		Program:    p,
		Profile:    profile,
		Conditions: conditions,
		Sessions:   sessions,
	}
}

// Render writes the program sheet to w.
func (r *Renderer) Render(ctx context.Context, w io.Writer, data ProgramData) error {
	t, err := r.tmpl.Clone()
	if err != nil {
		return fmt.Errorf("clone template: %w", err)
	}
	t.Funcs(r.contextTemplateFuncs(ctx))

	buf := new(bytes.Buffer)
	if err = t.ExecuteTemplate(buf, "program", data); err != nil {
		return fmt.Errorf("execute template: %w", err)
	}
	if _, err = buf.WriteTo(w); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	r.logger.LogAttrs(ctx, slog.LevelDebug, "report rendered",
		slog.Int("program_id", data.Program.ID), slog.Int("sessions", len(data.Sessions)))
	return nil
}
