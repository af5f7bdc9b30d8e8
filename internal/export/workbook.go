// Package export writes training programs to Excel workbooks.
package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/myrjola/trainplan/internal/workout"
	"github.com/xuri/excelize/v2"
)

const (
	SheetOverview = "Overview"
	SheetRehab    = "Rehab"
	// maxSheetName is the longest sheet name Excel accepts.
	maxSheetName = 31
)

var sessionHeaders = []any{"#", "Exercise", "Slot", "Sets", "Reps", "Rest (s)", "Equipment", "Notes"}

// styles are the cell styles shared by every sheet.
type styles struct {
	title  int
	header int
	label  int
}

func newStyles(f *excelize.File) (styles, error) {
	var (
		s   styles
		err error
	)
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	//nolint:exhaustruct // sparse style.
	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 16, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"2E75B6"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	}); err != nil {
		return styles{}, fmt.Errorf("create title style: %w", err)
	}
	//nolint:exhaustruct // sparse style.
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"1F4E79"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    border,
	}); err != nil {
		return styles{}, fmt.Errorf("create header style: %w", err)
	}
	//nolint:exhaustruct // sparse style.
	if s.label, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"E2EFDA"}, Pattern: 1},
	}); err != nil {
		return styles{}, fmt.Errorf("create label style: %w", err)
	}
	return s, nil
}

// sheet writes rows to one worksheet.
type sheet struct {
	f      *excelize.File
	name   string
	styles styles
	row    int
}

func (s *sheet) title(text string, lastCol int) error {
	s.row++
	first, _ := excelize.CoordinatesToCellName(1, s.row)
	last, _ := excelize.CoordinatesToCellName(lastCol, s.row)
	if err := s.f.SetCellValue(s.name, first, text); err != nil {
		return fmt.Errorf("set title: %w", err)
	}
	if err := s.f.MergeCell(s.name, first, last); err != nil {
		return fmt.Errorf("merge title: %w", err)
	}
	if err := s.f.SetCellStyle(s.name, first, last, s.styles.title); err != nil {
		return fmt.Errorf("style title: %w", err)
	}
	if err := s.f.SetRowHeight(s.name, s.row, 30); err != nil { //nolint:mnd // points.
		return fmt.Errorf("set title height: %w", err)
	}
	s.row++
	return nil
}

func (s *sheet) append(values []any, style int) error {
	s.row++
	first, _ := excelize.CoordinatesToCellName(1, s.row)
	if err := s.f.SetSheetRow(s.name, first, &values); err != nil {
		return fmt.Errorf("write row %d: %w", s.row, err)
	}
	if style == 0 {
		return nil
	}
	last, _ := excelize.CoordinatesToCellName(len(values), s.row)
	if err := s.f.SetCellStyle(s.name, first, last, style); err != nil {
		return fmt.Errorf("style row %d: %w", s.row, err)
	}
	return nil
}

func (s *sheet) label(label string, value any) error {
	s.row++
	labelCell, _ := excelize.CoordinatesToCellName(1, s.row)
	valueCell, _ := excelize.CoordinatesToCellName(2, s.row) //nolint:mnd // second column.
	if err := s.f.SetCellValue(s.name, labelCell, label); err != nil {
		return fmt.Errorf("set label: %w", err)
	}
	if err := s.f.SetCellValue(s.name, valueCell, value); err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	if err := s.f.SetCellStyle(s.name, labelCell, labelCell, s.styles.label); err != nil {
		return fmt.Errorf("style label: %w", err)
	}
	return nil
}

// Workbook builds a workbook with an overview sheet, one sheet per session and a rehab sheet. catalog
// resolves the exercise names of the program.
func Workbook(p workout.Program, profile workout.UserProfile, catalog []workout.Exercise) (*excelize.File, error) {
	byID := make(map[int]workout.Exercise, len(catalog))
	for _, e := range catalog {
		byID[e.ID] = e
	}

	f := excelize.NewFile()
	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}
	if err = f.SetSheetName("Sheet1", SheetOverview); err != nil {
		return nil, fmt.Errorf("rename default sheet: %w", err)
	}
	if err = writeOverview(&sheet{f: f, name: SheetOverview, styles: st, row: 0}, p, profile); err != nil {
		return nil, fmt.Errorf("write overview: %w", err)
	}

	for i, s := range p.Sessions {
		name := SessionSheetName(i, s.Name)
		if _, err = f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err = writeSession(&sheet{f: f, name: name, styles: st, row: 0}, s, byID); err != nil {
			return nil, fmt.Errorf("write session %s: %w", s.Name, err)
		}
		if err = setWidths(f, name, map[string]float64{"A": 5, "B": 32, "C": 20, "G": 28, "H": 40}); err != nil {
			return nil, err
		}
	}

	if _, err = f.NewSheet(SheetRehab); err != nil {
		return nil, fmt.Errorf("create rehab sheet: %w", err)
	}
	if err = writeRehab(&sheet{f: f, name: SheetRehab, styles: st, row: 0}, p); err != nil {
		return nil, fmt.Errorf("write rehab: %w", err)
	}
	if err = setWidths(f, SheetRehab, map[string]float64{"A": 18, "B": 28, "C": 30}); err != nil {
		return nil, err
	}

	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and writes it to w in xlsx format.
func Write(w io.Writer, p workout.Program, profile workout.UserProfile, catalog []workout.Exercise) error {
	f, err := Workbook(p, profile, catalog)
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	if _, err = f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SessionSheetName is the worksheet name of the session at index i.
func SessionSheetName(i int, name string) string {
	name = strings.NewReplacer(":", "", "\\", "", "/", "-", "?", "", "*", "", "[", "(", "]", ")").Replace(name)
	name = fmt.Sprintf("%d %s", i+1, name)
	if len([]rune(name)) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	return strings.TrimSpace(name)
}

func setWidths(f *excelize.File, sheetName string, widths map[string]float64) error {
	for col, width := range widths {
		if err := f.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("set width of %s!%s: %w", sheetName, col, err)
		}
	}
	return nil
}

func writeOverview(s *sheet, p workout.Program, profile workout.UserProfile) error {
	if err := s.title(p.Name, 4); err != nil { //nolint:mnd // four columns.
		return err
	}
	info := []struct {
		label string
		value any
	}{
		{"Split", string(p.Split)},
		{"Created", p.CreatedAt.Format("2006-01-02")},
		{"Phase", string(profile.Phase)},
		{"Days per week", profile.DaysPerWeek},
		{"Minutes per session", profile.MinutesPerSession},
	}
	for _, row := range info {
		if err := s.label(row.label, row.value); err != nil {
			return err
		}
	}

	s.row++
	if err := s.append([]any{"Session", "Intensity", "Exercises", "Estimated minutes"}, s.styles.header); err != nil {
		return err
	}
	for _, session := range p.Sessions {
		if err := s.append([]any{session.Name, string(session.Intensity), len(session.Exercises),
			session.EstimatedMinutes}, 0); err != nil {
			return err
		}
	}
	return setWidths(s.f, s.name, map[string]float64{"A": 28, "B": 20, "C": 12, "D": 18})
}

func writeSession(s *sheet, session workout.ProgramSession, byID map[int]workout.Exercise) error {
	title := fmt.Sprintf("%s (%s, ~%d min)", session.Name, session.Intensity, session.EstimatedMinutes)
	if err := s.title(title, len(sessionHeaders)); err != nil {
		return err
	}
	if err := s.append(sessionHeaders, s.styles.header); err != nil {
		return err
	}
	for _, pe := range session.Exercises {
		e := byID[pe.ExerciseID]
		equipment := make([]string, 0, len(e.EquipmentNeeded))
		for _, eq := range e.EquipmentNeeded {
			equipment = append(equipment, string(eq))
		}
		var notes string
		if pe.IsRehab {
			notes = "rehab"
		}
		if err := s.append([]any{pe.Order, e.Name, pe.SlotLabel, pe.Sets, pe.TargetReps, pe.RestSeconds,
			strings.Join(equipment, ", "), notes}, 0); err != nil {
			return err
		}
	}

	if len(session.Cooldown) > 0 {
		s.row++
		if err := s.append([]any{"", "Cooldown"}, s.styles.label); err != nil {
			return err
		}
		for _, e := range session.Cooldown {
			if err := s.append([]any{"", e.Name}, 0); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeRehab(s *sheet, p workout.Program) error {
	if err := s.title("Rehab", 6); err != nil { //nolint:mnd // six columns.
		return err
	}
	if err := s.append([]any{"Session", "Exercise", "Condition", "Placement", "Sets", "Reps"},
		s.styles.header); err != nil {
		return err
	}
	for _, session := range p.Sessions {
		buckets := [][]workout.RehabAssignment{
			session.Rehab.WarmupRehab, session.Rehab.ActiveWaitPool, session.Rehab.CooldownRehab,
		}
		for _, bucket := range buckets {
			for _, a := range bucket {
				if err := s.append([]any{session.Name, a.Name, a.ConditionName, string(a.Placement), a.Sets,
					a.Reps}, 0); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
