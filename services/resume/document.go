// Package resume models a resume, renders it to PDF and checks payment proofs
// for the watermark-free download.
package resume

import (
	"strings"

	"github.com/google/uuid"
)

// RowKey gives a resume row a stable identity so edits survive reordering
type RowKey struct {
	ID string `json:"id"`
}

// Key returns the row id
func (k RowKey) Key() string { return k.ID }

func (k *RowKey) setKey(id string) { k.ID = id }

// EducationRow is one degree
type EducationRow struct {
	RowKey
	Degree     string `json:"degree" validate:"max=200"`
	University string `json:"university" validate:"max=200"`
	Year       string `json:"year" validate:"max=50"`
	CGPA       string `json:"cgpa" validate:"max=20"`
}

// ExperienceRow is one job
type ExperienceRow struct {
	RowKey
	Title       string `json:"title" validate:"max=200"`
	Company     string `json:"company" validate:"max=200"`
	StartYear   string `json:"startYear" validate:"max=50"`
	EndYear     string `json:"endYear" validate:"max=50"`
	Description string `json:"description" validate:"max=3000"`
}

// ProjectRow is one project
type ProjectRow struct {
	RowKey
	Name        string `json:"name" validate:"max=200"`
	Link        string `json:"link" validate:"max=500"`
	Description string `json:"description" validate:"max=3000"`
}

// AchievementRow is one achievement or certification
type AchievementRow struct {
	RowKey
	Description string `json:"description" validate:"max=1000"`
	Link        string `json:"link" validate:"max=500"`
}

// Document is the resume form
type Document struct {
	Name         string           `json:"name" validate:"max=200"`
	Email        string           `json:"email" validate:"max=320"`
	Phone        string           `json:"phone" validate:"max=50"`
	Address      string           `json:"address" validate:"max=500"`
	LinkedIn     string           `json:"linkedin" validate:"max=500"`
	GitHub       string           `json:"github" validate:"max=500"`
	Portfolio    string           `json:"portfolio" validate:"max=500"`
	Summary      string           `json:"summary" validate:"max=3000"`
	Skills       string           `json:"skills" validate:"max=3000"`
	Education    []EducationRow   `json:"education" validate:"max=20,dive"`
	Experience   []ExperienceRow  `json:"experience" validate:"max=20,dive"`
	Projects     []ProjectRow     `json:"projects" validate:"max=20,dive"`
	Achievements []AchievementRow `json:"achievements" validate:"max=30,dive"`
}

// New returns a form with one empty row per section, as a fresh editor shows it
func New() Document {
	var d Document
	d.Education = AddRow(d.Education, EducationRow{})
	d.Experience = AddRow(d.Experience, ExperienceRow{})
	d.Projects = AddRow(d.Projects, ProjectRow{})
	d.Achievements = AddRow(d.Achievements, AchievementRow{})
	return d
}

// EnsureIDs assigns ids to rows that arrived without one
func (d *Document) EnsureIDs() {
	ensureIDs(d.Education)
	ensureIDs(d.Experience)
	ensureIDs(d.Projects)
	ensureIDs(d.Achievements)
}

type row[T any] interface {
	*T
	Key() string
	setKey(string)
}

func ensureIDs[T any, PT row[T]](rows []T) {
	for i := range rows {
		p := PT(&rows[i])
		if strings.TrimSpace(p.Key()) == "" {
			p.setKey(uuid.NewString())
		}
	}
}

// AddRow appends r, giving it an id when it has none
func AddRow[T any, PT row[T]](rows []T, r T) []T {
	if PT(&r).Key() == "" {
		PT(&r).setKey(uuid.NewString())
	}
	return append(rows, r)
}

// RemoveRow drops the row with the given id
func RemoveRow[T any, PT row[T]](rows []T, id string) ([]T, bool) {
	for i := range rows {
		if PT(&rows[i]).Key() == id {
			out := make([]T, 0, len(rows)-1)
			out = append(out, rows[:i]...)
			return append(out, rows[i+1:]...), true
		}
	}
	return rows, false
}

// MoveRow moves the row with the given id to index to, clamped to the list
func MoveRow[T any, PT row[T]](rows []T, id string, to int) ([]T, bool) {
	from := -1
	for i := range rows {
		if PT(&rows[i]).Key() == id {
			from = i
			break
		}
	}
	if from == -1 {
		return rows, false
	}
	if to < 0 {
		to = 0
	}
	if to > len(rows)-1 {
		to = len(rows) - 1
	}

	out := make([]T, 0, len(rows))
	out = append(out, rows[:from]...)
	out = append(out, rows[from+1:]...)
	moved := rows[from]
	out = append(out[:to], append([]T{moved}, out[to:]...)...)
	return out, true
}
