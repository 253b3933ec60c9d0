// Package selector derives the dependent option lists of the
// university -> course -> branch chain and the course -> year list.
//
// Every upstream change resets downstream selections unconditionally and
// re-fetches the dependent list. When a fetch fails the list is emptied and
// flagged Unavailable; a previously fetched list is never kept. Selections are
// never checked against their option lists.
package selector

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/services/taxonomy"
	"github.com/campusconnect/api/utils"
)

// Source is the part of the taxonomy the selector reads
type Source interface {
	CoursesByUniversity(ctx context.Context, universityID uint) ([]model.Course, error)
	BranchesByCourse(ctx context.Context, courseID uint) ([]model.Branch, error)
	Course(ctx context.Context, id uint) (*model.Course, error)
}

// Option is one selectable entry. Years carry no id.
type Option struct {
	ID   uint   `json:"id,omitempty"`
	Name string `json:"name"`
}

// OptionList is a derived list. Unavailable means the last fetch failed.
type OptionList struct {
	Items       []Option `json:"items"`
	Unavailable bool     `json:"unavailable,omitempty"`
}

func emptyList() OptionList {
	return OptionList{Items: []Option{}}
}

func unavailableList() OptionList {
	return OptionList{Items: []Option{}, Unavailable: true}
}

// State is the full selector state. University and Course hold ids; Branch,
// Year and Type hold the chosen names.
type State struct {
	University string     `json:"university"`
	Course     string     `json:"course"`
	Branch     string     `json:"branch"`
	Year       string     `json:"year"`
	Type       string     `json:"type"`
	Courses    OptionList `json:"courses"`
	Branches   OptionList `json:"branches"`
	Years      OptionList `json:"years"`
}

// NewState returns the initial state with empty lists
func NewState() State {
	return State{Courses: emptyList(), Branches: emptyList(), Years: emptyList()}
}

// Event kinds accepted by Apply
const (
	EventUniversity = "university"
	EventCourse     = "course"
	EventBranch     = "branch"
	EventYear       = "year"
	EventType       = "type"
)

// Event is a single selection change
type Event struct {
	Kind  string `json:"kind" validate:"required,oneof=university course branch year type"`
	Value string `json:"value"`
}

// Machine applies selection events against a Source
type Machine struct {
	src Source
	log *utils.Logger
}

// NewMachine creates a selector bound to a taxonomy source
func NewMachine(src Source, log *utils.Logger) *Machine {
	return &Machine{src: src, log: log}
}

// Apply dispatches an event to its transition
func (m *Machine) Apply(ctx context.Context, st State, ev Event) (State, error) {
	switch ev.Kind {
	case EventUniversity:
		return m.SelectUniversity(ctx, st, ev.Value), nil
	case EventCourse:
		return m.SelectCourse(ctx, st, ev.Value), nil
	case EventBranch:
		return SelectBranch(st, ev.Value), nil
	case EventYear:
		return SelectYear(st, ev.Value), nil
	case EventType:
		return SelectType(st, ev.Value), nil
	default:
		return st, fmt.Errorf("unknown selector event %q", ev.Kind)
	}
}

// SelectUniversity sets the university and re-derives the course list. The
// course, branch and year selections are always cleared, along with the
// branch and year lists, even when the previous course reappears.
func (m *Machine) SelectUniversity(ctx context.Context, st State, universityID string) State {
	st.University = strings.TrimSpace(universityID)
	st.Course = ""
	st.Branch = ""
	st.Year = ""
	st.Branches = emptyList()
	st.Years = emptyList()

	if st.University == "" {
		st.Courses = emptyList()
		return st
	}

	id, ok := parseID(st.University)
	if !ok {
		st.Courses = emptyList()
		return st
	}

	courses, err := m.src.CoursesByUniversity(ctx, id)
	if err != nil {
		m.log.Error("failed to fetch courses", "university_id", id, "error", err)
		st.Courses = unavailableList()
		return st
	}

	st.Courses = OptionList{Items: make([]Option, 0, len(courses))}
	for _, c := range courses {
		st.Courses.Items = append(st.Courses.Items, Option{ID: c.ID, Name: c.Name})
	}
	return st
}

// SelectCourse sets the course, re-derives the branch list and synthesizes
// the year list from the course duration. The branch selection is cleared.
func (m *Machine) SelectCourse(ctx context.Context, st State, courseID string) State {
	st.Course = strings.TrimSpace(courseID)
	st.Branch = ""

	if st.Course == "" {
		st.Branches = emptyList()
		st.Years = emptyList()
		return st
	}

	id, ok := parseID(st.Course)
	if !ok {
		st.Branches = emptyList()
		st.Years = emptyList()
		return st
	}

	st.Branches = m.branches(ctx, id)
	st.Years = m.years(ctx, id)
	return st
}

func (m *Machine) branches(ctx context.Context, courseID uint) OptionList {
	branches, err := m.src.BranchesByCourse(ctx, courseID)
	if err != nil {
		m.log.Error("failed to fetch branches", "course_id", courseID, "error", err)
		return unavailableList()
	}

	list := OptionList{Items: make([]Option, 0, len(branches))}
	for _, b := range branches {
		if strings.TrimSpace(b.Name) == "" {
			continue
		}
		list.Items = append(list.Items, Option{ID: b.ID, Name: b.Name})
	}
	return list
}

func (m *Machine) years(ctx context.Context, courseID uint) OptionList {
	course, err := m.src.Course(ctx, courseID)
	if err != nil {
		if errors.Is(err, taxonomy.ErrNotFound) {
			return emptyList()
		}
		m.log.Error("failed to fetch course", "course_id", courseID, "error", err)
		return unavailableList()
	}

	list := OptionList{Items: []Option{}}
	for _, label := range YearLabels(course.Duration) {
		list.Items = append(list.Items, Option{Name: label})
	}
	return list
}

// SelectBranch sets the branch without validating it
func SelectBranch(st State, branch string) State {
	st.Branch = strings.TrimSpace(branch)
	return st
}

// SelectYear sets the year without validating it
func SelectYear(st State, year string) State {
	st.Year = strings.TrimSpace(year)
	return st
}

// SelectType sets the document type without validating it
func SelectType(st State, docType string) State {
	st.Type = strings.TrimSpace(docType)
	return st
}

// YearLabels returns n ordinal year labels: "1st Year", "2nd Year",
// "3rd Year", then "th" for every value from 4 on. n <= 0 yields none.
func YearLabels(n int) []string {
	if n <= 0 {
		return []string{}
	}
	labels := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		labels = append(labels, fmt.Sprintf("%d%s Year", i, ordinalSuffix(i)))
	}
	return labels
}

func ordinalSuffix(i int) string {
	switch i {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}

func parseID(s string) (uint, bool) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
