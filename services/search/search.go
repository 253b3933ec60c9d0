// Package search runs conjunctive equality filters over the public
// collections and classifies the outcome.
package search

import (
	"context"
	"strconv"
	"strings"

	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/utils"
	"gorm.io/gorm"
)

// Outcome is exactly one of the four search results
type Outcome string

const (
	OutcomeNoFilter  Outcome = "no_filter"
	OutcomeNoMatches Outcome = "no_matches"
	OutcomeResults   Outcome = "results"
	OutcomeError     Outcome = "error"
)

// User-facing messages
const (
	MsgSelectFilter = "Please select at least one filter."
	MsgNoDocuments  = "No documents found for your search criteria."
	MsgSelectArea   = "Please select an area."
	MsgNoServices   = "No services found for this area."
	MsgSearchFailed = "An error occurred while searching."
)

// MaterialFilter holds the optional material filters. University and Course are ids.
type MaterialFilter struct {
	University string `query:"university" json:"university"`
	Course     string `query:"course" json:"course"`
	Branch     string `query:"branch" json:"branch"`
	Year       string `query:"year" json:"year"`
	Type       string `query:"type" json:"type"`
}

func (f *MaterialFilter) normalize() {
	for _, v := range []*string{&f.University, &f.Course, &f.Branch, &f.Year, &f.Type} {
		*v = strings.TrimSpace(*v)
	}
}

// Empty reports whether no filter is set
func (f MaterialFilter) Empty() bool {
	f.normalize()
	return f.University == "" && f.Course == "" && f.Branch == "" && f.Year == "" && f.Type == ""
}

// ServiceFilter holds the local services filter
type ServiceFilter struct {
	Area string `query:"area" json:"area"`
}

// Result is the classified outcome of one search
type Result[T any] struct {
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message,omitempty"`
	Results []T     `json:"results"`
}

// Service executes searches against the public collections
type Service struct {
	db  *gorm.DB
	log *utils.Logger
}

// NewService creates a search service
func NewService(db *gorm.DB, log *utils.Logger) *Service {
	return &Service{db: db, log: log}
}

// Materials searches approved academic materials. Each non-empty field adds
// an equality predicate; all predicates must hold.
func (s *Service) Materials(ctx context.Context, f MaterialFilter) Result[model.AcademicMaterial] {
	f.normalize()
	if f.Empty() {
		return Result[model.AcademicMaterial]{Outcome: OutcomeNoFilter, Message: MsgSelectFilter, Results: []model.AcademicMaterial{}}
	}

	q := s.db.WithContext(ctx).Model(&model.AcademicMaterial{})
	for _, p := range []struct {
		column string
		value  string
		isID   bool
	}{
		{"university_id", f.University, true},
		{"course_id", f.Course, true},
		{"branch", f.Branch, false},
		{"year", f.Year, false},
		{"type", f.Type, false},
	} {
		if p.value == "" {
			continue
		}
		if p.isID {
			id, err := strconv.ParseUint(p.value, 10, 64)
			if err != nil {
				// A non-numeric id can not match any stored id
				return Result[model.AcademicMaterial]{Outcome: OutcomeNoMatches, Message: MsgNoDocuments, Results: []model.AcademicMaterial{}}
			}
			q = q.Where(p.column+" = ?", uint(id))
			continue
		}
		q = q.Where(p.column+" = ?", p.value)
	}

	return run[model.AcademicMaterial](q, s.log, MsgNoDocuments, "materials", f)
}

// Services searches approved local services by area
func (s *Service) Services(ctx context.Context, f ServiceFilter) Result[model.LocalService] {
	area := strings.TrimSpace(f.Area)
	if area == "" {
		return Result[model.LocalService]{Outcome: OutcomeNoFilter, Message: MsgSelectArea, Results: []model.LocalService{}}
	}

	q := s.db.WithContext(ctx).Model(&model.LocalService{}).Where("area = ?", area)
	return run[model.LocalService](q, s.log, MsgNoServices, "services", f)
}

func run[T any](q *gorm.DB, log *utils.Logger, noMatches string, collection string, filter interface{}) Result[T] {
	results := []T{}
	if err := q.Order("approved_at DESC, id ASC").Find(&results).Error; err != nil {
		log.Error("search failed", "collection", collection, "filter", filter, "error", err)
		return Result[T]{Outcome: OutcomeError, Message: MsgSearchFailed, Results: []T{}}
	}
	if len(results) == 0 {
		return Result[T]{Outcome: OutcomeNoMatches, Message: noMatches, Results: results}
	}
	return Result[T]{Outcome: OutcomeResults, Results: results}
}
