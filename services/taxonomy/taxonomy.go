// Package taxonomy reads and maintains the reference data that classifies
// submissions: universities, courses, branches, years, document types and
// areas.
package taxonomy

import (
	"context"
	"errors"

	"github.com/campusconnect/api/model"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("taxonomy entry not found")

// Service reads the reference collections. Every list is ordered by name then
// id so repeated reads of an unchanged store are identical.
type Service struct {
	db *gorm.DB
}

// NewService creates a taxonomy service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Universities returns every university
func (s *Service) Universities(ctx context.Context) ([]model.University, error) {
	out := []model.University{}
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CoursesByUniversity returns the courses whose university_id equals universityID
func (s *Service) CoursesByUniversity(ctx context.Context, universityID uint) ([]model.Course, error) {
	out := []model.Course{}
	err := s.db.WithContext(ctx).
		Where("university_id = ?", universityID).
		Order("name ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// BranchesByCourse returns the named branches of a course. Branches with an
// empty or blank name are excluded.
func (s *Service) BranchesByCourse(ctx context.Context, courseID uint) ([]model.Branch, error) {
	out := []model.Branch{}
	err := s.db.WithContext(ctx).
		Where("course_id = ?", courseID).
		Where("name IS NOT NULL AND TRIM(name) <> ''").
		Order("name ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Course returns a course by id
func (s *Service) Course(ctx context.Context, id uint) (*model.Course, error) {
	var course model.Course
	if err := s.db.WithContext(ctx).First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &course, nil
}

// DocumentTypes returns every document type
func (s *Service) DocumentTypes(ctx context.Context) ([]model.DocumentType, error) {
	out := []model.DocumentType{}
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Years returns the static year list
func (s *Service) Years(ctx context.Context) ([]model.Year, error) {
	out := []model.Year{}
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Areas returns every local-services area
func (s *Service) Areas(ctx context.Context) ([]model.Area, error) {
	out := []model.Area{}
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
