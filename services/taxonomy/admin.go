package taxonomy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/campusconnect/api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrConflict covers duplicate names and deleting an entry that is still referenced
	ErrConflict = errors.New("taxonomy entry conflicts with existing data")
	ErrInvalid  = errors.New("invalid taxonomy entry")
)

// Admin identifies who changes reference data
type Admin struct {
	ID        uint
	Email     string
	IPAddress string
}

// CourseInput describes a course to create or update
type CourseInput struct {
	UniversityID uint   `json:"university_id" validate:"required"`
	Name         string `json:"name" validate:"required,notblank,max=255"`
	Duration     int    `json:"duration" validate:"min=0,max=10"`
}

// CreateUniversity adds a university
func (s *Service) CreateUniversity(ctx context.Context, by Admin, name string) (*model.University, error) {
	uni := &model.University{Name: strings.TrimSpace(name)}
	err := s.write(ctx, by, model.AuditActionCreate, "universities", func(tx *gorm.DB) (uint, interface{}, error) {
		if uni.Name == "" {
			return 0, nil, fmt.Errorf("%w: name is required", ErrInvalid)
		}
		if err := unique(tx, &model.University{}, "name = ?", uni.Name); err != nil {
			return 0, nil, err
		}
		return 0, uni, tx.Create(uni).Error
	})
	return uni, err
}

// RenameUniversity changes a university's name
func (s *Service) RenameUniversity(ctx context.Context, by Admin, id uint, name string) (*model.University, error) {
	var uni model.University
	err := s.write(ctx, by, model.AuditActionUpdate, "universities", func(tx *gorm.DB) (uint, interface{}, error) {
		if err := first(tx, &uni, id); err != nil {
			return 0, nil, err
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return 0, nil, fmt.Errorf("%w: name is required", ErrInvalid)
		}
		if err := unique(tx, &model.University{}, "name = ? AND id <> ?", name, id); err != nil {
			return 0, nil, err
		}
		uni.Name = name
		return id, &uni, tx.Model(&uni).Update("name", name).Error
	})
	return &uni, err
}

// DeleteUniversity removes a university that has no courses and no materials
func (s *Service) DeleteUniversity(ctx context.Context, by Admin, id uint) error {
	return s.write(ctx, by, model.AuditActionDelete, "universities", func(tx *gorm.DB) (uint, interface{}, error) {
		var uni model.University
		if err := first(tx, &uni, id); err != nil {
			return 0, nil, err
		}
		if err := unreferenced(tx, "university_id = ?", id,
			&model.Course{}, &model.PendingAcademicMaterial{}, &model.AcademicMaterial{}); err != nil {
			return 0, nil, err
		}
		return id, &uni, tx.Delete(&uni).Error
	})
}

// CreateCourse adds a course under an existing university
func (s *Service) CreateCourse(ctx context.Context, by Admin, in CourseInput) (*model.Course, error) {
	course := &model.Course{UniversityID: in.UniversityID, Name: strings.TrimSpace(in.Name), Duration: in.Duration}
	err := s.write(ctx, by, model.AuditActionCreate, "courses", func(tx *gorm.DB) (uint, interface{}, error) {
		if err := first(tx, &model.University{}, in.UniversityID); err != nil {
			return 0, nil, fmt.Errorf("%w: university %d does not exist", ErrInvalid, in.UniversityID)
		}
		if err := unique(tx, &model.Course{}, "university_id = ? AND name = ?", course.UniversityID, course.Name); err != nil {
			return 0, nil, err
		}
		return 0, course, tx.Create(course).Error
	})
	return course, err
}

// UpdateCourse changes a course's name and duration
func (s *Service) UpdateCourse(ctx context.Context, by Admin, id uint, in CourseInput) (*model.Course, error) {
	var course model.Course
	err := s.write(ctx, by, model.AuditActionUpdate, "courses", func(tx *gorm.DB) (uint, interface{}, error) {
		if err := first(tx, &course, id); err != nil {
			return 0, nil, err
		}
		name := strings.TrimSpace(in.Name)
		if err := unique(tx, &model.Course{}, "university_id = ? AND name = ? AND id <> ?", course.UniversityID, name, id); err != nil {
			return 0, nil, err
		}
		course.Name = name
		course.Duration = in.Duration
		return id, &course, tx.Model(&course).Updates(map[string]interface{}{"name": name, "duration": in.Duration}).Error
	})
	return &course, err
}

// DeleteCourse removes a course that has no branches and no materials
func (s *Service) DeleteCourse(ctx context.Context, by Admin, id uint) error {
	return s.write(ctx, by, model.AuditActionDelete, "courses", func(tx *gorm.DB) (uint, interface{}, error) {
		var course model.Course
		if err := first(tx, &course, id); err != nil {
			return 0, nil, err
		}
		if err := unreferenced(tx, "course_id = ?", id,
			&model.Branch{}, &model.PendingAcademicMaterial{}, &model.AcademicMaterial{}); err != nil {
			return 0, nil, err
		}
		return id, &course, tx.Delete(&course).Error
	})
}

// CreateBranch adds a named branch to a course
func (s *Service) CreateBranch(ctx context.Context, by Admin, courseID uint, name string) (*model.Branch, error) {
	branch := &model.Branch{CourseID: courseID, Name: strings.TrimSpace(name)}
	err := s.write(ctx, by, model.AuditActionCreate, "branches", func(tx *gorm.DB) (uint, interface{}, error) {
		if branch.Name == "" {
			return 0, nil, fmt.Errorf("%w: branch name is required", ErrInvalid)
		}
		if err := first(tx, &model.Course{}, courseID); err != nil {
			return 0, nil, err
		}
		if err := unique(tx, &model.Branch{}, "course_id = ? AND name = ?", courseID, branch.Name); err != nil {
			return 0, nil, err
		}
		return 0, branch, tx.Create(branch).Error
	})
	return branch, err
}

// DeleteBranch removes a branch. Materials store the branch by name, so
// existing materials keep their value.
func (s *Service) DeleteBranch(ctx context.Context, by Admin, id uint) error {
	return deleteEntry[model.Branch](ctx, s, by, "branches", id)
}

// CreateArea adds a local-services area
func (s *Service) CreateArea(ctx context.Context, by Admin, name string) (*model.Area, error) {
	area := &model.Area{Name: strings.TrimSpace(name)}
	return area, createNamed(ctx, s, by, "areas", area, area.Name)
}

// DeleteArea removes an area
func (s *Service) DeleteArea(ctx context.Context, by Admin, id uint) error {
	return deleteEntry[model.Area](ctx, s, by, "areas", id)
}

// CreateDocumentType adds a document type
func (s *Service) CreateDocumentType(ctx context.Context, by Admin, name string) (*model.DocumentType, error) {
	dt := &model.DocumentType{Name: strings.TrimSpace(name)}
	return dt, createNamed(ctx, s, by, "document_types", dt, dt.Name)
}

// DeleteDocumentType removes a document type
func (s *Service) DeleteDocumentType(ctx context.Context, by Admin, id uint) error {
	return deleteEntry[model.DocumentType](ctx, s, by, "document_types", id)
}

func createNamed[T any](ctx context.Context, s *Service, by Admin, resource string, entry *T, name string) error {
	return s.write(ctx, by, model.AuditActionCreate, resource, func(tx *gorm.DB) (uint, interface{}, error) {
		if name == "" {
			return 0, nil, fmt.Errorf("%w: name is required", ErrInvalid)
		}
		if err := unique(tx, new(T), "name = ?", name); err != nil {
			return 0, nil, err
		}
		return 0, entry, tx.Create(entry).Error
	})
}

func deleteEntry[T any](ctx context.Context, s *Service, by Admin, resource string, id uint) error {
	return s.write(ctx, by, model.AuditActionDelete, resource, func(tx *gorm.DB) (uint, interface{}, error) {
		var entry T
		if err := first(tx, &entry, id); err != nil {
			return 0, nil, err
		}
		return id, &entry, tx.Delete(&entry).Error
	})
}

// write runs change in a transaction together with its audit entry. change
// returns the affected id (0 when it is only known after insert), a snapshot
// of the entry and the write error.
func (s *Service) write(ctx context.Context, by Admin, action, resource string, change func(tx *gorm.DB) (uint, interface{}, error)) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		id, snapshot, err := change(tx)
		if err != nil {
			return err
		}
		if id == 0 {
			id = idOf(snapshot)
		}

		raw, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("failed to encode audit snapshot: %w", err)
		}
		return tx.Create(&model.AdminAuditLog{
			AdminID:     by.ID,
			AdminEmail:  by.Email,
			Action:      action,
			Resource:    resource,
			ResourceID:  id,
			Snapshot:    datatypes.JSON(raw),
			IPAddress:   by.IPAddress,
			Description: fmt.Sprintf("%s %s #%d", action, resource, id),
		}).Error
	})
}

func idOf(entry interface{}) uint {
	switch e := entry.(type) {
	case *model.University:
		return e.ID
	case *model.Course:
		return e.ID
	case *model.Branch:
		return e.ID
	case *model.Area:
		return e.ID
	case *model.DocumentType:
		return e.ID
	}
	return 0
}

func first(tx *gorm.DB, dest interface{}, id uint) error {
	if err := tx.First(dest, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func unique(tx *gorm.DB, table interface{}, query string, args ...interface{}) error {
	var count int64
	if err := tx.Model(table).Where(query, args...).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: name already exists", ErrConflict)
	}
	return nil
}

func unreferenced(tx *gorm.DB, query string, id uint, tables ...interface{}) error {
	for _, table := range tables {
		var count int64
		if err := tx.Model(table).Where(query, id).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: entry is still in use", ErrConflict)
		}
	}
	return nil
}
