package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/utils"
	"gorm.io/gorm"
)

// PasswordHasher hashes the bootstrap admin password
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// AdminAccount is the administrator created by the seeder
type AdminAccount struct {
	Email    string
	Password string
	Name     string
}

// CourseSeed is a course with its branches
type CourseSeed struct {
	Name     string
	Duration int
	Branches []string
}

// UniversitySeed is a university with its courses
type UniversitySeed struct {
	Name    string
	Courses []CourseSeed
}

// DefaultUniversities is the taxonomy a fresh installation starts with
var DefaultUniversities = []UniversitySeed{
	{
		Name: "RGPV",
		Courses: []CourseSeed{
			{Name: "B.Tech", Duration: 4, Branches: []string{"CSE", "IT", "ECE", "ME", "CE"}},
			{Name: "MCA", Duration: 2},
			{Name: "Diploma", Duration: 3, Branches: []string{"CSE", "ME"}},
		},
	},
	{
		Name: "DAVV",
		Courses: []CourseSeed{
			{Name: "BCA", Duration: 3},
			{Name: "B.Com", Duration: 3, Branches: []string{"Honours", "Computer Applications"}},
			{Name: "MBA", Duration: 2, Branches: []string{"Finance", "Marketing", "HR"}},
		},
	},
}

var (
	DefaultDocumentTypes = []string{"PYQ", "Notes", "Syllabus", "Books", "Lab Manual"}
	DefaultYears         = []string{"1st Year", "2nd Year", "3rd Year", "4th Year"}
	DefaultAreas         = []string{"Vijay Nagar", "Palasia", "Bhawarkua", "Rajwada", "Navlakha"}
)

// Seeder handles database seeding operations. Every step is idempotent.
type Seeder struct {
	db     *gorm.DB
	hasher PasswordHasher
	log    *utils.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, hasher PasswordHasher, log *utils.Logger) *Seeder {
	return &Seeder{db: db, hasher: hasher, log: log}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll(ctx context.Context, admin AdminAccount) error {
	s.log.Info("starting database seeding")

	if err := s.SeedAdminUser(ctx, admin); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}
	if err := s.SeedUniversities(ctx, DefaultUniversities); err != nil {
		return fmt.Errorf("failed to seed universities: %w", err)
	}
	if err := s.SeedNamed(ctx, DefaultDocumentTypes, func(name string) interface{} { return &model.DocumentType{Name: name} }); err != nil {
		return fmt.Errorf("failed to seed document types: %w", err)
	}
	if err := s.SeedNamed(ctx, DefaultYears, func(name string) interface{} { return &model.Year{Name: name} }); err != nil {
		return fmt.Errorf("failed to seed years: %w", err)
	}
	if err := s.SeedNamed(ctx, DefaultAreas, func(name string) interface{} { return &model.Area{Name: name} }); err != nil {
		return fmt.Errorf("failed to seed areas: %w", err)
	}

	s.log.Info("database seeding completed")
	return nil
}

// SeedAdminUser creates the administrator, or promotes an existing account
// with the same email. An empty email or password skips the step.
func (s *Seeder) SeedAdminUser(ctx context.Context, admin AdminAccount) error {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" || admin.Password == "" {
		s.log.Warn("ADMIN_EMAIL and ADMIN_PASSWORD not set, skipping admin user creation")
		return nil
	}

	db := s.db.WithContext(ctx)

	var existing model.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.Role == model.RoleAdmin {
			s.log.Info("admin user already exists, skipping", "email", email)
			return nil
		}
		// Bump the token version so tokens issued with the old role stop working
		return db.Model(&existing).Updates(map[string]interface{}{
			"role":          model.RoleAdmin,
			"token_version": gorm.Expr("token_version + 1"),
		}).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := s.hasher.Hash(admin.Password)
	if err != nil {
		return err
	}

	name := admin.Name
	if name == "" {
		name = "Administrator"
	}
	user := model.User{Email: email, PasswordHash: hash, Name: name, Role: model.RoleAdmin}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	s.log.Info("admin user created", "email", email)
	return nil
}

// SeedUniversities creates missing universities, courses and branches
func (s *Seeder) SeedUniversities(ctx context.Context, seeds []UniversitySeed) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, u := range seeds {
			uni := model.University{}
			if err := tx.Where(model.University{Name: u.Name}).FirstOrCreate(&uni).Error; err != nil {
				return err
			}
			for _, c := range u.Courses {
				course := model.Course{}
				if err := tx.Where(model.Course{UniversityID: uni.ID, Name: c.Name}).
					Attrs(model.Course{Duration: c.Duration}).
					FirstOrCreate(&course).Error; err != nil {
					return err
				}
				for _, b := range c.Branches {
					branch := model.Branch{}
					if err := tx.Where(model.Branch{CourseID: course.ID, Name: b}).FirstOrCreate(&branch).Error; err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

// SeedNamed creates the missing entries of a flat reference table
func (s *Seeder) SeedNamed(ctx context.Context, names []string, build func(name string) interface{}) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range names {
			entry := build(name)
			if err := tx.Where("name = ?", name).FirstOrCreate(entry).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// TableCount is the number of rows in one seeded table
type TableCount struct {
	Table string
	Rows  int64
}

// Counts reports the row counts of the seeded tables
func (s *Seeder) Counts(ctx context.Context) ([]TableCount, error) {
	tables := []struct {
		name  string
		model interface{}
	}{
		{"universities", &model.University{}},
		{"courses", &model.Course{}},
		{"branches", &model.Branch{}},
		{"document_types", &model.DocumentType{}},
		{"years", &model.Year{}},
		{"areas", &model.Area{}},
		{"users", &model.User{}},
	}

	out := make([]TableCount, 0, len(tables))
	for _, t := range tables {
		var n int64
		if err := s.db.WithContext(ctx).Model(t.model).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", t.name, err)
		}
		out = append(out, TableCount{Table: t.name, Rows: n})
	}
	return out, nil
}
