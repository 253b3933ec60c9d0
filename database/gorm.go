package database

import (
	"fmt"
	"time"

	"github.com/campusconnect/api/config"
	"github.com/campusconnect/api/model"
	"github.com/campusconnect/api/utils"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Storage is the database lifecycle owned by the process. Components receive
// the *gorm.DB from DB() instead of reaching for a package-level handle.
type Storage interface {
	Init() error
	Close() error
	HealthCheck() error
	DB() *gorm.DB
}

type GORMStore struct {
	db     *gorm.DB
	driver string
	log    *utils.Logger
}

// Open picks the driver configured by DB_DRIVER
func Open(env *config.EnviornmentVariable, log *utils.Logger) (*GORMStore, error) {
	switch env.DB_DRIVER {
	case "sqlite":
		return StartSQLite(env.DB_PATH, gormLogger(env), log)
	case "postgres", "":
		return StartGORM(env, log)
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", env.DB_DRIVER)
	}
}

// StartGORM initializes a GORM connection to PostgreSQL
func StartGORM(env *config.EnviornmentVariable, log *utils.Logger) (*GORMStore, error) {
	db, err := gorm.Open(postgres.Open(env.PostgresDSN()), &gorm.Config{
		Logger:                 gormLogger(env),
		SkipDefaultTransaction: false,
		PrepareStmt:            true,
	})
	if err != nil {
		log.Error("unable to connect to PostgreSQL", "error", err)
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// Connection pool settings
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("connected to PostgreSQL", "host", env.DB_HOST, "db", env.DB_NAME)
	return &GORMStore{db: db, driver: "postgres", log: log}, nil
}

// StartSQLite opens a SQLite database. ":memory:" gives a private in-memory
// database; the pool is pinned to one connection so every query sees it.
func StartSQLite(path string, gl logger.Interface, log *utils.Logger) (*GORMStore, error) {
	if gl == nil {
		gl = logger.Default.LogMode(logger.Silent)
	}
	db, err := gorm.Open(sqlite.Open(path+sqliteParams(path)), &gorm.Config{Logger: gl})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	log.Info("opened SQLite database", "path", path)
	return &GORMStore{db: db, driver: "sqlite", log: log}, nil
}

func sqliteParams(path string) string {
	if path == ":memory:" {
		return ""
	}
	return "?_foreign_keys=on&_busy_timeout=5000"
}

func gormLogger(env *config.EnviornmentVariable) logger.Interface {
	if env.IsProduction() {
		return logger.Default.LogMode(logger.Error)
	}
	return logger.Default.LogMode(logger.Warn)
}

// Models lists every table owned by the service in migration order
func Models() []interface{} {
	return []interface{}{
		// Accounts
		&model.User{},
		&model.JWTTokenBlacklist{},

		// Taxonomy
		&model.University{},
		&model.Course{},
		&model.Branch{},
		&model.DocumentType{},
		&model.Year{},
		&model.Area{},

		// Submissions and moderated collections
		&model.PendingAcademicMaterial{},
		&model.AcademicMaterial{},
		&model.PendingLocalService{},
		&model.LocalService{},
		&model.UserNotification{},

		// Audit & logging
		&model.AdminAuditLog{},
		&model.CronJobLog{},
	}
}

// Init runs the AutoMigrate to create/update tables
func (s *GORMStore) Init() error {
	s.log.Info("running AutoMigrate", "driver", s.driver)

	if err := s.db.AutoMigrate(Models()...); err != nil {
		s.log.Error("AutoMigrate failed", "error", err)
		return err
	}

	s.log.Info("AutoMigrate completed")
	return nil
}

// Close closes the database connection
func (s *GORMStore) Close() error {
	s.log.Info("closing database connection", "driver", s.driver)
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB returns the GORM DB instance for use in services and handlers
func (s *GORMStore) DB() *gorm.DB {
	return s.db
}

// Driver returns "postgres" or "sqlite"
func (s *GORMStore) Driver() string {
	return s.driver
}

// HealthCheck verifies the database connection is alive
func (s *GORMStore) HealthCheck() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
