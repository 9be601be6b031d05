package dbhelper

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicalai/apiv1/dbhelper/migrations"
	"github.com/clinicalai/apiv1/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Store struct {
	DB               *gorm.DB
	now              func() time.Time
	maxLoginAttempts int
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithMaxLoginAttempts sets how many failed sign-ins lock an email out; 0 disables lockout.
func WithMaxLoginAttempts(n int) Option {
	return func(s *Store) { s.maxLoginAttempts = n }
}

// OpenDB opens the SQLite file at path (":memory:" works too) with foreign keys enforced.
func OpenDB(path string, opts ...Option) (*Store, error) {
	s := &Store{
		now:              time.Now,
		maxLoginAttempts: utils.MAX_NUM_LOGIN_ATTEMPTS,
	}
	for _, opt := range opts {
		opt(s)
	}

	dsn := fmt.Sprintf("%s?_foreign_keys=on&_busy_timeout=5000", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		NowFunc:        func() time.Time { return s.now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// SQLite has a single writer; one connection also keeps ":memory:" databases intact.
	sqlDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s.DB = db
	return s, nil
}

func (s *Store) InitDB() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return migrations.MigrateUp(sqlDB)
}

func (s *Store) SchemaVersion() (uint, bool, error) {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return 0, false, err
	}
	return migrations.Version(sqlDB)
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Now() time.Time {
	return s.now().UTC()
}
