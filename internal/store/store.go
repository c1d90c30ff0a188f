package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/adi-253/parley/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	// ErrNotFound is returned when the requested row does not exist.
	ErrNotFound = errors.New("store: not found")

	// ErrConflict is returned when an optimistic update lost every retry.
	ErrConflict = errors.New("store: concurrent update conflict")

	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("store: duplicate value")
)

// maxUpdateAttempts bounds the optimistic retry loop around message updates
const maxUpdateAttempts = 5

// Store persists users, conversations, messages and their derived records.
// Message writes go through explicit hook lists instead of ORM callbacks.
type Store struct {
	db  *gorm.DB
	now func() time.Time

	updateHooks []UpdateHook
	createHooks []CreateHook
	commitHooks []CommitHook
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source used for created timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithUpdateHooks registers hooks that run before a message update is written.
func WithUpdateHooks(hooks ...UpdateHook) Option {
	return func(s *Store) { s.updateHooks = append(s.updateHooks, hooks...) }
}

// WithCreateHooks registers hooks that run after a message row is inserted,
// inside the same transaction.
func WithCreateHooks(hooks ...CreateHook) Option {
	return func(s *Store) { s.createHooks = append(s.createHooks, hooks...) }
}

// WithCommitHooks registers hooks that run once a message write has committed.
func WithCommitHooks(hooks ...CommitHook) Option {
	return func(s *Store) { s.commitHooks = append(s.commitHooks, hooks...) }
}

// Open connects to the sqlite database at path and migrates the schema.
func Open(path string, opts ...Option) (*Store, error) {
	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get connection pool: %w", err)
	}
	// sqlite allows a single writer; one connection keeps transactions serial
	sqlDB.SetMaxOpenConns(1)

	s := New(db, opts...)
	if err := s.Migrate(); err != nil {
		return nil, err
	}
	return s, nil
}

// New wraps an existing gorm handle.
func New(db *gorm.DB, opts ...Option) *Store {
	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates or updates every table the store owns.
func (s *Store) Migrate() error {
	err := s.db.AutoMigrate(
		&models.User{},
		&models.Conversation{},
		&models.Message{},
		&models.MessageHistory{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

func paginate(page, pageSize int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize, pageSize
}
