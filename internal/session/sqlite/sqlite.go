// Package sqlite provides a [session.Store] in a local SQLite file, for
// single-node deployments that want sessions to survive a restart.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/MrWong99/presenter/internal/session"
)

var _ session.Store = (*Store)(nil)

// Attribute is one stored session attribute.
type Attribute struct {
	SessionID string    `gorm:"primaryKey;type:varchar(255)"`
	Name      string    `gorm:"primaryKey;type:varchar(255)"`
	Value     []byte    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"index:idx_attributes_updated_at"`
}

// Store keeps session attributes in SQLite through GORM.
type Store struct {
	db    *gorm.DB
	sqlDB *sql.DB
}

// Open opens (creating if needed) the database at path and migrates the
// schema.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("session sqlite: create dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("session sqlite: open %q: %w", path, err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("session sqlite: get sql.DB: %w", err)
	}
	// SQLite has a single writer; one connection avoids SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&Attribute{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("session sqlite: auto migrate: %w", err)
	}
	return &Store{db: db, sqlDB: sqlDB}, nil
}

// Get implements [session.Store].
func (s *Store) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	var a Attribute
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND name = ?", sessionID, key).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("session sqlite: get %q: %w", key, err)
	}
	return a.Value, nil
}

// Set implements [session.Store].
func (s *Store) Set(ctx context.Context, sessionID, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	a := Attribute{SessionID: sessionID, Name: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "session_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&a).Error
	if err != nil {
		return fmt.Errorf("session sqlite: set %q: %w", key, err)
	}
	return nil
}

// Remove implements [session.Store].
func (s *Store) Remove(ctx context.Context, sessionID, key string) error {
	err := s.db.WithContext(ctx).
		Where("session_id = ? AND name = ?", sessionID, key).
		Delete(&Attribute{}).Error
	if err != nil {
		return fmt.Errorf("session sqlite: remove %q: %w", key, err)
	}
	return nil
}

// Clear implements [session.Store].
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Delete(&Attribute{}).Error
	if err != nil {
		return fmt.Errorf("session sqlite: clear: %w", err)
	}
	return nil
}

// Purge deletes attributes not written since before cutoff and returns the
// number of rows removed.
func (s *Store) Purge(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("updated_at < ?", cutoff).
		Delete(&Attribute{})
	if res.Error != nil {
		return 0, fmt.Errorf("session sqlite: purge: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.sqlDB.Close()
}
