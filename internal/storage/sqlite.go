package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SlotKey is the fixed namespaced key the whole store snapshot lives under.
const SlotKey = "digipiggy:store"

// Slot is one key-value row. The application only ever writes a single row,
// but the table is keyed so future slots (settings, caches) can share it.
type Slot struct {
	Key   string `gorm:"primaryKey"`
	Value []byte
}

// SlotStore is a durable single-slot key-value store backed by a local
// pure-Go SQLite file.
type SlotStore struct {
	db  *gorm.DB
	key string
}

// Open creates or opens the SQLite file at path and migrates the slot table.
func Open(path string) (*SlotStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	if err := db.AutoMigrate(&Slot{}); err != nil {
		return nil, fmt.Errorf("failed to migrate storage: %w", err)
	}

	return &SlotStore{db: db, key: SlotKey}, nil
}

// Load reads the slot. ok is false when the slot has never been written,
// which is not an error.
func (s *SlotStore) Load(ctx context.Context) ([]byte, bool, error) {
	var slot Slot
	err := s.db.WithContext(ctx).First(&slot, "key = ?", s.key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return slot.Value, true, nil
}

// Save overwrites the slot with the given payload. Last writer wins.
func (s *SlotStore) Save(ctx context.Context, data []byte) error {
	return s.db.WithContext(ctx).Save(&Slot{Key: s.key, Value: data}).Error
}

// Close releases the underlying database handle.
func (s *SlotStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
