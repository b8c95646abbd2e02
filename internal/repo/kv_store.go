package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-coach-sim/internal/domain"
	"github.com/tbourn/go-coach-sim/internal/kv"
)

// KVStore is a kv.Store over the kv_entries table. Every key lives in
// Namespace, which is normally the user id.
type KVStore struct {
	DB        *gorm.DB
	Namespace string
}

var _ kv.Store = (*KVStore)(nil)

// NewKVStore returns the store for namespace.
func NewKVStore(db *gorm.DB, namespace string) *KVStore {
	return &KVStore{DB: db, Namespace: namespace}
}

// Get returns the value of key, or kv.ErrNotFound.
func (s *KVStore) Get(ctx context.Context, key string) ([]byte, error) {
	var e domain.KVEntry
	err := s.DB.WithContext(ctx).
		Where("namespace = ? AND key = ?", s.Namespace, key).
		First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return e.Value, nil
}

// Set inserts or replaces the value of key.
func (s *KVStore) Set(ctx context.Context, key string, value []byte) error {
	e := domain.KVEntry{
		Namespace: s.Namespace,
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now().UTC(),
	}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "namespace"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

// Clear deletes key. Clearing a missing key is not an error.
func (s *KVStore) Clear(ctx context.Context, key string) error {
	return s.DB.WithContext(ctx).
		Where("namespace = ? AND key = ?", s.Namespace, key).
		Delete(&domain.KVEntry{}).Error
}
