package repository

import (
	"context"
	"errors"

	"github.com/Lovoh17/Al-Punto-Clientes-sub000/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// keys kept in a client's local state
const (
	KeyUser           = "user"
	KeyToken          = "token"
	KeyRedirectTarget = "redirect_target"
	KeyProviderUser   = "provider_user"
)

// LocalStore is the persisted state of one client, the server-side stand-in
// for a browser's local storage.
type LocalStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, keys ...string) error
}

type StoreFactory interface {
	For(clientID string) LocalStore
}

// GormStoreFactory keeps every client's values in the local_values table.
type GormStoreFactory struct {
	DB *gorm.DB
}

func NewGormStoreFactory(db *gorm.DB) *GormStoreFactory {
	return &GormStoreFactory{DB: db}
}

func (f *GormStoreFactory) For(clientID string) LocalStore {
	return &GormStore{DB: f.DB, ClientID: clientID}
}

type GormStore struct {
	DB       *gorm.DB
	ClientID string
}

func (s *GormStore) Get(ctx context.Context, key string) (string, bool, error) {
	var row entity.LocalValue
	err := s.DB.WithContext(ctx).
		Where("client_id = ? AND name = ?", s.ClientID, key).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return row.Value, true, nil
}

func (s *GormStore) Set(ctx context.Context, key, value string) error {
	row := entity.LocalValue{ClientID: s.ClientID, Name: key, Value: value}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "client_id"}, {Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}

// Remove hard-deletes so the unique (client_id, name) index stays reusable.
func (s *GormStore) Remove(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.DB.WithContext(ctx).Unscoped().
		Where("client_id = ? AND name IN ?", s.ClientID, keys).
		Delete(&entity.LocalValue{}).Error
}
