package entity

import (
	"gorm.io/gorm"
)

// LocalValue is one persisted key of a client's local state.
type LocalValue struct {
	gorm.Model
	ClientID string `gorm:"size:64;not null;uniqueIndex:idx_client_key"`
	Name     string `gorm:"size:64;not null;uniqueIndex:idx_client_key"`
	Value    string `gorm:"type:text"`
}
