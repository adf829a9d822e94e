package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ImportTemplate is a saved column mapping plus format config, reused across
// imports from the same platform export.
type ImportTemplate struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name      string         `gorm:"type:varchar(120);not null;uniqueIndex"`
	Platform  string         `gorm:"type:varchar(20);not null"`
	Mapping   datatypes.JSON `gorm:"type:jsonb;not null"`
	Config    datatypes.JSON `gorm:"type:jsonb;not null"`
	HasHeader bool           `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (t *ImportTemplate) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
