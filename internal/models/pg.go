package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PGCode identifies a gateway protocol family. Code is the routing key the
// gateway registry dispatches on.
type PGCode struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"not null"`
	Code      string    `gorm:"not null;unique"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (pgCode *PGCode) BeforeCreate(tx *gorm.DB) (err error) {
	if pgCode.ID == uuid.Nil {
		pgCode.ID = uuid.New()
	}
	return
}

// PG is one configured gateway instance. Static configuration: the
// allocation engine reads it, never mutates it.
type PG struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	Name      string    `gorm:"not null"`
	PGCodeID  uuid.UUID `gorm:"type:uuid;not null"`
	PGCode    *PGCode   `gorm:"foreignKey:PGCodeID"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (pg *PG) BeforeCreate(tx *gorm.DB) (err error) {
	if pg.ID == uuid.Nil {
		pg.ID = uuid.New()
	}
	return
}
