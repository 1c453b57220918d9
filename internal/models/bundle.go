package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BundleStatus string

const (
	BundleStatusOpen     BundleStatus = "OPEN"
	BundleStatusPaid     BundleStatus = "PAID"
	BundleStatusCanceled BundleStatus = "CANCELED"
)

// Bundle is one customer order. A cancellation never edits a paid bundle:
// it creates a second bundle with negated amounts whose OriginalBundleID
// points back here.
type Bundle struct {
	ID               uuid.UUID    `gorm:"type:uuid;primary_key"`
	UserID           uuid.UUID    `gorm:"type:uuid;not null;index"`
	Amount           int64        `gorm:"not null"`
	Status           BundleStatus `gorm:"not null;default:'OPEN'"`
	PaidAt           *time.Time
	OriginalBundleID *uuid.UUID `gorm:"type:uuid"`
	Packages         []Package  `gorm:"foreignKey:BundleID"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (bundle *Bundle) BeforeCreate(tx *gorm.DB) (err error) {
	if bundle.ID == uuid.Nil {
		bundle.ID = uuid.New()
	}
	return
}
