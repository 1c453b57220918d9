package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment is one ledger entry. Rows are append-only: a reversal is a new
// row with a negative amount and OriginalPaymentID set, never an update or
// delete. This is the audit trail the compensation logic depends on.
type Payment struct {
	ID                uuid.UUID  `gorm:"type:uuid;primary_key"`
	PGID              uuid.UUID  `gorm:"type:uuid;not null;index"`
	PG                *PG        `gorm:"foreignKey:PGID"`
	PackageID         uuid.UUID  `gorm:"type:uuid;not null;index"`
	Amount            int64      `gorm:"not null"`
	ApproveNo         string     `gorm:"not null;index"`
	ApproveAt         time.Time  `gorm:"not null"`
	OriginalPaymentID *uuid.UUID `gorm:"type:uuid"`
	CreatedAt         time.Time
}

func (payment *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	return
}
