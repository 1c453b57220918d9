package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaymentLimitCond holds the spend ceilings for one gateway. A nil ceiling
// means no limit of that kind is configured.
type PaymentLimitCond struct {
	ID               uuid.UUID `gorm:"type:uuid;primary_key"`
	PGID             uuid.UUID `gorm:"type:uuid;not null;unique"`
	PG               *PG       `gorm:"foreignKey:PGID"`
	TransactionLimit *int64
	DailyLimit       *int64
	MonthlyLimit     *int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

func (cond *PaymentLimitCond) BeforeCreate(tx *gorm.DB) (err error) {
	if cond.ID == uuid.Nil {
		cond.ID = uuid.New()
	}
	return
}
