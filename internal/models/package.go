package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Package is one line item of a bundle. Paid accumulates the amounts of the
// payment rows recorded against it; the allocation keeps Paid <= Amount on
// healthy bundles but does not hard-enforce it. A mirror package on a
// reversal bundle points back at the package it negates.
type Package struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key"`
	BundleID          uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID            uuid.UUID `gorm:"type:uuid;not null"`
	Title             string    `gorm:"not null"`
	Amount            int64     `gorm:"not null"`
	Quantity          int       `gorm:"not null"`
	Paid              int64     `gorm:"not null;default:0"`
	PaidAt            *time.Time
	OriginalPackageID *uuid.UUID `gorm:"type:uuid;index"`
	Payments          []Payment  `gorm:"foreignKey:PackageID"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	DeletedAt         gorm.DeletedAt `gorm:"index"`
}

func (pkg *Package) BeforeCreate(tx *gorm.DB) (err error) {
	if pkg.ID == uuid.Nil {
		pkg.ID = uuid.New()
	}
	return
}
