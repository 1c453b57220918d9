// Package repository is the ledger store: bundles, packages and payment
// rows. The core services depend on these interfaces so the allocation and
// compensation logic stays testable without a database.
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tobipay/bundlepay/internal/models"
)

type BundleStore interface {
	Create(ctx context.Context, bundle *models.Bundle) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Bundle, error)
	// GetOpenByUserID resolves the user's open storefront bundle. Reversal
	// bundles are never returned, even while still open.
	GetOpenByUserID(ctx context.Context, userID uuid.UUID) (*models.Bundle, error)
	// GetOpenReversal returns the unfinished reversal bundle for an
	// original, or nil without error when none exists.
	GetOpenReversal(ctx context.Context, originalBundleID uuid.UUID) (*models.Bundle, error)
	Save(ctx context.Context, bundle *models.Bundle) error
	ListByUserAndDay(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.Bundle, error)
	ListByUserAndMonth(ctx context.Context, userID uuid.UUID, month time.Time) ([]models.Bundle, error)
}

type PackageStore interface {
	Create(ctx context.Context, pkg *models.Package) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Package, error)
	// ListByBundle returns the bundle's packages in allocation order:
	// ascending created_at, id as tie-breaker. The proportional split
	// depends on this order being stable.
	ListByBundle(ctx context.Context, bundleID uuid.UUID) ([]models.Package, error)

	// Pay records one payment row and folds its amount into the package's
	// paid accumulator inside a single transaction.
	Pay(ctx context.Context, payment *models.Payment) error
}

type PaymentStore interface {
	ListByPackage(ctx context.Context, packageID uuid.UUID) ([]models.Payment, error)
	GetByApproveNo(ctx context.Context, approveNo string) (*models.Payment, error)
	// GetReversal returns the mirror row negating the given payment, or
	// nil without error when the payment has not been reversed.
	GetReversal(ctx context.Context, originalPaymentID uuid.UUID) (*models.Payment, error)
}

type PGStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.PG, error)
}

type LimitStore interface {
	// GetByPG returns nil without error when no limit row is configured
	// for the gateway: absence means no ceiling.
	GetByPG(ctx context.Context, pgID uuid.UUID) (*models.PaymentLimitCond, error)
}
