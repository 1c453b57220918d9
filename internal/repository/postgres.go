package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tobipay/bundlepay/internal/models"
	"github.com/tobipay/bundlepay/internal/resultcode"
	"gorm.io/gorm"
)

func dbError(op string, err error) error {
	return resultcode.Wrap(resultcode.ErrorDB, slog.LevelError,
		fmt.Sprintf("%s failed: %v", op, err), err)
}

type GormBundleStore struct {
	db *gorm.DB
}

func NewBundleStore(db *gorm.DB) *GormBundleStore {
	return &GormBundleStore{db: db}
}

func (s *GormBundleStore) Create(ctx context.Context, bundle *models.Bundle) error {
	if err := s.db.WithContext(ctx).Create(bundle).Error; err != nil {
		return dbError("create bundle", err)
	}
	return nil
}

func (s *GormBundleStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Bundle, error) {
	var bundle models.Bundle
	if err := s.db.WithContext(ctx).First(&bundle, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, resultcode.Newf(resultcode.ErrorBundleNotExists, slog.LevelWarn,
				fmt.Sprintf("bundle %s does not exist", id))
		}
		return nil, dbError("get bundle", err)
	}
	return &bundle, nil
}

func (s *GormBundleStore) GetOpenByUserID(ctx context.Context, userID uuid.UUID) (*models.Bundle, error) {
	var bundle models.Bundle
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND original_bundle_id IS NULL",
			userID, models.BundleStatusOpen).
		Order("created_at DESC").
		First(&bundle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, resultcode.Newf(resultcode.ErrorBundleNotExists, slog.LevelWarn,
				fmt.Sprintf("user %s has no open bundle", userID))
		}
		return nil, dbError("get open bundle by user", err)
	}
	return &bundle, nil
}

func (s *GormBundleStore) GetOpenReversal(ctx context.Context, originalBundleID uuid.UUID) (*models.Bundle, error) {
	var bundle models.Bundle
	err := s.db.WithContext(ctx).
		Where("original_bundle_id = ? AND status = ?", originalBundleID, models.BundleStatusOpen).
		Order("created_at ASC").
		First(&bundle).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dbError("get open reversal bundle", err)
	}
	return &bundle, nil
}

func (s *GormBundleStore) Save(ctx context.Context, bundle *models.Bundle) error {
	if err := s.db.WithContext(ctx).Save(bundle).Error; err != nil {
		return dbError("save bundle", err)
	}
	return nil
}

func (s *GormBundleStore) ListByUserAndDay(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.Bundle, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return s.listByUserBetween(ctx, userID, start, start.AddDate(0, 0, 1))
}

func (s *GormBundleStore) ListByUserAndMonth(ctx context.Context, userID uuid.UUID, month time.Time) ([]models.Bundle, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	return s.listByUserBetween(ctx, userID, start, start.AddDate(0, 1, 0))
}

func (s *GormBundleStore) listByUserBetween(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.Bundle, error) {
	var bundles []models.Bundle
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND created_at >= ? AND created_at < ?", userID, from, to).
		Find(&bundles).Error
	if err != nil {
		return nil, dbError("list bundles by user and range", err)
	}
	return bundles, nil
}

type GormPackageStore struct {
	db *gorm.DB
}

func NewPackageStore(db *gorm.DB) *GormPackageStore {
	return &GormPackageStore{db: db}
}

func (s *GormPackageStore) Create(ctx context.Context, pkg *models.Package) error {
	if err := s.db.WithContext(ctx).Create(pkg).Error; err != nil {
		return dbError("create package", err)
	}
	return nil
}

func (s *GormPackageStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Package, error) {
	var pkg models.Package
	if err := s.db.WithContext(ctx).First(&pkg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, resultcode.Newf(resultcode.ErrorPackageNotExists, slog.LevelWarn,
				fmt.Sprintf("package %s does not exist", id))
		}
		return nil, dbError("get package", err)
	}
	return &pkg, nil
}

func (s *GormPackageStore) ListByBundle(ctx context.Context, bundleID uuid.UUID) ([]models.Package, error) {
	var packages []models.Package
	err := s.db.WithContext(ctx).
		Where("bundle_id = ?", bundleID).
		Order("created_at ASC, id ASC").
		Find(&packages).Error
	if err != nil {
		return nil, dbError("list packages by bundle", err)
	}
	return packages, nil
}

func (s *GormPackageStore) Pay(ctx context.Context, payment *models.Payment) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Package{}).
			Where("id = ?", payment.PackageID).
			Updates(map[string]any{
				"paid":    gorm.Expr("paid + ?", payment.Amount),
				"paid_at": payment.ApproveAt,
			}).Error
	})
	if err != nil {
		return dbError("pay package", err)
	}
	return nil
}

type GormPaymentStore struct {
	db *gorm.DB
}

func NewPaymentStore(db *gorm.DB) *GormPaymentStore {
	return &GormPaymentStore{db: db}
}

func (s *GormPaymentStore) ListByPackage(ctx context.Context, packageID uuid.UUID) ([]models.Payment, error) {
	var payments []models.Payment
	err := s.db.WithContext(ctx).
		Where("package_id = ?", packageID).
		Order("created_at ASC").
		Find(&payments).Error
	if err != nil {
		return nil, dbError("list payments by package", err)
	}
	return payments, nil
}

func (s *GormPaymentStore) GetByApproveNo(ctx context.Context, approveNo string) (*models.Payment, error) {
	var payment models.Payment
	if err := s.db.WithContext(ctx).First(&payment, "approve_no = ?", approveNo).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, resultcode.Newf(resultcode.ErrorPaymentNotExists, slog.LevelWarn,
				fmt.Sprintf("no payment with approval number %q", approveNo))
		}
		return nil, dbError("get payment by approve no", err)
	}
	return &payment, nil
}

func (s *GormPaymentStore) GetReversal(ctx context.Context, originalPaymentID uuid.UUID) (*models.Payment, error) {
	var payment models.Payment
	err := s.db.WithContext(ctx).First(&payment, "original_payment_id = ?", originalPaymentID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dbError("get payment reversal", err)
	}
	return &payment, nil
}

type GormPGStore struct {
	db *gorm.DB
}

func NewPGStore(db *gorm.DB) *GormPGStore {
	return &GormPGStore{db: db}
}

func (s *GormPGStore) GetByID(ctx context.Context, id uuid.UUID) (*models.PG, error) {
	var pg models.PG
	if err := s.db.WithContext(ctx).Preload("PGCode").First(&pg, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, resultcode.Newf(resultcode.ErrorPGNotExists, slog.LevelWarn,
				fmt.Sprintf("pg %s does not exist", id))
		}
		return nil, dbError("get pg", err)
	}
	return &pg, nil
}

type GormLimitStore struct {
	db *gorm.DB
}

func NewLimitStore(db *gorm.DB) *GormLimitStore {
	return &GormLimitStore{db: db}
}

func (s *GormLimitStore) GetByPG(ctx context.Context, pgID uuid.UUID) (*models.PaymentLimitCond, error) {
	var cond models.PaymentLimitCond
	if err := s.db.WithContext(ctx).First(&cond, "pg_id = ?", pgID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, dbError("get limit cond by pg", err)
	}
	return &cond, nil
}
