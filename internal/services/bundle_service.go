package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tobipay/bundlepay/internal/gateway"
	"github.com/tobipay/bundlepay/internal/models"
	"github.com/tobipay/bundlepay/internal/repository"
	"github.com/tobipay/bundlepay/internal/resultcode"
)

// BundleService owns the payment allocation and compensation flows: it
// splits gateway approvals across a bundle's packages, unwinds partially
// completed sequences, and mirrors cancellations into reversal bundles.
type BundleService struct {
	bundles  repository.BundleStore
	packages repository.PackageStore
	payments repository.PaymentStore
	pgs      repository.PGStore
	limits   *LimitService
	registry GatewayRegistry
	users    UserDirectory
	items    ItemCatalog
	logger   *slog.Logger
	now      func() time.Time
}

func NewBundleService(
	bundles repository.BundleStore,
	packages repository.PackageStore,
	payments repository.PaymentStore,
	pgs repository.PGStore,
	limits *LimitService,
	registry GatewayRegistry,
	users UserDirectory,
	items ItemCatalog,
	logger *slog.Logger,
) *BundleService {
	return &BundleService{
		bundles:  bundles,
		packages: packages,
		payments: payments,
		pgs:      pgs,
		limits:   limits,
		registry: registry,
		users:    users,
		items:    items,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateBundle opens a bundle, fills it with the requested items and runs
// the full payment list. If any payment fails partway, every charge that
// already succeeded is reversed before the original error is returned.
func (s *BundleService) CreateBundle(ctx context.Context, in CreateBundleInput) (*models.Bundle, error) {
	s.logger.Debug("create bundle", "user_id", in.UserID, "amount", in.Amount,
		"items", len(in.Items), "payments", len(in.Payments))

	if len(in.Items) == 0 {
		return nil, resultcode.Newf(resultcode.ErrorParameterNotExists, slog.LevelWarn,
			"item list is empty")
	}
	if len(in.Payments) == 0 {
		return nil, resultcode.Newf(resultcode.ErrorParameterNotExists, slog.LevelWarn,
			"payment list is empty")
	}
	if in.Amount <= 0 {
		return nil, resultcode.Newf(resultcode.ErrorParameterType, slog.LevelWarn,
			fmt.Sprintf("bundle amount must be positive, got %d", in.Amount))
	}

	user, err := s.users.GetUserByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.limits.CheckLimits(ctx, user.ID, in.Payments, in.Amount); err != nil {
		return nil, err
	}

	bundle := &models.Bundle{UserID: user.ID, Status: models.BundleStatusOpen}
	if err := s.bundles.Create(ctx, bundle); err != nil {
		return nil, err
	}

	for _, item := range in.Items {
		if err := s.addItem(ctx, bundle, item); err != nil {
			return nil, err
		}
	}

	if bundle.Amount != in.Amount {
		return nil, resultcode.Newf(resultcode.ErrorBundleAmountMismatch, slog.LevelError,
			fmt.Sprintf("declared amount %d but packages sum to %d", in.Amount, bundle.Amount))
	}

	var completed []completedStep
	for _, pay := range in.Payments {
		step, err := s.payOnce(ctx, bundle, pay)
		if err != nil {
			if unwindErr := s.compensate(ctx, bundle.ID, completed); unwindErr != nil {
				return nil, resultcode.Wrap(resultcode.ErrorReconciliationRequired, slog.LevelError,
					fmt.Sprintf("payment failed and compensation did not complete: %v (original failure: %v)",
						unwindErr, err), err)
			}
			return nil, err
		}
		completed = append(completed, *step)
	}

	if err := s.settleIfPaid(ctx, bundle); err != nil {
		return nil, err
	}
	return bundle, nil
}

// AddItemToBundle appends an item to the user's open bundle.
func (s *BundleService) AddItemToBundle(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*models.Bundle, error) {
	s.logger.Debug("add item to bundle", "user_id", userID, "item_id", itemID, "quantity", quantity)

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	bundle, err := s.bundles.GetOpenByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if err := s.addItem(ctx, bundle, ItemInput{ItemID: itemID, Quantity: quantity}); err != nil {
		return nil, err
	}
	return bundle, nil
}

func (s *BundleService) addItem(ctx context.Context, bundle *models.Bundle, in ItemInput) error {
	if in.Quantity <= 0 {
		return resultcode.Newf(resultcode.ErrorParameterType, slog.LevelWarn,
			fmt.Sprintf("item quantity must be positive, got %d", in.Quantity))
	}

	item, err := s.items.GetItemByID(ctx, in.ItemID)
	if err != nil {
		return err
	}

	amount := item.Price * int64(in.Quantity)
	pkg := &models.Package{
		BundleID: bundle.ID,
		ItemID:   item.ID,
		Title:    item.Name,
		Amount:   amount,
		Quantity: in.Quantity,
	}
	if err := s.packages.Create(ctx, pkg); err != nil {
		return err
	}

	bundle.Amount += amount
	return s.bundles.Save(ctx, bundle)
}

// AddPayToBundle charges one gateway and distributes the approved amount
// across the bundle's packages. A ledger failure after the approval
// reverses the charge so an approved amount is never half-recorded.
func (s *BundleService) AddPayToBundle(ctx context.Context, bundleID uuid.UUID, pay PayInstruction) (*gateway.Result, error) {
	s.logger.Debug("add pay to bundle", "bundle_id", bundleID, "pg_id", pay.PGID, "amount", pay.Amount)

	bundle, err := s.bundles.GetByID(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	step, err := s.payOnce(ctx, bundle, pay)
	if err != nil {
		return nil, err
	}
	if err := s.settleIfPaid(ctx, bundle); err != nil {
		return nil, err
	}
	return step.result, nil
}

// payOnce runs a single gateway charge plus its allocation. On an
// allocation failure it compensates its own charge before returning, so a
// returned error always means the step left no live charge behind --
// unless compensation itself failed, which escalates to a
// reconciliation-required error.
func (s *BundleService) payOnce(ctx context.Context, bundle *models.Bundle, pay PayInstruction) (*completedStep, error) {
	if pay.Amount <= 0 {
		return nil, resultcode.Newf(resultcode.ErrorParameterType, slog.LevelWarn,
			fmt.Sprintf("payment amount must be positive, got %d", pay.Amount))
	}
	switch bundle.Status {
	case models.BundleStatusCanceled:
		return nil, resultcode.New(resultcode.ErrorBundleCanceled, slog.LevelWarn)
	case models.BundleStatusPaid:
		return nil, resultcode.New(resultcode.ErrorBundleAlreadyPaid, slog.LevelWarn)
	}

	pg, err := s.pgs.GetByID(ctx, pay.PGID)
	if err != nil {
		return nil, err
	}
	if pg.PGCode == nil {
		return nil, resultcode.Newf(resultcode.ErrorPGCodeNotExists, slog.LevelError,
			fmt.Sprintf("pg %s has no gateway code", pg.ID))
	}

	approve, err := s.registry.Pay(ctx, pg.PGCode.Code, gateway.Request{
		BundleID: bundle.ID,
		Amount:   pay.Amount,
	})
	if err != nil {
		return nil, err
	}

	rows, err := s.allocate(ctx, bundle, pg, approve)
	if err != nil {
		step := completedStep{pg: pg, result: approve, rows: rows}
		if cancelErr := s.compensateStep(ctx, bundle.ID, step); cancelErr != nil {
			s.logger.Error("failed to reverse charge after allocation error",
				"bundle_id", bundle.ID, "approve_no", approve.ApproveNo, "error", cancelErr)
			return nil, resultcode.Wrap(resultcode.ErrorReconciliationRequired, slog.LevelError,
				fmt.Sprintf("charge %s on gateway %s could not be reversed after a ledger failure: %v",
					approve.ApproveNo, pg.Name, cancelErr), err)
		}
		return nil, err
	}

	return &completedStep{pg: pg, result: approve, rows: rows}, nil
}

// allocate splits one approved amount over the bundle's packages in their
// fixed order. Every package but the last gets its truncated proportional
// share; the last absorbs the running balance, so the recorded rows always
// sum to the approved amount exactly.
func (s *BundleService) allocate(ctx context.Context, bundle *models.Bundle, pg *models.PG, approve *gateway.Result) ([]*models.Payment, error) {
	packages, err := s.packages.ListByBundle(ctx, bundle.ID)
	if err != nil {
		return nil, err
	}
	if len(packages) == 0 {
		return nil, resultcode.Newf(resultcode.ErrorPackageNotExists, slog.LevelError,
			fmt.Sprintf("bundle %s has no packages to allocate against", bundle.ID))
	}

	balance := approve.Amount
	rows := make([]*models.Payment, 0, len(packages))
	for i, pkg := range packages {
		share := balance
		if i < len(packages)-1 {
			rate := float64(pkg.Amount) / float64(bundle.Amount)
			share = int64(float64(approve.Amount) * rate)
			balance -= share
		}

		row := &models.Payment{
			PGID:      pg.ID,
			PackageID: pkg.ID,
			Amount:    share,
			ApproveNo: approve.ApproveNo,
			ApproveAt: approve.ApproveAt,
		}
		if err := s.packages.Pay(ctx, row); err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// settleIfPaid flips the bundle to PAID once the recorded payments cover
// its amount.
func (s *BundleService) settleIfPaid(ctx context.Context, bundle *models.Bundle) error {
	if bundle.Status != models.BundleStatusOpen {
		return nil
	}
	packages, err := s.packages.ListByBundle(ctx, bundle.ID)
	if err != nil {
		return err
	}

	var paid int64
	for _, pkg := range packages {
		paid += pkg.Paid
	}
	if paid < bundle.Amount {
		return nil
	}

	paidAt := s.now()
	bundle.Status = models.BundleStatusPaid
	bundle.PaidAt = &paidAt
	return s.bundles.Save(ctx, bundle)
}

// GetBundle returns a bundle and its packages.
func (s *BundleService) GetBundle(ctx context.Context, id uuid.UUID) (*models.Bundle, []models.Package, error) {
	bundle, err := s.bundles.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	packages, err := s.packages.ListByBundle(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return bundle, packages, nil
}
