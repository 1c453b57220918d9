package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tobipay/bundlepay/internal/gateway"
	"github.com/tobipay/bundlepay/internal/models"
	"github.com/tobipay/bundlepay/internal/resultcode"
)

// cancelGroup is one gateway's share of a bundle: the rows it approved and
// their sum. One cancel call goes out per group.
type cancelGroup struct {
	pg        *models.PG
	approveNo string
	total     int64
	rows      []models.Payment
}

// CancelBundle reverses a fully paid bundle. The original bundle's
// packages and payments are never touched: a reversal bundle with mirrored
// negative packages receives the negative ledger rows, then the original
// flips to CANCELED. Calls to distinct gateways are issued one by one; a
// failure partway leaves the completed reversals recorded and surfaces a
// reconciliation-required error naming the gateways still holding charges.
//
// The flow is resumable. A retry picks up the open reversal bundle from
// the failed attempt and consults the mirror rows to see which gateways
// were already reversed, so no gateway is ever canceled twice.
func (s *BundleService) CancelBundle(ctx context.Context, originalBundleID uuid.UUID) (*models.Bundle, error) {
	s.logger.Debug("cancel bundle", "bundle_id", originalBundleID)

	original, err := s.bundles.GetByID(ctx, originalBundleID)
	if err != nil {
		return nil, err
	}
	switch original.Status {
	case models.BundleStatusCanceled:
		return nil, resultcode.New(resultcode.ErrorBundleCanceled, slog.LevelWarn)
	case models.BundleStatusOpen:
		return nil, resultcode.New(resultcode.ErrorBundleNotPaid, slog.LevelWarn)
	}

	reversal, err := s.bundles.GetOpenReversal(ctx, original.ID)
	if err != nil {
		return nil, err
	}
	if reversal == nil {
		reversal = &models.Bundle{
			UserID:           original.UserID,
			Amount:           -original.Amount,
			Status:           models.BundleStatusOpen,
			OriginalBundleID: &original.ID,
		}
		if err := s.bundles.Create(ctx, reversal); err != nil {
			return nil, err
		}
	}

	packages, err := s.packages.ListByBundle(ctx, original.ID)
	if err != nil {
		return nil, err
	}

	mirrors, err := s.mirrorPackages(ctx, reversal, packages)
	if err != nil {
		return nil, err
	}

	groups, err := s.groupPaymentsByGateway(ctx, packages)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, resultcode.Newf(resultcode.ErrorPaymentNotExists, slog.LevelWarn,
			fmt.Sprintf("bundle %s has no payments to reverse", original.ID))
	}

	var reversed int
	for i, group := range groups {
		// rows already carrying a mirror were reversed on an earlier
		// attempt; their mirror holds the gateway's cancel approval
		var pending []models.Payment
		var prior *models.Payment
		for _, row := range group.rows {
			mirror, err := s.payments.GetReversal(ctx, row.ID)
			if err != nil {
				return nil, err
			}
			if mirror != nil {
				if prior == nil {
					prior = mirror
				}
				continue
			}
			pending = append(pending, row)
		}
		if len(pending) == 0 {
			reversed++
			continue
		}

		var cancelNo string
		var cancelAt time.Time
		if prior != nil {
			cancelNo, cancelAt = prior.ApproveNo, prior.ApproveAt
		} else {
			result, err := s.registry.Cancel(ctx, group.pg.PGCode.Code, gateway.Request{
				BundleID:  reversal.ID,
				Amount:    group.total,
				ApproveNo: group.approveNo,
			})
			if err != nil {
				if reversed == 0 {
					return nil, err
				}
				remaining := make([]string, 0, len(groups)-i)
				for _, g := range groups[i:] {
					remaining = append(remaining, g.pg.Name)
				}
				s.logger.Error("cancel sequence failed partway",
					"bundle_id", original.ID, "failed_gateway", group.pg.Name, "error", err)
				return nil, resultcode.Wrap(resultcode.ErrorReconciliationRequired, slog.LevelError,
					fmt.Sprintf("cancellation incomplete, charges remain on gateways %v: %v", remaining, err), err)
			}
			cancelNo, cancelAt = result.ApproveNo, result.ApproveAt
		}

		for _, row := range pending {
			originalID := row.ID
			mirror := &models.Payment{
				PGID:              row.PGID,
				PackageID:         mirrors[row.PackageID],
				Amount:            -row.Amount,
				ApproveNo:         cancelNo,
				ApproveAt:         cancelAt,
				OriginalPaymentID: &originalID,
			}
			if err := s.packages.Pay(ctx, mirror); err != nil {
				return nil, err
			}
		}
		reversed++
	}

	paidAt := s.now()
	reversal.Status = models.BundleStatusPaid
	reversal.PaidAt = &paidAt
	if err := s.bundles.Save(ctx, reversal); err != nil {
		return nil, err
	}

	original.Status = models.BundleStatusCanceled
	if err := s.bundles.Save(ctx, original); err != nil {
		return nil, err
	}
	return reversal, nil
}

// mirrorPackages makes sure every original package has a negated mirror on
// the reversal bundle and returns the original-to-mirror id mapping.
// Mirrors surviving a failed attempt are reused.
func (s *BundleService) mirrorPackages(ctx context.Context, reversal *models.Bundle, packages []models.Package) (map[uuid.UUID]uuid.UUID, error) {
	existing, err := s.packages.ListByBundle(ctx, reversal.ID)
	if err != nil {
		return nil, err
	}
	mirrors := make(map[uuid.UUID]uuid.UUID, len(packages))
	for _, mirror := range existing {
		if mirror.OriginalPackageID != nil {
			mirrors[*mirror.OriginalPackageID] = mirror.ID
		}
	}

	for _, pkg := range packages {
		if _, ok := mirrors[pkg.ID]; ok {
			continue
		}
		originalID := pkg.ID
		mirror := &models.Package{
			BundleID:          reversal.ID,
			ItemID:            pkg.ItemID,
			Title:             pkg.Title,
			Amount:            -pkg.Amount,
			Quantity:          -pkg.Quantity,
			OriginalPackageID: &originalID,
		}
		if err := s.packages.Create(ctx, mirror); err != nil {
			return nil, err
		}
		mirrors[pkg.ID] = mirror.ID
	}
	return mirrors, nil
}

// groupPaymentsByGateway collects the bundle's payment rows per gateway,
// preserving first-seen order so the cancel sequence is deterministic.
func (s *BundleService) groupPaymentsByGateway(ctx context.Context, packages []models.Package) ([]*cancelGroup, error) {
	var order []*cancelGroup
	byPG := make(map[uuid.UUID]*cancelGroup)

	for _, pkg := range packages {
		payments, err := s.payments.ListByPackage(ctx, pkg.ID)
		if err != nil {
			return nil, err
		}
		for _, payment := range payments {
			group, ok := byPG[payment.PGID]
			if !ok {
				pg, err := s.pgs.GetByID(ctx, payment.PGID)
				if err != nil {
					return nil, err
				}
				if pg.PGCode == nil {
					return nil, resultcode.Newf(resultcode.ErrorPGCodeNotExists, slog.LevelError,
						fmt.Sprintf("pg %s has no gateway code", pg.ID))
				}
				group = &cancelGroup{pg: pg, approveNo: payment.ApproveNo}
				byPG[payment.PGID] = group
				order = append(order, group)
			}
			group.total += payment.Amount
			group.rows = append(group.rows, payment)
		}
	}
	return order, nil
}
