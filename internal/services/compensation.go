package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/tobipay/bundlepay/internal/gateway"
	"github.com/tobipay/bundlepay/internal/models"
)

// completedStep records one successfully executed charge along with the
// ledger rows it produced. The saga keeps these explicitly so that
// unwinding a partial failure is plain data flow, not stack unwinding.
type completedStep struct {
	pg     *models.PG
	result *gateway.Result
	rows   []*models.Payment
}

// compensate reverses the given steps, most recent first. Every step is
// attempted even if an earlier reversal fails; the failures are collected
// and reported so a gap in the unwind is never silently dropped.
func (s *BundleService) compensate(ctx context.Context, bundleID uuid.UUID, steps []completedStep) error {
	var failed []string
	for i := len(steps) - 1; i >= 0; i-- {
		step := steps[i]
		if err := s.compensateStep(ctx, bundleID, step); err != nil {
			s.logger.Error("compensating cancel failed",
				"bundle_id", bundleID, "pg", step.pg.Name,
				"approve_no", step.result.ApproveNo, "error", err)
			failed = append(failed, fmt.Sprintf("%s (approve %s): %v",
				step.pg.Name, step.result.ApproveNo, err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("unreversed charges remain on: %s", strings.Join(failed, "; "))
	}
	return nil
}

// compensateStep cancels one charge at its gateway and mirrors the
// reversal into the ledger as negative rows linked to the originals.
func (s *BundleService) compensateStep(ctx context.Context, bundleID uuid.UUID, step completedStep) error {
	result, err := s.registry.Cancel(ctx, step.pg.PGCode.Code, gateway.Request{
		BundleID:  bundleID,
		Amount:    step.result.Amount,
		ApproveNo: step.result.ApproveNo,
	})
	if err != nil {
		return err
	}

	for _, row := range step.rows {
		originalID := row.ID
		mirror := &models.Payment{
			PGID:              row.PGID,
			PackageID:         row.PackageID,
			Amount:            -row.Amount,
			ApproveNo:         result.ApproveNo,
			ApproveAt:         result.ApproveAt,
			OriginalPaymentID: &originalID,
		}
		if err := s.packages.Pay(ctx, mirror); err != nil {
			return err
		}
	}
	return nil
}
