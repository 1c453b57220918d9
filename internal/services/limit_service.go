package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tobipay/bundlepay/internal/models"
	"github.com/tobipay/bundlepay/internal/repository"
	"github.com/tobipay/bundlepay/internal/resultcode"
)

// LimitService gates proposed payments against the configured per-gateway
// ceilings before any gateway call goes out.
type LimitService struct {
	bundles  repository.BundleStore
	packages repository.PackageStore
	payments repository.PaymentStore
	limits   repository.LimitStore
	logger   *slog.Logger
	now      func() time.Time
}

func NewLimitService(
	bundles repository.BundleStore,
	packages repository.PackageStore,
	payments repository.PaymentStore,
	limits repository.LimitStore,
	logger *slog.Logger,
) *LimitService {
	return &LimitService{
		bundles:  bundles,
		packages: packages,
		payments: payments,
		limits:   limits,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckLimits runs every configured check for the proposed payment list.
// All checks must pass; the first exceeded ceiling fails the evaluation
// with an error naming the ceiling kind and the gateway.
func (s *LimitService) CheckLimits(ctx context.Context, userID uuid.UUID, payList []PayInstruction, amount int64) error {
	s.logger.Debug("check limits", "user_id", userID, "pay_count", len(payList), "amount", amount)

	if len(payList) == 0 {
		return resultcode.Newf(resultcode.ErrorParameterNotExists, slog.LevelWarn,
			"payment list is empty")
	}

	var sum int64
	for _, pay := range payList {
		sum += pay.Amount
	}
	if sum != amount {
		return resultcode.Newf(resultcode.ErrorBundleAmountMismatch, slog.LevelWarn,
			fmt.Sprintf("payment list sums to %d but bundle amount is %d", sum, amount))
	}

	if err := s.checkTransactionLimit(ctx, payList); err != nil {
		return err
	}
	if err := s.checkDailyLimit(ctx, userID, payList); err != nil {
		return err
	}
	return s.checkMonthlyLimit(ctx, userID, payList)
}

func (s *LimitService) checkTransactionLimit(ctx context.Context, payList []PayInstruction) error {
	for _, pay := range payList {
		cond, err := s.limits.GetByPG(ctx, pay.PGID)
		if err != nil {
			return err
		}
		if cond == nil || cond.TransactionLimit == nil {
			continue
		}
		if pay.Amount > *cond.TransactionLimit {
			return resultcode.Newf(resultcode.ErrorTransactionLimitExceeded, slog.LevelInfo,
				fmt.Sprintf("amount %d exceeds transaction limit %d for gateway %s",
					pay.Amount, *cond.TransactionLimit, pay.PGID))
		}
	}
	return nil
}

func (s *LimitService) checkDailyLimit(ctx context.Context, userID uuid.UUID, payList []PayInstruction) error {
	bundles, err := s.bundles.ListByUserAndDay(ctx, userID, s.now())
	if err != nil {
		return err
	}
	return s.checkCumulativeLimit(ctx, bundles, payList, func(cond *models.PaymentLimitCond) *int64 {
		return cond.DailyLimit
	}, resultcode.ErrorDailyLimitExceeded, "daily")
}

func (s *LimitService) checkMonthlyLimit(ctx context.Context, userID uuid.UUID, payList []PayInstruction) error {
	bundles, err := s.bundles.ListByUserAndMonth(ctx, userID, s.now())
	if err != nil {
		return err
	}
	return s.checkCumulativeLimit(ctx, bundles, payList, func(cond *models.PaymentLimitCond) *int64 {
		return cond.MonthlyLimit
	}, resultcode.ErrorMonthlyLimitExceeded, "monthly")
}

func (s *LimitService) checkCumulativeLimit(
	ctx context.Context,
	bundles []models.Bundle,
	payList []PayInstruction,
	ceiling func(*models.PaymentLimitCond) *int64,
	code resultcode.Code,
	kind string,
) error {
	for _, pay := range payList {
		cond, err := s.limits.GetByPG(ctx, pay.PGID)
		if err != nil {
			return err
		}
		if cond == nil || ceiling(cond) == nil {
			continue
		}

		spent, err := s.gatewaySpend(ctx, bundles, pay.PGID)
		if err != nil {
			return err
		}
		if spent+pay.Amount > *ceiling(cond) {
			return resultcode.Newf(code, slog.LevelInfo,
				fmt.Sprintf("spent %d plus proposed %d exceeds %s limit %d for gateway %s",
					spent, pay.Amount, kind, *ceiling(cond), pay.PGID))
		}
	}
	return nil
}

// gatewaySpend walks bundles -> packages -> payments and sums the amounts
// recorded against one gateway.
func (s *LimitService) gatewaySpend(ctx context.Context, bundles []models.Bundle, pgID uuid.UUID) (int64, error) {
	var sum int64
	for _, bundle := range bundles {
		packages, err := s.packages.ListByBundle(ctx, bundle.ID)
		if err != nil {
			return 0, err
		}
		for _, pkg := range packages {
			payments, err := s.payments.ListByPackage(ctx, pkg.ID)
			if err != nil {
				return 0, err
			}
			for _, payment := range payments {
				if payment.PGID == pgID {
					sum += payment.Amount
				}
			}
		}
	}
	return sum, nil
}
