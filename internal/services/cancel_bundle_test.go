package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tobipay/bundlepay/internal/models"
	"github.com/tobipay/bundlepay/internal/resultcode"
)

// paidFixture builds a settled bundle: two packages, the first charged on
// two gateways, the second on one.
type paidFixture struct {
	bundle     *models.Bundle
	first      *models.Package
	second     *models.Package
	bank, card *models.PG
}

func newPaidFixture(env *testEnv) *paidFixture {
	user := env.addUser()
	bundle := env.ledger.addBundle(user.ID, 10000, models.BundleStatusPaid)
	first := env.ledger.addPackage(bundle.ID, 6000)
	second := env.ledger.addPackage(bundle.ID, 4000)
	bank := env.ledger.addPG("TossBank", "BANK")
	card := env.ledger.addPG("ShinhanCard", "CARD")

	env.ledger.addPayment(first.ID, bank.ID, 3600, "AP-900")
	env.ledger.addPayment(second.ID, bank.ID, 2400, "AP-900")
	env.ledger.addPayment(first.ID, card.ID, 2400, "AP-901")
	env.ledger.addPayment(second.ID, card.ID, 1600, "AP-901")

	return &paidFixture{bundle: bundle, first: first, second: second, bank: bank, card: card}
}

func TestCancelBundleMirrorsEveryCharge(t *testing.T) {
	env := newTestEnv()
	fx := newPaidFixture(env)

	reversal, err := env.bundles.CancelBundle(context.Background(), fx.bundle.ID)
	require.NoError(t, err)
	require.NotNil(t, reversal)

	assert.Equal(t, models.BundleStatusPaid, reversal.Status)
	assert.Equal(t, int64(-10000), reversal.Amount)
	require.NotNil(t, reversal.OriginalBundleID)
	assert.Equal(t, fx.bundle.ID, *reversal.OriginalBundleID)
	assert.Equal(t, models.BundleStatusCanceled, env.ledger.bundles[fx.bundle.ID].Status)

	// one cancel per gateway, each for that gateway's total
	require.Len(t, env.gateway.cancelCalls, 2)
	assert.Equal(t, "BANK", env.gateway.cancelCalls[0].code)
	assert.Equal(t, int64(6000), env.gateway.cancelCalls[0].req.Amount)
	assert.Equal(t, "AP-900", env.gateway.cancelCalls[0].req.ApproveNo)
	assert.Equal(t, "CARD", env.gateway.cancelCalls[1].code)
	assert.Equal(t, int64(4000), env.gateway.cancelCalls[1].req.Amount)
	assert.Equal(t, "AP-901", env.gateway.cancelCalls[1].req.ApproveNo)

	// original rows plus mirrors net to zero
	var net int64
	var mirrored int
	for _, rows := range env.ledger.payments {
		for _, row := range rows {
			net += row.Amount
			if row.OriginalPaymentID != nil {
				mirrored++
				assert.Negative(t, row.Amount)
			}
		}
	}
	assert.Equal(t, int64(0), net)
	assert.Equal(t, 4, mirrored)

	// original packages keep their paid totals untouched
	assert.Equal(t, int64(6000), env.ledger.packages[fx.first.ID].Paid)
	assert.Equal(t, int64(4000), env.ledger.packages[fx.second.ID].Paid)
}

func TestCancelBundleCreatesNegatedMirrorPackages(t *testing.T) {
	env := newTestEnv()
	fx := newPaidFixture(env)

	reversal, err := env.bundles.CancelBundle(context.Background(), fx.bundle.ID)
	require.NoError(t, err)

	var mirrors []*models.Package
	for _, pkg := range env.ledger.packages {
		if pkg.BundleID == reversal.ID {
			mirrors = append(mirrors, pkg)
		}
	}
	require.Len(t, mirrors, 2)

	var total int64
	for _, mirror := range mirrors {
		assert.Negative(t, mirror.Amount)
		assert.Negative(t, int64(mirror.Quantity))
		total += mirror.Amount
	}
	assert.Equal(t, int64(-10000), total)
}

func TestCancelBundleStatusGuards(t *testing.T) {
	env := newTestEnv()
	user := env.addUser()

	open := env.ledger.addBundle(user.ID, 1000, models.BundleStatusOpen)
	_, err := env.bundles.CancelBundle(context.Background(), open.ID)
	assert.Equal(t, resultcode.ErrorBundleNotPaid, resultcode.CodeOf(err))

	canceled := env.ledger.addBundle(user.ID, 1000, models.BundleStatusCanceled)
	_, err = env.bundles.CancelBundle(context.Background(), canceled.ID)
	assert.Equal(t, resultcode.ErrorBundleCanceled, resultcode.CodeOf(err))

	assert.Empty(t, env.gateway.cancelCalls)
}

func TestCancelBundleWithoutPayments(t *testing.T) {
	env := newTestEnv()
	user := env.addUser()

	bundle := env.ledger.addBundle(user.ID, 1000, models.BundleStatusPaid)
	env.ledger.addPackage(bundle.ID, 1000)

	_, err := env.bundles.CancelBundle(context.Background(), bundle.ID)
	assert.Equal(t, resultcode.ErrorPaymentNotExists, resultcode.CodeOf(err))
}

func TestCancelBundleFirstGatewayFailureSurfacesDirectly(t *testing.T) {
	env := newTestEnv()
	fx := newPaidFixture(env)

	env.gateway.cancelErr["BANK"] = resultcode.Newf(resultcode.ErrorGatewayConnection,
		slog.LevelError, "connection refused")

	_, err := env.bundles.CancelBundle(context.Background(), fx.bundle.ID)
	require.Error(t, err)

	// nothing was reversed yet, so the raw gateway error is enough
	assert.Equal(t, resultcode.ErrorGatewayConnection, resultcode.CodeOf(err))
	assert.Equal(t, models.BundleStatusPaid, env.ledger.bundles[fx.bundle.ID].Status)
}

func TestCancelBundleRetryAfterPartialFailureSkipsReversedGateways(t *testing.T) {
	env := newTestEnv()
	fx := newPaidFixture(env)

	env.gateway.cancelErr["CARD"] = resultcode.Newf(resultcode.ErrorGatewayConnection,
		slog.LevelError, "connection refused")

	_, err := env.bundles.CancelBundle(context.Background(), fx.bundle.ID)
	require.Error(t, err)
	require.Equal(t, resultcode.ErrorReconciliationRequired, resultcode.CodeOf(err))

	// the card gateway recovers; the retry completes the cancellation
	delete(env.gateway.cancelErr, "CARD")

	reversal, err := env.bundles.CancelBundle(context.Background(), fx.bundle.ID)
	require.NoError(t, err)
	assert.Equal(t, models.BundleStatusPaid, reversal.Status)
	assert.Equal(t, models.BundleStatusCanceled, env.ledger.bundles[fx.bundle.ID].Status)

	// the bank charge reversed on the first attempt is never canceled again
	var bankCancels, cardCancels int
	for _, call := range env.gateway.cancelCalls {
		switch call.code {
		case "BANK":
			bankCancels++
		case "CARD":
			cardCancels++
		}
	}
	assert.Equal(t, 1, bankCancels)
	assert.Equal(t, 2, cardCancels, "one failed attempt plus the successful retry")

	// per-gateway net is zero after the retry
	perGateway := make(map[uuid.UUID]int64)
	for _, rows := range env.ledger.payments {
		for _, row := range rows {
			perGateway[row.PGID] += row.Amount
		}
	}
	assert.Equal(t, int64(0), perGateway[fx.bank.ID])
	assert.Equal(t, int64(0), perGateway[fx.card.ID])

	// the retry resumes the reversal bundle instead of minting another
	var reversals int
	for _, bundle := range env.ledger.bundles {
		if bundle.OriginalBundleID != nil {
			reversals++
		}
	}
	assert.Equal(t, 1, reversals)
}

func TestCancelBundleFailedReversalNeverBecomesOpenBundle(t *testing.T) {
	env := newTestEnv()
	fx := newPaidFixture(env)
	item := env.addItem(5000)

	env.gateway.cancelErr["BANK"] = resultcode.Newf(resultcode.ErrorGatewayConnection,
		slog.LevelError, "connection refused")

	_, err := env.bundles.CancelBundle(context.Background(), fx.bundle.ID)
	require.Error(t, err)

	// the open reversal left behind must stay invisible to the storefront
	_, err = env.bundles.AddItemToBundle(context.Background(), fx.bundle.UserID, item.ID, 1)
	assert.Equal(t, resultcode.ErrorBundleNotExists, resultcode.CodeOf(err))

	for _, bundle := range env.ledger.bundles {
		if bundle.OriginalBundleID != nil {
			assert.Equal(t, int64(-10000), bundle.Amount)
		}
	}
}

func TestCancelBundlePartialFailureNeedsReconciliation(t *testing.T) {
	env := newTestEnv()
	fx := newPaidFixture(env)

	env.gateway.cancelErr["CARD"] = resultcode.Newf(resultcode.ErrorGatewayConnection,
		slog.LevelError, "connection refused")

	_, err := env.bundles.CancelBundle(context.Background(), fx.bundle.ID)
	require.Error(t, err)

	assert.Equal(t, resultcode.ErrorReconciliationRequired, resultcode.CodeOf(err))
	assert.Equal(t, resultcode.ErrorGatewayConnection, resultcode.CodeOf(errors.Unwrap(err)))
	assert.Contains(t, err.Error(), "ShinhanCard")

	// the bank reversal that succeeded stays recorded
	var mirrored int
	for _, rows := range env.ledger.payments {
		for _, row := range rows {
			if row.OriginalPaymentID != nil {
				mirrored++
			}
		}
	}
	assert.Equal(t, 2, mirrored)

	// the original stays PAID until the reversal completes
	assert.Equal(t, models.BundleStatusPaid, env.ledger.bundles[fx.bundle.ID].Status)
}
