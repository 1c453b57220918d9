package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tobipay/bundlepay/internal/gateway"
	"github.com/tobipay/bundlepay/internal/models"
	"github.com/tobipay/bundlepay/internal/remote"
	"github.com/tobipay/bundlepay/internal/resultcode"
)

// memLedger is an in-memory stand-in for the ledger store shared by the
// mock store implementations.
type memLedger struct {
	bundles  map[uuid.UUID]*models.Bundle
	packages map[uuid.UUID]*models.Package
	pkgOrder []uuid.UUID
	payments map[uuid.UUID][]models.Payment
	pgs      map[uuid.UUID]*models.PG
	limits   map[uuid.UUID]*models.PaymentLimitCond

	// payFailOn fails exactly the Nth (1-based) Pay call when > 0.
	payFailOn int
	payCalls  int

	clock time.Time
}

func newMemLedger() *memLedger {
	return &memLedger{
		bundles:  make(map[uuid.UUID]*models.Bundle),
		packages: make(map[uuid.UUID]*models.Package),
		payments: make(map[uuid.UUID][]models.Payment),
		pgs:      make(map[uuid.UUID]*models.PG),
		limits:   make(map[uuid.UUID]*models.PaymentLimitCond),
		clock:    time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC),
	}
}

func (l *memLedger) addPG(name, code string) *models.PG {
	pg := &models.PG{
		ID:     uuid.New(),
		Name:   name,
		PGCode: &models.PGCode{ID: uuid.New(), Name: name, Code: code},
	}
	pg.PGCodeID = pg.PGCode.ID
	l.pgs[pg.ID] = pg
	return pg
}

func (l *memLedger) addBundle(userID uuid.UUID, amount int64, status models.BundleStatus) *models.Bundle {
	bundle := &models.Bundle{
		ID:        uuid.New(),
		UserID:    userID,
		Amount:    amount,
		Status:    status,
		CreatedAt: l.clock,
	}
	l.bundles[bundle.ID] = bundle
	return bundle
}

func (l *memLedger) addPackage(bundleID uuid.UUID, amount int64) *models.Package {
	pkg := &models.Package{
		ID:        uuid.New(),
		BundleID:  bundleID,
		ItemID:    uuid.New(),
		Title:     fmt.Sprintf("pkg-%d", len(l.pkgOrder)),
		Amount:    amount,
		Quantity:  1,
		CreatedAt: l.clock,
	}
	l.packages[pkg.ID] = pkg
	l.pkgOrder = append(l.pkgOrder, pkg.ID)
	return pkg
}

func (l *memLedger) addPayment(pkgID, pgID uuid.UUID, amount int64, approveNo string) models.Payment {
	payment := models.Payment{
		ID:        uuid.New(),
		PGID:      pgID,
		PackageID: pkgID,
		Amount:    amount,
		ApproveNo: approveNo,
		ApproveAt: l.clock,
	}
	l.payments[pkgID] = append(l.payments[pkgID], payment)
	if pkg, ok := l.packages[pkgID]; ok {
		pkg.Paid += amount
	}
	return payment
}

func (l *memLedger) paymentsFor(pkgID uuid.UUID) []models.Payment {
	return l.payments[pkgID]
}

type mockBundleStore struct{ ledger *memLedger }

func (s *mockBundleStore) Create(_ context.Context, bundle *models.Bundle) error {
	if bundle.ID == uuid.Nil {
		bundle.ID = uuid.New()
	}
	bundle.CreatedAt = s.ledger.clock
	s.ledger.bundles[bundle.ID] = bundle
	return nil
}

func (s *mockBundleStore) GetByID(_ context.Context, id uuid.UUID) (*models.Bundle, error) {
	bundle, ok := s.ledger.bundles[id]
	if !ok {
		return nil, resultcode.New(resultcode.ErrorBundleNotExists, slog.LevelWarn)
	}
	return bundle, nil
}

func (s *mockBundleStore) GetOpenByUserID(_ context.Context, userID uuid.UUID) (*models.Bundle, error) {
	for _, bundle := range s.ledger.bundles {
		if bundle.UserID == userID && bundle.Status == models.BundleStatusOpen && bundle.OriginalBundleID == nil {
			return bundle, nil
		}
	}
	return nil, resultcode.New(resultcode.ErrorBundleNotExists, slog.LevelWarn)
}

func (s *mockBundleStore) GetOpenReversal(_ context.Context, originalBundleID uuid.UUID) (*models.Bundle, error) {
	for _, bundle := range s.ledger.bundles {
		if bundle.OriginalBundleID != nil && *bundle.OriginalBundleID == originalBundleID &&
			bundle.Status == models.BundleStatusOpen {
			return bundle, nil
		}
	}
	return nil, nil
}

func (s *mockBundleStore) Save(_ context.Context, bundle *models.Bundle) error {
	s.ledger.bundles[bundle.ID] = bundle
	return nil
}

func (s *mockBundleStore) ListByUserAndDay(_ context.Context, userID uuid.UUID, day time.Time) ([]models.Bundle, error) {
	return s.listBetween(userID,
		time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()),
		time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location()).AddDate(0, 0, 1))
}

func (s *mockBundleStore) ListByUserAndMonth(_ context.Context, userID uuid.UUID, month time.Time) ([]models.Bundle, error) {
	start := time.Date(month.Year(), month.Month(), 1, 0, 0, 0, 0, month.Location())
	return s.listBetween(userID, start, start.AddDate(0, 1, 0))
}

func (s *mockBundleStore) listBetween(userID uuid.UUID, from, to time.Time) ([]models.Bundle, error) {
	var result []models.Bundle
	for _, bundle := range s.ledger.bundles {
		if bundle.UserID == userID && !bundle.CreatedAt.Before(from) && bundle.CreatedAt.Before(to) {
			result = append(result, *bundle)
		}
	}
	return result, nil
}

type mockPackageStore struct{ ledger *memLedger }

func (s *mockPackageStore) Create(_ context.Context, pkg *models.Package) error {
	if pkg.ID == uuid.Nil {
		pkg.ID = uuid.New()
	}
	pkg.CreatedAt = s.ledger.clock
	s.ledger.packages[pkg.ID] = pkg
	s.ledger.pkgOrder = append(s.ledger.pkgOrder, pkg.ID)
	return nil
}

func (s *mockPackageStore) GetByID(_ context.Context, id uuid.UUID) (*models.Package, error) {
	pkg, ok := s.ledger.packages[id]
	if !ok {
		return nil, resultcode.New(resultcode.ErrorPackageNotExists, slog.LevelWarn)
	}
	return pkg, nil
}

func (s *mockPackageStore) ListByBundle(_ context.Context, bundleID uuid.UUID) ([]models.Package, error) {
	var result []models.Package
	for _, id := range s.ledger.pkgOrder {
		pkg := s.ledger.packages[id]
		if pkg.BundleID == bundleID {
			result = append(result, *pkg)
		}
	}
	return result, nil
}

func (s *mockPackageStore) Pay(_ context.Context, payment *models.Payment) error {
	s.ledger.payCalls++
	if s.ledger.payFailOn > 0 && s.ledger.payCalls == s.ledger.payFailOn {
		return resultcode.New(resultcode.ErrorDB, slog.LevelError)
	}
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	s.ledger.payments[payment.PackageID] = append(s.ledger.payments[payment.PackageID], *payment)
	if pkg, ok := s.ledger.packages[payment.PackageID]; ok {
		pkg.Paid += payment.Amount
	}
	return nil
}

type mockPaymentStore struct{ ledger *memLedger }

func (s *mockPaymentStore) ListByPackage(_ context.Context, packageID uuid.UUID) ([]models.Payment, error) {
	return s.ledger.payments[packageID], nil
}

func (s *mockPaymentStore) GetByApproveNo(_ context.Context, approveNo string) (*models.Payment, error) {
	for _, rows := range s.ledger.payments {
		for _, row := range rows {
			if row.ApproveNo == approveNo {
				payment := row
				return &payment, nil
			}
		}
	}
	return nil, resultcode.New(resultcode.ErrorPaymentNotExists, slog.LevelWarn)
}

func (s *mockPaymentStore) GetReversal(_ context.Context, originalPaymentID uuid.UUID) (*models.Payment, error) {
	for _, rows := range s.ledger.payments {
		for _, row := range rows {
			if row.OriginalPaymentID != nil && *row.OriginalPaymentID == originalPaymentID {
				payment := row
				return &payment, nil
			}
		}
	}
	return nil, nil
}

type mockPGStore struct{ ledger *memLedger }

func (s *mockPGStore) GetByID(_ context.Context, id uuid.UUID) (*models.PG, error) {
	pg, ok := s.ledger.pgs[id]
	if !ok {
		return nil, resultcode.New(resultcode.ErrorPGNotExists, slog.LevelWarn)
	}
	return pg, nil
}

type mockLimitStore struct{ ledger *memLedger }

func (s *mockLimitStore) GetByPG(_ context.Context, pgID uuid.UUID) (*models.PaymentLimitCond, error) {
	return s.ledger.limits[pgID], nil
}

type gatewayCall struct {
	code string
	req  gateway.Request
}

// mockGateway records every dispatch and answers with sequential approval
// numbers. Failures are scheduled per gateway code.
type mockGateway struct {
	payCalls    []gatewayCall
	cancelCalls []gatewayCall
	payErr      map[string]error
	cancelErr   map[string]error
	seq         int
	clock       time.Time
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		payErr:    make(map[string]error),
		cancelErr: make(map[string]error),
		clock:     time.Date(2024, 6, 15, 12, 30, 0, 0, time.UTC),
	}
}

func (m *mockGateway) Pay(_ context.Context, code string, req gateway.Request) (*gateway.Result, error) {
	m.payCalls = append(m.payCalls, gatewayCall{code: code, req: req})
	if err := m.payErr[code]; err != nil {
		return nil, err
	}
	m.seq++
	return &gateway.Result{
		ApproveNo: fmt.Sprintf("AP-%03d", m.seq),
		ApproveAt: m.clock,
		Amount:    req.Amount,
	}, nil
}

func (m *mockGateway) Cancel(_ context.Context, code string, req gateway.Request) (*gateway.Result, error) {
	m.cancelCalls = append(m.cancelCalls, gatewayCall{code: code, req: req})
	if err := m.cancelErr[code]; err != nil {
		return nil, err
	}
	m.seq++
	return &gateway.Result{
		ApproveNo: fmt.Sprintf("CN-%03d", m.seq),
		ApproveAt: m.clock,
		Amount:    req.Amount,
	}, nil
}

type mockUserDirectory struct{ users map[uuid.UUID]*remote.User }

func (m *mockUserDirectory) GetUserByID(_ context.Context, userID uuid.UUID) (*remote.User, error) {
	user, ok := m.users[userID]
	if !ok {
		return nil, resultcode.New(resultcode.ErrorUserNotExists, slog.LevelWarn)
	}
	return user, nil
}

type mockItemCatalog struct{ items map[uuid.UUID]*remote.Item }

func (m *mockItemCatalog) GetItemByID(_ context.Context, itemID uuid.UUID) (*remote.Item, error) {
	item, ok := m.items[itemID]
	if !ok {
		return nil, resultcode.New(resultcode.ErrorItemNotExists, slog.LevelWarn)
	}
	return item, nil
}

// testEnv wires the services over the in-memory ledger and mock
// collaborators.
type testEnv struct {
	ledger  *memLedger
	gateway *mockGateway
	users   *mockUserDirectory
	items   *mockItemCatalog
	limits  *LimitService
	bundles *BundleService
}

func newTestEnv() *testEnv {
	ledger := newMemLedger()
	gw := newMockGateway()
	users := &mockUserDirectory{users: make(map[uuid.UUID]*remote.User)}
	items := &mockItemCatalog{items: make(map[uuid.UUID]*remote.Item)}
	logger := slog.New(slog.NewTextHandler(discardWriter{}, nil))

	bundleStore := &mockBundleStore{ledger: ledger}
	packageStore := &mockPackageStore{ledger: ledger}
	paymentStore := &mockPaymentStore{ledger: ledger}
	pgStore := &mockPGStore{ledger: ledger}
	limitStore := &mockLimitStore{ledger: ledger}

	limits := NewLimitService(bundleStore, packageStore, paymentStore, limitStore, logger)
	limits.now = func() time.Time { return ledger.clock }

	bundles := NewBundleService(bundleStore, packageStore, paymentStore, pgStore,
		limits, gw, users, items, logger)
	bundles.now = func() time.Time { return ledger.clock }

	return &testEnv{
		ledger:  ledger,
		gateway: gw,
		users:   users,
		items:   items,
		limits:  limits,
		bundles: bundles,
	}
}

func (e *testEnv) addUser() *remote.User {
	user := &remote.User{ID: uuid.New(), Name: "tester", Grade: "BASIC"}
	e.users.users[user.ID] = user
	return user
}

func (e *testEnv) addItem(price int64) *remote.Item {
	item := &remote.Item{ID: uuid.New(), Name: "item", Price: price}
	e.items.items[item.ID] = item
	return item
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }
