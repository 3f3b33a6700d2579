package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/freighthos/eld-engine/internal/domain"
	"github.com/freighthos/eld-engine/internal/handler"
	"github.com/freighthos/eld-engine/internal/repo"
	"github.com/freighthos/eld-engine/internal/service"
)

// Function-field doubles over the handler's servicer interfaces. Unset
// fields panic on use, which fails the test loudly if a handler reaches a
// collaborator the test did not wire.

type mockDriverServicer struct {
	register  func(ctx context.Context, in service.RegisterInput) (domain.Driver, string, error)
	login     func(ctx context.Context, email, password string) (domain.Driver, string, error)
	me        func(ctx context.Context, driverID uuid.UUID) (domain.Driver, error)
	hosStatus func(ctx context.Context, driverID uuid.UUID) (service.HOSStatus, error)
	stats     func(ctx context.Context, driverID uuid.UUID) (repo.TripStats, error)
}

func (m *mockDriverServicer) Register(ctx context.Context, in service.RegisterInput) (domain.Driver, string, error) {
	return m.register(ctx, in)
}

func (m *mockDriverServicer) Login(ctx context.Context, email, password string) (domain.Driver, string, error) {
	return m.login(ctx, email, password)
}

func (m *mockDriverServicer) Me(ctx context.Context, driverID uuid.UUID) (domain.Driver, error) {
	return m.me(ctx, driverID)
}

func (m *mockDriverServicer) HOSStatus(ctx context.Context, driverID uuid.UUID) (service.HOSStatus, error) {
	return m.hosStatus(ctx, driverID)
}

func (m *mockDriverServicer) Stats(ctx context.Context, driverID uuid.UUID) (repo.TripStats, error) {
	return m.stats(ctx, driverID)
}

var _ handler.DriverServicer = (*mockDriverServicer)(nil)

type mockTripServicer struct {
	plan       func(ctx context.Context, driverID uuid.UUID, in service.PlanTripInput) (domain.Trip, error)
	getByID    func(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error)
	list       func(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error)
	listRecent func(ctx context.Context, driverID uuid.UUID, window time.Duration, limit int) ([]domain.Trip, error)
	start      func(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error)
	complete   func(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error)
	cancel     func(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error)
	del        func(ctx context.Context, driverID, tripID uuid.UUID) error
	stops      func(ctx context.Context, driverID, tripID uuid.UUID) ([]domain.Stop, error)
}

func (m *mockTripServicer) Plan(ctx context.Context, driverID uuid.UUID, in service.PlanTripInput) (domain.Trip, error) {
	return m.plan(ctx, driverID, in)
}

func (m *mockTripServicer) GetByID(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error) {
	return m.getByID(ctx, driverID, tripID)
}

func (m *mockTripServicer) List(ctx context.Context, driverID uuid.UUID, p domain.PaginationParams) ([]domain.Trip, int64, error) {
	return m.list(ctx, driverID, p)
}

func (m *mockTripServicer) ListRecent(ctx context.Context, driverID uuid.UUID, window time.Duration, limit int) ([]domain.Trip, error) {
	return m.listRecent(ctx, driverID, window, limit)
}

func (m *mockTripServicer) Start(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error) {
	return m.start(ctx, driverID, tripID)
}

func (m *mockTripServicer) Complete(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error) {
	return m.complete(ctx, driverID, tripID)
}

func (m *mockTripServicer) Cancel(ctx context.Context, driverID, tripID uuid.UUID) (domain.Trip, error) {
	return m.cancel(ctx, driverID, tripID)
}

func (m *mockTripServicer) Delete(ctx context.Context, driverID, tripID uuid.UUID) error {
	return m.del(ctx, driverID, tripID)
}

func (m *mockTripServicer) Stops(ctx context.Context, driverID, tripID uuid.UUID) ([]domain.Stop, error) {
	return m.stops(ctx, driverID, tripID)
}

var _ handler.TripServicer = (*mockTripServicer)(nil)

type mockLogServicer struct {
	daily     func(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error)
	today     func(ctx context.Context, driverID uuid.UUID) (domain.DailyLog, error)
	week      func(ctx context.Context, driverID uuid.UUID) ([]domain.DailyLog, error)
	rangeLogs func(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLog, error)
	summary   func(ctx context.Context, driverID uuid.UUID) (service.HOSSummary, error)
	certify   func(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error)
}

func (m *mockLogServicer) Daily(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error) {
	return m.daily(ctx, driverID, date)
}

func (m *mockLogServicer) Today(ctx context.Context, driverID uuid.UUID) (domain.DailyLog, error) {
	return m.today(ctx, driverID)
}

func (m *mockLogServicer) Week(ctx context.Context, driverID uuid.UUID) ([]domain.DailyLog, error) {
	return m.week(ctx, driverID)
}

func (m *mockLogServicer) Range(ctx context.Context, driverID uuid.UUID, from, to time.Time) ([]domain.DailyLog, error) {
	return m.rangeLogs(ctx, driverID, from, to)
}

func (m *mockLogServicer) Summary(ctx context.Context, driverID uuid.UUID) (service.HOSSummary, error) {
	return m.summary(ctx, driverID)
}

func (m *mockLogServicer) Certify(ctx context.Context, driverID uuid.UUID, date time.Time) (domain.DailyLog, error) {
	return m.certify(ctx, driverID, date)
}

var _ handler.LogServicer = (*mockLogServicer)(nil)

type mockLedgerServicer struct {
	recordEvent func(ctx context.Context, e domain.DutyEvent) (domain.DutyEvent, error)
}

func (m *mockLedgerServicer) RecordEvent(ctx context.Context, e domain.DutyEvent) (domain.DutyEvent, error) {
	return m.recordEvent(ctx, e)
}

var _ handler.LedgerServicer = (*mockLedgerServicer)(nil)

// testToken is the bearer token staticVerifier accepts.
const testToken = "valid-test-token"

// staticVerifier resolves testToken to a fixed driver and rejects the rest.
type staticVerifier struct {
	driverID uuid.UUID
}

func (v *staticVerifier) Verify(token string) (uuid.UUID, error) {
	if token != testToken {
		return uuid.Nil, domain.ErrUnauthorized
	}
	return v.driverID, nil
}

// testAPI bundles a routed handler with the identity its verifier grants.
type testAPI struct {
	router   http.Handler
	driverID uuid.UUID
}

func newTestAPI(drivers handler.DriverServicer, trips handler.TripServicer, logs handler.LogServicer, ledger handler.LedgerServicer) *testAPI {
	id := uuid.New()
	srv := handler.NewServer(drivers, trips, logs, ledger)
	return &testAPI{
		router:   srv.Routes(&staticVerifier{driverID: id}),
		driverID: id,
	}
}

// do performs an authenticated request against the test router.
func (a *testAPI) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := a.newRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+testToken)
	return a.exec(req)
}

// doAnon performs a request without credentials.
func (a *testAPI) doAnon(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	return a.exec(a.newRequest(method, target, body))
}

func (a *testAPI) newRequest(method, target, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func (a *testAPI) exec(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a JSON response body into dst.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}
