package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/oldski/sportsfestDashboard-sub002/internal/authorization"
	"github.com/oldski/sportsfestDashboard-sub002/internal/orgcontext"
	paymentdomain "github.com/oldski/sportsfestDashboard-sub002/internal/payment/domain"
	rosterdomain "github.com/oldski/sportsfestDashboard-sub002/internal/roster/domain"
	transferwarningdomain "github.com/oldski/sportsfestDashboard-sub002/internal/transferwarning/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRosterService struct {
	scope    orgcontext.Scope
	playerID snowflake.ID
	teamID   snowflake.ID
	transfer *rosterdomain.TransferResult
	err      error
}

func (f *fakeRosterService) AddPlayerToTeam(ctx context.Context, scope orgcontext.Scope, playerID, teamID snowflake.ID) (*rosterdomain.AddResult, error) {
	f.scope, f.playerID, f.teamID = scope, playerID, teamID
	if f.err != nil {
		return nil, f.err
	}
	return &rosterdomain.AddResult{Success: true, Message: "Added Ana Silva to Team 1"}, nil
}

func (f *fakeRosterService) RemovePlayerFromTeam(ctx context.Context, scope orgcontext.Scope, playerID, teamID snowflake.ID) (*rosterdomain.RemoveResult, error) {
	f.scope, f.playerID, f.teamID = scope, playerID, teamID
	return &rosterdomain.RemoveResult{Success: true, EventRosterEntriesRemoved: 2}, f.err
}

func (f *fakeRosterService) TransferPlayerToTeam(ctx context.Context, scope orgcontext.Scope, playerID, newTeamID snowflake.ID) (*rosterdomain.TransferResult, error) {
	f.scope, f.playerID, f.teamID = scope, playerID, newTeamID
	if f.err != nil {
		return nil, f.err
	}
	return f.transfer, nil
}

func (f *fakeRosterService) ToggleCaptain(ctx context.Context, scope orgcontext.Scope, playerID, teamID snowflake.ID, isCaptain bool) (*rosterdomain.CaptainResult, error) {
	f.scope, f.playerID, f.teamID = scope, playerID, teamID
	return &rosterdomain.CaptainResult{Success: true, IsCaptain: isCaptain}, f.err
}

func (f *fakeRosterService) ListTeamRoster(ctx context.Context, scope orgcontext.Scope, teamID snowflake.ID) ([]rosterdomain.RosterMember, error) {
	f.scope, f.teamID = scope, teamID
	return nil, f.err
}

func (f *fakeRosterService) AutoGenerateRosters(ctx context.Context, scope orgcontext.Scope) (*rosterdomain.AutoGenerateResult, error) {
	f.scope = scope
	if f.err != nil {
		return nil, f.err
	}
	return &rosterdomain.AutoGenerateResult{Success: true, Message: "Assigned 10 player(s) across 2 team(s)", PlayersAssigned: 10, TeamsTouched: 2}, nil
}

type fakeWarningService struct {
	resolved int
}

func (f *fakeWarningService) ListForPlayer(ctx context.Context, scope orgcontext.Scope, playerID snowflake.ID) ([]transferwarningdomain.Warning, error) {
	return nil, transferwarningdomain.ErrPlayerNotFound
}

func (f *fakeWarningService) ListForOrganization(ctx context.Context, scope orgcontext.Scope) ([]transferwarningdomain.PlayerWarnings, error) {
	return []transferwarningdomain.PlayerWarnings{}, nil
}

func (f *fakeWarningService) ResolveAllForPlayer(ctx context.Context, scope orgcontext.Scope, playerID snowflake.ID) (*transferwarningdomain.ResolveResult, error) {
	return &transferwarningdomain.ResolveResult{Success: true, Message: "Resolved 2 transfer warning(s)", Resolved: f.resolved}, nil
}

type fakePaymentService struct {
	notification paymentdomain.Notification
	recordErr    error
}

func (f *fakePaymentService) RecordPayment(ctx context.Context, scope orgcontext.Scope, req paymentdomain.RecordPaymentRequest) (*paymentdomain.RecordPaymentResult, error) {
	if f.recordErr != nil {
		return nil, f.recordErr
	}
	return &paymentdomain.RecordPaymentResult{Success: true, Message: "Payment recorded"}, nil
}

func (f *fakePaymentService) Reconcile(ctx context.Context, scope orgcontext.Scope, orderID snowflake.ID) (*paymentdomain.ReconcileResult, error) {
	return &paymentdomain.ReconcileResult{Success: true, OrderID: orderID}, nil
}

func (f *fakePaymentService) HandleNotification(ctx context.Context, scope orgcontext.Scope, orderID snowflake.ID, n paymentdomain.Notification) (*paymentdomain.ReconcileResult, error) {
	f.notification = n
	return &paymentdomain.ReconcileResult{Success: true, OrderID: orderID}, nil
}

type denyMembers struct{}

func (denyMembers) Authorize(ctx context.Context, scope orgcontext.Scope, object, action string) error {
	if scope.Role == orgcontext.RoleMember {
		return authorization.ErrForbidden
	}
	return nil
}

type fixture struct {
	engine   *gin.Engine
	roster   *fakeRosterService
	warnings *fakeWarningService
	payments *fakePaymentService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		roster:   &fakeRosterService{},
		warnings: &fakeWarningService{resolved: 2},
		payments: &fakePaymentService{},
	}
	engine := gin.New()
	engine.Use(ErrorHandlingMiddleware())
	NewServer(ServerParams{
		Gin:        engine,
		RosterSvc:  f.roster,
		WarningSvc: f.warnings,
		PaymentSvc: f.payments,
		Authz:      denyMembers{},
	})
	f.engine = engine
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(HeaderOrg, "1")
	req.Header.Set(HeaderActor, "user-1")
	req.Header.Set(HeaderRole, "admin")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	f.engine.ServeHTTP(w, req)

	var out map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestScopeRequiredRejectsMissingActor(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodGet, "/api/transfer-warnings", "", map[string]string{HeaderActor: ""})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, false, body["success"])
}

func TestScopeRequiredRejectsBadOrg(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodGet, "/api/transfer-warnings", "", map[string]string{HeaderOrg: "abc"})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddPlayerPassesScopeAndIDs(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodPost, "/api/teams/10/players", `{"player_id":"100"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Added Ana Silva to Team 1", body["message"])
	assert.Equal(t, snowflake.ID(100), f.roster.playerID)
	assert.Equal(t, snowflake.ID(10), f.roster.teamID)
	assert.Equal(t, orgcontext.Scope{OrgID: 1, ActorID: "user-1", Role: orgcontext.RoleAdmin}, f.roster.scope)
}

func TestAddPlayerRejectsMissingPlayer(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodPost, "/api/teams/10/players", `{}`, nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	errPayload := body["error"].(map[string]any)
	assert.Equal(t, "validation_error", errPayload["type"])
}

func TestTransferRefusalIsNotAnHTTPError(t *testing.T) {
	f := newFixture(t)
	f.roster.transfer = &rosterdomain.TransferResult{Success: false, Message: "Ana Silva is already on Blue Sharks"}

	w, body := f.do(t, http.MethodPost, "/api/players/100/transfer", `{"team_id":"11"}`, nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Ana Silva is already on Blue Sharks", body["message"])
	assert.Equal(t, snowflake.ID(11), f.roster.teamID)
}

func TestServiceErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{name: "forbidden", err: authorization.ErrForbidden, status: http.StatusForbidden},
		{name: "team not found", err: rosterdomain.ErrTeamNotFound, status: http.StatusNotFound},
		{name: "player not found", err: rosterdomain.ErrPlayerNotFound, status: http.StatusNotFound},
		{name: "missing org", err: authorization.ErrInvalidOrganization, status: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			f.roster.err = tc.err

			w, _ := f.do(t, http.MethodPost, "/api/rosters/auto-generate", "", nil)

			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestToggleCaptainRequiresFlag(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodPatch, "/api/teams/10/players/100/captain", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := f.do(t, http.MethodPatch, "/api/teams/10/players/100/captain", `{"is_captain":false}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.Equal(t, false, data["is_captain"])
}

func TestResolveTransferWarnings(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodPost, "/api/players/100/transfer-warnings/resolve", "", nil)

	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 2, data["resolved"])
}

func TestListPlayerTransferWarningsNotFound(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodGet, "/api/players/100/transfer-warnings", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentNotificationRequiresIdempotencyKey(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodPost, "/api/orders/5/notifications/stripe", `{"amount":500}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body := f.do(t, http.MethodPost, "/api/orders/5/notifications/stripe", `{"amount":500}`, map[string]string{"Idempotency-Key": "evt_1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "stripe", f.payments.notification.Provider)
	assert.Equal(t, "evt_1", f.payments.notification.ProviderEventID)
	assert.JSONEq(t, `{"amount":500}`, string(f.payments.notification.Payload))
}

func TestOverpaymentIsConflict(t *testing.T) {
	f := newFixture(t)
	f.payments.recordErr = paymentdomain.ErrOverpayment

	w, body := f.do(t, http.MethodPost, "/api/orders/5/payments", `{"amount":900,"status":"completed"}`, nil)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "payment exceeds the order balance", body["message"])
}

func TestInvalidPathID(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodGet, "/api/teams/abc/roster", "", nil)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownRoute(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodGet, "/api/nope", "", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuditLogsRequireAuditRole(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodGet, "/api/audit-logs", "", map[string]string{HeaderRole: "member"})

	assert.Equal(t, http.StatusForbidden, w.Code)
}
