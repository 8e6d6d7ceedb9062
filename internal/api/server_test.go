package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/innopoints/innopoints-api/internal/api"
	"github.com/innopoints/innopoints-api/internal/api/handler/v1/response"
	"github.com/innopoints/innopoints-api/internal/config"
	"github.com/innopoints/innopoints-api/internal/domain"
	"github.com/innopoints/innopoints-api/internal/notify"
	"github.com/innopoints/innopoints-api/internal/pkg/jwthelper"
	"github.com/innopoints/innopoints-api/internal/repository/memory"
)

const signingKey = "test-signing-key"

var (
	admin     = domain.Account{Email: "admin@innopolis.ru", FullName: "Store Admin", IsAdmin: true}
	student   = domain.Account{Email: "s.student@innopolis.university", FullName: "Sam Student"}
	organizer = domain.Account{Email: "o.organizer@innopolis.university", FullName: "Olga Organizer"}
)

type testServer struct {
	t      *testing.T
	server *api.Server
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	conf := &config.AppConfig{
		API:        &config.APIConfig{Environment: "test", JWTSigningKey: signingKey},
		Gin:        &config.GinConfig{Mode: gin.TestMode},
		Log:        &config.LogConfig{Level: "info"},
		Postgres:   &config.PostgresConfig{},
		Innopoints: &config.InnopointsConfig{PointsPerHour: 70},
	}

	store := memory.New()
	for _, a := range []domain.Account{admin, student, organizer} {
		_, err := store.CreateAccount(context.Background(), a)
		require.NoError(t, err)
	}

	return &testServer{
		t:      t,
		server: api.NewServer(conf, store, notify.Log{}, notify.NewHub(nil)),
	}
}

// do sends body as JSON on behalf of email; an empty email sends no token.
func (ts *testServer) do(method, path, email string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		token, err := jwthelper.GenerateToken([]byte(signingKey), email, "", time.Hour)
		require.NoError(ts.t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.server.Router.ServeHTTP(rec, req)
	return rec
}

// ok asserts the status and decodes the body into out.
func (ts *testServer) ok(rec *httptest.ResponseRecorder, status int, out any) {
	ts.t.Helper()
	require.Equal(ts.t, status, rec.Code, rec.Body.String())
	if out != nil {
		require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), out))
	}
}

func (ts *testServer) errStatus(rec *httptest.ResponseRecorder) string {
	ts.t.Helper()
	var body response.Err
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.StatusText
}

func TestHealthcheckAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "innopoints_http_requests_total")
}

func TestAuthentication(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/account", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/account", "ghost@innopolis.university", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	var account response.AccountResponse
	ts.ok(ts.do(http.MethodGet, "/api/v1/account", student.Email, nil), http.StatusOK, &account)
	assert.Equal(t, student.Email, account.Email)
	assert.Equal(t, 0, account.Balance)
}

func TestManualTransactionEndpoint(t *testing.T) {
	ts := newTestServer(t)
	path := "/api/v1/accounts/" + student.Email + "/transactions"

	rec := ts.do(http.MethodPost, path, student.Email, map[string]int{"change": 500})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(http.MethodPost, path, admin.Email, map[string]int{"change": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var tx domain.Transaction
	ts.ok(ts.do(http.MethodPost, path, admin.Email, map[string]int{"change": 500}), http.StatusCreated, &tx)
	assert.Equal(t, 500, tx.Change)

	var balance response.BalanceResponse
	ts.ok(ts.do(http.MethodGet, "/api/v1/account/balance", student.Email, nil), http.StatusOK, &balance)
	assert.Equal(t, 500, balance.Balance)

	var txs []domain.Transaction
	ts.ok(ts.do(http.MethodGet, "/api/v1/account/transactions", student.Email, nil), http.StatusOK, &txs)
	assert.Len(t, txs, 1)
}

func TestCreateAccountEndpoint(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]any{"email": "n.newcomer@innopolis.university", "full_name": "New Comer"}

	rec := ts.do(http.MethodPost, "/api/v1/accounts", admin.Email, map[string]any{"email": "not-an-email", "full_name": "X"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	ts.ok(ts.do(http.MethodPost, "/api/v1/accounts", admin.Email, body), http.StatusCreated, nil)

	rec = ts.do(http.MethodPost, "/api/v1/accounts", admin.Email, body)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPurchaseFlow(t *testing.T) {
	ts := newTestServer(t)

	var product domain.Product
	ts.ok(ts.do(http.MethodPost, "/api/v1/products", admin.Email,
		map[string]any{"name": "Innopolis hoodie", "price": 300}), http.StatusCreated, &product)

	rec := ts.do(http.MethodPost, "/api/v1/products", student.Email, map[string]any{"name": "Fake", "price": 1})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	var variety domain.Variety
	ts.ok(ts.do(http.MethodPost, fmt.Sprintf("/api/v1/products/%d/varieties", product.ID), admin.Email,
		map[string]any{"size": "M", "color": "black"}), http.StatusCreated, &variety)

	varietyPath := fmt.Sprintf("/api/v1/varieties/%d", variety.ID)
	ts.ok(ts.do(http.MethodPost, varietyPath+"/restock", admin.Email, map[string]int{"quantity": 2}), http.StatusCreated, nil)
	ts.ok(ts.do(http.MethodPost, "/api/v1/accounts/"+student.Email+"/transactions", admin.Email,
		map[string]int{"change": 700}), http.StatusCreated, nil)

	var change domain.StockChange
	ts.ok(ts.do(http.MethodPost, varietyPath+"/purchase", student.Email, map[string]int{"quantity": 2}), http.StatusCreated, &change)
	assert.Equal(t, -2, change.Amount)
	assert.Equal(t, domain.StockChangePending, change.Status)

	rec = ts.do(http.MethodPost, varietyPath+"/purchase", student.Email, map[string]int{"quantity": 1})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "Payment Required", ts.errStatus(rec))

	var stock domain.VarietyStock
	ts.ok(ts.do(http.MethodGet, varietyPath, student.Email, nil), http.StatusOK, &stock)
	assert.Equal(t, 0, stock.Amount)
	assert.Equal(t, 2, stock.Purchases)

	statusPath := fmt.Sprintf("/api/v1/stock_changes/%d/status", change.ID)
	rec = ts.do(http.MethodPatch, statusPath, student.Email, map[string]string{"status": "rejected"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	ts.ok(ts.do(http.MethodPatch, statusPath, admin.Email, map[string]string{"status": "rejected"}), http.StatusOK, &change)
	assert.Equal(t, domain.StockChangeRejected, change.Status)

	var balance response.BalanceResponse
	ts.ok(ts.do(http.MethodGet, "/api/v1/account/balance", student.Email, nil), http.StatusOK, &balance)
	assert.Equal(t, 700, balance.Balance)
}

func TestVolunteeringFlow(t *testing.T) {
	ts := newTestServer(t)

	var project domain.Project
	ts.ok(ts.do(http.MethodPost, "/api/v1/projects", organizer.Email,
		map[string]string{"name": "Open Day"}), http.StatusCreated, &project)
	assert.Equal(t, domain.StageDraft, project.LifetimeStage)

	projectPath := fmt.Sprintf("/api/v1/projects/%d", project.ID)
	var activity domain.Activity
	ts.ok(ts.do(http.MethodPost, projectPath+"/activities", organizer.Email,
		map[string]any{"name": "Campus tours", "working_hours": 3, "feedback_questions": []string{"How was it?"}}),
		http.StatusCreated, &activity)
	assert.Equal(t, 70, activity.RewardRate)

	var listed []response.ActivityResponse
	ts.ok(ts.do(http.MethodGet, projectPath+"/activities", student.Email, nil), http.StatusOK, &listed)
	require.Len(t, listed, 1, "the internal activity is hidden")
	assert.Equal(t, -1, listed[0].VacantSpots)

	ts.ok(ts.do(http.MethodPost, projectPath+"/publish", organizer.Email, nil), http.StatusOK, &project)
	assert.Equal(t, domain.StageOngoing, project.LifetimeStage)

	appsPath := fmt.Sprintf("%s/activities/%d/applications", projectPath, activity.ID)
	var app domain.Application
	ts.ok(ts.do(http.MethodPost, appsPath, student.Email,
		map[string]string{"comment": "I know the campus"}), http.StatusCreated, &app)
	assert.Equal(t, 3, app.ActualHours)

	rec := ts.do(http.MethodPost, appsPath, student.Email, map[string]string{})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodGet, appsPath, student.Email, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	appPath := fmt.Sprintf("/api/v1/applications/%d", app.ID)
	ts.ok(ts.do(http.MethodPatch, appPath, organizer.Email, map[string]string{"status": "approved"}), http.StatusOK, &app)
	assert.Equal(t, domain.ApplicationApproved, app.Status)

	rec = ts.do(http.MethodPost, appPath+"/feedback", student.Email, map[string]any{"answers": []string{"Great"}})
	assert.Equal(t, http.StatusConflict, rec.Code, "feedback waits for finalizing")

	ts.ok(ts.do(http.MethodPost, projectPath+"/finalize", organizer.Email, nil), http.StatusOK, &project)
	assert.Equal(t, domain.StageFinalizing, project.LifetimeStage)

	rec = ts.do(http.MethodPost, appPath+"/feedback", student.Email, map[string]any{"answers": []string{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var claimed response.FeedbackResponse
	ts.ok(ts.do(http.MethodPost, appPath+"/feedback", student.Email,
		map[string]any{"answers": []string{"Great"}}), http.StatusCreated, &claimed)
	assert.Equal(t, 210, claimed.Transaction.Change)

	rec = ts.do(http.MethodPost, appPath+"/feedback", student.Email, map[string]any{"answers": []string{"Again"}})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var balance response.BalanceResponse
	ts.ok(ts.do(http.MethodGet, "/api/v1/account/balance", student.Email, nil), http.StatusOK, &balance)
	assert.Equal(t, 210, balance.Balance)

	ts.ok(ts.do(http.MethodPost, appPath+"/reports", organizer.Email,
		map[string]any{"rating": 5, "content": "Punctual"}), http.StatusCreated, nil)

	ts.ok(ts.do(http.MethodPatch, projectPath+"/review_status", admin.Email,
		map[string]string{"review_status": "approved"}), http.StatusOK, &project)
	ts.ok(ts.do(http.MethodPost, projectPath+"/close", organizer.Email, nil), http.StatusOK, &project)
	assert.Equal(t, domain.StageFinished, project.LifetimeStage)
}

func TestActivityMustBelongToProject(t *testing.T) {
	ts := newTestServer(t)

	var first, second domain.Project
	ts.ok(ts.do(http.MethodPost, "/api/v1/projects", organizer.Email, map[string]string{"name": "First"}), http.StatusCreated, &first)
	ts.ok(ts.do(http.MethodPost, "/api/v1/projects", organizer.Email, map[string]string{"name": "Second"}), http.StatusCreated, &second)

	var activity domain.Activity
	ts.ok(ts.do(http.MethodPost, fmt.Sprintf("/api/v1/projects/%d/activities", first.ID), organizer.Email,
		map[string]any{"name": "Setup", "working_hours": 1}), http.StatusCreated, &activity)

	rec := ts.do(http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d/activities/%d", second.ID, activity.ID), organizer.Email, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodDelete, fmt.Sprintf("/api/v1/projects/%d/activities/%d", first.ID, activity.ID), organizer.Email, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestMalformedRequests(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodGet, "/api/v1/varieties/abc", student.Email, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/projects/0", student.Email, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(http.MethodGet, "/api/v1/projects/42", student.Email, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/projects", bytes.NewBufferString("{"))
	token, err := jwthelper.GenerateToken([]byte(signingKey), organizer.Email, "", time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	ts.server.Router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
