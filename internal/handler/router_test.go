package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/domain"
	"github.com/granadev/grana-go/internal/handler"
	"github.com/granadev/grana-go/internal/importer"
	"github.com/granadev/grana-go/internal/infra/observability"
	"github.com/granadev/grana-go/internal/infra/resilience"
	"github.com/granadev/grana-go/internal/infra/sqlite"
	"github.com/granadev/grana-go/internal/service"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	db, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := sqlite.NewStore(db, logger)
	authStore := sqlite.NewAuthStore(db, logger)

	finance := service.NewFinanceService(store, 5*time.Minute, metrics, logger)
	auth := service.NewAuthService(authStore, "test-secret", 15*time.Minute, 24*time.Hour, logger)
	imports := service.NewImportService(importer.NewParser(logger), finance, resilience.NewBulkhead(2), logger)

	return handler.NewRouter(handler.Services{
		Finance: finance,
		Auth:    auth,
		Import:  imports,
		Metrics: metrics,
		Logger:  logger,
	})
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerUser(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/v1/auth/register", "", domain.RegisterRequest{
		Email:    "ana@example.com",
		Name:     "Ana",
		Password: "correct-horse",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp domain.TokenResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.AccessToken
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/transactions", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/transactions", "not-a-jwt", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: expected 401, got %d", rec.Code)
	}
}

func TestTransactionLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router)

	rec := doJSON(t, router, http.MethodPost, "/v1/transactions", token, domain.Transaction{
		Amount:        120.50,
		Origin:        "mercado",
		Category:      "alimentacao",
		Account:       "nubank",
		PaymentMethod: domain.PaymentDebit,
		Date:          time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Type:          domain.TypeExpense,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created domain.Transaction
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created transaction has no ID")
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/transactions", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var list domain.ListResponse[domain.Transaction]
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 {
		t.Errorf("expected 1 transaction, got %d", list.Total)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/summary/2026-03", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("summary: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var summary domain.MonthSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
		t.Fatalf("decode summary: %v", err)
	}
	if summary.CashExpense != 120.50 {
		t.Errorf("expected cash expense 120.50, got %v", summary.CashExpense)
	}

	rec = doJSON(t, router, http.MethodDelete, "/v1/transactions/"+created.ID, token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/transactions/"+created.ID, token, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: expected 404, got %d", rec.Code)
	}
}

func TestValidationErrorsReturn400(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router)

	rec := doJSON(t, router, http.MethodPost, "/v1/transactions", token, domain.Transaction{
		Amount: -10,
		Origin: "x",
		Type:   domain.TypeExpense,
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/summary/march-2026", token, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad month: expected 400, got %d", rec.Code)
	}
}

func TestImportStatementOverHTTP(t *testing.T) {
	router := newTestRouter(t)
	token := registerUser(t, router)

	csv := "date,amount,type,origin,category\n" +
		"2026-03-05,150.00,expense,mercado,alimentacao\n" +
		"2026-03-07,abc,expense,farmacia,saude\n"

	req := httptest.NewRequest(http.MethodPost, "/v1/import/statement", bytes.NewBufferString(csv))
	req.Header.Set("Content-Type", "text/csv")
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var result domain.ImportResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.Imported != 1 || result.Skipped != 1 {
		t.Errorf("expected 1 imported / 1 skipped, got %d / %d", result.Imported, result.Skipped)
	}
}
