package syncapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/domain"
	"github.com/granadev/grana-go/internal/infra/resilience"
	"github.com/granadev/grana-go/internal/infra/syncapi"
)

func testCfg() resilience.Config {
	return resilience.Config{MaxRetries: 1, InitialBackoff: 5 * time.Millisecond}
}

func TestPushSnapshot_Success(t *testing.T) {
	var gotAuth string
	var gotSnap domain.Snapshot

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.Method != http.MethodPut {
			t.Errorf("expected PUT, got %s", r.Method)
		}
		if r.URL.Path != "/api/v1/users/user-1/snapshot" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotSnap); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := syncapi.NewClient(srv.Client(), srv.URL, "secret",
		resilience.NewCircuitBreaker("test"), testCfg(), zap.NewNop())

	snap := &domain.Snapshot{
		Version: 7,
		TakenAt: time.Now().UTC(),
		Transactions: []domain.Transaction{
			{ID: "tx-1", Amount: 100, Type: domain.TypeExpense},
		},
	}
	if err := client.PushSnapshot(context.Background(), "user-1", snap); err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer auth, got %q", gotAuth)
	}
	if gotSnap.Version != 7 || len(gotSnap.Transactions) != 1 {
		t.Errorf("unexpected uploaded snapshot: %+v", gotSnap)
	}
}

func TestPushSnapshot_RetriesThenFails(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := syncapi.NewClient(srv.Client(), srv.URL, "secret",
		resilience.NewCircuitBreaker("test"), testCfg(), zap.NewNop())

	err := client.PushSnapshot(context.Background(), "user-1", &domain.Snapshot{Version: 1})
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Fatalf("expected external service error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 1 retry (2 calls), got %d", calls)
	}
}

func TestPushSnapshot_CircuitOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := syncapi.NewClient(srv.Client(), srv.URL, "secret",
		resilience.NewCircuitBreaker("test"), testCfg(), zap.NewNop())

	// Trip the breaker: it opens after 5 requests with >=60% failures.
	var lastErr error
	for i := 0; i < 10; i++ {
		lastErr = client.PushSnapshot(context.Background(), "user-1", &domain.Snapshot{Version: 1})
	}

	var open *domain.ErrCircuitOpen
	if !errors.As(lastErr, &open) {
		t.Fatalf("expected circuit open error, got %v", lastErr)
	}
}
