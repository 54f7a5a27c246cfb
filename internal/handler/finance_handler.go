package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/domain"
	"github.com/granadev/grana-go/internal/service"
)

// ============================================================
// Transactions Handlers
// ============================================================

func listTransactionsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions")
		defer span.End()
		userID := UserIDFromContext(ctx)
		txns, err := svc.ListTransactions(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		page, pageSize := parsePagination(r)
		writeJSON(w, http.StatusOK, paginate(txns, page, pageSize))
	}
}

func getTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/{txId}")
		defer span.End()
		userID := UserIDFromContext(ctx)
		tx, err := svc.GetTransaction(ctx, userID, chi.URLParam(r, "txId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tx)
	}
}

func createTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/transactions")
		defer span.End()
		userID := UserIDFromContext(ctx)

		var tx domain.Transaction
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := svc.CreateTransaction(ctx, userID, &tx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/transactions/{txId}")
		defer span.End()
		userID := UserIDFromContext(ctx)

		var tx domain.Transaction
		if err := json.NewDecoder(r.Body).Decode(&tx); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		tx.ID = chi.URLParam(r, "txId")

		updated, err := svc.UpdateTransaction(ctx, userID, &tx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteTransactionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/transactions/{txId}")
		defer span.End()
		userID := UserIDFromContext(ctx)
		if err := svc.DeleteTransaction(ctx, userID, chi.URLParam(r, "txId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Account Settings Handlers
// ============================================================

func listAccountSettingsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/settings/accounts")
		defer span.End()
		userID := UserIDFromContext(ctx)
		settings, err := svc.ListAccountSettings(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, settings)
	}
}

func upsertAccountSettingsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/settings/accounts/{accountId}")
		defer span.End()
		userID := UserIDFromContext(ctx)

		var settings domain.AccountSettings
		if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		settings.AccountID = chi.URLParam(r, "accountId")

		saved, err := svc.UpsertAccountSettings(ctx, userID, &settings)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func deleteAccountSettingsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/settings/accounts/{accountId}")
		defer span.End()
		userID := UserIDFromContext(ctx)
		if err := svc.DeleteAccountSettings(ctx, userID, chi.URLParam(r, "accountId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Subscriptions Handlers
// ============================================================

func listSubscriptionsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/subscriptions")
		defer span.End()
		userID := UserIDFromContext(ctx)
		subs, err := svc.ListSubscriptions(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, subs)
	}
}

func createSubscriptionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/subscriptions")
		defer span.End()
		userID := UserIDFromContext(ctx)

		var sub domain.Subscription
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := svc.CreateSubscription(ctx, userID, &sub)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateSubscriptionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/subscriptions/{subId}")
		defer span.End()
		userID := UserIDFromContext(ctx)

		var sub domain.Subscription
		if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		sub.ID = chi.URLParam(r, "subId")

		updated, err := svc.UpdateSubscription(ctx, userID, &sub)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteSubscriptionHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/subscriptions/{subId}")
		defer span.End()
		userID := UserIDFromContext(ctx)
		if err := svc.DeleteSubscription(ctx, userID, chi.URLParam(r, "subId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Budgets Handlers
// ============================================================

func listBudgetsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/budgets")
		defer span.End()
		userID := UserIDFromContext(ctx)
		budgets, err := svc.ListBudgets(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, budgets)
	}
}

func createBudgetHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/budgets")
		defer span.End()
		userID := UserIDFromContext(ctx)

		var b domain.Budget
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := svc.CreateBudget(ctx, userID, &b)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateBudgetHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/budgets/{budgetId}")
		defer span.End()
		userID := UserIDFromContext(ctx)

		var b domain.Budget
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		b.ID = chi.URLParam(r, "budgetId")

		updated, err := svc.UpdateBudget(ctx, userID, &b)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteBudgetHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/budgets/{budgetId}")
		defer span.End()
		userID := UserIDFromContext(ctx)
		if err := svc.DeleteBudget(ctx, userID, chi.URLParam(r, "budgetId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Goals Handlers
// ============================================================

func listGoalsHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/goals")
		defer span.End()
		userID := UserIDFromContext(ctx)
		goals, err := svc.ListGoals(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, goals)
	}
}

func createGoalHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/goals")
		defer span.End()
		userID := UserIDFromContext(ctx)

		var g domain.Goal
		if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		created, err := svc.CreateGoal(ctx, userID, &g)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func updateGoalHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/goals/{goalId}")
		defer span.End()
		userID := UserIDFromContext(ctx)

		var g domain.Goal
		if err := json.NewDecoder(r.Body).Decode(&g); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		g.ID = chi.URLParam(r, "goalId")

		updated, err := svc.UpdateGoal(ctx, userID, &g)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteGoalHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/goals/{goalId}")
		defer span.End()
		userID := UserIDFromContext(ctx)
		if err := svc.DeleteGoal(ctx, userID, chi.URLParam(r, "goalId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
