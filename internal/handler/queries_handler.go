package handler

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/service"
)

// ============================================================
// Derived Views Handlers
// ============================================================

func monthSummaryHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/summary/{month}")
		defer span.End()
		userID := UserIDFromContext(ctx)
		month := chi.URLParam(r, "month")
		span.SetAttributes(attribute.String("month", month))

		summary, err := svc.MonthSummary(ctx, userID, month)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func calendarDayHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/calendar/{date}")
		defer span.End()
		userID := UserIDFromContext(ctx)

		day, err := svc.CalendarDay(ctx, userID, chi.URLParam(r, "date"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, day)
	}
}

func forecastHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/forecast")
		defer span.End()
		userID := UserIDFromContext(ctx)

		months := 6
		if v := r.URL.Query().Get("months"); v != "" {
			m, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid months parameter")
				return
			}
			months = m
		}
		var balance float64
		if v := r.URL.Query().Get("balance"); v != "" {
			b, err := strconv.ParseFloat(v, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid balance parameter")
				return
			}
			balance = b
		}
		span.SetAttributes(attribute.Int("months", months))

		points, err := svc.Forecast(ctx, userID, balance, months)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, points)
	}
}

func rangeReportHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/reports/range")
		defer span.End()
		userID := UserIDFromContext(ctx)

		from := r.URL.Query().Get("from")
		to := r.URL.Query().Get("to")
		span.SetAttributes(
			attribute.String("from", from),
			attribute.String("to", to),
		)

		report, err := svc.RangeReport(ctx, userID, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func installmentPlanHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/transactions/{txId}/installments")
		defer span.End()
		userID := UserIDFromContext(ctx)

		slices, err := svc.InstallmentPlan(ctx, userID, chi.URLParam(r, "txId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, slices)
	}
}

func budgetStatusHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/budgets/status")
		defer span.End()
		userID := UserIDFromContext(ctx)

		statuses, err := svc.BudgetStatuses(ctx, userID, r.URL.Query().Get("month"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, statuses)
	}
}

func goalProgressHandler(svc *service.FinanceService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/goals/progress")
		defer span.End()
		userID := UserIDFromContext(ctx)

		progress, err := svc.GoalProgress(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, progress)
	}
}

// ============================================================
// Statement Import Handler
// ============================================================

const maxImportSize = 10 << 20 // 10 MiB

// importStatementHandler accepts a CSV statement either as a multipart
// "file" field or as the raw request body.
func importStatementHandler(svc *service.ImportService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/import/statement")
		defer span.End()
		userID := UserIDFromContext(ctx)

		var reader io.Reader = http.MaxBytesReader(w, r.Body, maxImportSize)
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			if err := r.ParseMultipartForm(maxImportSize); err != nil {
				writeError(w, http.StatusBadRequest, "invalid multipart form")
				return
			}
			file, _, err := r.FormFile("file")
			if err != nil {
				writeError(w, http.StatusBadRequest, "missing file field")
				return
			}
			defer file.Close()
			reader = file
		}

		result, err := svc.ImportStatement(ctx, userID, reader)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}
