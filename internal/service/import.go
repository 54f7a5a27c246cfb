package service

import (
	"context"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/domain"
	"github.com/granadev/grana-go/internal/importer"
	"github.com/granadev/grana-go/internal/infra/resilience"
)

// ImportService runs CSV statement imports. A bulkhead bounds concurrent
// imports so a burst of uploads cannot starve interactive queries with
// recomputation work.
type ImportService struct {
	parser   *importer.Parser
	finance  *FinanceService
	bulkhead *resilience.Bulkhead
	logger   *zap.Logger
}

// NewImportService creates an import service.
func NewImportService(parser *importer.Parser, finance *FinanceService, bulkhead *resilience.Bulkhead, logger *zap.Logger) *ImportService {
	return &ImportService{
		parser:   parser,
		finance:  finance,
		bulkhead: bulkhead,
		logger:   logger,
	}
}

// ImportStatement parses a CSV statement and persists every valid candidate.
// Row-level failures are reported, not fatal; a row that parses but fails to
// persist is counted as skipped too.
func (s *ImportService) ImportStatement(ctx context.Context, userID string, r io.Reader) (*domain.ImportResult, error) {
	ctx, span := finTracer.Start(ctx, "ImportService.ImportStatement")
	defer span.End()

	if err := s.bulkhead.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.bulkhead.Release()

	parsed, err := s.parser.Parse(r, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	result := &domain.ImportResult{
		Skipped: parsed.Skipped,
		Errors:  parsed.Errors,
	}
	for _, candidate := range parsed.Candidates {
		if _, err := s.finance.CreateTransaction(ctx, userID, &candidate); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		result.Imported++
	}

	span.SetAttributes(
		attribute.Int("imported", result.Imported),
		attribute.Int("skipped", result.Skipped),
	)
	s.finance.metrics.AddImportedTransactions(result.Imported)
	s.logger.Info("statement imported",
		zap.String("user_id", userID),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}
