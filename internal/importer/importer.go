// Package importer parses CSV bank statements into transaction candidates.
// Rows are validated before they ever reach the engine: bad rows are reported
// per line and skipped, a statement with no usable header fails outright.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/granadev/grana-go/internal/domain"
)

// Expected header columns. Order is free; matching is case-insensitive.
// Optional columns may be absent entirely.
const (
	colDate          = "date"
	colAmount        = "amount"
	colType          = "type"
	colOrigin        = "origin"
	colCategory      = "category"
	colAccount       = "account"
	colPaymentMethod = "payment_method"
	colTags          = "tags"
)

var requiredColumns = []string{colDate, colAmount, colType, colOrigin}

// Parser reads CSV statements.
type Parser struct {
	logger *zap.Logger
}

// NewParser creates a statement parser.
func NewParser(logger *zap.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseResult carries the candidates plus per-row failures.
type ParseResult struct {
	Candidates []domain.Transaction
	Skipped    int
	Errors     []string
}

// Parse reads a CSV statement and returns validated transaction candidates.
// Each candidate gets a fresh ID; imported rows are always plain single
// transactions (installment and shared flags are edited afterwards).
func (p *Parser) Parse(r io.Reader, now time.Time) (*ParseResult, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, &domain.ErrImport{Reason: "empty or unreadable statement"}
	}

	idx, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{Candidates: []domain.Transaction{}}
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}

		tx, err := p.parseRow(record, idx, now)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		result.Candidates = append(result.Candidates, *tx)
	}

	p.logger.Info("statement parsed",
		zap.Int("candidates", len(result.Candidates)),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func indexHeader(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, &domain.ErrImport{Reason: fmt.Sprintf("missing required column %q", col)}
		}
	}
	return idx, nil
}

func (p *Parser) parseRow(record []string, idx map[string]int, now time.Time) (*domain.Transaction, error) {
	field := func(col string) string {
		i, ok := idx[col]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	date, err := time.Parse("2006-01-02", field(colDate))
	if err != nil {
		return nil, fmt.Errorf("invalid date %q", field(colDate))
	}

	amount, err := strconv.ParseFloat(field(colAmount), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid amount %q", field(colAmount))
	}
	if amount < 0 {
		return nil, fmt.Errorf("negative amount %.2f", amount)
	}

	txType := domain.TransactionType(strings.ToLower(field(colType)))
	if txType != domain.TypeIncome && txType != domain.TypeExpense {
		return nil, fmt.Errorf("invalid type %q", field(colType))
	}

	origin := field(colOrigin)
	if origin == "" {
		return nil, fmt.Errorf("empty origin")
	}

	method := domain.PaymentMethod(strings.ToLower(field(colPaymentMethod)))
	switch method {
	case domain.PaymentCredit, domain.PaymentDebit, domain.PaymentPix, domain.PaymentCash:
	case "":
		method = domain.PaymentNone
	default:
		return nil, fmt.Errorf("invalid payment method %q", field(colPaymentMethod))
	}

	category := field(colCategory)
	if category == "" {
		category = "outros"
	}

	var tags []string
	if raw := field(colTags); raw != "" {
		for _, tag := range strings.Split(raw, ";") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	return &domain.Transaction{
		ID:            uuid.NewString(),
		Amount:        amount,
		Origin:        origin,
		Category:      category,
		Account:       field(colAccount),
		PaymentMethod: method,
		Date:          date,
		Type:          txType,
		Tags:          tags,
		CreatedAt:     now,
	}, nil
}
