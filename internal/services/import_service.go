package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"finsight/internal/core"
)

// LineResult reports the outcome of importing one SMS line. Err is nil on
// success; a failed line carries no transaction.
type LineResult struct {
	Line        int
	Raw         string
	Transaction core.Transaction
	Err         error
}

// ImportService runs batch SMS imports. Lines are processed sequentially and
// independently: one parse-and-persist cycle per line, no atomicity across
// lines, a failure never rolls back or blocks earlier or later lines.
type ImportService struct {
	transactions *TransactionService
}

func NewImportService(transactions *TransactionService) *ImportService {
	return &ImportService{transactions: transactions}
}

// Import processes the messages in order and returns one result per
// non-blank line. Blank lines are skipped without a result.
func (s *ImportService) Import(ctx context.Context, userID uuid.UUID, messages []string, now time.Time) []LineResult {
	var results []LineResult

	for i, raw := range messages {
		if strings.TrimSpace(raw) == "" {
			continue
		}

		tx, err := s.transactions.CreateFromSMS(ctx, userID, raw, now)
		if err != nil {
			slog.WarnContext(ctx, "SMS line import failed",
				"line", i+1,
				"user_id", userID,
				"error", err)
			results = append(results, LineResult{Line: i + 1, Raw: raw, Err: err})
			continue
		}

		results = append(results, LineResult{Line: i + 1, Raw: raw, Transaction: tx})
	}

	slog.InfoContext(ctx, "SMS import finished",
		"user_id", userID,
		"lines", len(results),
		"imported", countImported(results))
	return results
}

func countImported(results []LineResult) int {
	n := 0
	for _, r := range results {
		if r.Err == nil {
			n++
		}
	}
	return n
}
