package engine

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"go.uber.org/zap"
)

// TradeStore keeps the closed trades of one run in an in-memory DuckDB table
// so they can be summarised with SQL and exported to parquet.
type TradeStore struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
}

func NewTradeStore(logger *logger.Logger) (*TradeStore, error) {
	db, err := sql.Open("duckdb", ":memory:")
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeBacktestInitFailed, "failed to open trade store", err)
	}

	return &TradeStore{
		logger: logger,
		db:     db,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question),
	}, nil
}

// Initialize creates the trades table.
func (s *TradeStore) Initialize() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			trade_id TEXT PRIMARY KEY,
			symbol TEXT,
			strategy TEXT,
			entry_time TIMESTAMP,
			entry_price DOUBLE,
			shares DOUBLE,
			exit_time TIMESTAMP,
			exit_price DOUBLE,
			profit DOUBLE,
			fees DOUBLE,
			exit_reason TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create trades table: %w", err)
	}

	return nil
}

// Record inserts the trades of one run in a single transaction.
func (s *TradeStore) Record(strategyName string, trades []types.TradeRecord) error {
	if len(trades) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	insert := s.sq.
		Insert("trades").
		Columns(
			"trade_id", "symbol", "strategy", "entry_time", "entry_price", "shares",
			"exit_time", "exit_price", "profit", "fees", "exit_reason",
		)

	for _, trade := range trades {
		insert = insert.Values(
			trade.ID, trade.Symbol, strategyName, trade.EntryTime.UTC(), trade.EntryPrice, trade.Shares,
			trade.ExitTime.UTC(), trade.ExitPrice, trade.Profit, trade.Fees, string(trade.ExitReason),
		)
	}

	if _, err := insert.RunWith(tx).Exec(); err != nil {
		tx.Rollback()

		return errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to insert trades", err)
	}

	return tx.Commit()
}

// Count returns the number of stored trades.
func (s *TradeStore) Count() (int, error) {
	query, args, err := s.sq.Select("COUNT(*)").From("trades").ToSql()
	if err != nil {
		return 0, err
	}

	var count int
	if err := s.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count trades", err)
	}

	return count, nil
}

// HoldingTime returns min, max and average holding time in seconds for a symbol.
func (s *TradeStore) HoldingTime(symbol string) (types.TradeHoldingTime, error) {
	query, args, err := s.sq.
		Select(
			"COALESCE(MIN(duration), 0)",
			"COALESCE(MAX(duration), 0)",
			"COALESCE(AVG(duration), 0)",
		).
		FromSelect(
			s.sq.Select("EXTRACT(EPOCH FROM (exit_time - entry_time)) AS duration").
				From("trades").
				Where(squirrel.Eq{"symbol": symbol}),
			"t",
		).
		ToSql()
	if err != nil {
		return types.TradeHoldingTime{}, err
	}

	var minDuration, maxDuration, avgDuration float64
	if err := s.db.QueryRow(query, args...).Scan(&minDuration, &maxDuration, &avgDuration); err != nil {
		return types.TradeHoldingTime{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to calculate holding time", err)
	}

	return types.TradeHoldingTime{
		Min: int(math.Round(minDuration)),
		Max: int(math.Round(maxDuration)),
		Avg: int(math.Round(avgDuration)),
	}, nil
}

// Write exports the stored trades to path/trades.parquet and returns the file path.
func (s *TradeStore) Write(path string) (string, error) {
	if err := os.MkdirAll(path, 0755); err != nil {
		return "", errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to create results directory", err)
	}

	// squirrel has no COPY
	tradesPath := filepath.Join(path, "trades.parquet")

	_, err := s.db.Exec(fmt.Sprintf(`COPY (SELECT * FROM trades ORDER BY entry_time) TO '%s' (FORMAT PARQUET)`,
		strings.ReplaceAll(tradesPath, "'", "''")))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeResultsWriteFailed, "failed to export trades to parquet", err)
	}

	s.logger.Info("Exported trades", zap.String("trades", tradesPath))

	return tradesPath, nil
}

// Reset clears the table between runs.
func (s *TradeStore) Reset() error {
	if _, err := s.db.Exec(`DELETE FROM trades`); err != nil {
		return fmt.Errorf("failed to clear trades: %w", err)
	}

	return nil
}

func (s *TradeStore) Close() error {
	return s.db.Close()
}
