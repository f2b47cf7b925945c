package writer

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"go.uber.org/zap"
)

// DuckDBWriter buffers bars in an in-memory DuckDB table and exports them,
// deduplicated on time and sorted ascending, when finalized. A ".csv" output
// path produces the download format (timestamp_text, open, high, low, close,
// volume, oi); anything else produces parquet.
type DuckDBWriter struct {
	db         *sql.DB
	tx         *sql.Tx
	stmt       *sql.Stmt
	rows       int
	outputPath string
	logger     *logger.Logger
}

// NewDuckDBWriter creates a new DuckDBWriter writing to outputPath.
func NewDuckDBWriter(outputPath string) MarketDataWriter {
	return NewDuckDBWriterWithLogger(outputPath, logger.NewNopLogger())
}

func NewDuckDBWriterWithLogger(outputPath string, l *logger.Logger) *DuckDBWriter {
	return &DuckDBWriter{
		outputPath: outputPath,
		logger:     l,
	}
}

// Initialize opens the database, creates the staging table, begins a
// transaction and prepares the insert statement.
func (w *DuckDBWriter) Initialize() (err error) {
	w.db, err = sql.Open("duckdb", ":memory:")
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to open DuckDB connection", err)
	}

	_, err = w.db.Exec(`
		CREATE TABLE IF NOT EXISTS market_data (
			id TEXT,
			seq BIGINT,
			time TIMESTAMP,
			symbol TEXT,
			open DOUBLE,
			high DOUBLE,
			low DOUBLE,
			close DOUBLE,
			volume DOUBLE,
			open_interest DOUBLE
		)
	`)
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to create table", err)
	}

	w.tx, err = w.db.Begin()
	if err != nil {
		w.db.Close()
		w.db = nil

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to begin transaction", err)
	}

	w.stmt, err = w.tx.Prepare(`
		INSERT INTO market_data (id, seq, time, symbol, open, high, low, close, volume, open_interest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		w.tx.Rollback()
		w.db.Close()
		w.tx, w.db = nil, nil

		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to prepare statement", err)
	}

	w.rows = 0

	return nil
}

// Write inserts one bar within the open transaction.
func (w *DuckDBWriter) Write(bar types.Bar) error {
	if w.stmt == nil {
		return errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized or statement is nil")
	}

	_, err := w.stmt.Exec(
		uuid.New().String(),
		w.rows,
		bar.Time.UTC(),
		bar.Symbol,
		bar.Open,
		bar.High,
		bar.Low,
		bar.Close,
		bar.Volume,
		bar.OpenInterest,
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to insert bar", err)
	}

	w.rows++

	return nil
}

func (w *DuckDBWriter) Rows() int {
	return w.rows
}

// Finalize commits the transaction and exports the table.
func (w *DuckDBWriter) Finalize() (outputPath string, err error) {
	if w.tx == nil {
		return "", errors.New(errors.ErrCodeMarketDataWriteFailed, "writer not initialized or transaction is nil")
	}

	if w.stmt != nil {
		w.stmt.Close()
		w.stmt = nil
	}

	if err = w.tx.Commit(); err != nil {
		w.tx.Rollback()
		w.tx = nil

		return "", errors.Wrap(errors.ErrCodeMarketDataWriteFailed, "failed to commit transaction", err)
	}

	w.tx = nil

	if dir := filepath.Dir(w.outputPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to create %s", dir)
		}
	}

	_, err = w.db.Exec(w.exportQuery())
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeMarketDataWriteFailed, err, "failed to export to %s", w.outputPath)
	}

	w.logger.Info("Exported market data", zap.String("path", w.outputPath), zap.Int("rows", w.rows))

	return w.outputPath, nil
}

func (w *DuckDBWriter) exportQuery() string {
	path := strings.ReplaceAll(w.outputPath, "'", "''")
	// the first bar written for a timestamp wins
	deduped := `SELECT * FROM (SELECT DISTINCT ON (time) * FROM market_data ORDER BY time, seq) ORDER BY time`

	if strings.EqualFold(filepath.Ext(w.outputPath), ".csv") {
		return fmt.Sprintf(`COPY (
			SELECT strftime(time, '%%Y-%%m-%%dT%%H:%%M:%%S') || '+00:00' AS timestamp_text,
				open, high, low, close, volume, open_interest AS oi
			FROM (%s)
		) TO '%s' (FORMAT CSV, HEADER)`, deduped, path)
	}

	return fmt.Sprintf(`COPY (
		SELECT id, time, symbol, open, high, low, close, volume, open_interest FROM (%s)
	) TO '%s' (FORMAT PARQUET)`, deduped, path)
}

// Close releases the statement, any open transaction and the database.
func (w *DuckDBWriter) Close() error {
	var closeErrors []string

	if w.stmt != nil {
		if err := w.stmt.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("failed to close statement: %v", err))
		}

		w.stmt = nil
	}

	// Finalize was not called or failed
	if w.tx != nil {
		if err := w.tx.Rollback(); err != nil {
			w.logger.Warn("Failed to rollback transaction during close", zap.Error(err))
		}

		w.tx = nil
	}

	if w.db != nil {
		if err := w.db.Close(); err != nil {
			closeErrors = append(closeErrors, fmt.Sprintf("failed to close db connection: %v", err))
		}

		w.db = nil
	}

	if len(closeErrors) > 0 {
		return errors.Newf(errors.ErrCodeMarketDataWriteFailed, "errors occurred during close: %s", strings.Join(closeErrors, "; "))
	}

	return nil
}

func (w *DuckDBWriter) GetOutputPath() string {
	return w.outputPath
}
