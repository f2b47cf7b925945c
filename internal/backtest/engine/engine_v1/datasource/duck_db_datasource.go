package datasource

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"go.uber.org/zap"
)

const batchSize = 1000

var barColumns = []string{"time", "symbol", "open", "high", "low", "close", "volume", "open_interest"}

type DuckDBDataSource struct {
	db     *sql.DB
	logger *logger.Logger
	sq     squirrel.StatementBuilderType
	path   string
}

// NewDataSource creates a new DuckDB data source instance with the specified database path.
// The path is the DuckDB database location (":memory:" for an in-process database), not the bar file.
func NewDataSource(path string, logger *logger.Logger) (DataSource, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	_, err = db.Exec(`
		SET memory_limit='2GB';
		SET threads=4;
	`)
	if err != nil {
		db.Close()

		return nil, fmt.Errorf("failed to set DuckDB options: %w", err)
	}

	return &DuckDBDataSource{
		db:     db,
		logger: logger,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		path:   "",
	}, nil
}

// Initialize implements DataSource. It replaces the market_data view with the bars
// in path, one row per timestamp.
func (d *DuckDBDataSource) Initialize(path string) error {
	d.logger.Debug("Initializing DuckDB data source", zap.String("path", path))

	format, err := formatOf(path)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`DROP VIEW IF EXISTS market_data;`)
	if err != nil {
		return fmt.Errorf("failed to drop existing view: %w", err)
	}

	var source string

	switch format {
	case FormatCSV:
		source = d.csvSource(path)
	case FormatParquet:
		source, err = d.parquetSource(path)
		if err != nil {
			return err
		}
	}

	// CREATE VIEW is outside what squirrel builds
	query := fmt.Sprintf(`
		CREATE VIEW market_data AS
		SELECT DISTINCT ON (time) * FROM (%s)
		ORDER BY time;
	`, source)

	if _, err = d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to load %s", path)
	}

	d.path = path

	return nil
}

func (d *DuckDBDataSource) csvSource(path string) string {
	return fmt.Sprintf(`
		SELECT
			CAST(timestamp_text AS TIMESTAMPTZ) AS time,
			%s AS symbol,
			CAST(open AS DOUBLE) AS open,
			CAST(high AS DOUBLE) AS high,
			CAST(low AS DOUBLE) AS low,
			CAST(close AS DOUBLE) AS close,
			CAST(volume AS DOUBLE) AS volume,
			CAST(COALESCE(oi, 0) AS DOUBLE) AS open_interest
		FROM read_csv_auto(%s, header = true)
	`, quote(SymbolFromPath(path)), quote(path))
}

// parquetSource tolerates files written without symbol or open_interest columns.
func (d *DuckDBDataSource) parquetSource(path string) (string, error) {
	rows, err := d.db.Query(fmt.Sprintf("DESCRIBE SELECT * FROM read_parquet(%s)", quote(path)))
	if err != nil {
		return "", errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to describe %s", path)
	}
	defer rows.Close()

	columns := map[string]bool{}

	for rows.Next() {
		var name, columnType, null, key, def, extra sql.NullString
		if err := rows.Scan(&name, &columnType, &null, &key, &def, &extra); err != nil {
			return "", fmt.Errorf("failed to scan parquet schema: %w", err)
		}

		columns[name.String] = true
	}

	if err := rows.Err(); err != nil {
		return "", err
	}

	if !columns["time"] {
		return "", errors.Newf(errors.ErrCodeDataSourceUnavailable, "%s has no time column", path)
	}

	symbol := "symbol"
	if !columns["symbol"] {
		symbol = fmt.Sprintf("%s AS symbol", quote(SymbolFromPath(path)))
	}

	openInterest := "CAST(open_interest AS DOUBLE) AS open_interest"
	if !columns["open_interest"] {
		openInterest = "CAST(0 AS DOUBLE) AS open_interest"
	}

	return fmt.Sprintf(`
		SELECT
			CAST(time AS TIMESTAMPTZ) AS time,
			%s,
			CAST(open AS DOUBLE) AS open,
			CAST(high AS DOUBLE) AS high,
			CAST(low AS DOUBLE) AS low,
			CAST(close AS DOUBLE) AS close,
			CAST(volume AS DOUBLE) AS volume,
			%s
		FROM read_parquet(%s)
	`, symbol, openInterest, quote(path)), nil
}

func (d *DuckDBDataSource) where(query squirrel.SelectBuilder, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	if start.IsSome() {
		query = query.Where(squirrel.GtOrEq{"time": start.Unwrap()})
	}

	if end.IsSome() {
		query = query.Where(squirrel.LtOrEq{"time": end.Unwrap()})
	}

	return query
}

// Count implements DataSource.
func (d *DuckDBDataSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	query, args, err := d.where(d.sq.Select("COUNT(*)").From("market_data"), start, end).ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count market data", err)
	}

	return count, nil
}

// ReadAll implements DataSource.
func (d *DuckDBDataSource) ReadAll(start optional.Option[time.Time], end optional.Option[time.Time]) func(yield func(types.Bar, error) bool) {
	return func(yield func(types.Bar, error) bool) {
		query, args, err := d.where(d.sq.Select(barColumns...).From("market_data"), start, end).
			OrderBy("time ASC").
			ToSql()
		if err != nil {
			yield(types.Bar{}, fmt.Errorf("failed to build query: %w", err))

			return
		}

		stmt, err := d.db.Prepare(query)
		if err != nil {
			yield(types.Bar{}, fmt.Errorf("failed to prepare query: %w", err))

			return
		}
		defer stmt.Close()

		rows, err := stmt.Query(args...)
		if err != nil {
			yield(types.Bar{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query market data", err))

			return
		}
		defer rows.Close()

		batch := make([]types.Bar, 0, batchSize)

		for rows.Next() {
			var bar types.Bar
			if err := rows.Scan(&bar.Time, &bar.Symbol, &bar.Open, &bar.High, &bar.Low, &bar.Close, &bar.Volume, &bar.OpenInterest); err != nil {
				yield(types.Bar{}, err)

				return
			}

			batch = append(batch, bar)

			if len(batch) >= batchSize {
				for _, b := range batch {
					if !yield(b, nil) {
						return
					}
				}

				batch = batch[:0]
			}
		}

		if err := rows.Err(); err != nil {
			yield(types.Bar{}, err)

			return
		}

		for _, b := range batch {
			if !yield(b, nil) {
				return
			}
		}
	}
}

// ReadSeries implements DataSource.
func (d *DuckDBDataSource) ReadSeries(start optional.Option[time.Time], end optional.Option[time.Time]) ([]types.Bar, error) {
	var bars []types.Bar

	for bar, err := range d.ReadAll(start, end) {
		if err != nil {
			return nil, err
		}

		bars = append(bars, bar)
	}

	if len(bars) == 0 {
		return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bars in %s for the requested range", d.path)
	}

	return bars, nil
}

// Close implements DataSource.
func (d *DuckDBDataSource) Close() error {
	return d.db.Close()
}
