package datasource

import (
	"path/filepath"
	"strings"

	"github.com/rxtech-lab/argo-intraday/pkg/errors"
)

// formatOf picks the reader from the file extension.
func formatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".parquet":
		return FormatParquet, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", errors.Newf(errors.ErrCodeDataSourceUnavailable, "unsupported data file: %s", path)
	}
}

// SymbolFromPath derives the instrument name from a file such as RELIANCE_5min_history.csv.
func SymbolFromPath(path string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if idx := strings.Index(name, "_"); idx > 0 {
		name = name[:idx]
	}

	return strings.ToUpper(name)
}

// quote escapes a literal for interpolation into a DuckDB table function call.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
