package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeInvalidType          ErrorCode = 107
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeInvalidMultiplier    ErrorCode = 111
	ErrCodeInvalidSeries        ErrorCode = 120
	ErrCodeSignalLengthMismatch ErrorCode = 121
	ErrCodeInvalidTimezone      ErrorCode = 122

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeNoDataFound           ErrorCode = 204
	ErrCodeResultsWriteFailed    ErrorCode = 206

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302

	// Strategy errors (400-499)
	ErrCodeStrategyConfigError ErrorCode = 401
	ErrCodeUnsupportedStrategy ErrorCode = 403
	ErrCodeVersionMismatch     ErrorCode = 404

	// Trading errors (500-599)
	ErrCodeUnsupportedPositionPolicy ErrorCode = 503
	ErrCodeUnsupportedEndOfData      ErrorCode = 504
	ErrCodeUnsupportedBroker         ErrorCode = 505

	// Backtest errors (600-699)
	ErrCodeBacktestInitFailed    ErrorCode = 601
	ErrCodeBacktestConfigError   ErrorCode = 602
	ErrCodeBacktestDataPathError ErrorCode = 603
	ErrCodeBacktestNoDataPaths   ErrorCode = 606
	ErrCodeBacktestNoResultsDir  ErrorCode = 607
	ErrCodeBacktestNoDatasource  ErrorCode = 608
	ErrCodeOptimizerEmptyGrid    ErrorCode = 609

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed  ErrorCode = 700
	ErrCodeMarketDataWriteFailed  ErrorCode = 701
	ErrCodeMarketDataParseFailed  ErrorCode = 702
	ErrCodeInvalidTimespan        ErrorCode = 703
	ErrCodeInvalidProvider        ErrorCode = 704
	ErrCodeMarketDataUnauthorized ErrorCode = 705

	// Live errors (800-899)
	ErrCodeStatusWriteFailed ErrorCode = 800
	ErrCodeStatusReadFailed  ErrorCode = 801
	ErrCodeNotifyFailed      ErrorCode = 802
	ErrCodeNotifierDisabled  ErrorCode = 803

	// Session errors (900-999)
	ErrCodeSessionLoadFailed   ErrorCode = 900
	ErrCodeSessionSaveFailed   ErrorCode = 901
	ErrCodeSessionIncompatible ErrorCode = 902
)
