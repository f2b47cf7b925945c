package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "stop loss must be positive")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("stop loss must be positive", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeInvalidPeriod, "period must be positive, got %d", 0)
	suite.Equal(ErrCodeInvalidPeriod, err.Code)
	suite.Equal("period must be positive, got 0", err.Message)
}

func (suite *ErrorTestSuite) TestWrapAndWrapf() {
	cause := errors.New("connection reset")

	err := Wrap(ErrCodeMarketDataFetchFailed, "failed to fetch candles", cause)
	suite.Equal(cause, err.Cause)
	suite.Equal("[700] failed to fetch candles: connection reset", err.Error())

	err = Wrapf(ErrCodeMarketDataFetchFailed, cause, "failed to fetch candles for %s", "NSE_EQ|INE002A01018")
	suite.Equal("failed to fetch candles for NSE_EQ|INE002A01018", err.Message)
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestErrorStringWithoutCause() {
	err := New(ErrCodeBacktestNoDataPaths, "no data paths")
	suite.Equal("[606] no data paths", err.Error())
	suite.Nil(err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCodeThroughWrapping() {
	inner := New(ErrCodeQueryFailed, "query failed")
	wrapped := fmt.Errorf("read series: %w", inner)

	suite.Equal(ErrCodeQueryFailed, GetCode(wrapped))
	suite.True(HasCode(wrapped, ErrCodeQueryFailed))
	suite.False(HasCode(wrapped, ErrCodeDataNotFound))
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
}

func (suite *ErrorTestSuite) TestIsAndAs() {
	cause := errors.New("disk full")
	err := Wrap(ErrCodeStatusWriteFailed, "write status", cause)

	suite.True(Is(err, cause))

	var target *Error
	suite.True(As(err, &target))
	suite.Equal(ErrCodeStatusWriteFailed, target.Code)
}

func (suite *ErrorTestSuite) TestErrorCodeRanges() {
	suite.Equal(ErrorCode(1), ErrCodeUnknown)
	suite.Equal(ErrorCode(100), ErrCodeInvalidParameter)
	suite.Equal(ErrorCode(200), ErrCodeDataNotFound)
	suite.Equal(ErrorCode(300), ErrCodeIndicatorNotFound)
	suite.Equal(ErrorCode(401), ErrCodeStrategyConfigError)
	suite.Equal(ErrorCode(503), ErrCodeUnsupportedPositionPolicy)
	suite.Equal(ErrorCode(601), ErrCodeBacktestInitFailed)
	suite.Equal(ErrorCode(700), ErrCodeMarketDataFetchFailed)
	suite.Equal(ErrorCode(800), ErrCodeStatusWriteFailed)
	suite.Equal(ErrorCode(900), ErrCodeSessionLoadFailed)
}

func (suite *ErrorTestSuite) TestInsufficientDataError() {
	err := NewInsufficientDataErrorf(20, 5, "RELIANCE", "insufficient data for %s: required %d, got %d", "volume SMA", 20, 5)
	suite.Equal(20, err.Required)
	suite.Equal(5, err.Actual)
	suite.Equal("RELIANCE", err.Symbol)
	suite.Equal("insufficient data for volume SMA: required 20, got 5", err.Error())

	suite.True(IsInsufficientDataError(fmt.Errorf("wrapped: %w", err)))
	suite.False(IsInsufficientDataError(New(ErrCodeInvalidParameter, "x")))
	suite.False(IsInsufficientDataError(nil))
}

func (suite *ErrorTestSuite) TestInvalidSeriesError() {
	err := NewInvalidSeriesErrorf(3, "timestamp %s is not after previous bar", "2024-01-02T09:18:00+05:30")
	suite.Equal(3, err.Index)
	suite.Equal("[120] invalid bar series at index 3: timestamp 2024-01-02T09:18:00+05:30 is not after previous bar", err.Error())
	suite.True(IsInvalidSeriesError(fmt.Errorf("validate: %w", err)))
	suite.False(IsInvalidSeriesError(errors.New("other")))
}
