package engine

import (
	"github.com/rxtech-lab/argo-intraday/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
)

// TrackerConfig holds the money management rules applied to a signal series.
type TrackerConfig struct {
	Symbol        string
	StartingCash  float64
	Commission    commission_fee.CommissionFee
	SlippagePct   float64
	StopLossPct   float64
	TakeProfitPct float64
	EndOfData     types.EndOfDataPolicy
	Positions     types.PositionPolicy
}

// TrackerResult is the outcome of one pass over a series.
type TrackerResult struct {
	StartingCash float64
	EndingCash   float64
	TotalFees    float64
	Trades       []types.TradeRecord
	// Equity is the account value at each bar close, before the final
	// forced close.
	Equity []float64
}

// Validate checks the config before a run.
func (c TrackerConfig) Validate() error {
	if c.StartingCash <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "starting cash must be positive, got %f", c.StartingCash)
	}

	if c.SlippagePct < 0 || c.StopLossPct < 0 || c.TakeProfitPct < 0 {
		return errors.New(errors.ErrCodeInvalidParameter, "slippage, stop loss and take profit must not be negative")
	}

	if !c.Positions.Valid() {
		return errors.Newf(errors.ErrCodeUnsupportedPositionPolicy, "unsupported position policy %q", c.Positions)
	}

	if !c.EndOfData.Valid() {
		return errors.Newf(errors.ErrCodeUnsupportedEndOfData, "unsupported end of data policy %q", c.EndOfData)
	}

	return nil
}

// RunTracker walks bars once, applying exits before entries on every bar,
// and force-closes any position left open after the last bar.
//
// With an open position the checks run in this order: low at or below the
// stop loss, high at or above the take profit, then a SELL signal. A bar
// that closes a position never opens a new one. A BUY on a bar closing at
// zero, or one whose entry fee would use up the cash, is skipped.
func RunTracker(bars []types.Bar, signals []types.Signal, cfg TrackerConfig) (TrackerResult, error) {
	if len(bars) != len(signals) {
		return TrackerResult{}, errors.Newf(errors.ErrCodeSignalLengthMismatch, "got %d signals for %d bars", len(signals), len(bars))
	}

	if err := cfg.Validate(); err != nil {
		return TrackerResult{}, err
	}

	commission := cfg.Commission
	if commission == nil {
		commission = commission_fee.NewZeroCommissionFee()
	}

	ledger := NewLedger(cfg.Symbol, cfg.StartingCash)
	equity := make([]float64, len(bars))

	for i, bar := range bars {
		if ledger.Position().IsSome() {
			position := ledger.Position().Unwrap()

			switch {
			case bar.Low <= position.StopLossPrice:
				exitPrice := position.StopLossPrice
				ledger.Exit(bar.Time, exitPrice, commission.Calculate(position.Shares, exitPrice), types.ExitReasonStopLoss)
			case bar.High >= position.TakeProfitPrice:
				exitPrice := position.TakeProfitPrice
				ledger.Exit(bar.Time, exitPrice, commission.Calculate(position.Shares, exitPrice), types.ExitReasonTakeProfit)
			case signals[i] == types.SignalSell:
				exitPrice := bar.Close * (1 - cfg.SlippagePct)
				ledger.Exit(bar.Time, exitPrice, commission.Calculate(position.Shares, exitPrice), types.ExitReasonOppositeSignal)
			}
		} else if signals[i].IsEntry() && bar.Close > 0 {
			entryPrice := bar.Close * (1 + cfg.SlippagePct)
			fee := commission.Calculate(ledger.Cash()/entryPrice, entryPrice)
			ledger.Enter(bar.Time, entryPrice, fee, cfg.StopLossPct, cfg.TakeProfitPct)
		}

		equity[i] = ledger.AccountValue(bar.Close)
	}

	if len(bars) > 0 && ledger.Position().IsSome() {
		last := bars[len(bars)-1]
		position := ledger.Position().Unwrap()

		exitPrice, fee := last.Close, 0.0
		if cfg.EndOfData == types.EndOfDataWithCosts {
			exitPrice = last.Close * (1 - cfg.SlippagePct)
			fee = commission.Calculate(position.Shares, exitPrice)
		}

		ledger.Exit(last.Time, exitPrice, fee, types.ExitReasonEndOfData)
	}

	return TrackerResult{
		StartingCash: cfg.StartingCash,
		EndingCash:   ledger.Cash(),
		TotalFees:    ledger.Fees(),
		Trades:       ledger.Trades(),
		Equity:       equity,
	}, nil
}
