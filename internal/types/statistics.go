package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type TradeHoldingTime struct {
	// Minimum holding time of a trade in seconds
	Min int `yaml:"min"`
	// Maximum holding time of a trade in seconds
	Max int `yaml:"max"`
	// Average holding time of a trade in seconds
	Avg int `yaml:"avg"`
}

type TradePnl struct {
	// Total profit. Sum of every trade's profit.
	TotalPnL float64 `yaml:"total_pnl"`
	// Maximum loss. Smallest single-trade profit.
	MaximumLoss float64 `yaml:"maximum_loss"`
	// Maximum profit. Largest single-trade profit.
	MaximumProfit float64 `yaml:"maximum_profit"`
}

type TradeResult struct {
	// Count of all trades.
	NumberOfTrades int `yaml:"number_of_trades"`
	// Count of winning trades that has positive profit.
	NumberOfWinningTrades int `yaml:"number_of_winning_trades"`
	// Count of losing trades that has zero or negative profit.
	NumberOfLosingTrades int `yaml:"number_of_losing_trades"`
	// Win rate in percent.
	WinRate float64 `yaml:"win_rate"`
	// Maximum drawdown of the account value curve, as a fraction of the peak.
	MaxDrawdown float64 `yaml:"max_drawdown"`
}

type TradeStats struct {
	// ID is the unique identifier for this backtest run.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when this backtest run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Symbol of the instrument.
	Symbol string `yaml:"symbol"`
	// Strategy is the strategy kind that produced the signals.
	Strategy string `yaml:"strategy" json:"strategy"`
	// Starting capital.
	StartingValue float64 `yaml:"starting_value" json:"starting_value"`
	// Ending capital.
	EndingValue float64 `yaml:"ending_value" json:"ending_value"`
	// Return in percent of the starting capital.
	ReturnPct float64 `yaml:"return_pct" json:"return_pct"`
	// Result of all trades.
	TradeResult TradeResult `yaml:"trade_result"`
	// Total fees.
	TotalFees float64 `yaml:"total_fees"`
	// Holding time of all trades.
	TradeHoldingTime TradeHoldingTime `yaml:"trade_holding_time"`
	// PnL of all trades.
	TradePnl TradePnl `yaml:"trade_pnl"`
	// Count of trades per exit reason.
	ExitReasons map[ExitReason]int `yaml:"exit_reasons" json:"exit_reasons"`
	// Buy and hold PnL over the same bars with the same capital.
	BuyAndHoldPnl float64 `yaml:"buy_and_hold_pnl"`
	// TradesFilePath is the path to the trades parquet file.
	TradesFilePath string `yaml:"trades_file_path" json:"trades_file_path"`
	// DataPath is the path to the market data file used for this backtest.
	DataPath string `yaml:"data_path" json:"data_path"`
}

func WriteTradeStats(path string, stats []TradeStats) error {
	data, err := yaml.Marshal(stats)
	if err != nil {
		return fmt.Errorf("failed to marshal trade stats to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write trade stats to file: %w", err)
	}

	return nil
}

// ReadTradeStats loads stats written by WriteTradeStats.
func ReadTradeStats(path string) ([]TradeStats, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trade stats file: %w", err)
	}

	var stats []TradeStats
	if err := yaml.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("failed to unmarshal trade stats: %w", err)
	}

	return stats, nil
}
