package live

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-intraday/internal/notify"
	"github.com/rxtech-lab/argo-intraday/internal/session"
	"github.com/rxtech-lab/argo-intraday/internal/status"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/mocks"
	codes "github.com/rxtech-lab/argo-intraday/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type AgentTestSuite struct {
	suite.Suite
	ctrl     *gomock.Controller
	source   *mocks.MockProvider
	notifier *mocks.MockNotifier
	store    *session.Store
	status   *status.FileWriter
	config   Config
	clock    time.Time
	loc      *time.Location
}

func TestAgentSuite(t *testing.T) {
	suite.Run(t, new(AgentTestSuite))
}

func (suite *AgentTestSuite) SetupTest() {
	suite.ctrl = gomock.NewController(suite.T())
	suite.source = mocks.NewMockProvider(suite.ctrl)
	suite.notifier = mocks.NewMockNotifier(suite.ctrl)

	dir := suite.T().TempDir()
	suite.store = session.NewStore(filepath.Join(dir, "session.json"))
	suite.status = status.NewFileWriter(filepath.Join(dir, "status.json"))

	suite.config = DefaultConfig()
	suite.config.StatusFile = suite.status.Path()
	suite.config.SessionFile = suite.store.Path()

	schedule, err := suite.config.Schedule()
	suite.Require().NoError(err)
	suite.loc = schedule.Location
}

func (suite *AgentTestSuite) at(day, hour, minute int) time.Time {
	return time.Date(2024, 1, day, hour, minute, 0, 0, suite.loc)
}

func (suite *AgentTestSuite) bar(hour, minute int, high, low float64) types.Bar {
	return types.Bar{
		Time:   suite.at(2, hour, minute),
		Symbol: suite.config.InstrumentKey,
		Open:   (high + low) / 2,
		High:   high,
		Low:    low,
		Close:  (high + low) / 2,
		Volume: 1000,
	}
}

func (suite *AgentTestSuite) newAgent(opts ...Option) *Agent {
	opts = append([]Option{
		WithClock(func() time.Time { return suite.clock }),
		WithStatusSink(suite.status),
		WithNotifier(suite.notifier),
		WithStore(suite.store),
	}, opts...)

	agent, err := NewAgent(suite.config, suite.source, opts...)
	suite.Require().NoError(err)

	return agent
}

// expectCandles makes the next Intraday call return the bars up to latest.
func (suite *AgentTestSuite) expectCandles(bars ...types.Bar) {
	suite.source.EXPECT().
		Intraday(gomock.Any(), "NSE_EQ|INE040A01034", 1, models.Minute).
		Return(bars, nil).
		Times(1)
}

// tradeToStopLoss drives a full day: range 99..102, BUY at 102, stop loss.
func (suite *AgentTestSuite) tradeToStopLoss(agent *Agent) {
	ctx := context.Background()

	suite.clock = suite.at(2, 9, 16)
	suite.expectCandles(suite.bar(9, 15, 101, 99))
	suite.Require().NoError(agent.Tick(ctx))

	suite.clock = suite.at(2, 9, 31)
	suite.expectCandles(suite.bar(9, 15, 101, 99), suite.bar(9, 30, 102, 99.5))
	suite.Require().NoError(agent.Tick(ctx))

	suite.clock = suite.at(2, 9, 46)
	suite.expectCandles(suite.bar(9, 45, 102.5, 101))
	suite.Require().NoError(agent.Tick(ctx))

	suite.clock = suite.at(2, 10, 1)
	suite.expectCandles(suite.bar(10, 0, 101, 99.9))
	suite.notifier.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg notify.Message) error {
			suite.Equal(notify.KindTradeAlert, msg.Kind)
			suite.Equal("HDFCBANK", msg.Symbol)
			suite.Equal(types.ExitReasonStopLoss, msg.Reason)
			suite.InDelta(-2000, msg.PnL, 1e-6)

			return nil
		}).
		Times(1)
	suite.Require().NoError(agent.Tick(ctx))
}

func (suite *AgentTestSuite) TestNewAgentRejectsInvalidConfig() {
	suite.config.Interval = "7m"

	_, err := NewAgent(suite.config, suite.source)
	suite.True(codes.HasCode(err, codes.ErrCodeInvalidTimespan))
}

func (suite *AgentTestSuite) TestBeforeOpenDoesNothing() {
	suite.clock = suite.at(2, 9, 0)
	agent := suite.newAgent()

	suite.NoError(agent.Tick(context.Background()))
	suite.NoFileExists(suite.status.Path())
	suite.Equal("2024-01-02", agent.Context().Day)
}

func (suite *AgentTestSuite) TestFullDay() {
	suite.clock = suite.at(2, 9, 0)
	agent := suite.newAgent()

	suite.tradeToStopLoss(agent)

	record, err := status.ReadFile(suite.status.Path())
	suite.Require().NoError(err)
	suite.Equal("2024-01-02 10:01:00", record.Timestamp)
	suite.Equal(types.SignalHold, record.CurrentSignal)
	suite.Equal(102.0, record.OpeningRangeHigh)
	suite.Equal(99.0, record.OpeningRangeLow)
	suite.True(record.TradeTakenToday)
	suite.False(record.PositionOpen)
	suite.Equal([]string{
		"BUY Entry at 102.00 for 980.39 shares.",
		"STOP_LOSS Exit at 99.96. P&L: -2000.00",
	}, record.TradeJournal)

	// after the close the report goes out exactly once
	suite.clock = suite.at(2, 15, 31)
	suite.notifier.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg notify.Message) error {
			suite.Equal(notify.KindReport, msg.Kind)
			suite.Equal("ORB Agent EOD Report - 2024-01-02", msg.Subject)
			suite.Contains(msg.Body, "STOP_LOSS Exit at 99.96")

			return nil
		}).
		Times(1)
	suite.NoError(agent.Tick(context.Background()))

	suite.clock = suite.at(2, 15, 45)
	suite.NoError(agent.Tick(context.Background()))
	suite.True(agent.Context().EODReportSent)

	stored, ok, err := suite.store.Load()
	suite.Require().NoError(err)
	suite.True(ok)
	suite.True(stored.EODReportSent)
	suite.Len(stored.Trades, 1)
}

func (suite *AgentTestSuite) TestEntryIsPersisted() {
	suite.clock = suite.at(2, 9, 16)
	agent := suite.newAgent()

	suite.expectCandles(suite.bar(9, 15, 101, 99))
	suite.Require().NoError(agent.Tick(context.Background()))

	suite.clock = suite.at(2, 9, 46)
	suite.expectCandles(suite.bar(9, 45, 101.5, 100))
	suite.Require().NoError(agent.Tick(context.Background()))

	stored, ok, err := suite.store.Load()
	suite.Require().NoError(err)
	suite.True(ok)
	suite.Require().NotNil(stored.Position)
	suite.Equal(101.0, stored.Position.EntryPrice)

	record, err := status.ReadFile(suite.status.Path())
	suite.Require().NoError(err)
	suite.Equal(types.SignalBuy, record.CurrentSignal)
	suite.True(record.PositionOpen)
	suite.InDelta(98.98, record.StopLossPrice, 1e-9)
	suite.InDelta(105.04, record.TakeProfitPrice, 1e-9)
}

func (suite *AgentTestSuite) TestRestoreKeepsTradeTakenAfterRestart() {
	suite.clock = suite.at(2, 9, 0)
	first := suite.newAgent()
	suite.tradeToStopLoss(first)

	// a restarted agent must not trade again the same day
	suite.clock = suite.at(2, 11, 0)
	second := suite.newAgent()
	suite.Require().NoError(second.Restore())
	suite.True(second.Context().TradeTakenToday)

	suite.expectCandles(suite.bar(11, 0, 110, 104))
	suite.NoError(second.Tick(context.Background()))
	suite.Nil(second.Context().Position)
	suite.Len(second.Context().Trades, 1)
}

func (suite *AgentTestSuite) TestNewDayResetsState() {
	suite.clock = suite.at(2, 9, 0)
	agent := suite.newAgent()
	suite.tradeToStopLoss(agent)

	suite.clock = suite.at(3, 9, 10)
	suite.NoError(agent.Tick(context.Background()))

	c := agent.Context()
	suite.Equal("2024-01-03", c.Day)
	suite.False(c.TradeTakenToday)
	suite.Empty(c.Journal)
	suite.False(c.EODReportSent)
}

func (suite *AgentTestSuite) TestFetchErrorLeavesStateUntouched() {
	suite.clock = suite.at(2, 10, 0)
	agent := suite.newAgent()

	suite.source.EXPECT().
		Intraday(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("connection reset")).
		Times(1)

	err := agent.Tick(context.Background())
	suite.True(codes.HasCode(err, codes.ErrCodeMarketDataFetchFailed))
	suite.Equal(session.New("2024-01-02"), agent.Context())
	suite.NoFileExists(suite.status.Path())
}

func (suite *AgentTestSuite) TestNoCandlesYet() {
	suite.clock = suite.at(2, 9, 15)
	agent := suite.newAgent()

	suite.expectCandles()

	err := agent.Tick(context.Background())
	suite.True(codes.HasCode(err, codes.ErrCodeNoDataFound))
}

func (suite *AgentTestSuite) TestAlertFailureStillRecordsExit() {
	suite.clock = suite.at(2, 9, 16)
	agent := suite.newAgent()

	suite.expectCandles(suite.bar(9, 15, 101, 99))
	suite.Require().NoError(agent.Tick(context.Background()))

	suite.clock = suite.at(2, 9, 46)
	suite.expectCandles(suite.bar(9, 45, 101.5, 100))
	suite.Require().NoError(agent.Tick(context.Background()))

	suite.clock = suite.at(2, 10, 30)
	suite.expectCandles(suite.bar(10, 30, 106, 104))
	suite.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("webhook down")).Times(1)

	err := agent.Tick(context.Background())
	suite.Error(err)
	suite.Contains(err.Error(), "webhook down")

	c := agent.Context()
	suite.Nil(c.Position)
	suite.Require().Len(c.Trades, 1)
	suite.Equal(types.ExitReasonTakeProfit, c.Trades[0].ExitReason)
	suite.FileExists(suite.status.Path())
}

func (suite *AgentTestSuite) TestReportRetriedAfterFailure() {
	suite.clock = suite.at(2, 16, 0)
	agent := suite.newAgent()

	gomock.InOrder(
		suite.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(errors.New("smtp down")),
		suite.notifier.EXPECT().Notify(gomock.Any(), gomock.Any()).Return(nil),
	)

	err := agent.Tick(context.Background())
	suite.True(codes.HasCode(err, codes.ErrCodeNotifyFailed))
	suite.False(agent.Context().EODReportSent)

	suite.NoError(agent.Tick(context.Background()))
	suite.True(agent.Context().EODReportSent)
}

func (suite *AgentTestSuite) TestRunStopsOnCancel() {
	suite.config.PollInterval = 5 * time.Millisecond
	suite.clock = suite.at(2, 16, 0)

	var failures atomic.Int32

	onError := OnErrorCallback(func(error) { failures.Add(1) })
	agent := suite.newAgent(WithCallbacks(Callbacks{OnError: &onError}))

	ctx, cancel := context.WithCancel(context.Background())

	suite.notifier.EXPECT().
		Notify(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, notify.Message) error {
			if failures.Load() >= 2 {
				cancel()
				return nil
			}

			return errors.New("smtp down")
		}).
		MinTimes(3)

	done := make(chan error, 1)

	go func() {
		done <- agent.Run(ctx)
	}()

	select {
	case err := <-done:
		suite.NoError(err)
	case <-time.After(5 * time.Second):
		suite.Fail("agent did not stop")
	}

	suite.Equal(int32(2), failures.Load())
	suite.True(agent.Context().EODReportSent)
}

func (suite *AgentTestSuite) TestOnCycleCallback() {
	var signals []types.Signal

	onCycle := OnCycleCallback(func(_ session.Context, eval session.Evaluation) {
		signals = append(signals, eval.Signal)
	})

	suite.clock = suite.at(2, 9, 16)
	agent := suite.newAgent(WithCallbacks(Callbacks{OnCycle: &onCycle}))

	suite.expectCandles(suite.bar(9, 15, 101, 99))
	suite.Require().NoError(agent.Tick(context.Background()))

	suite.clock = suite.at(2, 9, 46)
	suite.expectCandles(suite.bar(9, 45, 100, 98))
	suite.Require().NoError(agent.Tick(context.Background()))

	suite.Equal([]types.Signal{types.SignalDefiningRange, types.SignalSell}, signals)
	suite.True(agent.Context().TradeTakenToday)
	suite.Nil(agent.Context().Position)
}
