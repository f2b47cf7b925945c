// Package live runs the opening range breakout agent against intraday
// candles, paper trading one instrument.
package live

import (
	"context"
	"sync"
	"time"

	"github.com/polygon-io/client-go/rest/models"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/internal/notify"
	"github.com/rxtech-lab/argo-intraday/internal/session"
	"github.com/rxtech-lab/argo-intraday/internal/status"
	"github.com/rxtech-lab/argo-intraday/internal/strategy"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"github.com/rxtech-lab/argo-intraday/pkg/marketdata"
)

// CandleSource returns today's candles, oldest first. Every
// provider.Provider is one.
type CandleSource interface {
	Intraday(ctx context.Context, ticker string, multiplier int, timespan models.Timespan) ([]types.Bar, error)
}

// OnCycleCallback is called after every evaluated candle.
type OnCycleCallback func(c session.Context, eval session.Evaluation)

// OnErrorCallback is called when a cycle fails. The agent keeps running.
type OnErrorCallback func(err error)

// Callbacks are optional hooks into the agent loop. Nil fields are skipped.
type Callbacks struct {
	OnCycle *OnCycleCallback
	OnError *OnErrorCallback
}

type Agent struct {
	config     Config
	rules      session.Config
	multiplier int
	timespan   models.Timespan

	source   CandleSource
	sink     status.Sink
	notifier notify.Notifier
	store    *session.Store
	logger   *logger.Logger
	now      func() time.Time
	callback Callbacks

	mu    sync.RWMutex
	state session.Context
}

type Option func(*Agent)

// WithStatusSink sets where a status record goes after every cycle.
func WithStatusSink(sink status.Sink) Option {
	return func(a *Agent) {
		a.sink = sink
	}
}

// WithNotifier sets who receives trade alerts and the end of day report.
func WithNotifier(n notify.Notifier) Option {
	return func(a *Agent) {
		a.notifier = n
	}
}

// WithStore persists the day context after every change.
func WithStore(store *session.Store) Option {
	return func(a *Agent) {
		a.store = store
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(a *Agent) {
		a.logger = l
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) {
		a.now = now
	}
}

func WithCallbacks(c Callbacks) Option {
	return func(a *Agent) {
		a.callback = c
	}
}

// NewAgent validates config and builds an agent reading from source.
func NewAgent(config Config, source CandleSource, opts ...Option) (*Agent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	interval, err := marketdata.ParseTimespan(config.Interval)
	if err != nil {
		return nil, err
	}

	a := &Agent{
		config:     config,
		rules:      config.SessionConfig(),
		multiplier: interval.Multiplier(),
		timespan:   interval.Timespan(),
		source:     source,
		sink:       status.Sinks{},
		notifier:   notify.Multi{},
		logger:     logger.NewNopLogger(),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(a)
	}

	a.state = session.New(a.rules.Session.DayOf(a.now()))

	return a, nil
}

// Restore loads the persisted context, if any. A context from another day
// is replaced on the next cycle.
func (a *Agent) Restore() error {
	if a.store == nil {
		return nil
	}

	c, ok, err := a.store.Load()
	if err != nil {
		return err
	}

	if !ok {
		return nil
	}

	a.mu.Lock()
	a.state = c
	a.mu.Unlock()

	a.logger.Info("Restored session context",
		zap.String("day", c.Day),
		zap.Bool("trade_taken_today", c.TradeTakenToday),
		zap.Bool("position_open", c.Position != nil),
	)

	return nil
}

// Context returns the current day context.
func (a *Agent) Context() session.Context {
	a.mu.RLock()
	defer a.mu.RUnlock()

	return a.state
}

// Run restores the persisted context and runs a cycle every poll interval
// until ctx is done. Cycle failures are logged and never stop the loop.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.Restore(); err != nil {
		a.logger.Warn("Ignoring persisted session context", zap.Error(err))
	}

	a.logger.Info("Live ORB agent started",
		zap.String("symbol", a.config.Symbol),
		zap.String("instrument_key", a.config.InstrumentKey),
		zap.String("session", a.rules.Session.String()),
		zap.Duration("poll_interval", a.config.PollInterval),
	)

	ticker := time.NewTicker(a.config.PollInterval)
	defer ticker.Stop()

	for {
		if err := a.Tick(ctx); err != nil {
			a.logger.Error("Agent cycle failed", zap.Error(err))

			if a.callback.OnError != nil {
				(*a.callback.OnError)(err)
			}
		}

		select {
		case <-ctx.Done():
			a.logger.Info("Live ORB agent stopped")

			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one cycle at the current time: inside market hours the latest
// candle is evaluated, after the close the end of day report is sent once.
func (a *Agent) Tick(ctx context.Context) error {
	now := a.now()
	schedule := a.rules.Session

	a.rollOver(now, schedule)

	open, closeAt := schedule.OpenOn(now), schedule.CloseOn(now)

	switch {
	case !now.Before(open) && now.Before(closeAt):
		return a.evaluate(ctx, now)
	case now.After(closeAt) && !a.Context().EODReportSent:
		return a.report(ctx)
	default:
		return nil
	}
}

func (a *Agent) rollOver(now time.Time, schedule strategy.Session) {
	current := a.Context()

	next, rolled := current.RollOver(now, schedule)
	if !rolled {
		return
	}

	if current.Position != nil {
		a.logger.Warn("Dropping position left open from previous day",
			zap.String("day", current.Day),
			zap.Float64("entry_price", current.Position.EntryPrice),
		)
	}

	a.logger.Info("New day detected, agent state has been reset", zap.String("day", next.Day))
	a.commit(next)
}

func (a *Agent) evaluate(ctx context.Context, now time.Time) error {
	bars, err := a.source.Intraday(ctx, a.config.InstrumentKey, a.multiplier, a.timespan)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeMarketDataFetchFailed, err, "failed to fetch intraday candles for %s", a.config.InstrumentKey)
	}

	if len(bars) == 0 {
		return errors.Newf(errors.ErrCodeNoDataFound, "no intraday candles for %s yet", a.config.InstrumentKey)
	}

	latest := bars[len(bars)-1]

	next, eval := a.Context().Evaluate(latest, now, a.rules)

	var errs error

	if eval.Exit.IsSome() {
		trade := eval.Exit.Unwrap()

		a.logger.Info("Exit triggered",
			zap.String("reason", string(trade.ExitReason)),
			zap.Float64("exit_price", trade.ExitPrice),
			zap.Float64("pnl", trade.Profit),
		)

		errs = multierr.Append(errs, a.notifier.Notify(ctx, notify.TradeAlert(trade)))
	}

	if eval.Entry.IsSome() {
		position := eval.Entry.Unwrap()

		a.logger.Info("Entered position",
			zap.Float64("entry_price", position.EntryPrice),
			zap.Float64("shares", position.Shares),
			zap.Float64("stop_loss_price", position.StopLossPrice),
			zap.Float64("take_profit_price", position.TakeProfitPrice),
		)
	}

	if eval.ShortIgnored {
		a.logger.Info("SELL signal detected but the agent trades long only, holding")
	}

	record := status.FromContext(a.config.Symbol, next, now, a.rules.Session.Location)

	errs = multierr.Append(errs, a.commit(next))
	errs = multierr.Append(errs, a.sink.Write(record))

	a.logger.Info("Status updated",
		zap.String("signal", string(eval.Signal)),
		zap.Float64("close", latest.Close),
		zap.Float64("or_high", record.OpeningRangeHigh),
		zap.Float64("or_low", record.OpeningRangeLow),
	)

	if a.callback.OnCycle != nil {
		(*a.callback.OnCycle)(next, eval)
	}

	return errs
}

func (a *Agent) report(ctx context.Context) error {
	current := a.Context()

	if err := a.notifier.Notify(ctx, notify.EODReport(a.config.Symbol, current)); err != nil {
		return errors.Wrap(errors.ErrCodeNotifyFailed, "failed to send EOD report", err)
	}

	a.logger.Info("EOD report sent", zap.String("day", current.Day))

	return a.commit(current.MarkReported())
}

// commit replaces the state and persists it.
func (a *Agent) commit(next session.Context) error {
	a.mu.Lock()
	a.state = next
	a.mu.Unlock()

	if a.store == nil {
		return nil
	}

	if err := a.store.Save(next); err != nil {
		a.logger.Warn("Failed to persist session context", zap.Error(err))

		return err
	}

	return nil
}
