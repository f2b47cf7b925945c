// Package notify delivers trade alerts and end of day reports.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rxtech-lab/argo-intraday/internal/session"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"go.uber.org/multierr"
)

// Kind tells notifiers which messages they handle.
type Kind string

const (
	// KindTradeAlert is a real time alert for a closed trade.
	KindTradeAlert Kind = "trade_alert"
	// KindReport is a long form report such as the end of day summary.
	KindReport Kind = "report"
)

// Message is one notification. Trade alerts carry Symbol, PnL and Reason;
// reports carry Subject and Body.
type Message struct {
	Kind    Kind
	Subject string
	Body    string
	Symbol  string
	PnL     float64
	Reason  types.ExitReason
}

// Notifier delivers messages. Notifiers ignore kinds they do not handle and
// return nil when they are not configured.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// Multi delivers to every notifier and combines their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var err error

	for _, n := range m {
		err = multierr.Append(err, n.Notify(ctx, msg))
	}

	return err
}

// TradeAlert builds the alert for a closed trade.
func TradeAlert(trade types.TradeRecord) Message {
	return Message{
		Kind:    KindTradeAlert,
		Subject: fmt.Sprintf("%s %s", trade.Symbol, trade.ExitReason),
		Body:    fmt.Sprintf("%s exit at %.2f. P&L: %.2f", trade.ExitReason, trade.ExitPrice, trade.Profit),
		Symbol:  trade.Symbol,
		PnL:     trade.Profit,
		Reason:  trade.ExitReason,
	}
}

// Outcome renders a P&L the way alerts show it, e.g. "PROFIT of Rs. 1,234.50".
func Outcome(pnl float64) string {
	outcome := "LOSS"
	if pnl > 0 {
		outcome = "PROFIT"
	}

	return fmt.Sprintf("%s of Rs. %s", outcome, formatAmount(pnl))
}

// EODReport builds the end of day summary of c.
func EODReport(symbol string, c session.Context) Message {
	var b strings.Builder

	fmt.Fprintf(&b, "ORB Agent End-of-Day Report for %s\n\n", c.Day)
	fmt.Fprintf(&b, "Instrument: %s\n\n", symbol)
	b.WriteString("Final Status:\n")
	fmt.Fprintf(&b, "- Opening Range High: %.2f\n", c.OpeningRange.High)
	fmt.Fprintf(&b, "- Opening Range Low: %.2f\n", c.OpeningRange.Low)
	fmt.Fprintf(&b, "- Trade Taken Today: %t\n", c.TradeTakenToday)
	fmt.Fprintf(&b, "- Position Open: %t\n", c.Position != nil)
	fmt.Fprintf(&b, "- Realized P&L: %s\n\n", formatAmount(c.RealizedPnL()))
	b.WriteString("Trade Journal:\n")

	if len(c.Journal) == 0 {
		b.WriteString("No trades today\n")
	} else {
		for _, line := range c.Journal {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return Message{
		Kind:    KindReport,
		Subject: fmt.Sprintf("ORB Agent EOD Report - %s", c.Day),
		Body:    b.String(),
		Symbol:  symbol,
		PnL:     c.RealizedPnL(),
	}
}

// formatAmount renders v with two decimals and thousands separators.
func formatAmount(v float64) string {
	s := fmt.Sprintf("%.2f", v)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder

	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}

		b.WriteRune(r)
	}

	return sign + b.String() + "." + frac
}
