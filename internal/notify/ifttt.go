package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"go.uber.org/zap"
)

const defaultIFTTTBaseURL = "https://maker.ifttt.com"

// IFTTTConfig selects the webhook trade alerts are posted to.
type IFTTTConfig struct {
	Key     string `yaml:"-" json:"-"`
	Event   string `yaml:"event" json:"event"`
	BaseURL string `yaml:"base_url" json:"base_url"`
}

// IFTTTNotifier posts trade alerts to an IFTTT webhook as value1 (symbol),
// value2 (outcome) and value3 (exit reason). Reports are ignored.
type IFTTTNotifier struct {
	config IFTTTConfig
	client *resty.Client
	logger *logger.Logger
}

func NewIFTTTNotifier(config IFTTTConfig, l *logger.Logger) *IFTTTNotifier {
	if l == nil {
		l = logger.NewNopLogger()
	}

	if config.BaseURL == "" {
		config.BaseURL = defaultIFTTTBaseURL
	}

	if config.Event == "" {
		config.Event = string(KindTradeAlert)
	}

	client := resty.New().
		SetBaseURL(config.BaseURL).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json")

	return &IFTTTNotifier{config: config, client: client, logger: l}
}

type iftttPayload struct {
	Value1 string `json:"value1"`
	Value2 string `json:"value2"`
	Value3 string `json:"value3"`
}

func (n *IFTTTNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.Kind != KindTradeAlert {
		return nil
	}

	if n.config.Key == "" {
		n.logger.Warn("IFTTT key not configured, skipping mobile alert", zap.String("symbol", msg.Symbol))

		return nil
	}

	resp, err := n.client.R().
		SetContext(ctx).
		SetPathParams(map[string]string{"event": n.config.Event, "key": n.config.Key}).
		SetBody(iftttPayload{
			Value1: msg.Symbol,
			Value2: Outcome(msg.PnL),
			Value3: string(msg.Reason),
		}).
		Post("/trigger/{event}/with/key/{key}")
	if err != nil {
		return errors.Wrap(errors.ErrCodeNotifyFailed, "failed to post IFTTT webhook", err)
	}

	if resp.IsError() {
		return errors.Newf(errors.ErrCodeNotifyFailed, "IFTTT webhook returned %s", resp.Status())
	}

	n.logger.Info("Mobile alert sent", zap.String("symbol", msg.Symbol), zap.String("reason", string(msg.Reason)))

	return nil
}
