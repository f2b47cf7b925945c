package live

import (
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-intraday/internal/notify"
	"github.com/rxtech-lab/argo-intraday/internal/session"
	"github.com/rxtech-lab/argo-intraday/internal/strategy"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"github.com/rxtech-lab/argo-intraday/pkg/marketdata"
	"github.com/rxtech-lab/argo-intraday/pkg/marketdata/provider"
	"github.com/rxtech-lab/argo-intraday/pkg/utils"
	"gopkg.in/yaml.v3"
)

// Environment variables holding the agent secrets.
const (
	EnvUpstoxAccessToken = "UPSTOX_ACCESS_TOKEN"
	EnvPolygonAPIKey     = "POLYGON_API_KEY"
	EnvEmailSender       = "EMAIL_SENDER"
	EnvEmailPassword     = "EMAIL_PASSWORD"
	EnvEmailReceiver     = "EMAIL_RECEIVER"
	EnvIFTTTWebhookKey   = "IFTTT_WEBHOOK_KEY"
)

// SessionConfig describes the exchange hours the agent trades in.
type SessionConfig struct {
	Timezone string `yaml:"timezone" json:"timezone" validate:"required" jsonschema:"title=Timezone,default=Asia/Kolkata"`
	Open     string `yaml:"open" json:"open" validate:"required" jsonschema:"title=Session Open,description=HH:MM local time,default=09:15"`
	Close    string `yaml:"close" json:"close" validate:"required" jsonschema:"title=Session Close,description=HH:MM local time,default=15:30"`
}

// Config is the agent configuration file. Secrets are never read from it.
type Config struct {
	// Symbol is the display name used in journals, alerts and reports
	Symbol string `yaml:"symbol" json:"symbol" validate:"required" jsonschema:"title=Symbol,default=HDFCBANK"`
	// InstrumentKey is the ticker passed to the provider, e.g. NSE_EQ|INE040A01034
	InstrumentKey  string                `yaml:"instrument_key" json:"instrument_key" validate:"required" jsonschema:"title=Instrument Key"`
	Provider       provider.ProviderType `yaml:"provider" json:"provider" validate:"oneof=upstox polygon binance" jsonschema:"title=Provider,enum=upstox,enum=polygon,enum=binance"`
	Interval       string                `yaml:"interval" json:"interval" validate:"required" jsonschema:"title=Candle Interval,default=1m"`
	PollInterval   time.Duration         `yaml:"poll_interval" json:"poll_interval" validate:"gt=0" jsonschema:"title=Poll Interval,type=string,default=60s"`
	RangeMinutes   int                   `yaml:"range_minutes" json:"range_minutes" validate:"gt=0" jsonschema:"title=Opening Range Minutes,default=30"`
	Capital        float64               `yaml:"capital" json:"capital" validate:"gt=0" jsonschema:"title=Virtual Capital,default=100000"`
	StopLossPct    float64               `yaml:"stop_loss_pct" json:"stop_loss_pct" validate:"gt=0,lt=1" jsonschema:"title=Stop Loss,default=0.02"`
	TakeProfitPct  float64               `yaml:"take_profit_pct" json:"take_profit_pct" validate:"gt=0" jsonschema:"title=Take Profit,default=0.04"`
	PositionPolicy types.PositionPolicy  `yaml:"position_policy" json:"position_policy" validate:"oneof=long_only" jsonschema:"title=Position Policy,enum=long_only"`
	Session        SessionConfig         `yaml:"session" json:"session"`
	StatusFile     string                `yaml:"status_file" json:"status_file" validate:"required" jsonschema:"title=Status File,default=status.json"`
	SessionFile    string                `yaml:"session_file" json:"session_file" jsonschema:"title=Session File,description=Where the day context is persisted; empty disables persistence"`
	Email          notify.EmailConfig    `yaml:"email" json:"email"`
	IFTTT          notify.IFTTTConfig    `yaml:"ifttt" json:"ifttt"`

	// secrets, filled by ApplyEnv
	UpstoxAccessToken string `yaml:"-" json:"-"`
	PolygonAPIKey     string `yaml:"-" json:"-"`
}

// DefaultConfig is the HDFCBANK paper trading setup.
func DefaultConfig() Config {
	return Config{
		Symbol:         "HDFCBANK",
		InstrumentKey:  "NSE_EQ|INE040A01034",
		Provider:       provider.ProviderUpstox,
		Interval:       string(marketdata.TimespanOneMinute),
		PollInterval:   60 * time.Second,
		RangeMinutes:   30,
		Capital:        100000,
		StopLossPct:    0.02,
		TakeProfitPct:  0.04,
		PositionPolicy: types.PositionPolicyLongOnly,
		Session: SessionConfig{
			Timezone: "Asia/Kolkata",
			Open:     "09:15",
			Close:    "15:30",
		},
		StatusFile:  "status.json",
		SessionFile: "session.json",
		Email:       notify.DefaultEmailConfig("", "", ""),
		IFTTT:       notify.IFTTTConfig{Event: string(notify.KindTradeAlert)},
	}
}

// LoadConfig reads a YAML file over DefaultConfig. An empty path returns
// the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path == "" {
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read agent config %s", path)
	}

	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to parse agent config %s", path)
	}

	return config, nil
}

// ApplyEnv copies the secrets from getenv, typically os.Getenv after
// godotenv has loaded a .env file.
func (c *Config) ApplyEnv(getenv func(string) string) {
	c.UpstoxAccessToken = getenv(EnvUpstoxAccessToken)
	c.PolygonAPIKey = getenv(EnvPolygonAPIKey)
	c.Email.Password = getenv(EnvEmailPassword)
	c.IFTTT.Key = getenv(EnvIFTTTWebhookKey)

	if sender := getenv(EnvEmailSender); sender != "" {
		c.Email.Sender = sender
	}

	if receiver := getenv(EnvEmailReceiver); receiver != "" {
		c.Email.Receiver = receiver
	}
}

// Validate checks the struct rules and that the session and interval parse.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid agent config", err)
	}

	if _, err := c.Schedule(); err != nil {
		return err
	}

	if _, err := marketdata.ParseTimespan(c.Interval); err != nil {
		return err
	}

	return c.SessionConfig().Validate()
}

// Schedule parses the session block.
func (c Config) Schedule() (strategy.Session, error) {
	return strategy.NewSession(c.Session.Timezone, c.Session.Open, c.Session.Close)
}

// SessionConfig derives the rules the day context is evaluated with. An
// unparsable session falls back to NSE hours; Validate reports it.
func (c Config) SessionConfig() session.Config {
	schedule, err := c.Schedule()
	if err != nil {
		schedule = strategy.NSESession()
	}

	return session.Config{
		Symbol:        c.Symbol,
		Session:       schedule,
		RangeMinutes:  c.RangeMinutes,
		Capital:       c.Capital,
		StopLossPct:   c.StopLossPct,
		TakeProfitPct: c.TakeProfitPct,
		Positions:     c.PositionPolicy,
	}
}

// ProviderConfig carries the secrets to the market data provider.
func (c Config) ProviderConfig() provider.Config {
	return provider.Config{
		UpstoxAccessToken: c.UpstoxAccessToken,
		PolygonApiKey:     c.PolygonAPIKey,
	}
}

// GetConfigSchema returns the JSON schema of the agent config file.
func GetConfigSchema() (string, error) {
	return utils.ToJSONSchema(Config{}) //nolint:exhaustruct // Empty config for schema generation
}
