package engine

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-intraday/internal/backtest/engine/engine_v1/commission_fee"
	"github.com/rxtech-lab/argo-intraday/internal/strategy"
	"github.com/rxtech-lab/argo-intraday/internal/types"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SessionConfig describes the exchange hours used for day grouping.
type SessionConfig struct {
	Timezone string `yaml:"timezone" json:"timezone" validate:"required" jsonschema:"title=Timezone,default=Asia/Kolkata"`
	Open     string `yaml:"open" json:"open" validate:"required" jsonschema:"title=Session Open,description=HH:MM local time,default=09:15"`
	Close    string `yaml:"close" json:"close" validate:"required" jsonschema:"title=Session Close,description=HH:MM local time,default=15:30"`
}

type BacktestEngineV1Config struct {
	InitialCapital  float64                    `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting cash for each run,minimum=0"`
	Broker          commission_fee.Broker      `yaml:"broker" json:"broker" validate:"oneof=flat per_share zero" jsonschema:"title=Broker,description=The broker to use for commission calculations"`
	BrokerageFee    float64                    `yaml:"brokerage_fee" json:"brokerage_fee" validate:"gte=0" jsonschema:"title=Brokerage Fee,description=Flat fee charged on every leg"`
	PerShareRate    float64                    `yaml:"per_share_rate" json:"per_share_rate" validate:"gte=0" jsonschema:"title=Per Share Rate"`
	PerShareMinimum float64                    `yaml:"per_share_minimum" json:"per_share_minimum" validate:"gte=0" jsonschema:"title=Per Share Minimum"`
	SlippagePct     float64                    `yaml:"slippage_pct" json:"slippage_pct" validate:"gte=0,lt=1" jsonschema:"title=Slippage,description=Fraction added to entries and taken from signal exits"`
	StopLossPct     float64                    `yaml:"stop_loss_pct" json:"stop_loss_pct" validate:"gt=0,lt=1" jsonschema:"title=Stop Loss,description=Fraction below entry"`
	TakeProfitPct   float64                    `yaml:"take_profit_pct" json:"take_profit_pct" validate:"gt=0" jsonschema:"title=Take Profit,description=Fraction above entry"`
	EndOfData       types.EndOfDataPolicy      `yaml:"end_of_data_policy" json:"end_of_data_policy" validate:"oneof=raw_close with_costs" jsonschema:"title=End Of Data Policy,enum=raw_close,enum=with_costs"`
	PositionPolicy  types.PositionPolicy       `yaml:"position_policy" json:"position_policy" validate:"oneof=long_only" jsonschema:"title=Position Policy,enum=long_only"`
	StartTime       optional.Option[time.Time] `yaml:"-" json:"start_time" jsonschema:"title=Start Time,description=Optional start time for the backtest period"`
	EndTime         optional.Option[time.Time] `yaml:"-" json:"end_time" jsonschema:"title=End Time,description=Optional end time for the backtest period"`
	Session         SessionConfig              `yaml:"session" json:"session"`
	Strategy        strategy.Config            `yaml:"strategy" json:"strategy"`
}

// UnmarshalYAML implements custom unmarshaling for BacktestEngineV1Config.
// Fields left out keep the values from EmptyConfig.
func (c *BacktestEngineV1Config) UnmarshalYAML(value *yaml.Node) error {
	type plain BacktestEngineV1Config

	type Config struct {
		plain     `yaml:",inline"`
		StartTime *time.Time `yaml:"start_time"`
		EndTime   *time.Time `yaml:"end_time"`
	}

	config := Config{plain: plain(EmptyConfig())}
	if err := value.Decode(&config); err != nil {
		return err
	}

	*c = BacktestEngineV1Config(config.plain)
	c.StartTime = optional.None[time.Time]()
	c.EndTime = optional.None[time.Time]()

	if config.StartTime != nil {
		c.StartTime = optional.Some(*config.StartTime)
	}

	if config.EndTime != nil {
		c.EndTime = optional.Some(*config.EndTime)
	}

	return nil
}

// Validate checks the config with struct tags and cross-field rules.
func (c BacktestEngineV1Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestConfigError, "invalid backtest config", err)
	}

	if c.StartTime.IsSome() && c.EndTime.IsSome() && !c.EndTime.Unwrap().After(c.StartTime.Unwrap()) {
		return errors.New(errors.ErrCodeBacktestConfigError, "end_time must be after start_time")
	}

	if _, err := c.SessionSchedule(); err != nil {
		return err
	}

	return nil
}

// SessionSchedule parses the session block.
func (c BacktestEngineV1Config) SessionSchedule() (strategy.Session, error) {
	return strategy.NewSession(c.Session.Timezone, c.Session.Open, c.Session.Close)
}

// CommissionFee returns the fee handler for the configured broker.
func (c BacktestEngineV1Config) CommissionFee() (commission_fee.CommissionFee, error) {
	return commission_fee.GetCommissionFeeHandler(c.Broker, commission_fee.Schedule{
		FlatFee:         c.BrokerageFee,
		PerShareRate:    c.PerShareRate,
		PerShareMinimum: c.PerShareMinimum,
	})
}

// TrackerConfig derives the money management rules for one instrument.
func (c BacktestEngineV1Config) TrackerConfig(symbol string) (TrackerConfig, error) {
	commission, err := c.CommissionFee()
	if err != nil {
		return TrackerConfig{}, err
	}

	return TrackerConfig{
		Symbol:        symbol,
		StartingCash:  c.InitialCapital,
		Commission:    commission,
		SlippagePct:   c.SlippagePct,
		StopLossPct:   c.StopLossPct,
		TakeProfitPct: c.TakeProfitPct,
		EndOfData:     c.EndOfData,
		Positions:     c.PositionPolicy,
	}, nil
}

// GenerateSchema generates a JSON schema for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}

			if strings.Contains(t.String(), "commission_fee.Broker") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: commission_fee.AllBrokers,
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)

	schema.Title = "backtest-engine-v1-config"
	schema.Description = "Configuration schema for BacktestEngineV1"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the BacktestEngineV1Config
func (c *BacktestEngineV1Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// EmptyConfig returns a BacktestEngineV1Config with default values
func EmptyConfig() BacktestEngineV1Config {
	return BacktestEngineV1Config{
		InitialCapital: 100000,
		Broker:         commission_fee.BrokerFlat,
		BrokerageFee:   20,
		SlippagePct:    0.0005,
		StopLossPct:    0.02,
		TakeProfitPct:  0.04,
		EndOfData:      types.EndOfDataRawClose,
		PositionPolicy: types.PositionPolicyLongOnly,
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
		Session: SessionConfig{
			Timezone: "Asia/Kolkata",
			Open:     "09:15",
			Close:    "15:30",
		},
		Strategy: strategy.DefaultConfig(),
	}
}

// TestConfig returns a config for a bounded period with the given broker.
func TestConfig(startTime time.Time, endTime time.Time, broker commission_fee.Broker) BacktestEngineV1Config {
	config := EmptyConfig()
	config.Broker = broker
	config.StartTime = optional.Some(startTime)
	config.EndTime = optional.Some(endTime)

	return config
}
