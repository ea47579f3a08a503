package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/invoiceforge/invoiceforge/internal/types"
)

type Configuration struct {
	Logging LoggingConfig `validate:"required"`
	Render  RenderConfig  `validate:"required"`
}

type LoggingConfig struct {
	Level types.LogLevel `validate:"required"`
}

// RenderConfig carries every layout constant of the PDF renderer. Units are
// millimeters unless stated otherwise.
type RenderConfig struct {
	// PageSize is a named paper size understood by gofpdf.
	PageSize string `mapstructure:"page_size" validate:"required,oneof=A3 A4 A5 Letter Legal"`
	// Margin is applied on all four page edges.
	Margin float64 `mapstructure:"margin" validate:"gt=0"`
	// RowHeight is the fixed height of one line item row.
	RowHeight float64 `mapstructure:"row_height" validate:"gt=0"`
	// LogoMaxWidth and LogoMaxHeight bound the box the logo is scaled into.
	LogoMaxWidth  float64 `mapstructure:"logo_max_width" validate:"gt=0"`
	LogoMaxHeight float64 `mapstructure:"logo_max_height" validate:"gt=0"`
	// CurrencySymbolDefault is applied to invoices that leave the symbol unset.
	CurrencySymbolDefault string `mapstructure:"currency_symbol_default"`
	// FontFamily is one of the gofpdf core fonts.
	FontFamily string `mapstructure:"font_family" validate:"required"`
	// Compress toggles PDF stream compression. Disabled in tests so content
	// can be asserted on directly.
	Compress bool `mapstructure:"compress"`
}

func NewConfig() (*Configuration, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/invoiceforge")

	v.SetEnvPrefix("INVOICEFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(
		".", "_",
		"-", "_",
	))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file if exists
	if err := v.ReadInConfig(); err != nil {
		if !errors.As(err, &viper.ConfigFileNotFoundError{}) {
			return nil, err
		}
	}

	var config Configuration
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", string(types.LogLevelInfo))
	v.SetDefault("render.page_size", "A4")
	v.SetDefault("render.margin", 20.0)
	v.SetDefault("render.row_height", 8.0)
	v.SetDefault("render.logo_max_width", 40.0)
	v.SetDefault("render.logo_max_height", 25.0)
	v.SetDefault("render.currency_symbol_default", types.DefaultCurrencySymbol)
	v.SetDefault("render.font_family", "Helvetica")
	v.SetDefault("render.compress", true)
}

func (c Configuration) Validate() error {
	if !c.Logging.Level.Validate() {
		return fmt.Errorf("unknown logging level %q", c.Logging.Level)
	}
	validate := validator.New()
	return validate.Struct(c)
}

// GetDefaultConfig returns a default configuration without touching the
// filesystem or environment. Used by tests and scripts.
func GetDefaultConfig() *Configuration {
	return &Configuration{
		Logging: LoggingConfig{Level: types.LogLevelDebug},
		Render: RenderConfig{
			PageSize:              "A4",
			Margin:                20,
			RowHeight:             8,
			LogoMaxWidth:          40,
			LogoMaxHeight:         25,
			CurrencySymbolDefault: types.DefaultCurrencySymbol,
			FontFamily:            "Helvetica",
			Compress:              true,
		},
	}
}
