package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all backtest configuration.
type Config struct {
	Data struct {
		Provider  string   `yaml:"provider" default:"csv" validate:"oneof=csv yahoo synthetic"`
		Path      string   `yaml:"path" default:"data/panel.csv"`
		Tickers   []string `yaml:"tickers"`
		Start     string   `yaml:"start" validate:"omitempty,datetime=2006-01-02"`
		End       string   `yaml:"end" validate:"omitempty,datetime=2006-01-02"`
		Synthetic struct {
			Symbols int   `yaml:"symbols" default:"50" validate:"gte=10"`
			Seed    int64 `yaml:"seed" default:"7"`
		} `yaml:"synthetic"`
	} `yaml:"data"`
	Label struct {
		DelayDays    int     `yaml:"delay_days" default:"1" validate:"gte=0"`
		HorizonDays  int     `yaml:"horizon_days" default:"5" validate:"gte=1"`
		WinsorizePct float64 `yaml:"winsorize_pct" validate:"gte=0,lt=0.5"`
	} `yaml:"label"`
	Factors struct {
		Enabled      []string `yaml:"enabled" validate:"required,min=1,unique"`
		WinsorizePct float64  `yaml:"winsorize_pct" default:"0.01" validate:"gte=0,lt=0.5"`
	} `yaml:"factors"`
	Transforms struct {
		TimeSeries struct {
			EWMAlpha float64 `yaml:"ewm_alpha" validate:"gte=0,lte=1"`
		} `yaml:"time_series"`
		CrossSection string `yaml:"cross_section" default:"zscore" validate:"oneof=zscore rank"`
	} `yaml:"transforms"`
	Validation struct {
		TrainYears  int `yaml:"train_years" default:"3" validate:"gte=1"`
		TestMonths  int `yaml:"test_months" default:"1" validate:"gte=1"`
		EmbargoDays int `yaml:"embargo_days" default:"5" validate:"gte=1"`
		MinSplits   int `yaml:"min_splits" default:"6" validate:"gte=1"`
	} `yaml:"validation"`
	Combination struct {
		Method string `yaml:"method" default:"online" validate:"oneof=equal ic_weighted online"`
		Online struct {
			L1Budget     float64 `yaml:"l1_budget" default:"1" validate:"gt=0"`
			Eta          float64 `yaml:"eta" default:"0.1" validate:"gte=0"`
			Tau          float64 `yaml:"tau" default:"0.1" validate:"gte=0,lte=1"`
			WarmupSplits int     `yaml:"warmup_splits" default:"3" validate:"gte=0"`
			ResumeFrom   string  `yaml:"resume_from"`
		} `yaml:"online"`
	} `yaml:"combination"`
	Portfolio struct {
		LongQuantile  float64 `yaml:"long_quantile" default:"0.1" validate:"gt=0,lt=1"`
		ShortQuantile float64 `yaml:"short_quantile" default:"0.1" validate:"gt=0,lt=1"`
		GrossExposure float64 `yaml:"gross_exposure" default:"1" validate:"gt=0"`
		MaxAbsWeight  float64 `yaml:"max_abs_weight" default:"0.05" validate:"gt=0,lte=1"`
		MinNames      int     `yaml:"min_names" default:"10" validate:"gte=2"`
	} `yaml:"portfolio"`
	Costs struct {
		BpsList       []float64 `yaml:"bps_list" default:"[0,5,10,20]" validate:"required,min=1,dive,gte=0"`
		TurnoverBasis string    `yaml:"turnover_basis" default:"sub" validate:"oneof=sub effective"`
	} `yaml:"costs"`
	Reporting struct {
		OutputDir  string `yaml:"output_dir" default:"runs"`
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"reporting"`
	Metrics struct {
		Textfile string `yaml:"textfile"`
	} `yaml:"metrics"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron string `yaml:"cron" default:"0 30 18 * * 1-5"`
	} `yaml:"schedule"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"console" validate:"oneof=console json"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

var validate = validator.New()

// Load fills defaults, overlays the YAML file, then applies environment variable overrides.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	// Defaults first so explicit zeros in the file (e.g. delay_days: 0) survive.
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Environment variable overrides
	if v := os.Getenv("FACTORBENCH_OUTPUT_DIR"); v != "" {
		cfg.Reporting.OutputDir = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Reporting.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("FACTORBENCH_CRON"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("FACTORBENCH_TICKERS"); v != "" {
		cfg.Data.Tickers = strings.Split(v, ",")
	}

	return cfg, nil
}

// Validate checks field constraints and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s fails %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Portfolio.LongQuantile+c.Portfolio.ShortQuantile > 1 {
		return fmt.Errorf("portfolio.long_quantile + portfolio.short_quantile must not exceed 1")
	}
	if c.Data.Provider == "csv" && c.Data.Path == "" {
		return fmt.Errorf("data.path is required for the csv provider")
	}
	if c.Data.Provider == "yahoo" && len(c.Data.Tickers) == 0 {
		return fmt.Errorf("data.tickers is required for the yahoo provider")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}

// TelegramEnabled reports whether run summaries should be sent.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Redacted returns the configuration as a YAML-keyed map with secrets masked, ready to
// be written next to run artifacts.
func (c *Config) Redacted() map[string]any {
	cp := *c
	if cp.Telegram.BotToken != "" {
		cp.Telegram.BotToken = "***"
	}
	if cp.Proxy != "" {
		cp.Proxy = "***"
	}
	out := map[string]any{}
	data, err := yaml.Marshal(&cp)
	if err != nil {
		return out
	}
	_ = yaml.Unmarshal(data, &out)
	return out
}
