package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type HTTPServer struct {
	Port string `mapstructure:"port"`
}

type DbServer struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Pass     string `mapstructure:"pass"`
	Name     string `mapstructure:"name"`
	MaxConns int32  `mapstructure:"max_conns"`
}

func (config *DbServer) GetConnectionStr() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=disable",
		config.User, config.Pass, config.Host, config.Port, config.Name,
	)
}

type RateProviderAPI struct {
	BaseURL        string `mapstructure:"base_url"`
	APIKey         string `mapstructure:"api_key"`
	Name           string `mapstructure:"name"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

type Rates struct {
	BaseCurrencies         []string `mapstructure:"base_currencies"`
	RefreshIntervalSeconds int      `mapstructure:"refresh_interval_seconds"`
	StaleAfterSeconds      int      `mapstructure:"stale_after_seconds"`
	HistoryDepth           int      `mapstructure:"history_depth"`
	CacheMaxItems          int64    `mapstructure:"cache_max_items"`
}

type Pricing struct {
	CanonicalCurrency        string  `mapstructure:"canonical_currency"`
	RecomputeIntervalSeconds int     `mapstructure:"recompute_interval_seconds"`
	Workers                  int     `mapstructure:"workers"`
	EntityCeilingSeconds     int     `mapstructure:"entity_ceiling_seconds"`
	DemandDivisor            float64 `mapstructure:"demand_divisor"`
}

type Audit struct {
	LowThreshold     float64 `mapstructure:"low_threshold"`
	HighThreshold    float64 `mapstructure:"high_threshold"`
	ExtremeThreshold float64 `mapstructure:"extreme_threshold"`
	Epsilon          float64 `mapstructure:"epsilon"`
}

type Logging struct {
	Level string `mapstructure:"level"`
}

type AppConfig struct {
	HTTPServer      HTTPServer      `mapstructure:"http_server"`
	DbServer        DbServer        `mapstructure:"db_server"`
	RateProviderAPI RateProviderAPI `mapstructure:"rate_provider"`
	Rates           Rates           `mapstructure:"rates"`
	Pricing         Pricing         `mapstructure:"pricing"`
	Audit           Audit           `mapstructure:"audit"`
	Logging         Logging         `mapstructure:"logging"`
}

func Init() (*AppConfig, error) {
	var cfg AppConfig

	if err := godotenv.Load(); err != nil {
		logrus.Debugf("No .env file loaded: %v", err)
	}

	viper.SetConfigFile("config.yaml")
	viper.SetConfigType("yaml")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	viper.SetDefault("db_server.max_conns", 10)
	viper.SetDefault("rate_provider.timeout_seconds", 10)
	viper.SetDefault("rate_provider.name", "exchangerate-api")
	viper.SetDefault("rates.refresh_interval_seconds", 300)
	viper.SetDefault("rates.stale_after_seconds", 900)
	viper.SetDefault("rates.history_depth", 5)
	viper.SetDefault("rates.cache_max_items", 10_000)
	viper.SetDefault("pricing.canonical_currency", "USD")
	viper.SetDefault("pricing.recompute_interval_seconds", 600)
	viper.SetDefault("pricing.workers", 5)
	viper.SetDefault("pricing.entity_ceiling_seconds", 30)
	viper.SetDefault("pricing.demand_divisor", 100)
	viper.SetDefault("audit.low_threshold", 1)
	viper.SetDefault("audit.high_threshold", 10_000)
	viper.SetDefault("audit.extreme_threshold", 100_000)
	viper.SetDefault("audit.epsilon", 0.000001)
	viper.SetDefault("logging.level", "info")

	// db server env vars
	_ = viper.BindEnv("db_server.host", "DB_HOST")
	_ = viper.BindEnv("db_server.port", "DB_PORT")
	_ = viper.BindEnv("db_server.user", "DB_USER")
	_ = viper.BindEnv("db_server.pass", "DB_PASS")
	_ = viper.BindEnv("db_server.name", "DB_NAME")
	_ = viper.BindEnv("db_server.max_conns", "DB_MAX_CONNS")

	// rate provider env vars
	_ = viper.BindEnv("rate_provider.base_url", "RATE_PROVIDER_BASE_URL")
	_ = viper.BindEnv("rate_provider.api_key", "RATE_PROVIDER_API_KEY")
	_ = viper.BindEnv("rate_provider.timeout_seconds", "RATE_PROVIDER_TIMEOUT_SECONDS")

	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	return &cfg, nil
}
