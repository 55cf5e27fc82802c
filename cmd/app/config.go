package main

import (
	"fmt"
	"strings"
	"time"

	"lifequest_bot/internal/bot"
	"lifequest_bot/internal/cache"
	"lifequest_bot/internal/middleware"
	"lifequest_bot/internal/repository"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	LogLevel    string `mapstructure:"logLevel"`
	LogEncoding string `mapstructure:"logEncoding"`

	Server    ServerConfig               `mapstructure:"server"`
	Database  DatabaseConfig             `mapstructure:"database"`
	Redis     cache.Config               `mapstructure:"redis"`
	Telegram  bot.Config                 `mapstructure:"telegram"`
	Game      GameConfig                 `mapstructure:"game"`
	Catalog   CatalogConfig              `mapstructure:"catalog"`
	RateLimit middleware.RateLimitConfig `mapstructure:"rateLimit"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	repository.Config `mapstructure:",squash"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type GameConfig struct {
	StartingBalance int           `mapstructure:"startingBalance"`
	BoxCosts        map[int]int   `mapstructure:"boxCosts"`
	ChoiceTTL       time.Duration `mapstructure:"choiceTTL"`
	ChoiceSize      int           `mapstructure:"choiceSize"`
	MiniEventChance float64       `mapstructure:"miniEventChance"`
	Timezone        string        `mapstructure:"timezone"`
	ApartmentLevels []int         `mapstructure:"apartmentLevels"`
	HistoryLimit    int           `mapstructure:"historyLimit"`
}

type CatalogConfig struct {
	Path           string `mapstructure:"path"`
	ReloadSchedule string `mapstructure:"reloadSchedule"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logLevel", "info")
	v.SetDefault("logEncoding", "json")

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")

	v.SetDefault("database.driver", repository.DriverSQLite)
	v.SetDefault("database.path", "data/lifequest.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.timeout", 5*time.Second)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.mode", bot.ModePolling)
	v.SetDefault("telegram.webhookURL", "")
	v.SetDefault("telegram.partnerID", 0)
	v.SetDefault("telegram.debug", false)

	v.SetDefault("game.startingBalance", 0)
	v.SetDefault("game.choiceTTL", 72*time.Hour)
	v.SetDefault("game.choiceSize", 3)
	v.SetDefault("game.miniEventChance", 0.25)
	v.SetDefault("game.timezone", "UTC")
	v.SetDefault("game.apartmentLevels", []int{5, 6})
	v.SetDefault("game.historyLimit", 20)

	v.SetDefault("catalog.path", "")
	v.SetDefault("catalog.reloadSchedule", "")

	v.SetDefault("rateLimit.perSecond", 3)
	v.SetDefault("rateLimit.burst", 6)
	v.SetDefault("rateLimit.idleTTL", 10*time.Minute)
}

// LoadConfig reads config.yaml from the working directory. Every key can be
// overridden by APP_<SECTION>_<KEY>; a missing file leaves the defaults.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.AddConfigPath(configPath)
	v.SetConfigType(configFormat)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Location() (*time.Location, error) {
	if c.Game.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Game.Timezone)
}
