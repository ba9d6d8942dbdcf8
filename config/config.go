package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/wfunc/dungeonserver/game"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Database DatabaseConfig `mapstructure:"database"`
	Game     GameConfig     `mapstructure:"game"`
}

type ServerConfig struct {
	HTTPAddress string `mapstructure:"http_address"`
	RPCAddress  string `mapstructure:"rpc_address"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	Driver   string         `mapstructure:"driver"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// DSN is the lib/pq style connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		p.Host, p.Port, p.User, p.Password, p.DBName)
}

type GameConfig struct {
	MaxPlayers      int           `mapstructure:"max_players"`
	MaxDays         int           `mapstructure:"max_days"`
	StarterDeckSize int           `mapstructure:"starter_deck_size"`
	LobbyWaitTicks  int           `mapstructure:"lobby_wait_ticks"`
	SettlementTicks int           `mapstructure:"settlement_ticks"`
	RoomLinger      time.Duration `mapstructure:"room_linger"`
	Seed            int64         `mapstructure:"seed"`
}

// Rules converts the game section to engine settings.
func (g GameConfig) Rules() game.Config {
	cfg := game.DefaultConfig()
	cfg.MaxPlayers = g.MaxPlayers
	cfg.MaxDays = g.MaxDays
	cfg.StarterDeckSize = g.StarterDeckSize
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.http_address", ":8080")
	v.SetDefault("server.rpc_address", ":9090")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.driver", "memory")
	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "postgres")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.dbname", "dungeon")
	v.SetDefault("game.max_players", 4)
	v.SetDefault("game.max_days", 3)
	v.SetDefault("game.starter_deck_size", 10)
	v.SetDefault("game.lobby_wait_ticks", 100)
	v.SetDefault("game.settlement_ticks", 50)
	v.SetDefault("game.room_linger", "30s")
	v.SetDefault("game.seed", 0)
}

// LoadConfig reads config.yaml from path. A missing file is fine; defaults
// and environment variables (SERVER_HTTP_ADDRESS, GAME_MAX_DAYS, ...) apply.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Game.MaxPlayers < 1:
		return fmt.Errorf("game.max_players must be positive, got %d", c.Game.MaxPlayers)
	case c.Game.MaxDays < 1:
		return fmt.Errorf("game.max_days must be positive, got %d", c.Game.MaxDays)
	case c.Game.StarterDeckSize < 1:
		return fmt.Errorf("game.starter_deck_size must be positive, got %d", c.Game.StarterDeckSize)
	}
	return nil
}
