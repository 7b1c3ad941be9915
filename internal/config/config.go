package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	Telegram struct {
		Token       string
		AdminChatID int64 `mapstructure:"admin_chat_id"`
		TimeoutSec  int   `mapstructure:"timeout_sec"`
	} `mapstructure:"telegram"`

	HTTP struct {
		Addr       string
		CORSOrigin string `mapstructure:"cors_origin"`
	} `mapstructure:"http"`

	Postgres struct {
		DSN string
	} `mapstructure:"postgres"`

	Metrics struct {
		Enabled bool
	} `mapstructure:"metrics"`
}

// LoadEnvFile подгружает .env; уже заданные переменные окружения не перетираются.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := gotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	// APP_POSTGRES_DSN переопределяет postgres.dsn и т.д.
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("app.env", "prod")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.cors_origin", "*")
	v.SetDefault("postgres.dsn", "")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.admin_chat_id", 0)
	v.SetDefault("telegram.timeout_sec", 30)

	var c Config
	if err := v.ReadInConfig(); err != nil {
		return c, err
	}
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if c.Postgres.DSN == "" {
		return c, errors.New("config: postgres.dsn is required")
	}
	return c, nil
}
