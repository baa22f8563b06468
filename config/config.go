package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string
	}
	Storage struct {
		Driver string // redis | postgres | memory
	}
	Database struct {
		DSN string
	}
	Redis struct {
		Addr     string
		Password string
		DB       int
	}
	Join struct {
		MaxAttempts     int           `mapstructure:"max_attempts"`
		Waitlist        bool          `mapstructure:"waitlist"`
		DealOnThreshold bool          `mapstructure:"deal_on_threshold"`
		WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	}
	Broadcast struct {
		Enabled         bool
		DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
	}
	Log struct {
		Level string
	}
}

var C Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("storage.driver", "redis")
	v.SetDefault("database.dsn", "")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("join.max_attempts", 5)
	v.SetDefault("join.waitlist", true)
	v.SetDefault("join.deal_on_threshold", true)
	v.SetDefault("join.write_timeout", 3*time.Second)
	v.SetDefault("broadcast.enabled", true)
	v.SetDefault("broadcast.delivery_timeout", 2*time.Second)
	v.SetDefault("log.level", "info")
}

// Load 读取配置文件，HOLDEM_ 前缀的环境变量覆盖文件值（如 HOLDEM_REDIS_ADDR）
func Load(path string) error {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetEnvPrefix("holdem")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return err
	}
	C = c
	return nil
}
