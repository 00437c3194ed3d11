package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	MySQL     MySQLConfig     `mapstructure:"mysql"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Mongo     MongoConfig     `mapstructure:"mongo"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Usage     UsageConfig     `mapstructure:"usage"`
	Report    ReportConfig    `mapstructure:"report"`
	Mail      MailConfig      `mapstructure:"mail"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Environment string `mapstructure:"environment"`
	Port        string `mapstructure:"port"`
	LoginURL    string `mapstructure:"login_url"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type AuthConfig struct {
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

type UsageConfig struct {
	BufferSize   int           `mapstructure:"buffer_size"`
	Workers      int           `mapstructure:"workers"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type ReportConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type MailConfig struct {
	ServerToken  string `mapstructure:"server_token"`
	AccountToken string `mapstructure:"account_token"`
	SenderEmail  string `mapstructure:"sender_email"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `mapstructure:"requests_per_second"`
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.SetEnvPrefix("TOGGLE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}
