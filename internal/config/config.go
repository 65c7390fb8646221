package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration. Site branding fields are
// read once at startup and never mutated at runtime.
type Config struct {
	ServerAddr    string `mapstructure:"SERVER_ADDR"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	SiteTitle     string `mapstructure:"SITE_TITLE"`
	SiteHeader    string `mapstructure:"SITE_HEADER"`
}

var AppConfig *Config

// RememberMeDuration is how long a "remember me" session survives.
const RememberMeDuration = 14 * 24 * time.Hour

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.SetDefault("SERVER_ADDR", ":8080")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("SITE_TITLE", "Quantum Space War")
	viper.SetDefault("SITE_HEADER", "Quantum Space War Guide Center")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
