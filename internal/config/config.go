package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		PublicURL          string   `mapstructure:"public_url"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`

	SMS struct {
		APIKey  string `mapstructure:"api_key"`
		BaseURL string `mapstructure:"base_url"`
		UseMock bool   `mapstructure:"use_mock"`
	} `mapstructure:"sms"`

	WhatsApp struct {
		APIKey        string `mapstructure:"api_key"`
		PhoneNumberID string `mapstructure:"phone_number_id"`
		UseMock       bool   `mapstructure:"use_mock"`
	} `mapstructure:"whatsapp"`

	Inventory struct {
		BaseURL string `mapstructure:"base_url"`
		APIKey  string `mapstructure:"api_key"`
		UseMock bool   `mapstructure:"use_mock"`
	} `mapstructure:"inventory"`

	Razorpay struct {
		KeyID         string `mapstructure:"key_id"`
		KeySecret     string `mapstructure:"key_secret"`
		WebhookSecret string `mapstructure:"webhook_secret"`
	} `mapstructure:"razorpay"`

	Monitoring struct {
		Enabled bool `mapstructure:"enabled"`
		Port    int  `mapstructure:"port"`
	} `mapstructure:"monitoring"`
}

func Load() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")

	// Auto bind environment variables
	v.AutomaticEnv()

	// Set sensible defaults (binary works without config file)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.public_url", "http://localhost:8080")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "frontdesk_db")
	v.SetDefault("sms.use_mock", true)
	v.SetDefault("whatsapp.use_mock", true)
	v.SetDefault("inventory.use_mock", true)
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.port", 9090)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}

	// Override database settings from DB_* environment variables
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	// Gateway credentials from environment
	if key := os.Getenv("SMS_API_KEY"); key != "" {
		cfg.SMS.APIKey = key
		cfg.SMS.UseMock = false
	}
	if url := os.Getenv("SMS_BASE_URL"); url != "" {
		cfg.SMS.BaseURL = url
	}
	if key := os.Getenv("WHATSAPP_API_KEY"); key != "" {
		cfg.WhatsApp.APIKey = key
		cfg.WhatsApp.UseMock = false
	}
	if id := os.Getenv("WHATSAPP_PHONE_NUMBER_ID"); id != "" {
		cfg.WhatsApp.PhoneNumberID = id
	}

	// Inventory provider from environment
	if url := os.Getenv("INVENTORY_BASE_URL"); url != "" {
		cfg.Inventory.BaseURL = url
		cfg.Inventory.UseMock = false
	}
	if key := os.Getenv("INVENTORY_API_KEY"); key != "" {
		cfg.Inventory.APIKey = key
	}

	// Razorpay config from environment
	if keyID := os.Getenv("RAZORPAY_KEY_ID"); keyID != "" {
		cfg.Razorpay.KeyID = keyID
	}
	if keySecret := os.Getenv("RAZORPAY_KEY_SECRET"); keySecret != "" {
		cfg.Razorpay.KeySecret = keySecret
	}
	if webhookSecret := os.Getenv("RAZORPAY_WEBHOOK_SECRET"); webhookSecret != "" {
		cfg.Razorpay.WebhookSecret = webhookSecret
	}

	return &cfg
}
