package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Environment string           `mapstructure:"environment"`
	HTTP        HTTPConfig       `mapstructure:"http"`
	Database    DatabaseConfig   `mapstructure:"database"`
	WhatsApp    WhatsAppConfig   `mapstructure:"whatsapp"`
	Perplexity  PerplexityConfig `mapstructure:"perplexity"`
	Bot         BotConfig        `mapstructure:"bot"`
}

type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	User        string `mapstructure:"user"`
	Password    string `mapstructure:"password"`
	DBName      string `mapstructure:"dbname"`
	SSLMode     string `mapstructure:"sslmode"`
	UseInMemory bool   `mapstructure:"use_in_memory"`
}

type WhatsAppConfig struct {
	APIURL      string `mapstructure:"api_url"`
	PhoneID     string `mapstructure:"phone_id"`
	Token       string `mapstructure:"token"`
	VerifyToken string `mapstructure:"verify_token"`
}

type PerplexityConfig struct {
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type BotConfig struct {
	// Minimum similarity a FAQ keyword must strictly exceed to count
	// as a match, 0-100.
	FuzzyThreshold int `mapstructure:"fuzzy_threshold"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		fmt.Sscanf(u.Port(), "%d", &port)
	}

	dbName := strings.TrimPrefix(u.Path, "/")

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   dbName,
		SSLMode:  "disable",
	}, nil
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set default values
	v.SetDefault("environment", "development")
	v.SetDefault("http.port", 5000)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)
	v.SetDefault("whatsapp.api_url", "https://graph.facebook.com/v18.0")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar")
	v.SetDefault("perplexity.max_tokens", 200)
	v.SetDefault("perplexity.temperature", 0.7)
	v.SetDefault("bot.fuzzy_threshold", 70)

	// Enable environment variable support
	v.AutomaticEnv()

	// Read the config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %v", err)
		}
		dbConfig.UseInMemory = config.Database.UseInMemory
		config.Database = dbConfig
	}

	// Get other environment variables
	if token := v.GetString("WHATSAPP_TOKEN"); token != "" {
		config.WhatsApp.Token = token
	}
	if phoneID := v.GetString("WHATSAPP_PHONE_ID"); phoneID != "" {
		config.WhatsApp.PhoneID = phoneID
	}
	if verifyToken := v.GetString("WHATSAPP_VERIFY_TOKEN"); verifyToken != "" {
		config.WhatsApp.VerifyToken = verifyToken
	}
	if apiKey := v.GetString("PERPLEXITY_API_KEY"); apiKey != "" {
		config.Perplexity.APIKey = apiKey
	}
	if port := v.GetInt("PORT"); port != 0 {
		config.HTTP.Port = port
	}

	return &config, nil
}
