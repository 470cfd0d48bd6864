package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"github.com/xaenox/anon-bot/internal/classifier"
	"github.com/xaenox/anon-bot/internal/models"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Slack      SlackConfig      `mapstructure:"slack"`
	Database   DatabaseConfig   `mapstructure:"database"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Pseudonym  PseudonymConfig  `mapstructure:"pseudonym"`
	Channels   ChannelsConfig   `mapstructure:"channels"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type SlackConfig struct {
	SigningSecret    string `mapstructure:"signing_secret"`
	BotToken         string `mapstructure:"bot_token"`
	VerifySignatures bool   `mapstructure:"verify_signatures"`
	// GoButton attaches a "Go" button to relayed messages.
	GoButton bool `mapstructure:"go_button"`
	// ClickAck is "replace" or "ephemeral".
	ClickAck string `mapstructure:"click_ack"`
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

type OpenAIConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

type ModerationConfig struct {
	OnError   string        `mapstructure:"on_error"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Blocklist []string      `mapstructure:"blocklist"`
}

type PseudonymConfig struct {
	ValidityWindow time.Duration `mapstructure:"validity_window"`
	Pool           []string      `mapstructure:"pool"`
}

type ChannelsConfig struct {
	DefaultMode string `mapstructure:"default_mode"`
}

type LogConfig struct {
	Level       string `mapstructure:"level"`
	Development bool   `mapstructure:"development"`
}

func parseDatabaseURL(dbURL string) (DatabaseConfig, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return DatabaseConfig{}, err
	}

	password, _ := u.User.Password()
	port := 5432 // default PostgreSQL port
	if u.Port() != "" {
		port, err = strconv.Atoi(u.Port())
		if err != nil {
			return DatabaseConfig{}, fmt.Errorf("invalid port %q: %w", u.Port(), err)
		}
	}

	sslMode := u.Query().Get("sslmode")
	if sslMode == "" {
		sslMode = "disable"
	}

	return DatabaseConfig{
		Host:     u.Hostname(),
		Port:     port,
		User:     u.User.Username(),
		Password: password,
		DBName:   strings.TrimPrefix(u.Path, "/"),
		SSLMode:  sslMode,
	}, nil
}

// LoadConfig reads .env, then the optional YAML file at path, then the
// environment. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	// Set default values
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("slack.verify_signatures", true)
	v.SetDefault("slack.go_button", false)
	v.SetDefault("slack.click_ack", "replace")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.use_in_memory", false)
	v.SetDefault("openai.model", "gpt-4o-mini")
	v.SetDefault("openai.max_tokens", 1)
	v.SetDefault("openai.temperature", 0.0)
	v.SetDefault("moderation.on_error", string(classifier.FailClosed))
	v.SetDefault("moderation.timeout", 10*time.Second)
	v.SetDefault("pseudonym.validity_window", time.Hour)
	v.SetDefault("channels.default_mode", string(models.ModeDisabled))
	v.SetDefault("log.level", "info")

	// Enable environment variable support
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Check for DATABASE_URL environment variable
	if dbURL := v.GetString("DATABASE_URL"); dbURL != "" {
		dbConfig, err := parseDatabaseURL(dbURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse DATABASE_URL: %w", err)
		}
		dbConfig.UseInMemory = config.Database.UseInMemory
		config.Database = dbConfig
	}

	// Get other environment variables
	if secret := v.GetString("SLACK_SIGNING_SECRET"); secret != "" {
		config.Slack.SigningSecret = secret
	}

	if token := v.GetString("SLACK_BOT_TOKEN"); token != "" {
		config.Slack.BotToken = token
	}

	if apiKey := v.GetString("OPENAI_API_KEY"); apiKey != "" {
		config.OpenAI.APIKey = apiKey
	}

	if port := v.GetString("PORT"); port != "" {
		config.Server.Addr = ":" + port
	}

	return &config, nil
}

// Validate checks the settings needed to serve requests.
func (c *Config) Validate() error {
	var errs []error

	if c.Slack.VerifySignatures && c.Slack.SigningSecret == "" {
		errs = append(errs, errors.New("slack.signing_secret is required when signature verification is enabled"))
	}
	if c.Slack.BotToken == "" {
		errs = append(errs, errors.New("slack.bot_token is required"))
	}
	if c.Slack.ClickAck != "replace" && c.Slack.ClickAck != "ephemeral" {
		errs = append(errs, fmt.Errorf("slack.click_ack must be replace or ephemeral, got %q", c.Slack.ClickAck))
	}
	if _, err := models.ParseChannelMode(c.Channels.DefaultMode); err != nil {
		errs = append(errs, fmt.Errorf("channels.default_mode: %w", err))
	}
	if _, err := classifier.ParseFailurePolicy(c.Moderation.OnError); err != nil {
		errs = append(errs, fmt.Errorf("moderation.on_error: %w", err))
	}
	if c.Pseudonym.ValidityWindow <= 0 {
		errs = append(errs, errors.New("pseudonym.validity_window must be positive"))
	}
	if !c.Database.UseInMemory && c.Database.DBName == "" {
		errs = append(errs, errors.New("database.dbname is required unless database.use_in_memory is set"))
	}

	return errors.Join(errs...)
}
