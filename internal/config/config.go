package config

import (
	"fmt"

	"github.com/spf13/viper"
)

const DefaultSystemPrompt = "You are an expert programming tutor. Provide clear, concise, and helpful answers to programming questions. Include code examples when appropriate. Format your responses using markdown."

const redactedValue = "********"

type Config struct {
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	OpenAI    OpenAIConfig    `mapstructure:"openai" yaml:"openai"`
	Tutor     TutorConfig     `mapstructure:"tutor" yaml:"tutor"`
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates"`
	Database  DatabaseConfig  `mapstructure:"database" yaml:"database"`
	Client    ClientConfig    `mapstructure:"client" yaml:"client"`
}

type ServerConfig struct {
	Port            int        `mapstructure:"port" yaml:"port" validate:"gt=0,lte=65535"`
	CORS            CORSConfig `mapstructure:"cors" yaml:"cors"`
	MaxRequestBytes int64      `mapstructure:"max_request_bytes" yaml:"max_request_bytes" validate:"gt=0"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

type OpenAIConfig struct {
	APIKey         string `mapstructure:"api_key" yaml:"api_key"`
	BaseURL        string `mapstructure:"base_url" yaml:"base_url" validate:"required,url"`
	Model          string `mapstructure:"model" yaml:"model" validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" validate:"gte=0"`
}

// TutorConfig holds the fixed prompt and sampling parameters sent with every question.
type TutorConfig struct {
	SystemPrompt string  `mapstructure:"system_prompt" yaml:"system_prompt" validate:"required"`
	Temperature  float32 `mapstructure:"temperature" yaml:"temperature" validate:"gte=0,lte=2"`
	MaxTokens    int     `mapstructure:"max_tokens" yaml:"max_tokens" validate:"gt=0"`
}

type TemplatesConfig struct {
	PageTemplate string `mapstructure:"page_template" yaml:"page_template" validate:"omitempty,file"`
}

type DatabaseConfig struct {
	Enabled         bool              `mapstructure:"enabled" yaml:"enabled"`
	Driver          string            `mapstructure:"driver" yaml:"driver" validate:"oneof=mysql sqlite3"`
	Host            string            `mapstructure:"host" yaml:"host"`
	Port            int               `mapstructure:"port" yaml:"port"`
	Database        string            `mapstructure:"database" yaml:"database"`
	Username        string            `mapstructure:"username" yaml:"username"`
	Password        string            `mapstructure:"password" yaml:"password"`
	Path            string            `mapstructure:"path" yaml:"path"`
	TLS             bool              `mapstructure:"tls" yaml:"tls"`
	Params          map[string]string `mapstructure:"params" yaml:"params,omitempty"`
	MaxOpenConns    int               `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns    int               `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
	ConnMaxLifetime int               `mapstructure:"conn_max_lifetime_seconds" yaml:"conn_max_lifetime_seconds"`
	ConnectAttempts uint              `mapstructure:"connect_attempts" yaml:"connect_attempts" validate:"gt=0"`
}

// ClientConfig is used by the terminal client when it goes through a running server.
// TimeoutSeconds should exceed the server's openai.timeout_seconds so the server can answer first.
type ClientConfig struct {
	ServerURL      string `mapstructure:"server_url" yaml:"server_url" validate:"omitempty,url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" yaml:"timeout_seconds" validate:"gt=0"`
}

// Redacted returns a copy of the config with secrets masked, suitable for printing.
func (cfg Config) Redacted() Config {
	redacted := cfg
	if redacted.OpenAI.APIKey != "" {
		redacted.OpenAI.APIKey = redactedValue
	}
	if redacted.Database.Password != "" {
		redacted.Database.Password = redactedValue
	}
	return redacted
}

type ConfigLoader struct {
	viper     *viper.Viper
	validator *Validator
}

func NewConfigLoader(configFile string) (*ConfigLoader, error) {
	validate, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create new validator: %w", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/codetutor")
	}

	return &ConfigLoader{
		viper:     v,
		validator: validate,
	}, nil
}

// Viper exposes the underlying viper instance so command flags can be bound to config keys.
func (loader *ConfigLoader) Viper() *viper.Viper {
	return loader.viper
}

func (loader *ConfigLoader) Load() (*Config, error) {
	v := loader.viper

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.max_request_bytes", 1<<20)
	v.SetDefault("openai.base_url", "https://api.deepseek.com")
	v.SetDefault("openai.model", "deepseek-chat")
	v.SetDefault("openai.timeout_seconds", 60)
	v.SetDefault("tutor.system_prompt", DefaultSystemPrompt)
	v.SetDefault("tutor.temperature", 0.7)
	v.SetDefault("tutor.max_tokens", 1000)
	// Template is optional - if not specified, the embedded page template is used
	v.SetDefault("templates.page_template", "")
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "codetutor")
	v.SetDefault("database.username", "user")
	v.SetDefault("database.path", "codetutor.db")
	v.SetDefault("database.connect_attempts", 5)
	v.SetDefault("client.server_url", "http://localhost:8080")
	v.SetDefault("client.timeout_seconds", 90)

	// Bind OpenAI config to environment variables only (not from config file)
	if err := v.BindEnv("openai.api_key", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_API_KEY environment variable: %w", err)
	}
	if err := v.BindEnv("openai.base_url", "OPENAI_BASE_URL"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_BASE_URL environment variable: %w", err)
	}
	if err := v.BindEnv("openai.model", "OPENAI_MODEL"); err != nil {
		return nil, fmt.Errorf("failed to bind OPENAI_MODEL environment variable: %w", err)
	}

	// Bind database password to environment variable
	if err := v.BindEnv("database.password", "DB_PASSWORD"); err != nil {
		return nil, fmt.Errorf("failed to bind DB_PASSWORD environment variable: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("configuration file found but could not be read: %w. Please check the file format and permissions", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration format: %w", err)
	}

	if err := loader.validator.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
