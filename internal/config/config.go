package config

import (
	"strings"
	"time"

	"github.com/m2tx/chat_orchestrator/internal/agent"
	"github.com/m2tx/chat_orchestrator/internal/analyzer"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const AppName = "orchestrator"

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Model      ModelConfig      `mapstructure:"model"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Analyzer   AnalyzerConfig   `mapstructure:"analyzer"`
	Agent      agent.Config     `mapstructure:"agent"`
	Docs       DocsConfig       `mapstructure:"docs"`
	Mongo      MongoConfig      `mapstructure:"mongo"`

	// InMemoryTranscripts archives in process memory when MongoDB is not configured.
	InMemoryTranscripts bool `mapstructure:"in_memory_transcripts"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ModelConfig selects the Gemini models.
type ModelConfig struct {
	Name         string `mapstructure:"name"`
	SearchModel  string `mapstructure:"search_model"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
}

type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

type ModerationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Model   string `mapstructure:"model"`
}

// AnalyzerConfig selects the analysis backend. Empty models fall back to
// model.name for genai and to the backend default for openai.
type AnalyzerConfig struct {
	// Provider is "genai" or "openai".
	Provider        string `mapstructure:"provider"`
	Model           string `mapstructure:"model"`
	VisionModel     string `mapstructure:"vision_model"`
	analyzer.Config `mapstructure:",squash"`
}

type DocsConfig struct {
	Dir string `mapstructure:"dir"`
}

// MongoConfig enables the transcript archive when URI is set.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database"`
	Collection string `mapstructure:"collection"`
}

func (m MongoConfig) Enabled() bool {
	return m.URI != ""
}

// envBindings keeps the variable names the service has always read.
var envBindings = map[string]string{
	"model.name":             "MODEL",
	"model.gemini_api_key":   "GEMINI_API_KEY",
	"server.port":            "HTTP_PORT",
	"mongo.uri":              "MONGODB_URI",
	"mongo.database":         "MONGODB_DB",
	"openai.api_key":         "OPENAI_API_KEY",
	"openai.base_url":        "OPENAI_BASE_URL",
	"docs.dir":               "DOCS_DIR",
	"log.level":              "LOG_LEVEL",
	"log.format":             "LOG_FORMAT",
	"analyzer.provider":      "ANALYZER_PROVIDER",
	"server.request_timeout": "REQUEST_TIMEOUT",
}

// New returns a viper instance with defaults and environment bindings set.
// Flags can be bound to it before Load.
func New() *viper.Viper {
	v := viper.New()

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.request_timeout", 5*time.Minute)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("model.name", "gemini-2.5-flash")
	v.SetDefault("model.search_model", "gemini-2.5-flash")

	v.SetDefault("moderation.enabled", true)
	v.SetDefault("moderation.model", "omni-moderation-latest")

	defaults := analyzer.DefaultConfig()
	v.SetDefault("analyzer.provider", "genai")
	v.SetDefault("analyzer.model", "")
	v.SetDefault("analyzer.vision_model", "")
	v.SetDefault("analyzer.chunk_size", defaults.ChunkSize)
	v.SetDefault("analyzer.max_chunks", defaults.MaxChunks)
	v.SetDefault("analyzer.concurrency", defaults.Concurrency)

	agentDefaults := agent.DefaultConfig()
	v.SetDefault("agent.max_steps", agentDefaults.MaxSteps)
	v.SetDefault("agent.thinking_budget", agentDefaults.ThinkingBudget)

	v.SetDefault("docs.dir", "docs")

	v.SetDefault("mongo.uri", "")
	v.SetDefault("mongo.database", "chat_orchestrator")
	v.SetDefault("mongo.collection", "transcripts")
	v.SetDefault("in_memory_transcripts", false)

	v.SetEnvPrefix(strings.ToUpper(AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		// BindEnv only fails without a key.
		_ = v.BindEnv(key, env)
	}

	return v
}

// Load reads the optional config file at path (or config.yaml from the
// working directory) and decodes everything into a Config.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "config: decode")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Analyzer.Provider {
	case "genai", "openai":
	default:
		return errors.Errorf("config: unknown analyzer provider %q", c.Analyzer.Provider)
	}
	if c.Server.Port == "" {
		return errors.New("config: server.port is required")
	}
	if c.Server.RequestTimeout <= 0 {
		return errors.New("config: server.request_timeout must be positive")
	}
	return nil
}
