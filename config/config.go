package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"voya/logger"
)

// Provider kinds understood by services.NewProvider.
const (
	KindOpenAI    = "openai"    // OpenAI-compatible API through go-openai
	KindChat      = "chat"      // raw chat-completions body, configurable response path
	KindOllama    = "ollama"    // Ollama /api/chat
	KindInference = "inference" // Hugging Face text-generation inference
)

type Config struct {
	Port            string
	GinMode         string
	CORSOrigin      string
	ShutdownTimeout time.Duration

	Log      logger.Config
	Database DatabaseConfig
	AI       AIConfig
	Search   SearchConfig
}

type DatabaseConfig struct {
	URL            string // postgres DSN; takes precedence over Supabase
	SupabaseURL    string
	SupabaseKey    string
	PersistTimeout time.Duration
}

type AIConfig struct {
	// Providers holds the enabled providers in priority order.
	Providers []ProviderConfig
	Timeout   time.Duration
}

// ProviderConfig is fixed at start-up and never mutated afterwards.
type ProviderConfig struct {
	ID           string
	Kind         string
	Endpoint     string
	APIKey       string
	AuthScheme   string // "Bearer", "Key" or "" for no auth header
	Model        string
	ResponsePath string
	MaxTokens    int
	Temperature  float64
}

// Enabled reports whether the provider has what it needs to be called.
func (p ProviderConfig) Enabled() bool {
	if p.Endpoint == "" {
		return false
	}
	return p.AuthScheme == "" || p.APIKey != ""
}

type SearchConfig struct {
	APIKey  string
	URL     string
	Timeout time.Duration
}

// DefaultProviderOrder is the fallback order used when AI_PROVIDERS is unset.
const DefaultProviderOrder = "openrouter,bytez,huggingface,ollama"

// Load reads .env files (missing files are ignored) and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:            v.GetString("PORT"),
		GinMode:         v.GetString("GIN_MODE"),
		CORSOrigin:      v.GetString("CORS_ORIGIN"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
		Log: logger.Config{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: v.GetString("LOG_OUTPUT"),
			File: logger.FileConfig{
				Filename:   v.GetString("LOG_FILE"),
				MaxSize:    100,
				MaxAge:     30,
				MaxBackups: 10,
				Compress:   true,
			},
		},
		Database: DatabaseConfig{
			URL:            v.GetString("DATABASE_URL"),
			SupabaseURL:    strings.TrimRight(v.GetString("SUPABASE_URL"), "/"),
			SupabaseKey:    v.GetString("SUPABASE_SERVICE_ROLE_KEY"),
			PersistTimeout: v.GetDuration("PERSIST_TIMEOUT"),
		},
		AI: AIConfig{
			Timeout: v.GetDuration("PROVIDER_TIMEOUT"),
		},
		Search: SearchConfig{
			APIKey:  v.GetString("SERPAPI_KEY"),
			URL:     v.GetString("SERPAPI_URL"),
			Timeout: v.GetDuration("SEARCH_TIMEOUT"),
		},
	}

	providers, err := loadProviders(v)
	if err != nil {
		return nil, err
	}
	cfg.AI.Providers = providers

	if err := cfg.Log.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "3000")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("SHUTDOWN_TIMEOUT", "15s")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_OUTPUT", "console")
	v.SetDefault("LOG_FILE", "logs/voya.log")

	v.SetDefault("PERSIST_TIMEOUT", "10s")

	v.SetDefault("AI_PROVIDERS", DefaultProviderOrder)
	v.SetDefault("AI_MAX_TOKENS", 2000)
	v.SetDefault("AI_TEMPERATURE", 0.7)
	v.SetDefault("PROVIDER_TIMEOUT", "60s")

	v.SetDefault("OPENROUTER_URL", "https://openrouter.ai/api/v1")
	v.SetDefault("OPENROUTER_MODEL", "mistralai/devstral-2512:free")
	v.SetDefault("BYTEZ_URL", "https://api.bytez.com/models/v2")
	v.SetDefault("BYTEZ_MODEL", "meta-llama/Llama-3.3-70B-Instruct")
	v.SetDefault("HUGGINGFACE_URL", "https://api-inference.huggingface.co/models")
	v.SetDefault("HF_MODEL", "mistralai/Mistral-7B-Instruct-v0.3")
	v.SetDefault("OLLAMA_MODEL", "llama3.1")

	v.SetDefault("SERPAPI_URL", "https://serpapi.com/search.json")
	v.SetDefault("SEARCH_TIMEOUT", "30s")
}

// loadProviders resolves AI_PROVIDERS against the known provider catalogue and keeps
// only the enabled ones, preserving the configured order.
func loadProviders(v *viper.Viper) ([]ProviderConfig, error) {
	maxTokens := v.GetInt("AI_MAX_TOKENS")
	temperature := v.GetFloat64("AI_TEMPERATURE")

	catalog := map[string]ProviderConfig{
		"openrouter": {
			Kind:       KindOpenAI,
			Endpoint:   v.GetString("OPENROUTER_URL"),
			APIKey:     v.GetString("OPENROUTER_API_KEY"),
			AuthScheme: "Bearer",
			Model:      v.GetString("OPENROUTER_MODEL"),
		},
		"bytez": {
			Kind:         KindChat,
			Endpoint:     joinURL(v.GetString("BYTEZ_URL"), v.GetString("BYTEZ_MODEL")),
			APIKey:       v.GetString("BYTEZ_API_KEY"),
			AuthScheme:   "Key",
			Model:        v.GetString("BYTEZ_MODEL"),
			ResponsePath: "choices.0.message.content",
		},
		"huggingface": {
			Kind:         KindInference,
			Endpoint:     joinURL(v.GetString("HUGGINGFACE_URL"), v.GetString("HF_MODEL")),
			APIKey:       v.GetString("HUGGINGFACE_API_KEY"),
			AuthScheme:   "Bearer",
			Model:        v.GetString("HF_MODEL"),
			ResponsePath: "0.generated_text",
		},
		"ollama": {
			Kind:         KindOllama,
			Endpoint:     joinURL(v.GetString("OLLAMA_URL"), "api/chat"),
			Model:        v.GetString("OLLAMA_MODEL"),
			ResponsePath: "message.content",
		},
	}

	var (
		out  []ProviderConfig
		seen = make(map[string]bool)
	)
	for _, id := range strings.Split(v.GetString("AI_PROVIDERS"), ",") {
		id = strings.ToLower(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true

		p, ok := catalog[id]
		if !ok {
			return nil, fmt.Errorf("unknown AI provider %q in AI_PROVIDERS", id)
		}
		if !p.Enabled() {
			continue
		}
		p.ID = id
		p.MaxTokens = maxTokens
		p.Temperature = temperature
		out = append(out, p)
	}
	return out, nil
}

// joinURL returns "" when base is unset so the provider stays disabled.
func joinURL(base, path string) string {
	if base == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
