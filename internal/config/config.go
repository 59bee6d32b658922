package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"

	BackendSQLite   = "sqlite"
	BackendSupabase = "supabase"
)

// Generation holds the sampling parameters sent to the generative endpoint.
type Generation struct {
	Temperature     float32 `yaml:"temperature"`
	TopK            int32   `yaml:"top_k"`
	TopP            float32 `yaml:"top_p"`
	MaxOutputTokens int32   `yaml:"max_output_tokens"`
}

// Config holds the configuration for the application.
type Config struct {
	LLMProvider  string
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	Generation   Generation

	// Storage
	StoreBackend       string
	DatabasePath       string
	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	JWTSecret          string

	// Cache
	RedisURL      string
	CacheFilePath string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramWebhookSecret  string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64

	// Number of inventory items used when the user selects none.
	InventoryPromptLimit int
	Port                 string
}

// fileOverrides is the optional YAML document named by KITCHEN_CONFIG_FILE.
type fileOverrides struct {
	Generation             *Generation `yaml:"generation"`
	InventoryPromptLimit   int         `yaml:"inventory_prompt_limit"`
	TelegramAllowedUserIDs []int64     `yaml:"telegram_allowed_user_ids"`
}

// DefaultGeneration mirrors the parameters the kitchen assistant has always used.
func DefaultGeneration() Generation {
	return Generation{
		Temperature:     0.9,
		TopK:            1,
		TopP:            1,
		MaxOutputTokens: 8192,
	}
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	provider := envOr("LLM_PROVIDER", ProviderGemini)
	switch provider {
	case ProviderGemini, ProviderGroq:
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER %q", provider)
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if geminiAPIKey == "" && provider != ProviderGroq {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	groqAPIKey := os.Getenv("GROQ_API_KEY")
	if groqAPIKey == "" && provider == ProviderGroq {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable not set")
	}

	backend := envOr("STORE_BACKEND", BackendSQLite)
	cfg := &Config{
		LLMProvider:           provider,
		GeminiAPIKey:          geminiAPIKey,
		GeminiModel:           envOr("GEMINI_MODEL", "gemini-1.5-flash"),
		GroqAPIKey:            groqAPIKey,
		Generation:            DefaultGeneration(),
		StoreBackend:          backend,
		DatabasePath:          envOr("DATABASE_PATH", "data/kitchen.db"),
		RedisURL:              os.Getenv("REDIS_URL"),
		CacheFilePath:         envOr("CACHE_FILE_PATH", "data/llm_cache.json"),
		TelegramBotToken:      os.Getenv("TELEGRAM_BOT_TOKEN"),
		TelegramWebhookURL:    os.Getenv("TELEGRAM_WEBHOOK_URL"),
		TelegramWebhookSecret: os.Getenv("TELEGRAM_WEBHOOK_SECRET"),
		InventoryPromptLimit:  8,
		Port:                  envOr("PORT", "8080"),
	}

	switch backend {
	case BackendSQLite:
	case BackendSupabase:
		cfg.SupabaseURL = strings.TrimRight(os.Getenv("SUPABASE_URL"), "/")
		if cfg.SupabaseURL == "" {
			return nil, fmt.Errorf("SUPABASE_URL environment variable not set")
		}
		cfg.SupabaseAnonKey = os.Getenv("SUPABASE_ANON_KEY")
		if cfg.SupabaseAnonKey == "" {
			return nil, fmt.Errorf("SUPABASE_ANON_KEY environment variable not set")
		}
		cfg.SupabaseServiceKey = os.Getenv("SUPABASE_SERVICE_KEY")
	default:
		return nil, fmt.Errorf("unsupported STORE_BACKEND %q", backend)
	}

	cfg.JWTSecret = os.Getenv("AUTH_JWT_SECRET")
	if cfg.JWTSecret == "" {
		// Supabase signs its access tokens with the project JWT secret.
		cfg.JWTSecret = os.Getenv("SUPABASE_JWT_SECRET")
	}

	ids, err := parseIDList(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}
	cfg.TelegramAllowedUserIDs = ids

	if adminID := os.Getenv("ADMIN_TELEGRAM_ID"); adminID != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminID, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}

	if path := os.Getenv("KITCHEN_CONFIG_FILE"); path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var overrides fileOverrides
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if g := overrides.Generation; g != nil {
		if g.Temperature > 0 {
			c.Generation.Temperature = g.Temperature
		}
		if g.TopK > 0 {
			c.Generation.TopK = g.TopK
		}
		if g.TopP > 0 {
			c.Generation.TopP = g.TopP
		}
		if g.MaxOutputTokens > 0 {
			c.Generation.MaxOutputTokens = g.MaxOutputTokens
		}
	}
	if overrides.InventoryPromptLimit > 0 {
		c.InventoryPromptLimit = overrides.InventoryPromptLimit
	}
	c.TelegramAllowedUserIDs = append(c.TelegramAllowedUserIDs, overrides.TelegramAllowedUserIDs...)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
