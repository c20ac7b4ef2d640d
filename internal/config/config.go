package config

import (
	"os"
)

type Config struct {
	Port            string
	Environment     string
	SupabaseURL     string
	SupabaseKey     string
	SupabaseDBURL   string
	SupabaseJWKSURL string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	StorageBucket   string
	CORSOrigins     string
	TablePrefix     string
	// LLM configuration
	AnthropicAPIKey string
	OpenAIAPIKey    string
	DefaultModel    string
	// Image generation
	DefaultImageModel string
	// Web search
	TavilyAPIKey string
	// Realtime voice
	VoiceUpstreamURL string // wss:// endpoint of the hosted realtime voice API
	VoiceUpstreamKey string
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	tablePrefix := getTablePrefix(env)
	supabaseURL := getEnv("SUPABASE_URL", "")

	// Construct JWKS URL from Supabase URL
	jwksURL := supabaseURL + "/auth/v1/.well-known/jwks.json"

	return &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     env,
		SupabaseURL:     supabaseURL,
		SupabaseKey:     getEnv("SUPABASE_KEY", ""),
		SupabaseDBURL:   getEnv("SUPABASE_DB_URL", ""),
		SupabaseJWKSURL: jwksURL,
		StorageBucket:   getEnv("STORAGE_BUCKET", "generated-images"),
		CORSOrigins:     getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:     tablePrefix,
		// LLM configuration
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		DefaultModel:    getEnv("DEFAULT_MODEL", "claude-sonnet-4-20250514"),
		// Image generation
		DefaultImageModel: getEnv("DEFAULT_IMAGE_MODEL", "gpt-image-1"),
		// Web search
		TavilyAPIKey: getEnv("TAVILY_API_KEY", ""),
		// Realtime voice
		VoiceUpstreamURL: getEnv("VOICE_UPSTREAM_URL", "wss://api.openai.com/v1/realtime"),
		VoiceUpstreamKey: getEnv("VOICE_UPSTREAM_KEY", ""),
		// Debug - default to true outside prod
		Debug: getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// getDefaultDebug returns the default debug setting based on environment
func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	// Allow manual override via TABLE_PREFIX env var
	if prefix := os.Getenv("TABLE_PREFIX"); prefix != "" {
		return prefix
	}

	switch env {
	case "prod":
		return "prod_"
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
