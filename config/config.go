// Package config holds the tunable values consumed by the pipeline core.
// Values are loaded from environment variables with sensible defaults; how
// the environment gets populated (dotenv files, orchestrator) is out of
// scope here.
package config

import (
	"os"
	"strconv"
)

// Config is the read-only configuration surface of one pipeline run.
type Config struct {
	// Verifier thresholds.
	MinFaithfulnessScore float64 // accept drafts at or above this score
	MaxReflectionLoops   int     // writer<->verifier retry budget
	MinClaimsToVerify    int     // minimum claim sample for a valid measurement

	// Driver safety.
	MaxSteps int // hard ceiling on graph iterations per run

	// Writer limits.
	MaxContextChars int // hard ceiling on prompt context size

	// Ingestion limits.
	MaxFileSizeMB int
	MinTextLength int

	// Retrieval.
	ChunkSize    int
	ChunkOverlap int
	MinChunkLen  int
	TopK         int

	// LLM configuration.
	OpenAIKey     string
	OpenAIBaseURL string
	Model         string
	JudgeModel    string

	// Research.
	BraveAPIKey string

	// Persistence (optional; empty means in-memory only).
	StoreBackend string // "", "sqlite", "postgres", "redis"
	SQLitePath   string
	PostgresDSN  string
	RedisAddr    string

	LogLevel string
}

// Load reads configuration from the environment, applying defaults.
func Load() Config {
	return Config{
		MinFaithfulnessScore: getEnvFloat("DOCUFORGE_MIN_FAITHFULNESS", 0.85),
		MaxReflectionLoops:   getEnvInt("DOCUFORGE_MAX_REFLECTION_LOOPS", 3),
		MinClaimsToVerify:    getEnvInt("DOCUFORGE_MIN_CLAIMS", 8),
		MaxSteps:             getEnvInt("DOCUFORGE_MAX_STEPS", 50),
		MaxContextChars:      getEnvInt("DOCUFORGE_MAX_CONTEXT_CHARS", 12000),
		MaxFileSizeMB:        getEnvInt("DOCUFORGE_MAX_FILE_SIZE_MB", 50),
		MinTextLength:        getEnvInt("DOCUFORGE_MIN_TEXT_LENGTH", 100),
		ChunkSize:            getEnvInt("DOCUFORGE_CHUNK_SIZE", 400),
		ChunkOverlap:         getEnvInt("DOCUFORGE_CHUNK_OVERLAP", 50),
		MinChunkLen:          getEnvInt("DOCUFORGE_MIN_CHUNK_LEN", 50),
		TopK:                 getEnvInt("DOCUFORGE_TOP_K", 20),
		OpenAIKey:            os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL:        os.Getenv("OPENAI_BASE_URL"),
		Model:                getEnv("DOCUFORGE_MODEL", "gpt-4o-mini"),
		JudgeModel:           getEnv("DOCUFORGE_JUDGE_MODEL", "gpt-4o-mini"),
		BraveAPIKey:          os.Getenv("BRAVE_API_KEY"),
		StoreBackend:         getEnv("DOCUFORGE_STORE", ""),
		SQLitePath:           getEnv("DOCUFORGE_SQLITE_PATH", "docuforge.db"),
		PostgresDSN:          os.Getenv("DOCUFORGE_POSTGRES_DSN"),
		RedisAddr:            getEnv("DOCUFORGE_REDIS_ADDR", "localhost:6379"),
		LogLevel:             getEnv("DOCUFORGE_LOG_LEVEL", "info"),
	}
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
