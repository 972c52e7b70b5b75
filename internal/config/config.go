package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Load reads the .env file specified by SHADOWBRIEF_ENV (or .env by
// default), then loads the corresponding .secret sidecar if it exists.
// All config is flat env vars read via os.Getenv after loading.
func Load() error {
	envFile := os.Getenv("SHADOWBRIEF_ENV")
	if envFile == "" {
		envFile = ".env"
	}

	_ = godotenv.Load(envFile)
	_ = godotenv.Load(envFile + ".secret")

	return nil
}

func ServerPort() int {
	port, err := strconv.Atoi(os.Getenv("SERVER_PORT"))
	if err != nil {
		return 8080
	}
	return port
}

func ServerAddr() string {
	return fmt.Sprintf(":%d", ServerPort())
}

func DatabaseURL() string {
	return os.Getenv("DATABASE_URL")
}

func BackboardAPIKey() string {
	return os.Getenv("BACKBOARD_API_KEY")
}

// BackboardBaseURL returns the conversation provider's API base URL.
func BackboardBaseURL() string {
	u := os.Getenv("BACKBOARD_BASE_URL")
	if u == "" {
		return "https://api.backboard.io/v1"
	}
	return u
}

// LLMClient returns the configured chat client kind.
// Valid values: backboard, mock.
func LLMClient() string {
	c := os.Getenv("LLM_CLIENT")
	if c == "" {
		return "backboard"
	}
	return c
}

// FastProvider/FastModel serve latency-sensitive operations
// (classification, argument extraction, ledger synthesis).
func FastProvider() string {
	p := os.Getenv("SB_FAST_PROVIDER")
	if p == "" {
		return "google"
	}
	return p
}

func FastModel() string {
	m := os.Getenv("SB_FAST_MODEL")
	if m == "" {
		return "gemini-2.5-flash-lite"
	}
	return m
}

// MemoryProvider/MemoryModel serve belief-shaping operations
// (distillation, alert comparison).
func MemoryProvider() string {
	p := os.Getenv("SB_MEMORY_PROVIDER")
	if p == "" {
		return "google"
	}
	return p
}

func MemoryModel() string {
	m := os.Getenv("SB_MEMORY_MODEL")
	if m == "" {
		return "gemini-2.5-flash-lite"
	}
	return m
}

// LLMTimeout returns the per-call deadline for outbound LLM calls.
// Defaults to 90s if not set.
func LLMTimeout() time.Duration {
	secs, err := strconv.Atoi(os.Getenv("SB_LLM_TIMEOUT_SECONDS"))
	if err != nil || secs <= 0 {
		return 90 * time.Second
	}
	return time.Duration(secs) * time.Second
}

// LedgerMinCount returns the default evidence threshold below which a
// topic's ledger row is emitted without synthesis.
func LedgerMinCount() int {
	n, err := strconv.Atoi(os.Getenv("SB_LEDGER_MIN_COUNT"))
	if err != nil || n <= 0 {
		return 3
	}
	return n
}

// RateLimitRPS returns requests per second limit.
// Defaults to 100 if not set.
func RateLimitRPS() float64 {
	rps, err := strconv.ParseFloat(os.Getenv("RATE_LIMIT_RPS"), 64)
	if err != nil || rps <= 0 {
		return 100
	}
	return rps
}

// RateLimitBurst returns the burst size for rate limiting.
// Defaults to 20 if not set.
func RateLimitBurst() int {
	burst, err := strconv.Atoi(os.Getenv("RATE_LIMIT_BURST"))
	if err != nil || burst <= 0 {
		return 20
	}
	return burst
}
