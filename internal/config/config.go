// Package config centralises all environment / flag configuration for the API.
// It should be imported only by `cmd/server` (and test code). Business‑logic
// layers receive an already‑built Config instance via dependency‑injection.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime option the server needs.
// Keep it flat and simple; prefer primitive types over embedding structs.
type Config struct {
	// Network
	Port        string
	CORSOrigins []string

	// Server tuning
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	EmbedTimeout time.Duration
	LogLevel     string
	LogJSON      bool

	// Model artifacts and inference
	ModelDir          string // local directory or gs://bucket/prefix
	EmbeddingProvider string // vertex:<model> | local:<hf-model> | hashing:<dim>
	CategoryEndpoint  string // optional Vertex AI endpoint for the category model
	ExplainTopK       int

	// Gating
	AutoCreateThreshold float64
	CommentThreshold    float64

	// Ticketing. Credentials come from the environment only.
	JiraAutoCreate    bool
	JiraURL           string
	JiraUser          string
	JiraToken         string
	JiraProject       string
	JiraFallbackIssue string

	// Historical case store (optional)
	MongoURI          string
	DBName            string
	HistoryCollection string

	// ProjectID and Location
	ProjectID string
	Location  string
}

var defaultCORSOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost",
	"http://127.0.0.1",
}

// Load parses the environment (and an optional .env file) into Config.
// It terminates on invalid configuration so mis‑configurations fail fast.
func Load() Config {
	// godotenv.Load() is a no‑op if .env doesn't exist.
	_ = godotenv.Load()

	cfg := Config{
		Port:                getEnv("PORT", "8000"),
		CORSOrigins:         getList("CORS_ORIGINS", defaultCORSOrigins),
		ReadTimeout:         getDuration("READ_TIMEOUT_SEC", 5),
		WriteTimeout:        getDuration("WRITE_TIMEOUT_SEC", 30),
		EmbedTimeout:        getDuration("EMBED_TIMEOUT_SEC", 20),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		LogJSON:             getBool("LOG_JSON", false),
		ModelDir:            getEnv("MODEL_DIR", "ml/models"),
		EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "local:distilbert-base-uncased"),
		CategoryEndpoint:    os.Getenv("CATEGORY_ENDPOINT"),
		ExplainTopK:         getInt("EXPLAIN_TOP_K", 5),
		AutoCreateThreshold: getFloat("AUTO_CREATE_THRESHOLD", 0.85),
		CommentThreshold:    getFloat("COMMENT_THRESHOLD", 0.60),
		JiraAutoCreate:      getBool("JIRA_AUTO_CREATE", false),
		JiraURL:             strings.TrimRight(os.Getenv("JIRA_URL"), "/"),
		JiraUser:            os.Getenv("JIRA_USER"),
		JiraToken:           os.Getenv("JIRA_TOKEN"),
		JiraProject:         getEnv("JIRA_PROJECT", "DEM"),
		JiraFallbackIssue:   getEnv("JIRA_FALLBACK_ISSUE", "DEM-1"),
		MongoURI:            os.Getenv("MONGODB_URI"),
		DBName:              getEnv("MONGODB_DB", "bug_triage"),
		HistoryCollection:   getEnv("HISTORY_COLLECTION", "history_embeddings"),
		ProjectID:           os.Getenv("GCP_PROJECT_ID"),
		Location:            getEnv("GCP_LOCATION", "us-central1"),
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	return cfg
}

// Validate checks invariants that cannot be expressed by defaults alone.
func (c Config) Validate() error {
	var errs []error
	if c.CommentThreshold < 0 || c.AutoCreateThreshold > 1 {
		errs = append(errs, fmt.Errorf("thresholds must lie in [0,1], got auto=%.2f comment=%.2f",
			c.AutoCreateThreshold, c.CommentThreshold))
	}
	if c.AutoCreateThreshold < c.CommentThreshold {
		errs = append(errs, fmt.Errorf("AUTO_CREATE_THRESHOLD (%.2f) must be >= COMMENT_THRESHOLD (%.2f)",
			c.AutoCreateThreshold, c.CommentThreshold))
	}
	if c.ExplainTopK <= 0 {
		errs = append(errs, fmt.Errorf("EXPLAIN_TOP_K must be positive, got %d", c.ExplainTopK))
	}
	if strings.HasPrefix(c.EmbeddingProvider, "vertex") && c.ProjectID == "" {
		errs = append(errs, errors.New("GCP_PROJECT_ID is required for the vertex embedding provider"))
	}
	if c.CategoryEndpoint != "" && c.ProjectID == "" {
		errs = append(errs, errors.New("GCP_PROJECT_ID is required when CATEGORY_ENDPOINT is set"))
	}
	return errors.Join(errs...)
}

// JiraConfigured reports whether every credential needed to talk to Jira is present.
func (c Config) JiraConfigured() bool {
	return c.JiraURL != "" && c.JiraUser != "" && c.JiraToken != ""
}

// getEnv returns env[key] if set, otherwise defaultVal.
func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// getDuration reads an integer (seconds) from env, falling back to defaultSec.
func getDuration(key string, defaultSec int) time.Duration {
	if v := os.Getenv(key); v != "" {
		if sec, err := strconv.Atoi(v); err == nil {
			return time.Duration(sec) * time.Second
		}
		log.Printf("invalid %s=%q; using default %ds", key, v, defaultSec)
	}
	return time.Duration(defaultSec) * time.Second
}

func getInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("invalid %s=%q; using default %d", key, v, defaultVal)
	}
	return defaultVal
}

func getFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		log.Printf("invalid %s=%q; using default %.2f", key, v, defaultVal)
	}
	return defaultVal
}

// getBool accepts anything strconv.ParseBool does ("true", "1", "TRUE", ...).
func getBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
		log.Printf("invalid %s=%q; using default %t", key, v, defaultVal)
	}
	return defaultVal
}

// getList splits a comma-separated env var, dropping empty items.
func getList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
