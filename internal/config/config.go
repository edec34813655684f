// Package config loads service configuration from an optional YAML file
// with environment variable overrides. Components never read ambient
// global state; everything is injected from here at construction.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"legal-rag/internal/logger"
)

// Config is the root configuration object.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Redis      RedisConfig      `yaml:"redis"`
	Chroma     ChromaConfig     `yaml:"chroma"`
	Providers  ProvidersConfig  `yaml:"providers"`
	Ingestion  IngestionConfig  `yaml:"ingestion"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Generation GenerationConfig `yaml:"generation"`
	Logging    logger.Config    `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// RedisConfig holds connection settings for the document registry.
type RedisConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ChromaConfig holds connection settings for the vector store.
type ChromaConfig struct {
	Host       string        `yaml:"host"`
	Port       int           `yaml:"port"`
	Tenant     string        `yaml:"tenant"`
	Database   string        `yaml:"database"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
}

// ProvidersConfig holds external capability endpoints and credentials.
type ProvidersConfig struct {
	LLMBaseURL     string        `yaml:"llm_base_url"`
	LLMAPIKey      string        `yaml:"llm_api_key"`
	ChatModel      string        `yaml:"chat_model"`
	EmbeddingModel string        `yaml:"embedding_model"`
	LLMTimeout     time.Duration `yaml:"llm_timeout"`

	ScrapeBaseURL string        `yaml:"scrape_base_url"`
	ScrapeAPIKey  string        `yaml:"scrape_api_key"`
	ScrapeTimeout time.Duration `yaml:"scrape_timeout"`

	LegalSearchBaseURL string        `yaml:"legal_search_base_url"`
	LegalSearchAPIKey  string        `yaml:"legal_search_api_key"`
	LegalSearchTimeout time.Duration `yaml:"legal_search_timeout"`
}

// IngestionConfig holds the ingestion pipeline tunables.
type IngestionConfig struct {
	UploadDir          string   `yaml:"upload_dir"`
	ChunkSize          int      `yaml:"chunk_size"`
	ChunkOverlap       int      `yaml:"chunk_overlap"`
	MinChunkLength     int      `yaml:"min_chunk_length"`
	MinExtractedLength int      `yaml:"min_extracted_length"`
	PersistBatchSize   int      `yaml:"persist_batch_size"`
	MaxLegalCandidates int      `yaml:"max_legal_candidates"`
	AllowedDomains     []string `yaml:"allowed_domains"`
}

// RetrievalConfig holds the retrieval fallback tunables.
type RetrievalConfig struct {
	MatchThreshold  float32 `yaml:"match_threshold"`
	MatchCount      int     `yaml:"match_count"`
	TextMatchCount  int     `yaml:"text_match_count"`
	SnippetMaxChars int     `yaml:"snippet_max_chars"`
	WebResultCount  int     `yaml:"web_result_count"`
}

// GenerationConfig holds answer generation bounds.
type GenerationConfig struct {
	MinQueryLength  int `yaml:"min_query_length"`
	MaxQueryLength  int `yaml:"max_query_length"`
	MaxHistoryTurns int `yaml:"max_history_turns"`
}

// Default returns a configuration with sensible defaults. The allow-list
// defaults to the official Indian government domains the assistant is
// permitted to scrape.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 30 * time.Second,
		},
		Redis: RedisConfig{
			Host:         "localhost",
			Port:         6379,
			DB:           0,
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Chroma: ChromaConfig{
			Host:       "localhost",
			Port:       8000,
			Tenant:     "default_tenant",
			Database:   "default_database",
			Collection: "legal_chunks",
			Timeout:    30 * time.Second,
		},
		Providers: ProvidersConfig{
			LLMBaseURL:         "https://api.openai.com/v1",
			ChatModel:          "gpt-4o-mini",
			EmbeddingModel:     "text-embedding-3-small",
			LLMTimeout:         60 * time.Second,
			ScrapeBaseURL:      "https://api.firecrawl.dev/v1",
			ScrapeTimeout:      45 * time.Second,
			LegalSearchBaseURL: "https://api.indiankanoon.org",
			LegalSearchTimeout: 30 * time.Second,
		},
		Ingestion: IngestionConfig{
			UploadDir:          "/tmp/legal-rag-uploads",
			ChunkSize:          1000,
			ChunkOverlap:       200,
			MinChunkLength:     50,
			MinExtractedLength: 100,
			PersistBatchSize:   40,
			MaxLegalCandidates: 5,
			AllowedDomains: []string{
				"gst.gov.in",
				"incometax.gov.in",
				"indiacode.nic.in",
				"india.gov.in",
				"rbi.org.in",
				"sebi.gov.in",
				"mca.gov.in",
				"cbic.gov.in",
			},
		},
		Retrieval: RetrievalConfig{
			MatchThreshold:  0.65,
			MatchCount:      5,
			TextMatchCount:  10,
			SnippetMaxChars: 2000,
			WebResultCount:  3,
		},
		Generation: GenerationConfig{
			MinQueryLength:  3,
			MaxQueryLength:  1500,
			MaxHistoryTurns: 10,
		},
		Logging: logger.Config{
			Level: "info",
		},
	}
}

// Load reads configuration from the optional YAML file at path, then
// applies environment overrides. A missing file is not an error; the
// defaults stand.
func Load(path string) (Config, error) {
	// .env is a development convenience; absence is fine.
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return cfg, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	setString(&c.Server.Addr, "SERVER_ADDR")

	setString(&c.Redis.Host, "REDIS_HOST")
	setInt(&c.Redis.Port, "REDIS_PORT")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setInt(&c.Redis.DB, "REDIS_DB")

	setString(&c.Chroma.Host, "CHROMA_HOST")
	setInt(&c.Chroma.Port, "CHROMA_PORT")
	setString(&c.Chroma.Tenant, "CHROMA_TENANT")
	setString(&c.Chroma.Database, "CHROMA_DATABASE")
	setString(&c.Chroma.Collection, "CHROMA_COLLECTION")

	setString(&c.Providers.LLMBaseURL, "LLM_BASE_URL")
	setString(&c.Providers.LLMAPIKey, "LLM_API_KEY")
	setString(&c.Providers.ChatModel, "LLM_CHAT_MODEL")
	setString(&c.Providers.EmbeddingModel, "LLM_EMBEDDING_MODEL")
	setString(&c.Providers.ScrapeBaseURL, "SCRAPE_BASE_URL")
	setString(&c.Providers.ScrapeAPIKey, "SCRAPE_API_KEY")
	setString(&c.Providers.LegalSearchBaseURL, "LEGAL_SEARCH_BASE_URL")
	setString(&c.Providers.LegalSearchAPIKey, "LEGAL_SEARCH_API_KEY")

	setString(&c.Ingestion.UploadDir, "UPLOAD_DIR")

	setString(&c.Logging.Level, "LOG_LEVEL")
	setString(&c.Logging.FilePath, "LOG_FILE")
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
