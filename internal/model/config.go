package model

import "time"

// Config is the complete plagscan configuration. Fields carry yaml tags for
// `config init/show` and mapstructure tags for viper.
type Config struct {
	Scan         ScanConfig         `yaml:"scan" mapstructure:"scan"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Search       SearchConfig       `yaml:"search" mapstructure:"search"`
	Embedding    EmbeddingConfig    `yaml:"embedding" mapstructure:"embedding"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Logging      LoggingConfig      `yaml:"logging" mapstructure:"logging"`
}

// ScanConfig controls chunking, scoring and aggregation.
type ScanConfig struct {
	ChunkSize           int     `yaml:"chunk_size" mapstructure:"chunk_size"`
	QuickMaxChunks      int     `yaml:"quick_max_chunks" mapstructure:"quick_max_chunks"`
	DefaultMode         string  `yaml:"default_mode" mapstructure:"default_mode"`
	SimilarityThreshold float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	HighRiskThreshold   float64 `yaml:"high_risk_threshold" mapstructure:"high_risk_threshold"`
	MaxMatches          int     `yaml:"max_matches" mapstructure:"max_matches"`
	MinPageChars        int     `yaml:"min_page_chars" mapstructure:"min_page_chars"`
	MaxPageChunks       int     `yaml:"max_page_chunks" mapstructure:"max_page_chunks"`
	MinPageChunkChars   int     `yaml:"min_page_chunk_chars" mapstructure:"min_page_chunk_chars"`
	MinCitationChars    int     `yaml:"min_citation_chars" mapstructure:"min_citation_chars"`
}

// HTTPConfig controls outbound page fetching.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxPageChars  int           `yaml:"max_page_chars" mapstructure:"max_page_chars"`
	MaxRedirects  int           `yaml:"max_redirects" mapstructure:"max_redirects"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// SearchConfig selects and configures the web search provider.
type SearchConfig struct {
	Provider   string        `yaml:"provider" mapstructure:"provider"` // serpapi, google, none
	APIKey     string        `yaml:"api_key" mapstructure:"api_key"`
	EngineID   string        `yaml:"engine_id" mapstructure:"engine_id"` // google only
	BaseURL    string        `yaml:"base_url" mapstructure:"base_url"`
	MaxResults int           `yaml:"max_results" mapstructure:"max_results"`
	QueryChars int           `yaml:"query_chars" mapstructure:"query_chars"`
	Timeout    time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// EmbeddingConfig selects the sentence-embedding backend.
type EmbeddingConfig struct {
	Provider      string        `yaml:"provider" mapstructure:"provider"` // onnx, openai, ollama
	Model         string        `yaml:"model" mapstructure:"model"`
	ModelPath     string        `yaml:"model_path" mapstructure:"model_path"`
	TokenizerPath string        `yaml:"tokenizer_path" mapstructure:"tokenizer_path"`
	LibraryPath   string        `yaml:"library_path" mapstructure:"library_path"`
	MaxSeqLen     int           `yaml:"max_seq_len" mapstructure:"max_seq_len"`
	APIKey        string        `yaml:"api_key" mapstructure:"api_key"`
	BaseURL       string        `yaml:"base_url" mapstructure:"base_url"`
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Cache         bool          `yaml:"cache" mapstructure:"cache"`
}

// CacheConfig controls the optional page text cache.
type CacheConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	TTL             time.Duration `yaml:"ttl" mapstructure:"ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" mapstructure:"cleanup_interval"`
	RedisURL        string        `yaml:"redis_url" mapstructure:"redis_url"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr           string        `yaml:"addr" mapstructure:"addr"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`
	RequestTimeout time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
	AllowedOrigins []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// ConcurrencyConfig bounds parallel work.
type ConcurrencyConfig struct {
	MaxConcurrentRequests int `yaml:"max_concurrent_requests" mapstructure:"max_concurrent_requests"`
	BatchWorkers          int `yaml:"batch_workers" mapstructure:"batch_workers"`
}

// RateLimitingConfig is applied per fetched domain.
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Development bool   `yaml:"development" mapstructure:"development"`
}

// DefaultUserAgent is a desktop browser UA; many sites refuse obvious bots.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Scan: ScanConfig{
			ChunkSize:           700,
			QuickMaxChunks:      15,
			DefaultMode:         string(ScanModeQuick),
			SimilarityThreshold: 30,
			HighRiskThreshold:   60,
			MaxMatches:          20,
			MinPageChars:        100,
			MaxPageChunks:       20,
			MinPageChunkChars:   50,
			MinCitationChars:    20,
		},
		HTTP: HTTPConfig{
			Timeout:      10 * time.Second,
			UserAgent:    DefaultUserAgent,
			MaxBodyBytes: 10 * 1024 * 1024,
			MaxPageChars: 35_000,
			MaxRedirects: 3,
		},
		Search: SearchConfig{
			Provider:   "serpapi",
			MaxResults: 5,
			QueryChars: 150,
			Timeout:    10 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:      "onnx",
			Model:         "paraphrase-multilingual-MiniLM-L12-v2",
			ModelPath:     "models/paraphrase-multilingual-MiniLM-L12-v2/model.onnx",
			TokenizerPath: "models/paraphrase-multilingual-MiniLM-L12-v2/tokenizer.json",
			MaxSeqLen:     128,
			Timeout:       30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:         false,
			TTL:             time.Hour,
			CleanupInterval: 10 * time.Minute,
		},
		Server: ServerConfig{
			Addr:           ":9001",
			MaxUploadBytes: 5 * 1024 * 1024,
			RequestTimeout: 5 * time.Minute,
			AllowedOrigins: []string{"*"},
		},
		Concurrency: ConcurrencyConfig{
			MaxConcurrentRequests: 5,
			BatchWorkers:          2,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 5,
			BurstSize:         5,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
