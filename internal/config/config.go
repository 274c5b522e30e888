package config

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"github.com/xxxsen/common/logger"
)

const envPrefix = "BRANDBOT"

type Config struct {
	LogConfig    logger.LogConfig  `json:"log_config"`
	Server       ServerConfig      `json:"server"`
	AI           AIConfig          `json:"ai"`
	RAG          RAGConfig         `json:"rag"`
	History      HistoryConfig     `json:"history"`
	RemoteIndex  RemoteIndexConfig `json:"remote_index"`
	Schedule     ScheduleConfig    `json:"schedule"`
	ProfilesFile string            `json:"profiles_file"`
}

type ServerConfig struct {
	Port            int      `json:"port"`
	CORSOrigins     []string `json:"cors_origins"`
	ChatRateLimitMs int      `json:"chat_rate_limit_ms"`
}

type ProviderConfig struct {
	Name     string      `json:"name"`
	Provider string      `json:"provider"`
	Model    string      `json:"model"`
	Data     interface{} `json:"data"`
}

type AIConfig struct {
	Generators     []ProviderConfig `json:"generators"`
	Embedders      []ProviderConfig `json:"embedders"`
	Timeout        int              `json:"timeout"`
	Temperature    *float32         `json:"temperature"`
	MaxTokens      int              `json:"max_tokens"`
	EmbedCacheSize int              `json:"embed_cache_size"`
	EmbedCacheTTL  int              `json:"embed_cache_ttl"`
}

type SourceConfig struct {
	Path    string `json:"path"`
	DocType string `json:"doc_type"`
	Label   string `json:"label"`
}

type RAGConfig struct {
	IndexDir          string         `json:"index_dir"`
	IndexName         string         `json:"index_name"`
	Sources           []SourceConfig `json:"sources"`
	Extensions        []string       `json:"extensions"`
	ChunkSize         int            `json:"chunk_size"`
	ChunkOverlap      *int           `json:"chunk_overlap"`
	MinContentLength  int            `json:"min_content_length"`
	DefaultK          int            `json:"default_k"`
	FetchMultiplier   int            `json:"fetch_multiplier"`
	SearchTimeoutMs   int            `json:"search_timeout_ms"`
	SearchConcurrency int            `json:"search_concurrency"`
	EmbedBatchSize    int            `json:"embed_batch_size"`
	EmbedConcurrency  int            `json:"embed_concurrency"`
	VerifySampleSize  int            `json:"verify_sample_size"`
}

type HistoryConfig struct {
	MaxTurns int `json:"max_turns"`
	MaxUsers int `json:"max_users"`
	TTL      int `json:"ttl"`
}

type RemoteIndexConfig struct {
	Enabled bool        `json:"enabled"`
	Type    string      `json:"type"`
	Prefix  string      `json:"prefix"`
	Data    interface{} `json:"data"`
}

type ScheduleConfig struct {
	VerifyCron string `json:"verify_cron"`
}

// Load reads the file at path (json, yaml or toml by extension) and overlays
// BRANDBOT_* environment variables, e.g. BRANDBOT_RAG_INDEX_DIR.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.LogConfig.Level == "" {
		c.LogConfig.Level = "info"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if len(c.AI.Embedders) == 0 {
		return fmt.Errorf("ai.embedders is required")
	}
	for i, item := range c.AI.Embedders {
		if strings.TrimSpace(item.Model) == "" {
			return fmt.Errorf("ai.embedders[%d].model is required", i)
		}
		if strings.TrimSpace(item.Provider) == "" {
			return fmt.Errorf("ai.embedders[%d].provider is required", i)
		}
	}
	for i, item := range c.AI.Generators {
		if strings.TrimSpace(item.Provider) == "" {
			return fmt.Errorf("ai.generators[%d].provider is required", i)
		}
	}
	if c.AI.Timeout <= 0 {
		c.AI.Timeout = 45
	}
	if c.AI.Temperature == nil {
		c.AI.Temperature = ptr(float32(0.5))
	}
	if *c.AI.Temperature < 0 {
		return fmt.Errorf("ai.temperature must not be negative")
	}
	if c.AI.MaxTokens <= 0 {
		c.AI.MaxTokens = 150
	}
	if c.AI.EmbedCacheSize == 0 {
		c.AI.EmbedCacheSize = 1024
	}
	if c.AI.EmbedCacheTTL == 0 {
		c.AI.EmbedCacheTTL = 3600
	}

	if strings.TrimSpace(c.RAG.IndexDir) == "" {
		return fmt.Errorf("rag.index_dir is required")
	}
	if c.RAG.IndexName == "" {
		c.RAG.IndexName = "index"
	}
	if len(c.RAG.Extensions) == 0 {
		c.RAG.Extensions = []string{".txt"}
	}
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = 1000
	}
	if c.RAG.ChunkOverlap == nil {
		c.RAG.ChunkOverlap = ptr(min(200, c.RAG.ChunkSize/5))
	}
	if *c.RAG.ChunkOverlap < 0 || *c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		return fmt.Errorf("rag.chunk_overlap must be in [0, chunk_size)")
	}
	if c.RAG.MinContentLength <= 0 {
		c.RAG.MinContentLength = 10
	}
	if c.RAG.DefaultK <= 0 {
		c.RAG.DefaultK = 3
	}
	if c.RAG.FetchMultiplier <= 0 {
		c.RAG.FetchMultiplier = 2
	}
	if c.RAG.SearchTimeoutMs <= 0 {
		c.RAG.SearchTimeoutMs = 5000
	}
	if c.RAG.SearchConcurrency <= 0 {
		c.RAG.SearchConcurrency = runtime.NumCPU()
	}
	if c.RAG.EmbedBatchSize <= 0 {
		c.RAG.EmbedBatchSize = 32
	}
	if c.RAG.EmbedConcurrency <= 0 {
		c.RAG.EmbedConcurrency = 4
	}
	if c.RAG.VerifySampleSize <= 0 {
		c.RAG.VerifySampleSize = 5
	}
	for i, src := range c.RAG.Sources {
		if strings.TrimSpace(src.Path) == "" {
			return fmt.Errorf("rag.sources[%d].path is required", i)
		}
		switch src.DocType {
		case "brand", "kb":
		default:
			return fmt.Errorf("rag.sources[%d].doc_type must be brand or kb", i)
		}
	}

	if c.History.MaxTurns <= 0 {
		c.History.MaxTurns = 20
	}
	if c.History.MaxUsers <= 0 {
		c.History.MaxUsers = 10000
	}
	if c.History.TTL <= 0 {
		c.History.TTL = 24 * 3600
	}

	if c.RemoteIndex.Enabled {
		switch c.RemoteIndex.Type {
		case "s3", "local":
		default:
			return fmt.Errorf("remote_index.type must be s3 or local")
		}
	}
	return nil
}

func ptr[T any](v T) *T {
	return &v
}
