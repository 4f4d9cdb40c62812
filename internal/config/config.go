package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LLMConfig describes one model endpoint (embedding or inference).
type LLMConfig struct {
	Provider string `yaml:"provider"` // "openai" or "ollama"
	BaseURL  string `yaml:"base_url"`
	Key      string `yaml:"key"`
	Model    string `yaml:"model"`
}

type RAGConfig struct {
	TopK            int `yaml:"top_k"`
	MaxContextChars int `yaml:"max_context_chars"`
	MaxTokens       int `yaml:"max_tokens"`
	ChunkSize       int `yaml:"chunk_size"`
	ChunkOverlap    int `yaml:"chunk_overlap"`
}

// StoreConfig selects and configures the vector backend. "memory" loads the
// flat index/text-store files; "chromem" and "postgres" are the persistent
// alternatives.
type StoreConfig struct {
	Backend     string `yaml:"backend"`
	IndexPath   string `yaml:"index_path"`
	TextsPath   string `yaml:"texts_path"`
	ChromemPath string `yaml:"chromem_path"`
	Collection  string `yaml:"collection"`
	PostgresURL string `yaml:"postgres_url"`
	PostgresKey string `yaml:"postgres_key"`
	Debug       bool   `yaml:"debug"`
}

type HistoryConfig struct {
	Path string `yaml:"path"`
}

type Config struct {
	EmbedLLM LLMConfig     `yaml:"embed_llm"`
	LLM      LLMConfig     `yaml:"llm"`
	RAG      RAGConfig     `yaml:"rag"`
	Store    StoreConfig   `yaml:"store"`
	History  HistoryConfig `yaml:"history"`
}

const (
	defaultTopK            = 3
	defaultMaxContextChars = 8000
	defaultMaxTokens       = 500
	defaultChunkSize       = 1000
	defaultChunkOverlap    = 200
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a config usable without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.RAG.TopK <= 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.RAG.MaxContextChars <= 0 {
		c.RAG.MaxContextChars = defaultMaxContextChars
	}
	if c.RAG.MaxTokens <= 0 {
		c.RAG.MaxTokens = defaultMaxTokens
	}
	if c.RAG.ChunkSize <= 0 {
		c.RAG.ChunkSize = defaultChunkSize
	}
	if c.RAG.ChunkOverlap <= 0 {
		c.RAG.ChunkOverlap = defaultChunkOverlap
	}
	if c.RAG.ChunkOverlap >= c.RAG.ChunkSize {
		c.RAG.ChunkOverlap = c.RAG.ChunkSize / 5
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "memory"
	}
	if c.Store.IndexPath == "" {
		c.Store.IndexPath = "./data/index.gob"
	}
	if c.Store.TextsPath == "" {
		c.Store.TextsPath = "./data/texts.gob"
	}
	if c.Store.Collection == "" {
		c.Store.Collection = "edugpt"
	}
	if c.Store.ChromemPath == "" {
		c.Store.ChromemPath = "./data/chromem"
	}
	if c.History.Path == "" {
		c.History.Path = "./data/history.json"
	}
	// API keys come from the environment unless set in the file.
	if c.EmbedLLM.Key == "" {
		c.EmbedLLM.Key = os.Getenv("OPENAI_API_KEY")
	}
	if c.LLM.Key == "" {
		c.LLM.Key = os.Getenv("OPENAI_API_KEY")
	}
}
