package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server       ServerConfig `yaml:"server"`
	Database     DBConfig     `yaml:"database"`
	EmbedLLM     LLMConfig    `yaml:"embed_llm"`
	InferenceLLM LLMConfig    `yaml:"inference_llm"`
	RAG          RAGConfig    `yaml:"rag"`
	Unstructured APIConfig    `yaml:"unstructured"`
	CPIC         APIConfig    `yaml:"cpic"`
	Paths        PathsConfig  `yaml:"paths"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

type DBConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	Debug    bool   `yaml:"debug"`
}

type LLMConfig struct {
	BaseURL string `yaml:"base_url"`
	Key     string `yaml:"key"`
	Model   string `yaml:"model"`
}

type RAGConfig struct {
	TopK        int     `yaml:"top_k"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	Key     string `yaml:"key"`
}

type PathsConfig struct {
	PDFDir     string `yaml:"pdf_dir"`
	IndexDir   string `yaml:"index_dir"`
	PairsSheet string `yaml:"pairs_sheet"`
}

const (
	defaultTopK      = 5
	defaultMaxTokens = 4096
)

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8000"
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = defaultTopK
	}
	if c.RAG.MaxTokens == 0 {
		c.RAG.MaxTokens = defaultMaxTokens
	}
	if c.CPIC.BaseURL == "" {
		c.CPIC.BaseURL = "https://api.cpicpgx.org/v1"
	}
	if c.Unstructured.BaseURL == "" {
		c.Unstructured.BaseURL = "https://api.unstructuredapp.io"
	}
	if c.Paths.PDFDir == "" {
		c.Paths.PDFDir = "./pdfs"
	}
	if c.Paths.IndexDir == "" {
		c.Paths.IndexDir = "./data/chromemdb"
	}
	if c.Paths.PairsSheet == "" {
		c.Paths.PairsSheet = "./data/cpic_gene-drug_pairs.xlsx"
	}
}
