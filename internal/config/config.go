package config

// Config is the top-level application configuration.
type Config struct {
	Server      ServerConfig    `json:"server"`
	LLM         LLMConfig       `json:"llm"`
	FallbackLLM *LLMConfig      `json:"fallback_llm,omitempty"`
	Embedding   EmbeddingConfig `json:"embedding"`
	Vector      VectorConfig    `json:"vector"`
	Agent       AgentConfig     `json:"agent"`
	History     HistoryConfig   `json:"history"`
}

type ServerConfig struct {
	Addr string `json:"addr"`
}

type LLMConfig struct {
	Provider    string `json:"provider"`
	Model       string `json:"model"`
	APIKey      string `json:"api_key,omitempty"`
	BaseURL     string `json:"base_url,omitempty"`
	TimeoutSecs int    `json:"timeout_secs"`
}

type EmbeddingConfig struct {
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
	Model   string `json:"model"`
}

type VectorConfig struct {
	BaseURL    string `json:"base_url"`
	Collection string `json:"collection"`
	APIKey     string `json:"api_key,omitempty"`
}

type AgentConfig struct {
	SystemPrompt      string  `json:"system_prompt"`
	MaxTokens         int     `json:"max_tokens"`
	Temperature       float64 `json:"temperature"`
	TitleModel        string  `json:"title_model,omitempty"`
	StreamTimeoutSecs int     `json:"stream_timeout_secs"`
}

type HistoryConfig struct {
	DBPath       string `json:"db_path,omitempty"`
	CacheTTLSecs int    `json:"cache_ttl_secs"`
}
