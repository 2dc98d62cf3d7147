package config

// defaultPersona is the system prompt used when none is configured.
const defaultPersona = "You are CardSage, a knowledgeable assistant for credit card products. " +
	"Answer questions about cards, their benefits, fees and eligibility clearly and concisely. " +
	"If you are not sure about a detail, say so rather than guessing."

// Defaults returns a Config with sensible default values.
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		LLM: LLMConfig{
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			TimeoutSecs: 120,
		},
		Embedding: EmbeddingConfig{
			Model: "text-embedding-3-small",
		},
		Vector: VectorConfig{
			BaseURL:    "http://localhost:6333",
			Collection: "card_chunks",
		},
		Agent: AgentConfig{
			SystemPrompt:      defaultPersona,
			MaxTokens:         2048,
			Temperature:       0.7,
			StreamTimeoutSecs: 30,
		},
		History: HistoryConfig{
			CacheTTLSecs: 60,
		},
	}
}
