package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"cardsage/internal/security"
)

const (
	configDir  = ".cardsage"
	configFile = "config.json"

	envAddr            = "CARDSAGE_ADDR"
	envLLMAPIKey       = "CARDSAGE_LLM_API_KEY"
	envEmbeddingAPIKey = "CARDSAGE_EMBEDDING_API_KEY"
	envVectorURL       = "CARDSAGE_VECTOR_URL"
	envDBPath          = "CARDSAGE_DB_PATH"
	envMasterKey       = "CARDSAGE_MASTER_KEY"
)

// Loader manages reading and writing the config file.
type Loader struct {
	mu       sync.RWMutex
	config   *Config
	filePath string
}

// NewLoader creates a loader for the given path. An empty path means
// ~/.cardsage/config.json.
func NewLoader(path string) (*Loader, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		dir := filepath.Join(home, configDir)
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, err
		}
		path = filepath.Join(dir, configFile)
	}
	return &Loader{filePath: path}, nil
}

// Load reads the config from disk. If the file doesn't exist, returns defaults.
// Environment variables override file values, and API keys stored with the
// "enc:" prefix are decrypted with the master key from the environment.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	cfg := Defaults()

	data, err := os.ReadFile(l.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			l.config = cfg
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	applyEnv(cfg)
	if err := decryptSecrets(cfg); err != nil {
		return nil, err
	}

	l.config = cfg
	return cfg, nil
}

// Save writes the current config to disk.
func (l *Loader) Save(cfg *Config) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	l.config = cfg
	return os.WriteFile(l.filePath, data, 0600)
}

// Get returns the currently loaded config (or defaults if not loaded yet).
func (l *Loader) Get() *Config {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.config == nil {
		return Defaults()
	}
	return l.config
}

// FilePath returns the config file path.
func (l *Loader) FilePath() string {
	return l.filePath
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(envAddr); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(envLLMAPIKey); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv(envEmbeddingAPIKey); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv(envVectorURL); v != "" {
		cfg.Vector.BaseURL = v
	}
	if v := os.Getenv(envDBPath); v != "" {
		cfg.History.DBPath = v
	}
	if cfg.Embedding.APIKey == "" {
		cfg.Embedding.APIKey = cfg.LLM.APIKey
	}
}

func decryptSecrets(cfg *Config) error {
	keys := []*string{
		&cfg.LLM.APIKey,
		&cfg.Embedding.APIKey,
		&cfg.Vector.APIKey,
	}
	if cfg.FallbackLLM != nil {
		keys = append(keys, &cfg.FallbackLLM.APIKey)
	}

	master := os.Getenv(envMasterKey)
	for _, k := range keys {
		if !security.IsEncrypted(*k) {
			continue
		}
		if master == "" {
			return fmt.Errorf("config contains encrypted keys but %s is not set", envMasterKey)
		}
		plain, err := security.DecryptSecret(*k, master)
		if err != nil {
			return fmt.Errorf("decrypt API key: %w", err)
		}
		*k = plain
	}
	return nil
}
