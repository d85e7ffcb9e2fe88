package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	OCR       OCR       `yaml:"ocr"`
	Grading   Grading   `yaml:"grading"`
	Knowledge Knowledge `yaml:"knowledge"`
	Pipeline  Pipeline  `yaml:"pipeline"`
	Output    Output    `yaml:"output"`
	Logging   Logging   `yaml:"logging"`
}

type OCR struct {
	Provider       string  `yaml:"provider"`
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

type Grading struct {
	BaseURL        string  `yaml:"base_url"`
	Model          string  `yaml:"model"`
	APIKeyEnv      string  `yaml:"api_key_env"`
	Temperature    float64 `yaml:"temperature"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

type Knowledge struct {
	RelevanceLimit int `yaml:"relevance_limit"`
	ImportLimit    int `yaml:"import_limit"`
}

type Pipeline struct {
	ItemTimeoutSeconds int `yaml:"item_timeout_seconds"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConfigDir returns the XDG config directory for smartgrade.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "smartgrade")
}

// DataDir returns the XDG data directory for smartgrade.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "smartgrade")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/smartgrade/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'smartgrade init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		panic(fmt.Sprintf("embedded default config is invalid: %v", err))
	}
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		OCR: OCR{
			Provider:       "zhipu",
			BaseURL:        "https://open.bigmodel.cn/api/paas/v4",
			Model:          "glm-4v-plus",
			APIKeyEnv:      "ZHIPU_API_KEY",
			Temperature:    0.1,
			TimeoutSeconds: 120,
		},
		Grading: Grading{
			BaseURL:        "https://api.deepseek.com",
			Model:          "deepseek-chat",
			APIKeyEnv:      "DEEPSEEK_API_KEY",
			Temperature:    0.3,
			TimeoutSeconds: 120,
		},
		Knowledge: Knowledge{RelevanceLimit: 3, ImportLimit: 20},
		Pipeline:  Pipeline{ItemTimeoutSeconds: 300},
		Logging:   Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Knowledge.RelevanceLimit <= 0 {
		return nil, fmt.Errorf("knowledge.relevance_limit must be positive, got %d", cfg.Knowledge.RelevanceLimit)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// Timeout converts the OCR timeout to a duration.
func (o OCR) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

// Timeout converts the grading timeout to a duration.
func (g Grading) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// ItemTimeout converts the per-item bound to a duration; zero means unbounded.
func (p Pipeline) ItemTimeout() time.Duration {
	return time.Duration(p.ItemTimeoutSeconds) * time.Second
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
