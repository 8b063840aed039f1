// Package config provides configuration loading for the vision extractor.
// Supports YAML files, .env files, environment variables and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spherical/vision-extractor/internal/domain"
)

// Backend kinds.
const (
	BackendHosted = "hosted"
	BackendLocal  = "local"
	BackendCompat = "compat"
)

// Rasterizer engines.
const (
	EnginePoppler = "poppler"
	EngineMuPDF   = "mupdf"
)

// DPI bounds accepted by the rasterizer.
const (
	MinDPI = 36
	MaxDPI = 600
)

// Config holds all configuration for the extractor.
type Config struct {
	Document      DocumentConfig      `yaml:"document"`
	Prompt        PromptConfig        `yaml:"prompt"`
	Rasterizer    RasterizerConfig    `yaml:"rasterizer"`
	Backend       BackendConfig       `yaml:"backend"`
	Interpreter   InterpreterConfig   `yaml:"interpreter"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// DocumentConfig holds the source document settings.
type DocumentConfig struct {
	Path string `yaml:"path"`
}

// PromptConfig holds the prompt source settings.
type PromptConfig struct {
	Path string `yaml:"path"`
}

// RasterizerConfig holds page rendering settings.
type RasterizerConfig struct {
	Engine string `yaml:"engine"` // poppler or mupdf
	DPI    int    `yaml:"dpi"`
	// ToolchainPaths are directories tried in order for the poppler binaries
	// before falling back to $PATH.
	ToolchainPaths []string `yaml:"toolchain_paths"`
	TempDir        string   `yaml:"temp_dir"`
}

// BackendConfig selects and configures the model backend.
type BackendConfig struct {
	Kind   string       `yaml:"kind"` // hosted, local or compat
	Hosted HostedConfig `yaml:"hosted"`
	Local  LocalConfig  `yaml:"local"`
	Compat CompatConfig `yaml:"compat"`
}

// HostedConfig holds settings for the upload-then-reference backend.
type HostedConfig struct {
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	BaseURL   string        `yaml:"base_url"`
	Detail    string        `yaml:"detail"`
	Timeout   time.Duration `yaml:"timeout"`
}

// LocalConfig holds settings for the local model-serving process.
type LocalConfig struct {
	Host  string `yaml:"host"`
	Model string `yaml:"model"`
}

// CompatConfig holds settings for OpenAI-compatible chat endpoints.
type CompatConfig struct {
	Model     string        `yaml:"model"`
	APIKeyEnv string        `yaml:"api_key_env"`
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
}

// InterpreterConfig holds reply interpretation settings.
type InterpreterConfig struct {
	StripCodeFences bool `yaml:"strip_code_fences"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// Load reads .env, the optional YAML file at path and environment overrides,
// then validates the result.
func Load(path string) (*Config, error) {
	cfg, err := LoadUnvalidated(path)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadUnvalidated is Load without the final Validate call, for callers that
// layer further overrides (command-line flags) before validating.
func LoadUnvalidated(path string) (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, domain.ConfigError(fmt.Sprintf("read config file %s", path), err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, domain.ConfigError(fmt.Sprintf("parse config file %s", path), err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with the defaults of the original scripts.
func DefaultConfig() *Config {
	return &Config{
		Document: DocumentConfig{
			Path: "document.pdf",
		},
		Prompt: PromptConfig{
			Path: "prompt.txt",
		},
		Rasterizer: RasterizerConfig{
			Engine: EnginePoppler,
			DPI:    200,
			ToolchainPaths: []string{
				"/opt/homebrew/opt/poppler/bin", // Apple Silicon Homebrew
				"/usr/local/opt/poppler/bin",    // Intel Homebrew
			},
		},
		Backend: BackendConfig{
			Kind: BackendHosted,
			Hosted: HostedConfig{
				Model:     "gpt-4.1-mini",
				APIKeyEnv: "OPENAI_API_KEY",
				Detail:    "high",
				Timeout:   5 * time.Minute,
			},
			Local: LocalConfig{
				Host:  "http://localhost:11434",
				Model: "llava",
			},
			Compat: CompatConfig{
				Model:     "google/gemini-2.5-flash-preview-09-2025",
				APIKeyEnv: "OPENROUTER_API_KEY",
				BaseURL:   "https://openrouter.ai/api/v1",
				Timeout:   5 * time.Minute,
			},
		},
		Observability: ObservabilityConfig{
			LogLevel:  "warn",
			LogFormat: "console",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case BackendHosted, BackendLocal, BackendCompat:
	default:
		return domain.ConfigError(fmt.Sprintf("invalid backend kind: %q", c.Backend.Kind), nil)
	}

	switch c.Rasterizer.Engine {
	case EnginePoppler, EngineMuPDF:
	default:
		return domain.ConfigError(fmt.Sprintf("invalid rasterizer engine: %q", c.Rasterizer.Engine), nil)
	}

	if c.Rasterizer.DPI < MinDPI || c.Rasterizer.DPI > MaxDPI {
		return domain.ConfigError(fmt.Sprintf("dpi must be between %d and %d, got %d", MinDPI, MaxDPI, c.Rasterizer.DPI), nil)
	}

	if strings.TrimSpace(c.Model()) == "" {
		return domain.ConfigError(fmt.Sprintf("model is required for backend %s", c.Backend.Kind), nil)
	}

	if c.Backend.Kind == BackendHosted && c.Backend.Hosted.APIKeyEnv == "" {
		return domain.ConfigError("backend.hosted.api_key_env is required", nil)
	}

	return nil
}

// Model returns the model identifier of the selected backend.
func (c *Config) Model() string {
	switch c.Backend.Kind {
	case BackendLocal:
		return c.Backend.Local.Model
	case BackendCompat:
		return c.Backend.Compat.Model
	default:
		return c.Backend.Hosted.Model
	}
}

// SetModel overrides the model identifier of the selected backend.
func (c *Config) SetModel(model string) {
	switch c.Backend.Kind {
	case BackendLocal:
		c.Backend.Local.Model = model
	case BackendCompat:
		c.Backend.Compat.Model = model
	default:
		c.Backend.Hosted.Model = model
	}
}

// HostedAPIKey returns the hosted backend credential from the environment.
// An empty string means the credential is absent.
func (c *Config) HostedAPIKey() string {
	return strings.TrimSpace(os.Getenv(c.Backend.Hosted.APIKeyEnv))
}

// CompatAPIKey returns the compat backend credential from the environment.
func (c *Config) CompatAPIKey() string {
	return strings.TrimSpace(os.Getenv(c.Backend.Compat.APIKeyEnv))
}

// applyEnvOverrides applies environment variable overrides to config.
func applyEnvOverrides(cfg *Config) error {
	if v := os.Getenv("VISION_DOCUMENT"); v != "" {
		cfg.Document.Path = v
	}

	if v := os.Getenv("VISION_PROMPT_FILE"); v != "" {
		cfg.Prompt.Path = v
	}

	if v := os.Getenv("VISION_BACKEND"); v != "" {
		cfg.Backend.Kind = strings.ToLower(v)
	}

	// Applied after VISION_BACKEND so it targets the selected backend.
	if v := os.Getenv("VISION_MODEL"); v != "" {
		cfg.SetModel(v)
	}

	if v := os.Getenv("VISION_ENGINE"); v != "" {
		cfg.Rasterizer.Engine = strings.ToLower(v)
	}

	if v := os.Getenv("VISION_DPI"); v != "" {
		dpi, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return domain.ConfigError(fmt.Sprintf("VISION_DPI must be an integer, got %q", v), err)
		}
		cfg.Rasterizer.DPI = dpi
	}

	if v := os.Getenv("VISION_TOOLCHAIN_PATHS"); v != "" {
		cfg.Rasterizer.ToolchainPaths = splitList(v)
	}

	if v := os.Getenv("OLLAMA_HOST"); v != "" {
		cfg.Backend.Local.Host = normalizeHost(v)
	}

	if v := os.Getenv("OPENAI_BASE_URL"); v != "" {
		cfg.Backend.Hosted.BaseURL = v
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}

	return nil
}

// splitList splits a path-list-separated value, dropping empty entries.
func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, string(os.PathListSeparator)) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// normalizeHost accepts the host:port form OLLAMA_HOST commonly uses.
func normalizeHost(v string) string {
	v = strings.TrimRight(strings.TrimSpace(v), "/")
	if !strings.Contains(v, "://") {
		v = "http://" + v
	}
	return v
}
