package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/devricklin/smart-listener/internal/biz/domain"
	"github.com/devricklin/smart-listener/internal/biz/usecase"
)

// Config represents application configuration
type Config struct {
	// Relevance gate
	Enabled                      bool       `yaml:"enabled"`
	RelevanceCheckerProviderID   string     `yaml:"relevance_checker_provider_id"`
	Character                    string     `yaml:"character"`
	RelevanceCheckerSystemPrompt string     `yaml:"relevance_checker_system_prompt"`
	GroupWhitelist               StringList `yaml:"group_whitelist"`

	// History sizing, fixed for the life of the process
	HistoryCapacity int `yaml:"history_capacity"`
	MaxGroups       int `yaml:"max_groups"` // 0 means unbounded

	Classifier ClassifierConfig `yaml:"classifier"`
	Providers  []ProviderConfig `yaml:"providers"`

	Feishu FeishuConfig `yaml:"feishu"`
	NATS   NATSConfig   `yaml:"nats"`
	API    APIConfig    `yaml:"api"`
	Audit  AuditConfig  `yaml:"audit"`
	Log    LogConfig    `yaml:"log"`

	// Path the config was loaded from, empty when defaults were used
	Path string `yaml:"-"`
}

// ClassifierConfig contains relevance classifier call settings
type ClassifierConfig struct {
	TimeoutSeconds int      `yaml:"timeout_seconds"`
	MaxTokens      int      `yaml:"max_tokens"`
	Temperature    *float32 `yaml:"temperature"`
}

// ProviderConfig describes an OpenAI-compatible model endpoint
type ProviderConfig struct {
	ID        string `yaml:"id"`
	BaseURL   string `yaml:"base_url"`
	APIKeyEnv string `yaml:"api_key_env"`
	Model     string `yaml:"model"`
}

// APIKey reads the provider's key from the environment
func (p *ProviderConfig) APIKey() string {
	if p.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(p.APIKeyEnv)
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID     string `yaml:"app_id"`
	AppSecret string `yaml:"app_secret"`
}

// Enabled checks if the Feishu message source is configured
func (c *FeishuConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != ""
}

// NATSConfig contains the forward/reply bus configuration.
// An empty URL forwards to the log only.
type NATSConfig struct {
	URL            string `yaml:"url"`
	ForwardSubject string `yaml:"forward_subject"`
	ReplySubject   string `yaml:"reply_subject"`
}

// APIConfig contains admin API configuration
type APIConfig struct {
	Addr string `yaml:"addr"`
}

// AuditConfig contains judgment audit log configuration
type AuditConfig struct {
	DBPath   string `yaml:"db_path"`
	Disabled bool   `yaml:"disabled"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level   string `yaml:"level"`
	Console bool   `yaml:"console"`
}

// StringList decodes either a YAML sequence or a comma separated scalar.
// Numeric entries such as group IDs are kept as written.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler
func (l *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		out := make([]string, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected a scalar list entry", item.Line)
			}
			if v := strings.TrimSpace(item.Value); v != "" {
				out = append(out, v)
			}
		}
		*l = out
	case yaml.ScalarNode:
		*l = splitList(node.Value)
	default:
		return fmt.Errorf("line %d: expected a list", node.Line)
	}
	return nil
}

// Load loads configuration from a YAML file, then applies environment
// overrides and defaults. With an empty path the usual locations are tried;
// if none exists the defaults are used.
func Load(configPath string) (*Config, error) {
	paths := []string{configPath}
	if configPath == "" {
		paths = []string{
			"configs/listener.yaml",
			"/etc/smart-listener/listener.yaml",
		}
		if execPath, err := os.Executable(); err == nil {
			paths = append(paths, filepath.Join(filepath.Dir(execPath), "configs", "listener.yaml"))
		}
	}

	var data []byte
	var loadedPath string
	var err error

	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			loadedPath = p
			break
		}
	}

	config := &Config{}
	if data == nil {
		if configPath != "" {
			return nil, fmt.Errorf("failed to read %s: %w", configPath, err)
		}
		log.Info().Msg("no listener.yaml found, using defaults")
	} else {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", loadedPath, err)
		}
		config.Path = loadedPath
	}

	if err := config.applyEnv(); err != nil {
		return nil, err
	}
	config.fillDefaults()
	return config, nil
}

// applyEnv overrides file values with environment variables
func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString("FEISHU_APP_ID", &c.Feishu.AppID)
	setString("FEISHU_APP_SECRET", &c.Feishu.AppSecret)
	setString("NATS_URL", &c.NATS.URL)
	setString("LISTENER_API_ADDR", &c.API.Addr)
	setString("AUDIT_DB_PATH", &c.Audit.DBPath)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("RELEVANCE_PROVIDER_ID", &c.RelevanceCheckerProviderID)
	setString("CHARACTER", &c.Character)

	if v := os.Getenv("LISTENER_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return &ConfigError{Field: "LISTENER_ENABLED", Message: fmt.Sprintf("invalid bool %q", v)}
		}
		c.Enabled = enabled
	}
	if v := os.Getenv("GROUP_WHITELIST"); v != "" {
		c.GroupWhitelist = splitList(v)
	}
	return nil
}

// fillDefaults fills in default values for empty fields
func (c *Config) fillDefaults() {
	if c.RelevanceCheckerSystemPrompt == "" {
		c.RelevanceCheckerSystemPrompt = usecase.DefaultJudgmentSystemPrompt
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = domain.DefaultHistoryCapacity
	}
	if c.MaxGroups < 0 {
		c.MaxGroups = 0
	}

	defaults := usecase.DefaultClassifierConfig()
	if c.Classifier.TimeoutSeconds <= 0 {
		c.Classifier.TimeoutSeconds = int(defaults.Timeout / time.Second)
	}
	if c.Classifier.MaxTokens <= 0 {
		c.Classifier.MaxTokens = defaults.MaxTokens
	}
	if c.Classifier.Temperature == nil {
		t := defaults.Temperature
		c.Classifier.Temperature = &t
	}

	if c.NATS.ForwardSubject == "" {
		c.NATS.ForwardSubject = "listener.forward"
	}
	if c.NATS.ReplySubject == "" {
		c.NATS.ReplySubject = "listener.replies"
	}
	if c.API.Addr == "" {
		c.API.Addr = ":9876"
	}
	if c.Audit.DBPath == "" {
		c.Audit.DBPath = "~/.smart-listener/judgments.db"
	}
	c.Audit.DBPath = expandHome(c.Audit.DBPath)
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

// ToGateConfig converts to the gate's configuration
func (c *Config) ToGateConfig() domain.GateConfig {
	return domain.NewGateConfig(
		c.Enabled,
		c.RelevanceCheckerProviderID,
		c.Character,
		c.RelevanceCheckerSystemPrompt,
		c.GroupWhitelist,
	)
}

// ToClassifierConfig converts to classifier call settings
func (c *ClassifierConfig) ToClassifierConfig() usecase.ClassifierConfig {
	cfg := usecase.ClassifierConfig{
		Timeout:   time.Duration(c.TimeoutSeconds) * time.Second,
		MaxTokens: c.MaxTokens,
	}
	if c.Temperature != nil {
		cfg.Temperature = *c.Temperature
	}
	return cfg
}

// Provider finds a provider by ID
func (c *Config) Provider(id string) (*ProviderConfig, bool) {
	for i := range c.Providers {
		if c.Providers[i].ID == id {
			return &c.Providers[i], true
		}
	}
	return nil, false
}

// Validate checks the provider list. Problems that only deactivate the gate,
// such as selecting a provider that is not listed, are not errors here; the
// gate reports them and stays inactive.
func (c *Config) Validate() error {
	seen := make(map[string]bool, len(c.Providers))
	for _, p := range c.Providers {
		if p.ID == "" {
			return &ConfigError{Field: "providers.id", Message: "required"}
		}
		if seen[p.ID] {
			return &ConfigError{Field: "providers.id", Message: fmt.Sprintf("duplicate %q", p.ID)}
		}
		seen[p.ID] = true
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
