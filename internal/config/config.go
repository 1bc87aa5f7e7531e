// Package config provides configuration management for the patrol core.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (PATROL_*)
// 3. Project config (.patrol/config.yaml in cwd)
// 4. Home config (~/.patrol/config.yaml)
// 5. Defaults
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all patrol configuration.
type Config struct {
	// BaseDir is the patrol scratch data directory (default: .patrol-tmp).
	BaseDir string `yaml:"base_dir" json:"base_dir"`

	// Verbose enables verbose output.
	Verbose bool `yaml:"verbose" json:"verbose"`

	// Storage controls retention quotas for transient patrol artifacts.
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Embedding settings passed through to the Indexer CLI.
	Embedding EmbeddingConfig `yaml:"embedding" json:"embedding"`

	// Agent settings for the supervised subprocess.
	Agent AgentConfig `yaml:"agent" json:"agent"`
}

// StorageConfig holds retention-quota settings.
type StorageConfig struct {
	// CapTotalBytes is the total on-disk byte budget for transient artifacts.
	CapTotalBytes int64 `yaml:"cap_total_bytes" json:"cap_total_bytes"`
	// CapAgeHours is the max age, in hours, before an entry is GC-eligible.
	CapAgeHours int `yaml:"cap_age_hours" json:"cap_age_hours"`
	// CapEntries is the max number of retained entries per class.
	CapEntries int `yaml:"cap_entries" json:"cap_entries"`
}

// EmbeddingConfig holds the embedding provider/model passed to the Indexer.
type EmbeddingConfig struct {
	Provider string `yaml:"provider" json:"provider"`
	Model    string `yaml:"model" json:"model"`
}

// AgentConfig holds agent-subprocess settings.
type AgentConfig struct {
	// Bin overrides agent binary discovery.
	Bin string `yaml:"bin" json:"bin"`
	// SkipHealthAssert lets clone-gate proceed without an embedding
	// provider configured. It does not turn off the gate's status health
	// assertions, which still run and count toward the verdict.
	SkipHealthAssert bool `yaml:"skip_health_assert" json:"skip_health_assert"`
}

// Default config values (used in resolution and validation).
const (
	defaultBaseDir       = ".patrol-tmp"
	defaultCapTotalBytes = int64(10 << 30) // 10 GiB
	defaultCapAgeHours   = 168              // 7 days
	defaultCapEntries    = 50
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		BaseDir: defaultBaseDir,
		Verbose: false,
		Storage: StorageConfig{
			CapTotalBytes: defaultCapTotalBytes,
			CapAgeHours:   defaultCapAgeHours,
			CapEntries:    defaultCapEntries,
		},
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	cfg := Default()

	homeConfig, _ := loadFromPath(homeConfigPath())
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, _ := loadFromPath(projectConfigPath())
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	return cfg, nil
}

// homeConfigPath returns the home config path.
func homeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".patrol", "config.yaml")
}

// projectConfigPath returns the project config path.
func projectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("PATROL_CONFIG")); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, ".patrol", "config.yaml")
}

// loadFromPath loads config from a YAML file.
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv("PATROL_BASE_DIR"); v != "" {
		cfg.BaseDir = v
	}
	if v := os.Getenv("PATROL_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("PATROL_STORAGE_CAP_TOTAL"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Storage.CapTotalBytes = n
		}
	}
	if v := os.Getenv("PATROL_STORAGE_CAP_AGE_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.CapAgeHours = n
		}
	}
	if v := os.Getenv("PATROL_STORAGE_CAP_ENTRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Storage.CapEntries = n
		}
	}
	if v := os.Getenv("PATROL_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("PATROL_EMBEDDING_MODEL"); v != "" {
		cfg.Embedding.Model = v
	}
	if v := os.Getenv("PATROL_SKIP_HEALTH_ASSERT"); v == "true" || v == "1" {
		cfg.Agent.SkipHealthAssert = true
	}
	if v := os.Getenv("PATROL_AGENT_BIN"); v != "" {
		cfg.Agent.Bin = v
	}
	return cfg
}

// merge merges src into dst, with src values taking precedence.
func merge(dst, src *Config) *Config {
	if src.BaseDir != "" {
		dst.BaseDir = src.BaseDir
	}
	if src.Verbose {
		dst.Verbose = true
	}
	if src.Storage.CapTotalBytes != 0 {
		dst.Storage.CapTotalBytes = src.Storage.CapTotalBytes
	}
	if src.Storage.CapAgeHours != 0 {
		dst.Storage.CapAgeHours = src.Storage.CapAgeHours
	}
	if src.Storage.CapEntries != 0 {
		dst.Storage.CapEntries = src.Storage.CapEntries
	}
	if src.Embedding.Provider != "" {
		dst.Embedding.Provider = src.Embedding.Provider
	}
	if src.Embedding.Model != "" {
		dst.Embedding.Model = src.Embedding.Model
	}
	if src.Agent.Bin != "" {
		dst.Agent.Bin = src.Agent.Bin
	}
	if src.Agent.SkipHealthAssert {
		dst.Agent.SkipHealthAssert = true
	}
	return dst
}

// Source represents where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.patrol/config.yaml"
	SourceProject Source = ".patrol/config.yaml"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

// getEnvString returns the value and whether the env var was set.
func getEnvString(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

// getEnvBool returns the boolean value and whether it was truthy.
func getEnvBool(key string) (bool, bool) {
	v := os.Getenv(key)
	if v == "true" || v == "1" {
		return true, true
	}
	return false, false
}

// resolveStringField resolves a string through the precedence chain.
// Returns the resolved value and its source.
func resolveStringField(home, project, env, flag, def string) resolved {
	result := resolved{Value: def, Source: SourceDefault}
	if home != "" {
		result = resolved{Value: home, Source: SourceHome}
	}
	if project != "" {
		result = resolved{Value: project, Source: SourceProject}
	}
	if env != "" {
		result = resolved{Value: env, Source: SourceEnv}
	}
	if flag != "" {
		result = resolved{Value: flag, Source: SourceFlag}
	}
	return result
}

// ResolvedConfig shows config values with their sources, for `patrolctl run
// --show-config`-style diagnostics.
type ResolvedConfig struct {
	BaseDir           resolved `json:"base_dir"`
	Verbose           resolved `json:"verbose"`
	EmbeddingProvider resolved `json:"embedding_provider"`
	EmbeddingModel    resolved `json:"embedding_model"`
	AgentBin          resolved `json:"agent_bin"`
}

type resolved struct {
	Value  interface{} `json:"value"`
	Source Source      `json:"source"`
}

// Resolve returns configuration with source tracking.
// Uses precedence chain: flags > env > project > home > defaults.
func Resolve(flagBaseDir, flagEmbeddingProvider, flagEmbeddingModel, flagAgentBin string, flagVerbose bool) *ResolvedConfig {
	homeConfig, _ := loadFromPath(homeConfigPath())
	projectConfig, _ := loadFromPath(projectConfigPath())

	var homeBaseDir, homeProvider, homeModel, homeAgentBin string
	var homeVerbose bool
	if homeConfig != nil {
		homeBaseDir = homeConfig.BaseDir
		homeVerbose = homeConfig.Verbose
		homeProvider = homeConfig.Embedding.Provider
		homeModel = homeConfig.Embedding.Model
		homeAgentBin = homeConfig.Agent.Bin
	}

	var projectBaseDir, projectProvider, projectModel, projectAgentBin string
	var projectVerbose bool
	if projectConfig != nil {
		projectBaseDir = projectConfig.BaseDir
		projectVerbose = projectConfig.Verbose
		projectProvider = projectConfig.Embedding.Provider
		projectModel = projectConfig.Embedding.Model
		projectAgentBin = projectConfig.Agent.Bin
	}

	envBaseDir, _ := getEnvString("PATROL_BASE_DIR")
	envVerbose, envVerboseSet := getEnvBool("PATROL_VERBOSE")
	envProvider, _ := getEnvString("PATROL_EMBEDDING_PROVIDER")
	envModel, _ := getEnvString("PATROL_EMBEDDING_MODEL")
	envAgentBin, _ := getEnvString("PATROL_AGENT_BIN")

	rc := &ResolvedConfig{
		BaseDir:           resolveStringField(homeBaseDir, projectBaseDir, envBaseDir, flagBaseDir, defaultBaseDir),
		Verbose:           resolved{Value: false, Source: SourceDefault},
		EmbeddingProvider: resolveStringField(homeProvider, projectProvider, envProvider, flagEmbeddingProvider, ""),
		EmbeddingModel:    resolveStringField(homeModel, projectModel, envModel, flagEmbeddingModel, ""),
		AgentBin:          resolveStringField(homeAgentBin, projectAgentBin, envAgentBin, flagAgentBin, ""),
	}

	if homeVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceHome}
	}
	if projectVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceProject}
	}
	if envVerboseSet && envVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceEnv}
	}
	if flagVerbose {
		rc.Verbose = resolved{Value: true, Source: SourceFlag}
	}

	return rc
}
