// Package config provides the public configuration types and load/save
// utilities for a shipwright project: the declared-repositories
// configuration file (spec.md §6) plus the per-run strategy knobs
// (spec.md §9's "configuration objects, not kwargs").
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/spf13/viper"
)

// BumpStrategy selects the dependency-range prefix the updater writes when
// rewriting a dependent's manifest (spec.md §4.6).
type BumpStrategy string

const (
	BumpStrategyCaret BumpStrategy = "caret"
	BumpStrategyTilde BumpStrategy = "tilde"
	BumpStrategyExact BumpStrategy = "exact"
)

// VersionStrategy selects how the planner treats packages with no explicit
// changeset of their own. "independent" is the only strategy this module
// implements; IsValid rejects any other non-empty value.
type VersionStrategy string

const VersionStrategyIndependent VersionStrategy = "independent"

// Config is a project's declared-repositories configuration: the set of
// sibling repositories a release spans, plus the default strategy knobs
// for plan/publish. Loaded from shipwright.yaml.
type Config struct {
	Extends         string          `mapstructure:"extends,omitempty" json:"extends,omitempty" yaml:"extends,omitempty"`
	ReposDir        string          `mapstructure:"repos_dir,omitempty" json:"repos_dir,omitempty" yaml:"repos_dir,omitempty"`
	Repos           []RepoEntry     `mapstructure:"repos" json:"repos" yaml:"repos"`
	BumpStrategy    BumpStrategy    `mapstructure:"bump_strategy,omitempty" json:"bump_strategy,omitempty" yaml:"bump_strategy,omitempty"`
	VersionStrategy VersionStrategy `mapstructure:"version_strategy,omitempty" json:"version_strategy,omitempty" yaml:"version_strategy,omitempty"`
	Registry        RegistryConfig  `mapstructure:"registry,omitempty" json:"registry,omitempty" yaml:"registry,omitempty"`
}

// RegistryConfig names the GitHub repository backing the Registry
// capability and how to authenticate against it.
type RegistryConfig struct {
	Owner     string `mapstructure:"owner" json:"owner" yaml:"owner"`
	Repo      string `mapstructure:"repo" json:"repo" yaml:"repo"`
	TokenSpec string `mapstructure:"token,omitempty" json:"token,omitempty" yaml:"token,omitempty"`
}

// ValidationError reports a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Field + ": " + e.Message }

// Default returns a configuration with every strategy knob at its spec.md
// §9-listed default, with no repositories declared.
func Default() *Config {
	return &Config{
		BumpStrategy:    BumpStrategyCaret,
		VersionStrategy: VersionStrategyIndependent,
	}
}

// WithDefaults fills zero-valued strategy fields with Default()'s values,
// leaving anything the caller set untouched.
func (c *Config) WithDefaults() *Config {
	result := *c
	if result.BumpStrategy == "" {
		result.BumpStrategy = BumpStrategyCaret
	}
	if result.VersionStrategy == "" {
		result.VersionStrategy = VersionStrategyIndependent
	}
	return &result
}

// IsValid validates the configuration's own fields. It does not require
// Repos to be non-empty, since a base config meant only to be `extends`-ed
// legitimately declares none (mirroring the teacher's remote base configs).
func (c *Config) IsValid() error {
	if c.VersionStrategy != "" && c.VersionStrategy != VersionStrategyIndependent {
		return &ValidationError{Field: "version_strategy", Message: fmt.Sprintf("unsupported version strategy: %s", c.VersionStrategy)}
	}
	switch c.BumpStrategy {
	case "", BumpStrategyCaret, BumpStrategyTilde, BumpStrategyExact:
	default:
		return &ValidationError{Field: "bump_strategy", Message: fmt.Sprintf("unsupported bump strategy: %s", c.BumpStrategy)}
	}
	for i, repo := range c.Repos {
		if err := repo.IsValid(); err != nil {
			return fmt.Errorf("repos[%d].%w", i, err)
		}
	}
	return nil
}

// Load reads a shipwright.yaml (or .yml/.json/.toml) file at configPath,
// following its `extends` chain and merging each base config into the
// child with dario.cat/mergo (fields the child already sets win; fields
// the child leaves zero are filled from the base), the same fill-the-gaps
// semantics the teacher's own `extends` support relies on, now via a
// struct merge instead of viper.MergeConfigMap over raw maps.
func Load(configPath string) (*Config, error) {
	cfg, err := loadOne(configPath)
	if err != nil {
		return nil, err
	}

	visited := map[string]bool{absOrSelf(configPath): true}
	current := configPath
	for cfg.Extends != "" {
		basePath := resolveExtends(cfg.Extends, current)
		if visited[absOrSelf(basePath)] {
			return nil, fmt.Errorf("extends cycle detected at %s", basePath)
		}
		visited[absOrSelf(basePath)] = true

		base, err := loadOne(basePath)
		if err != nil {
			return nil, fmt.Errorf("load base config %s: %w", basePath, err)
		}

		merged := *base
		if err := mergo.Merge(&merged, *cfg, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge base config %s: %w", basePath, err)
		}
		merged.Extends = base.Extends
		cfg = &merged
		current = basePath
	}

	result := cfg.WithDefaults()
	if err := result.IsValid(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return result, nil
}

func loadOne(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", configPath)
	}

	v := viper.New()
	setViperConfigFromPath(v, configPath)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func resolveExtends(extends, currentConfigPath string) string {
	if filepath.IsAbs(extends) {
		return extends
	}
	return filepath.Join(filepath.Dir(currentConfigPath), extends)
}

func absOrSelf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}

func setViperConfigFromPath(v *viper.Viper, path string) {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)
	ext = strings.TrimPrefix(ext, ".")

	v.SetConfigName(name)
	v.SetConfigType(ext)
	v.AddConfigPath(dir)
}

// Save writes cfg to configPath as YAML via viper, refusing to write an
// invalid configuration.
func Save(cfg *Config, configPath string) error {
	if err := cfg.IsValid(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	v := viper.New()
	setViperConfigFromPath(v, configPath)
	if cfg.Extends != "" {
		v.Set("extends", cfg.Extends)
	}
	if cfg.ReposDir != "" {
		v.Set("repos_dir", cfg.ReposDir)
	}
	v.Set("repos", cfg.Repos)
	if cfg.BumpStrategy != "" {
		v.Set("bump_strategy", cfg.BumpStrategy)
	}
	if cfg.VersionStrategy != "" {
		v.Set("version_strategy", cfg.VersionStrategy)
	}
	if cfg.Registry.Owner != "" || cfg.Registry.Repo != "" {
		v.Set("registry", cfg.Registry)
	}

	if err := v.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ReposDirOrDefault returns c.ReposDir, defaulting to the parent of the
// directory that holds configPath (/projects/acme for
// /projects/acme/.shipwright/shipwright.yaml).
func (c *Config) ReposDirOrDefault(configPath string) string {
	if c.ReposDir != "" {
		return c.ReposDir
	}
	return filepath.Dir(filepath.Dir(configPath))
}
