// Package config provides Viper-based configuration loading for the adventure engine.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout" or a file path. The interactive game logs
	// to a file so that entries do not interleave with the story.
	Output string `mapstructure:"output"`
}

// ContentConfig locates the data-driven catalogs.
type ContentConfig struct {
	SkillsDir  string `mapstructure:"skills_dir"`
	ItemsDir   string `mapstructure:"items_dir"`
	EnemiesDir string `mapstructure:"enemies_dir"`
	// ScriptsDir holds per-template enemy behavior scripts; empty disables scripting.
	ScriptsDir string `mapstructure:"scripts_dir"`
	// ScriptInstructionLimit bounds each behavior hook call.
	ScriptInstructionLimit int `mapstructure:"script_instruction_limit"`
}

// GameConfig tunes the story loop between encounters.
type GameConfig struct {
	EncounterChance   int      `mapstructure:"encounter_chance"`
	EncounterCooldown int      `mapstructure:"encounter_cooldown"`
	SafeLocations     []string `mapstructure:"safe_locations"`
	ManaRegen         int      `mapstructure:"mana_regen"`
	ManaRegenInterval int      `mapstructure:"mana_regen_interval"`
	WandRechargeTurns int      `mapstructure:"wand_recharge_turns"`
	MemoryInterval    int      `mapstructure:"memory_interval"`
	HistoryWindow     int      `mapstructure:"history_window"`
	// DiceSeed makes every roll reproducible when non-zero.
	DiceSeed int64 `mapstructure:"dice_seed"`
}

// NarratorConfig holds language-model narration settings.
type NarratorConfig struct {
	// APIKey enables model narration; when empty only plain narration is used.
	APIKey     string        `mapstructure:"api_key"`
	Models     []string      `mapstructure:"models"`
	MaxTokens  int64         `mapstructure:"max_tokens"`
	Retries    int           `mapstructure:"retries"`
	RetryDelay time.Duration `mapstructure:"retry_delay"`
}

// Enabled reports whether model narration is configured.
func (n NarratorConfig) Enabled() bool {
	return n.APIKey != ""
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Content  ContentConfig  `mapstructure:"content"`
	Game     GameConfig     `mapstructure:"game"`
	Narrator NarratorConfig `mapstructure:"narrator"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateDatabase(c.Database),
		validateLogging(c.Logging),
		validateContent(c.Content),
		validateGame(c.Game),
		validateNarrator(c.Narrator),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func joined(errs []string) error {
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	return joined(errs)
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if l.Output == "" {
		return fmt.Errorf("logging.output must not be empty")
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	if c.SkillsDir == "" {
		errs = append(errs, "content.skills_dir must not be empty")
	}
	if c.ItemsDir == "" {
		errs = append(errs, "content.items_dir must not be empty")
	}
	if c.EnemiesDir == "" {
		errs = append(errs, "content.enemies_dir must not be empty")
	}
	if c.ScriptInstructionLimit < 0 {
		errs = append(errs, fmt.Sprintf("content.script_instruction_limit must be >= 0, got %d", c.ScriptInstructionLimit))
	}
	return joined(errs)
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.EncounterChance < 0 || g.EncounterChance > 100 {
		errs = append(errs, fmt.Sprintf("game.encounter_chance must be 0-100, got %d", g.EncounterChance))
	}
	for name, v := range map[string]int{
		"game.encounter_cooldown":  g.EncounterCooldown,
		"game.mana_regen":          g.ManaRegen,
		"game.mana_regen_interval": g.ManaRegenInterval,
		"game.wand_recharge_turns": g.WandRechargeTurns,
		"game.memory_interval":     g.MemoryInterval,
	} {
		if v < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0, got %d", name, v))
		}
	}
	if g.HistoryWindow < 1 {
		errs = append(errs, fmt.Sprintf("game.history_window must be >= 1, got %d", g.HistoryWindow))
	}
	return joined(errs)
}

func validateNarrator(n NarratorConfig) error {
	if !n.Enabled() {
		return nil
	}
	var errs []string
	if len(n.Models) == 0 {
		errs = append(errs, "narrator.models must not be empty when narrator.api_key is set")
	}
	if n.MaxTokens < 1 {
		errs = append(errs, fmt.Sprintf("narrator.max_tokens must be >= 1, got %d", n.MaxTokens))
	}
	if n.Retries < 1 {
		errs = append(errs, fmt.Sprintf("narrator.retries must be >= 1, got %d", n.Retries))
	}
	if n.RetryDelay < 0 {
		errs = append(errs, "narrator.retry_delay must not be negative")
	}
	return joined(errs)
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and ADVENTURE_ environment
// overrides applied, ready for a config file or flag bindings.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("ADVENTURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "adventure")
	v.SetDefault("database.password", "adventure")
	v.SetDefault("database.name", "adventure")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("content.skills_dir", "content/skills")
	v.SetDefault("content.items_dir", "content/items")
	v.SetDefault("content.enemies_dir", "content/enemies")
	v.SetDefault("content.scripts_dir", "content/scripts/ai")
	v.SetDefault("content.script_instruction_limit", 100000)

	v.SetDefault("game.encounter_chance", 20)
	v.SetDefault("game.encounter_cooldown", 30)
	v.SetDefault("game.safe_locations", []string{"tavern", "town", "city", "shop", "inn", "initial tavern"})
	v.SetDefault("game.mana_regen", 5)
	v.SetDefault("game.mana_regen_interval", 5)
	v.SetDefault("game.wand_recharge_turns", 20)
	v.SetDefault("game.memory_interval", 10)
	v.SetDefault("game.history_window", 10)
	v.SetDefault("game.dice_seed", 0)

	v.SetDefault("narrator.models", []string{"claude-sonnet-4-5", "claude-haiku-4-5"})
	v.SetDefault("narrator.max_tokens", 400)
	v.SetDefault("narrator.retries", 3)
	v.SetDefault("narrator.retry_delay", "2s")
}
