// Package config loads the settings of the neo4j-ogm server.
//
// Values are applied in order, each step overriding the previous one:
//  1. built-in defaults
//  2. an optional YAML file
//  3. NEO4J_* environment variables
//  4. command line flags (applied by the caller)
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid configuration")

// Config holds the connection, session and logging settings.
type Config struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	// ReadOnly hides the tools that write to the database.
	ReadOnly bool `yaml:"read_only"`
	// ConnectAttempts is how often the server tries to reach Neo4j at startup.
	ConnectAttempts int `yaml:"connect_attempts"`

	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// SessionConfig holds the default depths. A negative depth is unbounded.
type SessionConfig struct {
	LoadDepth int `yaml:"load_depth"`
	SaveDepth int `yaml:"save_depth"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() *Config {
	return &Config{
		URI:             "bolt://localhost:7687",
		Username:        "neo4j",
		Password:        "password",
		Database:        "neo4j",
		ConnectAttempts: 5,
		Session:         SessionConfig{LoadDepth: 1, SaveDepth: -1},
		Log:             LogConfig{Level: "info", Format: "text"},
	}
}

// Load returns the defaults overridden by the file at path, if path is not
// empty, and by the environment. A missing file is an error; an unset path
// is not.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.URI = getEnv("NEO4J_URI", c.URI)
	c.Username = getEnv("NEO4J_USERNAME", c.Username)
	c.Password = getEnv("NEO4J_PASSWORD", c.Password)
	c.Database = getEnv("NEO4J_DATABASE", c.Database)
	c.Log.Level = getEnv("NEO4J_LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("NEO4J_LOG_FORMAT", c.Log.Format)

	var err error
	if c.ReadOnly, err = getEnvBool("NEO4J_READ_ONLY", c.ReadOnly); err != nil {
		return err
	}
	if c.Session.LoadDepth, err = getEnvInt("NEO4J_LOAD_DEPTH", c.Session.LoadDepth); err != nil {
		return err
	}
	if c.Session.SaveDepth, err = getEnvInt("NEO4J_SAVE_DEPTH", c.Session.SaveDepth); err != nil {
		return err
	}
	return nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	if c.URI == "" {
		return fmt.Errorf("%w: uri is required", ErrInvalid)
	}
	if c.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalid)
	}
	if c.ConnectAttempts < 1 {
		return fmt.Errorf("%w: connect attempts must be at least 1, got %d", ErrInvalid, c.ConnectAttempts)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log level %q", ErrInvalid, c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: unknown log format %q", ErrInvalid, c.Log.Format)
	}
	return nil
}

// String describes the config without credentials, for logging.
func (c *Config) String() string {
	return fmt.Sprintf("Config{URI: %s, Database: %s, ReadOnly: %v, LoadDepth: %d, SaveDepth: %d}",
		c.URI, c.Database, c.ReadOnly, c.Session.LoadDepth, c.Session.SaveDepth)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, val)
	}
	return i, nil
}

func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, key, val)
	}
	return b, nil
}
