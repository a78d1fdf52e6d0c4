package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/bouncer"
	ConfigFileName    = "bouncer.yml"

	// EnvPrefix prefixes every environment override, e.g. BOUNCER_CACHE_ENABLED.
	EnvPrefix = "BOUNCER"
)

// Cache backends
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

// ValidLogLevels is the list of accepted log_level values
var ValidLogLevels = []string{"silent", "error", "warn", "info", "debug"}

// BouncerConfig holds the engine and CLI settings
type BouncerConfig struct {
	// CacheEnabled memoizes decisions
	CacheEnabled bool `yaml:"cache_enabled" json:"cache_enabled"`

	// CacheBackend selects where the invalidation generation lives: memory
	// for a single process, redis to share it between processes
	CacheBackend string `yaml:"cache_backend" json:"cache_backend"`

	// CacheMaxEntries bounds the decision memo
	CacheMaxEntries int `yaml:"cache_max_entries" json:"cache_max_entries"`

	RedisAddr string `yaml:"redis_addr" json:"redis_addr"`
	RedisKey  string `yaml:"redis_key" json:"redis_key"`

	// AuditEnabled writes the audit trail to stderr
	AuditEnabled bool `yaml:"audit_enabled" json:"audit_enabled"`

	// AuditDatabaseURL also stores audit events in a messages table
	AuditDatabaseURL string `yaml:"audit_database_url" json:"audit_database_url"`

	// DefaultOwnerField is the owner field of resource types missing from Owners
	DefaultOwnerField string `yaml:"default_owner_field" json:"default_owner_field"`

	// Owners maps resource types to the field holding their owner id
	Owners map[string]string `yaml:"owners" json:"owners"`

	LogLevel string `yaml:"log_level" json:"log_level"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// fileConfig mirrors BouncerConfig with pointers so explicit zero values
// in the file are told apart from missing keys.
type fileConfig struct {
	CacheEnabled      *bool             `yaml:"cache_enabled"`
	CacheBackend      *string           `yaml:"cache_backend"`
	CacheMaxEntries   *int              `yaml:"cache_max_entries"`
	RedisAddr         *string           `yaml:"redis_addr"`
	RedisKey          *string           `yaml:"redis_key"`
	AuditEnabled      *bool             `yaml:"audit_enabled"`
	AuditDatabaseURL  *string           `yaml:"audit_database_url"`
	DefaultOwnerField *string           `yaml:"default_owner_field"`
	Owners            map[string]string `yaml:"owners"`
	LogLevel          *string           `yaml:"log_level"`
}

// envConfig is processed by envconfig with the BOUNCER prefix. Maps are
// written as "user:id,notification:notifiable_id".
type envConfig struct {
	CacheEnabled      *bool             `envconfig:"CACHE_ENABLED"`
	CacheBackend      *string           `envconfig:"CACHE_BACKEND"`
	CacheMaxEntries   *int              `envconfig:"CACHE_MAX_ENTRIES"`
	RedisAddr         *string           `envconfig:"REDIS_ADDR"`
	RedisKey          *string           `envconfig:"REDIS_KEY"`
	AuditEnabled      *bool             `envconfig:"AUDIT_ENABLED"`
	AuditDatabaseURL  *string           `envconfig:"AUDIT_DATABASE_URL"`
	DefaultOwnerField *string           `envconfig:"DEFAULT_OWNER_FIELD"`
	Owners            map[string]string `envconfig:"OWNERS"`
	LogLevel          *string           `envconfig:"LOG_LEVEL"`
}

// newDefault returns a config with default values
func newDefault() *BouncerConfig {
	return &BouncerConfig{
		CacheEnabled:      true,
		CacheBackend:      CacheBackendMemory,
		CacheMaxEntries:   10000,
		RedisAddr:         "127.0.0.1:6379",
		RedisKey:          "bouncer:generation",
		AuditEnabled:      true,
		DefaultOwnerField: "user_id",
		Owners:            map[string]string{},
		LogLevel:          "info",
		sources:           make(map[string]string),
	}
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over file values
func Load() (*BouncerConfig, error) {
	config := newDefault()

	// Initialize all sources as "default"
	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	// Determine config file path
	configPath := os.Getenv(EnvPrefix + "_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	// Try to load from config file
	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var file fileConfig
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.apply(file, "file")
	}

	// Override with environment variables
	var env envConfig
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	config.apply(fileConfig(env), "environment")

	return config, nil
}

func attributeNames() []string {
	return []string{
		"cache_enabled", "cache_backend", "cache_max_entries",
		"redis_addr", "redis_key", "audit_enabled", "audit_database_url",
		"default_owner_field", "owners", "log_level",
	}
}

func (c *BouncerConfig) apply(src fileConfig, source string) {
	set := func(name string) { c.sources[name] = source }

	if src.CacheEnabled != nil {
		c.CacheEnabled = *src.CacheEnabled
		set("cache_enabled")
	}
	if src.CacheBackend != nil {
		c.CacheBackend = *src.CacheBackend
		set("cache_backend")
	}
	if src.CacheMaxEntries != nil {
		c.CacheMaxEntries = *src.CacheMaxEntries
		set("cache_max_entries")
	}
	if src.RedisAddr != nil {
		c.RedisAddr = *src.RedisAddr
		set("redis_addr")
	}
	if src.RedisKey != nil {
		c.RedisKey = *src.RedisKey
		set("redis_key")
	}
	if src.AuditEnabled != nil {
		c.AuditEnabled = *src.AuditEnabled
		set("audit_enabled")
	}
	if src.AuditDatabaseURL != nil {
		c.AuditDatabaseURL = *src.AuditDatabaseURL
		set("audit_database_url")
	}
	if src.DefaultOwnerField != nil {
		c.DefaultOwnerField = *src.DefaultOwnerField
		set("default_owner_field")
	}
	if src.Owners != nil {
		c.Owners = src.Owners
		set("owners")
	}
	if src.LogLevel != nil {
		c.LogLevel = strings.ToLower(*src.LogLevel)
		set("log_level")
	}
}

// ConfigFilePath returns the path to the config file
func (c *BouncerConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *BouncerConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// OwnerField returns the owner field of resourceType
func (c *BouncerConfig) OwnerField(resourceType string) string {
	if f, ok := c.Owners[resourceType]; ok {
		return f
	}
	return c.DefaultOwnerField
}

// Validate validates the configuration
func (c *BouncerConfig) Validate() error {
	switch c.CacheBackend {
	case CacheBackendMemory:
	case CacheBackendRedis:
		if c.CacheEnabled && c.RedisAddr == "" {
			return fmt.Errorf("redis_addr is required when cache_backend is %s", CacheBackendRedis)
		}
	default:
		return fmt.Errorf("invalid cache_backend value: %s", c.CacheBackend)
	}

	if c.CacheMaxEntries <= 0 {
		return fmt.Errorf("invalid cache_max_entries value: %d", c.CacheMaxEntries)
	}

	validLevel := false
	for _, l := range ValidLogLevels {
		if c.LogLevel == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log_level value: %s", c.LogLevel)
	}

	if c.DefaultOwnerField == "" {
		return fmt.Errorf("default_owner_field must not be empty")
	}
	for typ, field := range c.Owners {
		if typ == "" || field == "" {
			return fmt.Errorf("invalid owners entry: %q: %q", typ, field)
		}
	}

	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *BouncerConfig) Attributes() []Attribute {
	return []Attribute{
		{Name: "cache_enabled", Value: strconv.FormatBool(c.CacheEnabled), Source: c.Source("cache_enabled")},
		{Name: "cache_backend", Value: c.CacheBackend, Source: c.Source("cache_backend")},
		{Name: "cache_max_entries", Value: strconv.Itoa(c.CacheMaxEntries), Source: c.Source("cache_max_entries")},
		{Name: "redis_addr", Value: c.RedisAddr, Source: c.Source("redis_addr")},
		{Name: "redis_key", Value: c.RedisKey, Source: c.Source("redis_key")},
		{Name: "audit_enabled", Value: strconv.FormatBool(c.AuditEnabled), Source: c.Source("audit_enabled")},
		{Name: "audit_database_url", Value: redact(c.AuditDatabaseURL), Source: c.Source("audit_database_url")},
		{Name: "default_owner_field", Value: c.DefaultOwnerField, Source: c.Source("default_owner_field")},
		{Name: "owners", Value: formatMap(c.Owners), Source: c.Source("owners")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
	}
}

// FormatText returns a text representation of the configuration
func (c *BouncerConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-25s %-40s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-25s %-40s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-25s %-40s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *BouncerConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func formatMap(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+":"+m[k])
	}
	return strings.Join(parts, ",")
}

// redact hides the password of a connection URL
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return url
	}
	user, _, hasPassword := strings.Cut(userinfo, ":")
	if !hasPassword {
		return url
	}
	return scheme + "://" + user + ":****@" + host
}
