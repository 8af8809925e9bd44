// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Kafka, Redis, Indexer, Search, Schema, etc.).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// MaxDocTableSizeLimit bounds Indexer.MaxDocTableSize.
	MaxDocTableSizeLimit = 100_000_000

	TimeoutPolicyReturn = "return"
	TimeoutPolicyFail   = "fail"

	GCPolicyPeriodic = "periodic"
	GCPolicyOff      = "off"
)

// Config is the top-level application configuration.
type Config struct {
	Kafka   KafkaConfig   `yaml:"kafka"`
	Redis   RedisConfig   `yaml:"redis"`
	Indexer IndexerConfig `yaml:"indexer"`
	Search  SearchConfig  `yaml:"search"`
	Schema  SchemaConfig  `yaml:"schema"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	DocumentIngest string `yaml:"documentIngest"`
}

// RedisConfig holds Redis connection and caching parameters.
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	PoolSize int           `yaml:"poolSize"`
	CacheTTL time.Duration `yaml:"cacheTTL"`
}

// IndexerConfig sizes the document table and drives index garbage
// collection.
type IndexerConfig struct {
	MaxDocTableSize    int           `yaml:"maxDocTableSize"`
	InitialDocTableCap int           `yaml:"initialDocTableCap"`
	GCPolicy           string        `yaml:"gcPolicy"`
	GCScanSize         int           `yaml:"gcScanSize"`
	GCInterval         time.Duration `yaml:"gcInterval"`
}

// SearchConfig controls query execution limits and timeouts.
type SearchConfig struct {
	MaxResults               int           `yaml:"maxResults"`
	DefaultLimit             int           `yaml:"defaultLimit"`
	QueryTimeout             time.Duration `yaml:"queryTimeout"`
	TimeoutPolicy            string        `yaml:"timeoutPolicy"`
	SearchPoolSize           int           `yaml:"searchPoolSize"`
	MaxPrefixExpansions      int           `yaml:"maxPrefixExpansions"`
	MinTermPrefix            int           `yaml:"minTermPrefix"`
	MaxResultsToUnsortedMode int           `yaml:"maxResultsToUnsortedMode"`
}

// SchemaConfig declares the index fields.
type SchemaConfig struct {
	Name      string        `yaml:"name"`
	NoOffsets bool          `yaml:"noOffsets"`
	NoFields  bool          `yaml:"noFields"`
	Stopwords []string      `yaml:"stopwords"`
	Fields    []FieldConfig `yaml:"fields"`
}

// FieldConfig is one schema field. Type is "text" or "numeric".
type FieldConfig struct {
	Name     string  `yaml:"name"`
	Type     string  `yaml:"type"`
	Weight   float64 `yaml:"weight"`
	Sortable bool    `yaml:"sortable"`
	NoStem   bool    `yaml:"noStem"`
	NoIndex  bool    `yaml:"noIndex"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with sensible defaults for any
// missing values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

func defaultConfig() *Config {
	return &Config{
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "search-core-indexer",
			Topics: KafkaTopics{
				DocumentIngest: "document-ingest",
			},
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
			CacheTTL: 60 * time.Second,
		},
		Indexer: IndexerConfig{
			MaxDocTableSize:    1_000_000,
			InitialDocTableCap: 1000,
			GCPolicy:           GCPolicyPeriodic,
			GCScanSize:         100,
			GCInterval:         10 * time.Second,
		},
		Search: SearchConfig{
			MaxResults:               1000,
			DefaultLimit:             10,
			QueryTimeout:             500 * time.Millisecond,
			TimeoutPolicy:            TimeoutPolicyReturn,
			SearchPoolSize:           20,
			MaxPrefixExpansions:      200,
			MinTermPrefix:            2,
			MaxResultsToUnsortedMode: 1000,
		},
		Schema: SchemaConfig{
			Name: "idx",
			Fields: []FieldConfig{
				{Name: "title", Type: "text", Weight: 2},
				{Name: "body", Type: "text", Weight: 1},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
		},
	}
}

// Validate rejects unknown policies and clamps sizes into their allowed
// ranges.
func (c *Config) Validate() error {
	switch c.Search.TimeoutPolicy {
	case TimeoutPolicyReturn, TimeoutPolicyFail:
	default:
		return fmt.Errorf("invalid search.timeoutPolicy %q", c.Search.TimeoutPolicy)
	}
	switch c.Indexer.GCPolicy {
	case GCPolicyPeriodic, GCPolicyOff:
	default:
		return fmt.Errorf("invalid indexer.gcPolicy %q", c.Indexer.GCPolicy)
	}
	if c.Indexer.MaxDocTableSize <= 0 {
		return fmt.Errorf("indexer.maxDocTableSize must be positive")
	}
	if c.Indexer.MaxDocTableSize > MaxDocTableSizeLimit {
		c.Indexer.MaxDocTableSize = MaxDocTableSizeLimit
	}
	if c.Indexer.InitialDocTableCap > c.Indexer.MaxDocTableSize {
		c.Indexer.InitialDocTableCap = c.Indexer.MaxDocTableSize
	}
	if c.Indexer.GCScanSize <= 0 {
		c.Indexer.GCScanSize = 100
	}
	if c.Search.SearchPoolSize <= 0 {
		c.Search.SearchPoolSize = 1
	}
	if c.Search.DefaultLimit <= 0 {
		c.Search.DefaultLimit = 10
	}
	if c.Search.MaxResults < c.Search.DefaultLimit {
		c.Search.MaxResults = c.Search.DefaultLimit
	}
	return nil
}

// applyEnvOverrides reads SP_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SP_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("SP_KAFKA_CONSUMER_GROUP"); v != "" {
		cfg.Kafka.ConsumerGroup = v
	}
	if v := os.Getenv("SP_REDIS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Redis.Enabled = b
		}
	}
	if v := os.Getenv("SP_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("SP_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("SP_INDEXER_MAX_DOC_TABLE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Indexer.MaxDocTableSize = n
		}
	}
	if v := os.Getenv("SP_INDEXER_GC_POLICY"); v != "" {
		cfg.Indexer.GCPolicy = v
	}
	if v := os.Getenv("SP_INDEXER_GC_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Indexer.GCInterval = d
		}
	}
	if v := os.Getenv("SP_SEARCH_QUERY_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Search.QueryTimeout = d
		}
	}
	if v := os.Getenv("SP_SEARCH_TIMEOUT_POLICY"); v != "" {
		cfg.Search.TimeoutPolicy = v
	}
	if v := os.Getenv("SP_SEARCH_POOL_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Search.SearchPoolSize = n
		}
	}
	if v := os.Getenv("SP_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SP_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("SP_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
