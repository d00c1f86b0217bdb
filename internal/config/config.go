// Package config loads the docvault server configuration from an HCL file.
package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
)

// Config is the top-level server configuration.
type Config struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `hcl:"listen_addr,optional"`

	// LogLevel is the hclog level name (trace, debug, info, warn, error).
	LogLevel string `hcl:"log_level,optional"`

	Registry *Registry `hcl:"registry,block"`
	Database *Database `hcl:"database,block"`

	// Kafka enables audit entry mirroring when present.
	Kafka *Kafka `hcl:"kafka,block"`
}

// Registry holds registry policy settings.
type Registry struct {
	// MaxDocumentSize caps uploads, in bytes. Zero means the built-in
	// default.
	MaxDocumentSize int64 `hcl:"max_document_size,optional"`

	// Admins lists the caller identities allowed to pause the registry
	// and change the size cap.
	Admins []string `hcl:"admins,optional"`
}

// Database selects and configures the storage backend.
type Database struct {
	// Driver is "postgres" or "sqlite".
	Driver string `hcl:"driver,optional"`

	// PostgreSQL settings.
	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname,optional"`
	SSLMode  string `hcl:"sslmode,optional"`

	// SQLite settings.
	Path string `hcl:"path,optional"`
}

// Kafka holds audit mirror settings.
type Kafka struct {
	Brokers string `hcl:"brokers,optional"`
	Topic   string `hcl:"topic,optional"`
}

// LoadFile decodes, defaults, and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	var cfg Config
	if err := hclsimple.DecodeFile(path, nil, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", path, err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ListenAddr == "" {
		c.ListenAddr = "127.0.0.1:8700"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Registry == nil {
		c.Registry = &Registry{}
	}
	if c.Database == nil {
		c.Database = &Database{}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = ".docvault/docvault.db"
	}
	if c.Database.Driver == "postgres" && c.Database.Port == 0 {
		c.Database.Port = 5432
	}
	if c.Kafka != nil {
		if c.Kafka.Brokers == "" {
			c.Kafka.Brokers = "localhost:9092"
		}
		if c.Kafka.Topic == "" {
			c.Kafka.Topic = "docvault.audit"
		}
	}
}

// Validate collects every configuration error rather than stopping at the
// first one.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Path == "" {
			result = multierror.Append(result,
				fmt.Errorf("database: path is required for the sqlite driver"))
		}
	case "postgres":
		if c.Database.Host == "" {
			result = multierror.Append(result,
				fmt.Errorf("database: host is required for the postgres driver"))
		}
		if c.Database.User == "" {
			result = multierror.Append(result,
				fmt.Errorf("database: user is required for the postgres driver"))
		}
		if c.Database.DBName == "" {
			result = multierror.Append(result,
				fmt.Errorf("database: dbname is required for the postgres driver"))
		}
	default:
		result = multierror.Append(result,
			fmt.Errorf("database: unsupported driver %q (must be postgres or sqlite)",
				c.Database.Driver))
	}

	if c.Registry.MaxDocumentSize < 0 {
		result = multierror.Append(result,
			fmt.Errorf("registry: max_document_size cannot be negative"))
	}

	return result.ErrorOrNil()
}
