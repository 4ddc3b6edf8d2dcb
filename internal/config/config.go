// Package config handles configuration loading for the web services server.
//
// Configuration is loaded from a YAML file with support for environment
// variable expansion (${VAR} or $VAR syntax). This allows sensitive values
// like database credentials and passwords to be injected at runtime.
//
// # Configuration Sections
//
//   - server: HTTP server settings (port, TLS, base path)
//   - sender: outbound HTTP connection limits and timeouts
//   - security: UsernameToken validation, user store and user cache
//   - storage: Database connection (MongoDB URI, database name)
//   - observability: Metrics endpoint
//
// # Example Configuration
//
//	server:
//	  port: 8080
//	  basePath: /ws
//
//	sender:
//	  maxTotalConnections: 2
//	  tls:
//	    caFile: /etc/wss/ca.pem
//	  maxConnectionsPerHost:
//	    "https://www.example.com": "1"
//	    "http://www.example.com:8080": "7"
//
//	security:
//	  required: true
//	  passwordEncoder: bcrypt
//	  store: mongodb
//	  cache:
//	    redis:
//	      address: localhost:6379
//	    ttl: 5m
//
//	storage:
//	  mongodb:
//	    uri: ${MONGODB_URI}
//	    database: wss
//
// See [Load] for loading configuration from a file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/goodstudio/spring-projects-spring-ws/pkg/transport"
)

// User stores
const (
	StoreMemory  = "memory"
	StoreMongoDB = "mongodb"
)

// Password encoders
const (
	EncoderBcrypt = "bcrypt"
	EncoderPlain  = "plain"
)

// Config is the root configuration structure
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Sender   SenderConfig   `yaml:"sender"`
	Security SecurityConfig `yaml:"security"`
	Storage  StorageConfig  `yaml:"storage"`
	Metrics  MetricsConfig  `yaml:"observability"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port     int    `yaml:"port"`
	BasePath string `yaml:"basePath"`
	AdminKey string `yaml:"adminKey"` // API key for the user admin endpoints
	TLS      struct {
		Enabled  bool   `yaml:"enabled"`
		CertFile string `yaml:"certFile"`
		KeyFile  string `yaml:"keyFile"`
	} `yaml:"tls"`
}

// SenderConfig holds outbound HTTP settings
type SenderConfig struct {
	MaxTotalConnections int `yaml:"maxTotalConnections"`
	// MaxConnectionsPerHost maps endpoint URLs to connection counts
	MaxConnectionsPerHost map[string]string `yaml:"maxConnectionsPerHost"`
	ConnectionTimeout     time.Duration     `yaml:"connectionTimeout"`
	ReadTimeout           time.Duration     `yaml:"readTimeout"`
	AcceptGzipEncoding    *bool             `yaml:"acceptGzipEncoding"`
	Username              string            `yaml:"username"`
	Password              string            `yaml:"password"`
	TLS                   SenderTLSConfig   `yaml:"tls"`
}

// SenderTLSConfig holds outbound TLS settings. Files are PEM encoded.
type SenderTLSConfig struct {
	CAFile             string `yaml:"caFile"`
	CertFile           string `yaml:"certFile"` // client certificate for mutual TLS
	KeyFile            string `yaml:"keyFile"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
}

// AcceptGzip reports whether gzip responses are requested. Defaults to true.
func (s SenderConfig) AcceptGzip() bool {
	return s.AcceptGzipEncoding == nil || *s.AcceptGzipEncoding
}

// SecurityConfig holds WS-Security settings
type SecurityConfig struct {
	// Required rejects requests without a UsernameToken
	Required bool `yaml:"required"`
	// IgnoreFailure lets requests with bad credentials through unauthenticated
	IgnoreFailure   bool         `yaml:"ignoreFailure"`
	PasswordEncoder string       `yaml:"passwordEncoder"`
	BcryptCost      int          `yaml:"bcryptCost"`
	Store           string       `yaml:"store"`
	Users           []UserConfig `yaml:"users"`
	Cache           CacheConfig  `yaml:"cache"`
}

// UserConfig seeds a user into the configured store
type UserConfig struct {
	Username    string   `yaml:"username"`
	Password    string   `yaml:"password"`
	Authorities []string `yaml:"authorities"`
	Disabled    bool     `yaml:"disabled"`
	Locked      bool     `yaml:"locked"`
}

// CacheConfig holds user cache settings. The cache is disabled when no
// redis address is set.
type CacheConfig struct {
	Redis RedisConfig   `yaml:"redis"`
	TTL   time.Duration `yaml:"ttl"`
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	MongoDB MongoDBConfig `yaml:"mongodb"`
}

// MongoDBConfig holds MongoDB connection settings
type MongoDBConfig struct {
	URI        string        `yaml:"uri"`
	Database   string        `yaml:"database"`
	Collection string        `yaml:"collection"`
	Timeout    time.Duration `yaml:"timeout"`
}

// MetricsConfig holds observability settings
type MetricsConfig struct {
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration, expanding environment variables
func Parse(data []byte) (*Config, error) {
	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.BasePath == "" {
		c.Server.BasePath = "/ws"
	}
	if c.Sender.MaxTotalConnections == 0 {
		c.Sender.MaxTotalConnections = 20
	}
	if c.Sender.ConnectionTimeout == 0 {
		c.Sender.ConnectionTimeout = 60 * time.Second
	}
	if c.Sender.ReadTimeout == 0 {
		c.Sender.ReadTimeout = 60 * time.Second
	}
	if c.Security.PasswordEncoder == "" {
		c.Security.PasswordEncoder = EncoderBcrypt
	}
	if c.Security.Store == "" {
		c.Security.Store = StoreMemory
	}
	if c.Security.Cache.TTL == 0 {
		c.Security.Cache.TTL = 5 * time.Minute
	}
	if c.Storage.MongoDB.Database == "" {
		c.Storage.MongoDB.Database = "wss"
	}
	if c.Storage.MongoDB.Collection == "" {
		c.Storage.MongoDB.Collection = "users"
	}
	if c.Storage.MongoDB.Timeout == 0 {
		c.Storage.MongoDB.Timeout = 10 * time.Second
	}
	if c.Metrics.Metrics.Path == "" {
		c.Metrics.Metrics.Path = "/metrics"
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 0 and 65535, got %d", c.Server.Port)
	}
	if c.Server.TLS.Enabled && (c.Server.TLS.CertFile == "" || c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("server.tls.certFile and server.tls.keyFile are required when TLS is enabled")
	}
	if c.Sender.MaxTotalConnections < 0 {
		return fmt.Errorf("sender.maxTotalConnections must be positive, got %d", c.Sender.MaxTotalConnections)
	}
	if _, err := transport.ParseConnectionLimits(c.Sender.MaxConnectionsPerHost); err != nil {
		return fmt.Errorf("sender.maxConnectionsPerHost: %w", err)
	}
	if (c.Sender.TLS.CertFile == "") != (c.Sender.TLS.KeyFile == "") {
		return fmt.Errorf("sender.tls.certFile and sender.tls.keyFile must be set together")
	}

	switch c.Security.PasswordEncoder {
	case EncoderBcrypt, EncoderPlain:
	default:
		return fmt.Errorf("security.passwordEncoder must be 'bcrypt' or 'plain', got '%s'", c.Security.PasswordEncoder)
	}

	switch c.Security.Store {
	case StoreMemory:
	case StoreMongoDB:
		if c.Storage.MongoDB.URI == "" {
			return fmt.Errorf("storage.mongodb.uri is required when security.store is 'mongodb'")
		}
	default:
		return fmt.Errorf("security.store must be 'memory' or 'mongodb', got '%s'", c.Security.Store)
	}

	for i, u := range c.Security.Users {
		if u.Username == "" {
			return fmt.Errorf("security.users[%d].username is required", i)
		}
	}

	return nil
}
