package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "/ws", cfg.Server.BasePath)
	assert.Equal(t, 20, cfg.Sender.MaxTotalConnections)
	assert.Equal(t, 60*time.Second, cfg.Sender.ConnectionTimeout)
	assert.True(t, cfg.Sender.AcceptGzip())
	assert.Equal(t, EncoderBcrypt, cfg.Security.PasswordEncoder)
	assert.Equal(t, StoreMemory, cfg.Security.Store)
	assert.Equal(t, 5*time.Minute, cfg.Security.Cache.TTL)
	assert.Equal(t, "wss", cfg.Storage.MongoDB.Database)
	assert.Equal(t, "users", cfg.Storage.MongoDB.Collection)
	assert.Equal(t, "/metrics", cfg.Metrics.Metrics.Path)
}

func TestParse_Full(t *testing.T) {
	t.Setenv("TEST_MONGODB_URI", "mongodb://db.example.com:27017")
	t.Setenv("TEST_USER_PASSWORD", "Ernie")

	data := []byte(`
server:
  port: 9090
  basePath: /services
sender:
  maxTotalConnections: 2
  maxConnectionsPerHost:
    "https://www.example.com": "1"
    "http://www.example.com:8080": "7"
    "http://www.springframework.org": "10"
  readTimeout: 5s
  acceptGzipEncoding: false
security:
  required: true
  ignoreFailure: true
  passwordEncoder: plain
  store: mongodb
  users:
    - username: Bert
      password: ${TEST_USER_PASSWORD}
      authorities: [ROLE_USER]
  cache:
    redis:
      address: localhost:6379
    ttl: 1m
storage:
  mongodb:
    uri: ${TEST_MONGODB_URI}
observability:
  metrics:
    enabled: true
`)

	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "/services", cfg.Server.BasePath)
	assert.Equal(t, 2, cfg.Sender.MaxTotalConnections)
	assert.Equal(t, "7", cfg.Sender.MaxConnectionsPerHost["http://www.example.com:8080"])
	assert.Len(t, cfg.Sender.MaxConnectionsPerHost, 3)
	assert.Equal(t, 5*time.Second, cfg.Sender.ReadTimeout)
	assert.False(t, cfg.Sender.AcceptGzip())

	assert.True(t, cfg.Security.Required)
	assert.True(t, cfg.Security.IgnoreFailure)
	assert.Equal(t, EncoderPlain, cfg.Security.PasswordEncoder)
	require.Len(t, cfg.Security.Users, 1)
	assert.Equal(t, "Ernie", cfg.Security.Users[0].Password)
	assert.Equal(t, []string{"ROLE_USER"}, cfg.Security.Users[0].Authorities)
	assert.Equal(t, "localhost:6379", cfg.Security.Cache.Redis.Address)
	assert.Equal(t, time.Minute, cfg.Security.Cache.TTL)

	assert.Equal(t, "mongodb://db.example.com:27017", cfg.Storage.MongoDB.URI)
	assert.True(t, cfg.Metrics.Metrics.Enabled)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad yaml", "server: ["},
		{"bad port", "server:\n  port: 70000"},
		{"tls without files", "server:\n  tls:\n    enabled: true"},
		{"bad encoder", "security:\n  passwordEncoder: md5"},
		{"bad store", "security:\n  store: ldap"},
		{"mongodb without uri", "security:\n  store: mongodb"},
		{"user without name", "security:\n  users:\n    - password: x"},
		{"negative connections", "sender:\n  maxTotalConnections: -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
