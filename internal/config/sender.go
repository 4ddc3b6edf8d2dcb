package config

import (
	"fmt"
	"log/slog"

	"github.com/goodstudio/spring-projects-spring-ws/pkg/transport"
)

// HTTPSenderConfig converts the sender section into transport settings,
// loading any configured certificate files
func (s SenderConfig) HTTPSenderConfig(logger *slog.Logger) (*transport.HTTPSenderConfig, error) {
	cfg := transport.DefaultHTTPSenderConfig()
	cfg.MaxTotalConnections = s.MaxTotalConnections
	cfg.ConnectionTimeout = s.ConnectionTimeout
	cfg.ReadTimeout = s.ReadTimeout
	cfg.AcceptGzipEncoding = s.AcceptGzip()
	cfg.Username = s.Username
	cfg.Password = s.Password
	cfg.Logger = logger

	cfg.TLS.InsecureSkipVerify = s.TLS.InsecureSkipVerify
	if s.TLS.CAFile != "" {
		if err := cfg.TLS.LoadRootCAs(s.TLS.CAFile); err != nil {
			return nil, fmt.Errorf("sender.tls.caFile: %w", err)
		}
	}
	if s.TLS.CertFile != "" {
		if err := cfg.TLS.LoadCertificate(s.TLS.CertFile, s.TLS.KeyFile); err != nil {
			return nil, fmt.Errorf("sender.tls.certFile: %w", err)
		}
	}
	return cfg, nil
}

// NewHTTPSender creates an HTTP message sender with the configured total
// and per-host connection limits. Unset values keep the transport defaults.
func (s SenderConfig) NewHTTPSender(logger *slog.Logger) (*transport.HTTPMessageSender, error) {
	cfg, err := s.HTTPSenderConfig(logger)
	if err != nil {
		return nil, err
	}
	sender := transport.NewHTTPMessageSender(cfg)
	if err := sender.SetMaxConnectionsPerHost(s.MaxConnectionsPerHost); err != nil {
		sender.Close()
		return nil, fmt.Errorf("sender: %w", err)
	}
	return sender, nil
}
