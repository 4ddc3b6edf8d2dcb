package transport

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// Defaults for HTTPMessageSender
const (
	DefaultMaxTotalConnections = 20
	DefaultMaxPerRoute         = 2
	DefaultConnectionTimeout   = 60 * time.Second
	DefaultReadTimeout         = 60 * time.Second
)

// HTTPSenderConfig configures an HTTPMessageSender
type HTTPSenderConfig struct {
	TLS                 *HTTPSConfig
	MaxTotalConnections int
	DefaultMaxPerRoute  int
	ConnectionTimeout   time.Duration
	ReadTimeout         time.Duration
	Username            string
	Password            string
	AcceptGzipEncoding  bool
	Logger              *slog.Logger
}

// DefaultHTTPSenderConfig returns the default sender configuration
func DefaultHTTPSenderConfig() *HTTPSenderConfig {
	return &HTTPSenderConfig{
		TLS:                 DefaultHTTPSConfig(),
		MaxTotalConnections: DefaultMaxTotalConnections,
		DefaultMaxPerRoute:  DefaultMaxPerRoute,
		ConnectionTimeout:   DefaultConnectionTimeout,
		ReadTimeout:         DefaultReadTimeout,
		AcceptGzipEncoding:  true,
	}
}

// HTTPMessageSender sends SOAP messages over HTTP(S). Connection pooling is
// handled by net/http; the sender configures one transport per route that
// has its own limit and caps in-flight requests across all routes.
type HTTPMessageSender struct {
	config HTTPSenderConfig
	client *http.Client
	logger *slog.Logger

	mu       sync.RWMutex
	base     *http.Transport
	routes   map[string]*http.Transport
	perRoute map[string]int
	maxTotal int
	total    *semaphore.Weighted
	closed   bool
}

// NewHTTPMessageSender creates a sender. A nil config uses DefaultHTTPSenderConfig.
func NewHTTPMessageSender(config *HTTPSenderConfig) *HTTPMessageSender {
	if config == nil {
		config = DefaultHTTPSenderConfig()
	}
	cfg := *config
	if cfg.TLS == nil {
		cfg.TLS = DefaultHTTPSConfig()
	}
	if cfg.MaxTotalConnections <= 0 {
		cfg.MaxTotalConnections = DefaultMaxTotalConnections
	}
	if cfg.DefaultMaxPerRoute <= 0 {
		cfg.DefaultMaxPerRoute = DefaultMaxPerRoute
	}
	if cfg.ConnectionTimeout <= 0 {
		cfg.ConnectionTimeout = DefaultConnectionTimeout
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &HTTPMessageSender{
		config:   cfg,
		logger:   logger,
		routes:   make(map[string]*http.Transport),
		perRoute: make(map[string]int),
		maxTotal: cfg.MaxTotalConnections,
		total:    semaphore.NewWeighted(int64(cfg.MaxTotalConnections)),
	}
	s.base = s.newTransport(cfg.DefaultMaxPerRoute)
	s.client = &http.Client{Transport: &routedTransport{sender: s}}
	return s
}

func (s *HTTPMessageSender) newTransport(maxPerHost int) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   s.config.ConnectionTimeout,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSClientConfig:       s.config.TLS.clientTLS(),
		TLSHandshakeTimeout:   s.config.TLS.Timeout,
		ResponseHeaderTimeout: s.config.ReadTimeout,
		IdleConnTimeout:       s.config.TLS.IdleConnTimeout,
		MaxConnsPerHost:       maxPerHost,
		MaxIdleConnsPerHost:   maxPerHost,
		// gzip is negotiated explicitly so the raw encoding stays visible
		DisableCompression: true,
		ForceAttemptHTTP2:  true,
	}
}

// SetMaxTotalConnections sets the maximum number of connections in use
// across all routes. Requests already holding a connection keep it.
func (s *HTTPMessageSender) SetMaxTotalConnections(n int) error {
	if n <= 0 {
		return fmt.Errorf("maxTotalConnections must be positive, got %d", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxTotal = n
	s.total = semaphore.NewWeighted(int64(n))
	return nil
}

// MaxTotalConnections returns the total connection limit
func (s *HTTPMessageSender) MaxTotalConnections() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxTotal
}

// ParseConnectionLimits parses per-route connection limits. Keys are URLs,
// values are decimal counts greater than zero. URLs that resolve to the same
// route must agree on the count.
func ParseConnectionLimits(limits map[string]string) (map[Route]int, error) {
	parsed := make(map[Route]int, len(limits))
	for rawURL, rawCount := range limits {
		route, err := ParseRoute(rawURL)
		if err != nil {
			return nil, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(rawCount))
		if err != nil {
			return nil, fmt.Errorf("invalid count %q for %s: %w", rawCount, rawURL, err)
		}
		if n <= 0 {
			return nil, fmt.Errorf("count for %s must be positive, got %d", rawURL, n)
		}
		if prev, ok := parsed[route]; ok && prev != n {
			return nil, fmt.Errorf("conflicting counts %d and %d for route %s", prev, n, route)
		}
		parsed[route] = n
	}
	return parsed, nil
}

// SetMaxConnectionsPerHost sets per-route connection limits. Keys are URLs,
// values are decimal counts. The previous per-route settings are replaced.
func (s *HTTPMessageSender) SetMaxConnectionsPerHost(limits map[string]string) error {
	parsed, err := ParseConnectionLimits(limits)
	if err != nil {
		return fmt.Errorf("maxConnectionsPerHost: %w", err)
	}
	perRoute := make(map[string]int, len(parsed))
	for route, n := range parsed {
		perRoute[route.Key()] = n
	}

	routes := make(map[string]*http.Transport, len(perRoute))
	for key, n := range perRoute {
		routes[key] = s.newTransport(n)
	}

	s.mu.Lock()
	old := s.routes
	s.routes = routes
	s.perRoute = perRoute
	s.mu.Unlock()

	for _, tr := range old {
		tr.CloseIdleConnections()
	}
	return nil
}

// MaxPerRoute returns the connection limit applied to route
func (s *HTTPMessageSender) MaxPerRoute(route Route) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.perRoute[route.Key()]; ok {
		return n
	}
	return s.config.DefaultMaxPerRoute
}

// Supports reports whether uri is an http or https URL
func (s *HTTPMessageSender) Supports(uri *url.URL) bool {
	if uri == nil {
		return false
	}
	scheme := strings.ToLower(uri.Scheme)
	return scheme == "http" || scheme == "https"
}

// CreateConnection creates a connection to uri
func (s *HTTPMessageSender) CreateConnection(ctx context.Context, uri *url.URL) (Connection, error) {
	if !s.Supports(uri) {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedScheme, uri)
	}
	route, err := RouteForURL(uri)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	closed := s.closed
	s.mu.RUnlock()
	if closed {
		return nil, ErrSenderClosed
	}

	return &HTTPConnection{sender: s, uri: uri, route: route}, nil
}

// Close releases idle connections. Later calls to CreateConnection fail.
func (s *HTTPMessageSender) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	routes := s.routes
	s.mu.Unlock()

	s.base.CloseIdleConnections()
	for _, tr := range routes {
		tr.CloseIdleConnections()
	}
	s.logger.Info("HTTP message sender closed")
	return nil
}

func (s *HTTPMessageSender) transportFor(u *url.URL) *http.Transport {
	route, err := RouteForURL(u)
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err == nil {
		if tr, ok := s.routes[route.Key()]; ok {
			return tr
		}
	}
	return s.base
}

func (s *HTTPMessageSender) limiter() *semaphore.Weighted {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.total
}

// routedTransport dispatches each request to the transport of its route
// while holding a slot of the total connection limit until the response
// body is closed.
type routedTransport struct {
	sender *HTTPMessageSender
}

func (rt *routedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	sem := rt.sender.limiter()
	if err := sem.Acquire(req.Context(), 1); err != nil {
		return nil, fmt.Errorf("waiting for connection: %w", err)
	}
	senderInFlight.Inc()
	release := func() {
		senderInFlight.Dec()
		sem.Release(1)
	}

	resp, err := rt.sender.transportFor(req.URL).RoundTrip(req)
	if err != nil {
		release()
		return nil, err
	}
	resp.Body = &releasingBody{ReadCloser: resp.Body, release: release}
	return resp, nil
}

type releasingBody struct {
	io.ReadCloser
	once    sync.Once
	release func()
}

func (b *releasingBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.release)
	return err
}
