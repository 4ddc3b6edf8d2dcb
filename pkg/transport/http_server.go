package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/goodstudio/spring-projects-spring-ws/pkg/compression"
	"github.com/goodstudio/spring-projects-spring-ws/pkg/soap"
)

// DefaultMaxRequestSize caps request bodies, before and after gzip decoding
const DefaultMaxRequestSize int64 = 10 << 20

// receiverFaultReason is sent to callers when the receiver fails; the cause
// is only logged.
const receiverFaultReason = "Internal error processing the request"

// HTTPServer receives SOAP messages over HTTP(S) and dispatches them to a MessageReceiver
type HTTPServer struct {
	server     *http.Server
	config     *HTTPSConfig
	receiver   MessageReceiver
	factory    *soap.MessageFactory
	compressor *compression.Compressor
	path       string
	maxBody    int64
	logger     *slog.Logger
}

// ServerOption configures an HTTPServer
type ServerOption func(*HTTPServer)

// WithPath sets the path the SOAP endpoint is served on. Default is "/".
func WithPath(path string) ServerOption {
	return func(s *HTTPServer) {
		if path != "" {
			s.path = path
		}
	}
}

// WithMaxRequestSize caps request bodies at n bytes. Larger requests are
// answered with 413. Zero or less disables the cap.
func WithMaxRequestSize(n int64) ServerOption {
	return func(s *HTTPServer) {
		s.maxBody = n
	}
}

// WithMessageFactory sets the factory used to parse requests
func WithMessageFactory(factory *soap.MessageFactory) ServerOption {
	return func(s *HTTPServer) {
		s.factory = factory
	}
}

// WithServerLogger sets the server logger
func WithServerLogger(logger *slog.Logger) ServerOption {
	return func(s *HTTPServer) {
		s.logger = logger
	}
}

// NewHTTPServer creates a new SOAP HTTP server
func NewHTTPServer(addr string, config *HTTPSConfig, receiver MessageReceiver, opts ...ServerOption) *HTTPServer {
	if config == nil {
		config = DefaultHTTPSConfig()
	}

	s := &HTTPServer{
		config:     config,
		receiver:   receiver,
		factory:    soap.NewMessageFactory(soap.V11),
		compressor: compression.NewCompressor(),
		path:       "/",
		maxBody:    DefaultMaxRequestSize,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.handleSOAP)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  config.Timeout,
		WriteTimeout: config.Timeout,
		IdleTimeout:  config.IdleConnTimeout,
	}
	if len(config.Certificates) > 0 {
		s.server.TLSConfig = config.serverTLS()
	}
	return s
}

// Handler returns the HTTP handler for mounting in another mux
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

// Start serves until Shutdown is called. TLS is used when certificates are configured.
func (s *HTTPServer) Start() error {
	s.logger.Info("SOAP server listening", "addr", s.server.Addr, "path", s.path, "tls", s.server.TLSConfig != nil)
	if s.server.TLSConfig != nil {
		return s.server.ListenAndServeTLS("", "")
	}
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleSOAP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		s.writeStatus(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var raw io.ReadCloser = r.Body
	if s.maxBody > 0 {
		raw = http.MaxBytesReader(w, raw, s.maxBody)
	}
	body, err := compression.DecodeReader(raw, r.Header.Get(HeaderContentEncoding))
	if err != nil {
		if isTooLarge(err) {
			s.writeStatus(w, http.StatusRequestEntityTooLarge, "Request too large")
			return
		}
		s.writeStatus(w, http.StatusBadRequest, "Invalid content encoding")
		return
	}
	defer body.Close()
	if s.maxBody > 0 && body != raw {
		body = http.MaxBytesReader(w, body, s.maxBody)
	}

	request, err := s.factory.ReadMessage(body, r.Header.Get(HeaderContentType))
	if isTooLarge(err) {
		s.logger.Debug("rejecting oversized SOAP request", "remote", r.RemoteAddr, "limit", s.maxBody)
		s.writeStatus(w, http.StatusRequestEntityTooLarge, "Request too large")
		return
	}
	if err != nil {
		s.logger.Debug("rejecting unreadable SOAP request", "remote", r.RemoteAddr, "error", err)
		s.writeStatus(w, http.StatusBadRequest, "Failed to read SOAP message")
		return
	}
	if action := r.Header.Get(HeaderSOAPAction); action != "" {
		request.SetSoapAction(strings.Trim(action, `"`))
	}

	mc := NewMessageContext(request)
	if err := s.receiver.Receive(r.Context(), mc); err != nil {
		s.logger.Error("message receiver failed", "error", err)
		mc.ClearResponse()
		mc.GetResponse().AddServerFault(receiverFaultReason)
	}

	if !mc.HasResponse() {
		s.writeStatus(w, http.StatusAccepted, "")
		return
	}

	response := mc.Response
	data, err := response.Bytes()
	if err != nil {
		s.logger.Error("failed to serialize response", "error", err)
		s.writeStatus(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := http.StatusOK
	if response.HasFault() {
		status = http.StatusInternalServerError
	}

	if compression.AcceptsGzip(r.Header.Get(HeaderAcceptEncoding)) {
		if compressed, err := s.compressor.Compress(data); err == nil {
			data = compressed
			w.Header().Set(HeaderContentEncoding, compression.EncodingGzip)
		}
	}

	w.Header().Set(HeaderContentType, response.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
	serverRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
}

func (s *HTTPServer) writeStatus(w http.ResponseWriter, status int, msg string) {
	serverRequestsTotal.WithLabelValues(strconv.Itoa(status)).Inc()
	if msg == "" {
		w.WriteHeader(status)
		return
	}
	http.Error(w, msg, status)
}

func isTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}

// String describes the server for logs
func (s *HTTPServer) String() string {
	return fmt.Sprintf("HTTPServer(%s%s)", s.server.Addr, s.path)
}
