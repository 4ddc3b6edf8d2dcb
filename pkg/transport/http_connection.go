package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/goodstudio/spring-projects-spring-ws/pkg/compression"
	"github.com/goodstudio/spring-projects-spring-ws/pkg/soap"
)

// Header names used by the HTTP transport
const (
	HeaderSOAPAction      = "SOAPAction"
	HeaderContentType     = "Content-Type"
	HeaderAcceptEncoding  = "Accept-Encoding"
	HeaderContentEncoding = "Content-Encoding"
)

// HTTPConnection is a single SOAP exchange over HTTP
type HTTPConnection struct {
	sender *HTTPMessageSender
	uri    *url.URL
	route  Route

	mu     sync.Mutex
	resp   *http.Response
	closed bool
}

// URI returns the endpoint address
func (c *HTTPConnection) URI() *url.URL {
	return c.uri
}

// Route returns the route of the endpoint
func (c *HTTPConnection) Route() Route {
	return c.route
}

// Send posts msg to the endpoint
func (c *HTTPConnection) Send(ctx context.Context, msg *soap.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	c.discardResponse()

	body, err := msg.Bytes()
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uri.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set(HeaderContentType, msg.ContentType())
	if msg.Version() == soap.V11 {
		req.Header.Set(HeaderSOAPAction, strconv.Quote(msg.SoapAction()))
	}
	cfg := c.sender.config
	if cfg.AcceptGzipEncoding {
		req.Header.Set(HeaderAcceptEncoding, compression.EncodingGzip)
	}
	if cfg.Username != "" {
		req.SetBasicAuth(cfg.Username, cfg.Password)
	}

	start := time.Now()
	resp, err := c.sender.client.Do(req)
	senderRequestDuration.WithLabelValues(c.route.Key()).Observe(time.Since(start).Seconds())
	if err != nil {
		senderRequestsTotal.WithLabelValues(c.route.Key(), "error").Inc()
		return fmt.Errorf("sending to %s: %w", c.uri.Redacted(), err)
	}
	senderRequestsTotal.WithLabelValues(c.route.Key(), strconv.Itoa(resp.StatusCode)).Inc()

	c.sender.logger.Debug("SOAP request sent",
		"uri", c.uri.Redacted(),
		"status", resp.StatusCode,
		"duration", time.Since(start))

	c.resp = resp
	return nil
}

// StatusCode returns the HTTP status of the response, or 0 before Send
func (c *HTTPConnection) StatusCode() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.resp == nil {
		return 0
	}
	return c.resp.StatusCode
}

// HasError reports a non-2xx status that does not carry a SOAP fault
func (c *HTTPConnection) HasError() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasError()
}

func (c *HTTPConnection) hasError() bool {
	if c.resp == nil {
		return false
	}
	if c.resp.StatusCode/100 == 2 {
		return false
	}
	return !c.hasFault()
}

// hasFault reports a 500 response with an XML body, which SOAP uses for faults
func (c *HTTPConnection) hasFault() bool {
	return c.resp.StatusCode == http.StatusInternalServerError && isXMLContentType(c.resp.Header.Get(HeaderContentType))
}

// ErrorMessage returns the HTTP status text when HasError is true
func (c *HTTPConnection) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasError() {
		return ""
	}
	return c.resp.Status
}

// Receive reads the response message. It returns nil when the endpoint
// answered without content.
func (c *HTTPConnection) Receive(ctx context.Context, factory *soap.MessageFactory) (*soap.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, ErrConnectionClosed
	}
	if c.resp == nil {
		return nil, ErrNoResponse
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if c.hasError() {
		return nil, &StatusError{StatusCode: c.resp.StatusCode, Status: c.resp.Status}
	}
	switch c.resp.StatusCode {
	case http.StatusAccepted, http.StatusNoContent:
		c.discardResponse()
		return nil, nil
	}
	if c.resp.ContentLength == 0 {
		c.discardResponse()
		return nil, nil
	}

	body, err := compression.DecodeReader(c.resp.Body, c.resp.Header.Get(HeaderContentEncoding))
	if err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	c.resp.Body = body

	msg, err := factory.ReadMessage(body, c.resp.Header.Get(HeaderContentType))
	if errors.Is(err, soap.ErrEmptyMessage) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", c.uri.Redacted(), err)
	}
	return msg, nil
}

// Close releases the response. It is safe to call after the sender was closed.
func (c *HTTPConnection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.discardResponse()
	return nil
}

func (c *HTTPConnection) discardResponse() {
	if c.resp == nil {
		return
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(c.resp.Body, 64<<10))
	_ = c.resp.Body.Close()
	c.resp = nil
}

// StatusError is returned by Receive for HTTP error responses without a SOAP fault
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return "HTTP error: " + e.Status
}

func isXMLContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	switch mediaType {
	case soap.ContentTypeSOAP11, soap.ContentTypeSOAP12, "application/xml":
		return true
	}
	return false
}
