package transport

import (
	"context"
	"errors"
	"net/url"

	"github.com/goodstudio/spring-projects-spring-ws/pkg/soap"
)

var (
	// ErrSenderClosed is returned when creating connections on a closed sender
	ErrSenderClosed = errors.New("message sender is closed")
	// ErrConnectionClosed is returned when using a closed connection
	ErrConnectionClosed = errors.New("connection is closed")
	// ErrNoResponse is returned when Receive is called before Send
	ErrNoResponse = errors.New("no response available, message not sent")
)

// MessageSender creates connections to remote endpoints
type MessageSender interface {
	// Supports reports whether the sender can connect to uri
	Supports(uri *url.URL) bool
	// CreateConnection opens a connection to uri
	CreateConnection(ctx context.Context, uri *url.URL) (Connection, error)
}

// Connection is a single request/response exchange with an endpoint
type Connection interface {
	// Send transmits the request message
	Send(ctx context.Context, msg *soap.Message) error
	// Receive reads the response. It returns a nil message when the
	// endpoint sent no response body.
	Receive(ctx context.Context, factory *soap.MessageFactory) (*soap.Message, error)
	// Close releases the connection. It is safe to call more than once.
	Close() error
	// URI returns the endpoint address
	URI() *url.URL
	// HasError reports a transport level error that is not a SOAP fault
	HasError() bool
	// ErrorMessage describes the transport level error
	ErrorMessage() string
}

// MessageReceiver processes an incoming message
type MessageReceiver interface {
	Receive(ctx context.Context, mc *MessageContext) error
}

// ReceiverFunc adapts a function to the MessageReceiver interface
type ReceiverFunc func(ctx context.Context, mc *MessageContext) error

// Receive calls f
func (f ReceiverFunc) Receive(ctx context.Context, mc *MessageContext) error {
	return f(ctx, mc)
}

// MessageContext holds the request and the lazily created response of an exchange
type MessageContext struct {
	Request    *soap.Message
	Response   *soap.Message
	Properties map[string]any
}

// NewMessageContext creates a context for the given request
func NewMessageContext(request *soap.Message) *MessageContext {
	return &MessageContext{
		Request:    request,
		Properties: make(map[string]any),
	}
}

// GetResponse returns the response, creating an empty one of the request's version
func (mc *MessageContext) GetResponse() *soap.Message {
	if mc.Response == nil {
		version := soap.V11
		if mc.Request != nil {
			version = mc.Request.Version()
		}
		mc.Response = soap.NewMessageFactory(version).CreateMessage()
	}
	return mc.Response
}

// HasResponse reports whether a response was created
func (mc *MessageContext) HasResponse() bool {
	return mc.Response != nil
}

// ClearResponse discards the response
func (mc *MessageContext) ClearResponse() {
	mc.Response = nil
}

// EchoReceiver returns a receiver that answers every request with a copy of itself
func EchoReceiver() MessageReceiver {
	return ReceiverFunc(func(ctx context.Context, mc *MessageContext) error {
		mc.Response = mc.Request.Copy()
		return nil
	})
}
