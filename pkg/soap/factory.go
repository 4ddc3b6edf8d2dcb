package soap

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"

	"github.com/beevik/etree"
)

var (
	// ErrEmptyMessage is returned when reading a message from an empty stream
	ErrEmptyMessage = errors.New("empty SOAP message")
	// ErrNotEnvelope is returned when the document root is not a SOAP envelope
	ErrNotEnvelope = errors.New("document is not a SOAP envelope")
)

// MessageFactory creates and parses SOAP messages
type MessageFactory struct {
	version Version
}

// NewMessageFactory creates a factory producing messages of the given version.
// A zero version defaults to SOAP 1.1.
func NewMessageFactory(version Version) *MessageFactory {
	if version != V12 {
		version = V11
	}
	return &MessageFactory{version: version}
}

// Version returns the version of messages created by the factory
func (f *MessageFactory) Version() Version {
	return f.version
}

// CreateMessage returns an empty envelope with header and body
func (f *MessageFactory) CreateMessage() *Message {
	return newMessage(f.version)
}

// ReadMessage parses a message from r. The SOAP version is taken from the
// envelope namespace. For SOAP 1.2 the action parameter of contentType, if
// present, becomes the message's SOAP action.
func (f *MessageFactory) ReadMessage(r io.Reader, contentType string) (*Message, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading message: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyMessage
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parsing message: %w", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "Envelope" {
		return nil, ErrNotEnvelope
	}
	version, ok := versionForNamespace(root.NamespaceURI())
	if !ok {
		return nil, fmt.Errorf("%w: unknown namespace %q", ErrNotEnvelope, root.NamespaceURI())
	}

	msg := &Message{doc: doc, version: version}
	if contentType != "" {
		if _, params, err := mime.ParseMediaType(contentType); err == nil {
			msg.soapAction = params["action"]
		}
	}
	return msg, nil
}
