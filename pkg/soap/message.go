// Package soap provides the SOAP envelope model.
package soap

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// envPrefix is the prefix used for envelope elements created by this package
const envPrefix = "soapenv"

// Message is a SOAP message backed by an etree document
type Message struct {
	doc        *etree.Document
	version    Version
	soapAction string
}

func newMessage(version Version) *Message {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	env := doc.CreateElement(envPrefix + ":Envelope")
	env.CreateAttr("xmlns:"+envPrefix, version.Namespace())
	env.CreateElement(envPrefix + ":Header")
	env.CreateElement(envPrefix + ":Body")

	return &Message{doc: doc, version: version}
}

// Version returns the SOAP version of the message
func (m *Message) Version() Version {
	return m.version
}

// Document returns the underlying document
func (m *Message) Document() *etree.Document {
	return m.doc
}

// Envelope returns the envelope element
func (m *Message) Envelope() *etree.Element {
	return m.doc.Root()
}

// Header returns the SOAP header, creating it if absent
func (m *Message) Header() *etree.Element {
	if h := m.envelopeChild("Header"); h != nil {
		return h
	}
	h := etree.NewElement(m.qualify("Header"))
	m.Envelope().InsertChildAt(0, h)
	return h
}

// HasHeader reports whether the envelope carries a header element
func (m *Message) HasHeader() bool {
	return m.envelopeChild("Header") != nil
}

// Body returns the SOAP body, creating it if absent
func (m *Message) Body() *etree.Element {
	if b := m.envelopeChild("Body"); b != nil {
		return b
	}
	return m.Envelope().CreateElement(m.qualify("Body"))
}

// Payload returns the first child element of the body, or nil
func (m *Message) Payload() *etree.Element {
	children := m.Body().ChildElements()
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// SetPayload replaces the body content with the given element
func (m *Message) SetPayload(payload *etree.Element) {
	body := m.Body()
	for _, child := range body.ChildElements() {
		body.RemoveChild(child)
	}
	if payload != nil {
		body.AddChild(payload)
	}
}

// SoapAction returns the SOAP action of the message
func (m *Message) SoapAction() string {
	return m.soapAction
}

// SetSoapAction sets the SOAP action of the message
func (m *Message) SetSoapAction(action string) {
	m.soapAction = action
}

// ContentType returns the full content type for the message including charset
// and, for SOAP 1.2, the action parameter.
func (m *Message) ContentType() string {
	ct := m.version.ContentType() + "; charset=utf-8"
	if m.version == V12 && m.soapAction != "" {
		ct += fmt.Sprintf(`; action="%s"`, m.soapAction)
	}
	return ct
}

// WriteTo serializes the message
func (m *Message) WriteTo(w io.Writer) (int64, error) {
	return m.doc.WriteTo(w)
}

// Bytes serializes the message to a byte slice
func (m *Message) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("serializing message: %w", err)
	}
	return buf.Bytes(), nil
}

// Copy returns a deep copy of the message
func (m *Message) Copy() *Message {
	return &Message{
		doc:        m.doc.Copy(),
		version:    m.version,
		soapAction: m.soapAction,
	}
}

func (m *Message) String() string {
	b, err := m.Bytes()
	if err != nil {
		return fmt.Sprintf("<%s message: %v>", m.version, err)
	}
	return string(b)
}

// envelopeChild finds a direct child of the envelope in the envelope namespace
func (m *Message) envelopeChild(local string) *etree.Element {
	env := m.Envelope()
	if env == nil {
		return nil
	}
	for _, child := range env.ChildElements() {
		if child.Tag == local && child.NamespaceURI() == m.version.Namespace() {
			return child
		}
	}
	return nil
}

// prefix returns the prefix bound to the envelope namespace in this document
func (m *Message) prefix() string {
	env := m.Envelope()
	if env != nil {
		return env.Space
	}
	return envPrefix
}

// qualify returns a prefixed name in the envelope namespace
func (m *Message) qualify(local string) string {
	p := m.prefix()
	if p == "" || strings.Contains(local, ":") {
		return local
	}
	return p + ":" + local
}
