package soap

import (
	"bytes"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMessage(t *testing.T) {
	tests := []struct {
		name        string
		version     Version
		namespace   string
		contentType string
	}{
		{"soap 1.1", V11, NsSOAP11Env, "text/xml; charset=utf-8"},
		{"soap 1.2", V12, NsSOAP12Env, "application/soap+xml; charset=utf-8"},
		{"zero defaults to 1.1", 0, NsSOAP11Env, "text/xml; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := NewMessageFactory(tt.version).CreateMessage()

			require.NotNil(t, msg.Envelope())
			assert.Equal(t, "Envelope", msg.Envelope().Tag)
			assert.Equal(t, tt.namespace, msg.Envelope().NamespaceURI())
			assert.True(t, msg.HasHeader())
			assert.Nil(t, msg.Payload())
			assert.False(t, msg.HasFault())
			assert.Equal(t, tt.contentType, msg.ContentType())
		})
	}
}

func TestMessage_RoundTrip(t *testing.T) {
	factory := NewMessageFactory(V11)
	msg := factory.CreateMessage()

	payload := etree.NewElement("ns:echoRequest")
	payload.CreateAttr("xmlns:ns", "urn:echo")
	payload.SetText("hello")
	msg.SetPayload(payload)

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)

	parsed, err := factory.ReadMessage(&buf, msg.ContentType())
	require.NoError(t, err)
	assert.Equal(t, V11, parsed.Version())

	got := parsed.Payload()
	require.NotNil(t, got)
	assert.Equal(t, "echoRequest", got.Tag)
	assert.Equal(t, "urn:echo", got.NamespaceURI())
	assert.Equal(t, "hello", got.Text())
}

func TestMessage_SetPayloadReplaces(t *testing.T) {
	msg := NewMessageFactory(V11).CreateMessage()
	msg.SetPayload(etree.NewElement("first"))
	msg.SetPayload(etree.NewElement("second"))

	children := msg.Body().ChildElements()
	require.Len(t, children, 1)
	assert.Equal(t, "second", children[0].Tag)

	msg.SetPayload(nil)
	assert.Nil(t, msg.Payload())
}

func TestMessage_HeaderCreatedOnDemand(t *testing.T) {
	raw := `<env:Envelope xmlns:env="http://www.w3.org/2003/05/soap-envelope"><env:Body/></env:Envelope>`

	msg, err := NewMessageFactory(V11).ReadMessage(strings.NewReader(raw), "")
	require.NoError(t, err)
	assert.Equal(t, V12, msg.Version())
	assert.False(t, msg.HasHeader())

	header := msg.Header()
	assert.Equal(t, "env", header.Space)
	assert.Equal(t, NsSOAP12Env, header.NamespaceURI())
	assert.True(t, msg.HasHeader())

	// header must precede body
	children := msg.Envelope().ChildElements()
	require.Len(t, children, 2)
	assert.Equal(t, "Header", children[0].Tag)
	assert.Equal(t, "Body", children[1].Tag)
}

func TestMessage_DefaultNamespaceEnvelope(t *testing.T) {
	raw := `<Envelope xmlns="http://schemas.xmlsoap.org/soap/envelope/"><Body><ping xmlns=""/></Body></Envelope>`

	msg, err := NewMessageFactory(V11).ReadMessage(strings.NewReader(raw), "text/xml")
	require.NoError(t, err)

	header := msg.Header()
	assert.Equal(t, "", header.Space)
	assert.Equal(t, NsSOAP11Env, header.NamespaceURI())
	require.NotNil(t, msg.Payload())
	assert.Equal(t, "ping", msg.Payload().Tag)
}

func TestReadMessage_Errors(t *testing.T) {
	factory := NewMessageFactory(V11)

	_, err := factory.ReadMessage(strings.NewReader(""), "text/xml")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = factory.ReadMessage(strings.NewReader("  \n "), "text/xml")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = factory.ReadMessage(strings.NewReader("<order/>"), "text/xml")
	assert.ErrorIs(t, err, ErrNotEnvelope)

	_, err = factory.ReadMessage(strings.NewReader(`<Envelope xmlns="urn:other"/>`), "text/xml")
	assert.ErrorIs(t, err, ErrNotEnvelope)

	_, err = factory.ReadMessage(strings.NewReader("<Envelope"), "text/xml")
	assert.Error(t, err)
}

func TestReadMessage_SOAP12Action(t *testing.T) {
	msg := NewMessageFactory(V12).CreateMessage()
	msg.SetSoapAction("urn:echo")
	assert.Equal(t, `application/soap+xml; charset=utf-8; action="urn:echo"`, msg.ContentType())

	data, err := msg.Bytes()
	require.NoError(t, err)

	parsed, err := NewMessageFactory(V12).ReadMessage(bytes.NewReader(data), msg.ContentType())
	require.NoError(t, err)
	assert.Equal(t, "urn:echo", parsed.SoapAction())
}

func TestMessage_Copy(t *testing.T) {
	msg := NewMessageFactory(V11).CreateMessage()
	msg.SetSoapAction("urn:a")
	msg.SetPayload(etree.NewElement("original"))

	cp := msg.Copy()
	cp.SetPayload(etree.NewElement("changed"))

	assert.Equal(t, "original", msg.Payload().Tag)
	assert.Equal(t, "changed", cp.Payload().Tag)
	assert.Equal(t, "urn:a", cp.SoapAction())
}
