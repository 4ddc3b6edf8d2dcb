package wss

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/goodstudio/spring-projects-spring-ws/pkg/soap"
)

// WS-Security namespaces and URIs
const (
	NsWSSE = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-secext-1.0.xsd"
	NsWSU  = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-wssecurity-utility-1.0.xsd"

	PasswordText   = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordText"
	PasswordDigest = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-username-token-profile-1.0#PasswordDigest"

	EncodingBase64Binary = "http://docs.oasis-open.org/wss/2004/01/oasis-200401-wss-soap-message-security-1.0#Base64Binary"
)

const createdLayout = "2006-01-02T15:04:05.000Z"

// ErrInvalidToken is returned for a UsernameToken that cannot be parsed
var ErrInvalidToken = errors.New("invalid UsernameToken")

// UsernameToken is a wsse:UsernameToken
type UsernameToken struct {
	Username     string
	Password     string
	PasswordType string
	Nonce        []byte
	Created      time.Time
}

// NewUsernameToken creates a token with a plain text password
func NewUsernameToken(username, password string) *UsernameToken {
	return &UsernameToken{
		Username:     username,
		Password:     password,
		PasswordType: PasswordText,
	}
}

// WithNonce sets a random 16 byte nonce and the creation time
func (t *UsernameToken) WithNonce(now time.Time) (*UsernameToken, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}
	t.Nonce = nonce
	t.Created = now.UTC()
	return t, nil
}

// SecurityHeader returns the wsse:Security header block of msg, or nil
func SecurityHeader(msg *soap.Message) *etree.Element {
	if !msg.HasHeader() {
		return nil
	}
	return childNS(msg.Header(), "Security", NsWSSE)
}

// ParseUsernameToken extracts the UsernameToken from the security header.
// It returns nil without error when the message carries no token.
func ParseUsernameToken(msg *soap.Message) (*UsernameToken, error) {
	security := SecurityHeader(msg)
	if security == nil {
		return nil, nil
	}
	el := childNS(security, "UsernameToken", NsWSSE)
	if el == nil {
		return nil, nil
	}

	username := childNS(el, "Username", NsWSSE)
	if username == nil || strings.TrimSpace(username.Text()) == "" {
		return nil, fmt.Errorf("%w: missing Username", ErrInvalidToken)
	}

	token := &UsernameToken{
		Username:     strings.TrimSpace(username.Text()),
		PasswordType: PasswordText,
	}

	if pw := childNS(el, "Password", NsWSSE); pw != nil {
		token.Password = pw.Text()
		if typ := strings.TrimSpace(pw.SelectAttrValue("Type", "")); typ != "" {
			token.PasswordType = typ
		}
	}

	if nonce := childNS(el, "Nonce", NsWSSE); nonce != nil {
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(nonce.Text()))
		if err != nil {
			return nil, fmt.Errorf("%w: bad Nonce: %v", ErrInvalidToken, err)
		}
		token.Nonce = raw
	}

	if created := childNS(el, "Created", NsWSU); created != nil {
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(created.Text()))
		if err != nil {
			return nil, fmt.Errorf("%w: bad Created: %v", ErrInvalidToken, err)
		}
		token.Created = ts
	}

	return token, nil
}

// AddUsernameToken adds token to the wsse:Security header of msg, creating
// the header block if needed.
func AddUsernameToken(msg *soap.Message, token *UsernameToken) error {
	if token == nil || token.Username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidToken)
	}

	security := SecurityHeader(msg)
	if security == nil {
		security = newSecurityHeader(msg)
	}

	ut := security.CreateElement("wsse:UsernameToken")
	ut.CreateAttr("wsu:Id", "UsernameToken-"+uuid.NewString())
	ut.CreateElement("wsse:Username").SetText(token.Username)

	passwordType := token.PasswordType
	if passwordType == "" {
		passwordType = PasswordText
	}
	pw := ut.CreateElement("wsse:Password")
	pw.CreateAttr("Type", passwordType)
	pw.SetText(token.Password)

	if len(token.Nonce) > 0 {
		nonce := ut.CreateElement("wsse:Nonce")
		nonce.CreateAttr("EncodingType", EncodingBase64Binary)
		nonce.SetText(base64.StdEncoding.EncodeToString(token.Nonce))
	}
	if !token.Created.IsZero() {
		ut.CreateElement("wsu:Created").SetText(token.Created.UTC().Format(createdLayout))
	}
	return nil
}

func newSecurityHeader(msg *soap.Message) *etree.Element {
	header := msg.Header()
	security := etree.NewElement("wsse:Security")
	security.CreateAttr("xmlns:wsse", NsWSSE)
	security.CreateAttr("xmlns:wsu", NsWSU)

	envPrefix := msg.Envelope().Space
	if envPrefix == "" {
		envPrefix = "soapenv"
		security.CreateAttr("xmlns:"+envPrefix, msg.Version().Namespace())
	}
	mustUnderstand := "1"
	if msg.Version() == soap.V12 {
		mustUnderstand = "true"
	}
	security.CreateAttr(envPrefix+":mustUnderstand", mustUnderstand)

	header.InsertChildAt(0, security)
	return security
}

func childNS(parent *etree.Element, local, ns string) *etree.Element {
	for _, child := range parent.ChildElements() {
		if child.Tag == local && child.NamespaceURI() == ns {
			return child
		}
	}
	return nil
}
