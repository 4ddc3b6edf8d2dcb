package soap

import "fmt"

// Envelope namespaces
const (
	NsSOAP11Env = "http://schemas.xmlsoap.org/soap/envelope/"
	NsSOAP12Env = "http://www.w3.org/2003/05/soap-envelope"
)

// Content types
const (
	ContentTypeSOAP11 = "text/xml"
	ContentTypeSOAP12 = "application/soap+xml"
)

// Version identifies a SOAP version
type Version int

const (
	V11 Version = iota + 1
	V12
)

// Namespace returns the envelope namespace URI
func (v Version) Namespace() string {
	if v == V12 {
		return NsSOAP12Env
	}
	return NsSOAP11Env
}

// ContentType returns the bare media type used on the wire
func (v Version) ContentType() string {
	if v == V12 {
		return ContentTypeSOAP12
	}
	return ContentTypeSOAP11
}

func (v Version) String() string {
	switch v {
	case V11:
		return "SOAP 1.1"
	case V12:
		return "SOAP 1.2"
	default:
		return fmt.Sprintf("Version(%d)", int(v))
	}
}

// versionForNamespace maps an envelope namespace to a version.
func versionForNamespace(ns string) (Version, bool) {
	switch ns {
	case NsSOAP11Env:
		return V11, true
	case NsSOAP12Env:
		return V12, true
	}
	return 0, false
}
