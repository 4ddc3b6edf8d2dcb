package soap

import (
	"strings"

	"github.com/beevik/etree"
)

// FaultCode is a version neutral SOAP fault code
type FaultCode string

const (
	// FaultClient signals a problem with the request (Client / Sender)
	FaultClient FaultCode = "Client"
	// FaultServer signals a processing problem (Server / Receiver)
	FaultServer FaultCode = "Server"
)

// Fault describes a SOAP fault
type Fault struct {
	Code FaultCode
	// Subcode is a prefixed name such as "wsse:FailedAuthentication"
	Subcode string
	// SubcodeNamespace binds the Subcode prefix
	SubcodeNamespace string
	Reason           string
}

func (f *Fault) Error() string {
	if f.Subcode != "" {
		return string(f.Code) + " (" + f.Subcode + "): " + f.Reason
	}
	return string(f.Code) + ": " + f.Reason
}

// AddClientFault replaces the body content with a client fault
func (m *Message) AddClientFault(reason string) {
	m.AddFault(&Fault{Code: FaultClient, Reason: reason})
}

// AddServerFault replaces the body content with a server fault
func (m *Message) AddServerFault(reason string) {
	m.AddFault(&Fault{Code: FaultServer, Reason: reason})
}

// AddFault replaces the body content with the given fault
func (m *Message) AddFault(f *Fault) {
	fault := etree.NewElement(m.qualify("Fault"))

	if f.Subcode != "" && f.SubcodeNamespace != "" {
		if p, _, ok := strings.Cut(f.Subcode, ":"); ok {
			fault.CreateAttr("xmlns:"+p, f.SubcodeNamespace)
		}
	}

	if m.version == V12 {
		code := fault.CreateElement(m.qualify("Code"))
		code.CreateElement(m.qualify("Value")).SetText(m.qualify(soap12Code(f.Code)))
		if f.Subcode != "" {
			code.CreateElement(m.qualify("Subcode")).
				CreateElement(m.qualify("Value")).SetText(f.Subcode)
		}
		text := fault.CreateElement(m.qualify("Reason")).CreateElement(m.qualify("Text"))
		text.CreateAttr("xml:lang", "en")
		text.SetText(f.Reason)
	} else {
		faultCode := m.qualify(string(f.Code))
		if f.Subcode != "" {
			faultCode = f.Subcode
		}
		fault.CreateElement("faultcode").SetText(faultCode)
		fault.CreateElement("faultstring").SetText(f.Reason)
	}

	m.SetPayload(fault)
}

// HasFault reports whether the body carries a fault
func (m *Message) HasFault() bool {
	return m.faultElement() != nil
}

// Fault returns the fault carried in the body, or nil
func (m *Message) Fault() *Fault {
	el := m.faultElement()
	if el == nil {
		return nil
	}

	f := &Fault{}
	if m.version == V12 {
		if v := el.FindElement("./Code/Value"); v != nil {
			f.Code = neutralCode(localName(v.Text()))
		}
		if v := el.FindElement("./Code/Subcode/Value"); v != nil {
			f.Subcode = strings.TrimSpace(v.Text())
		}
		if t := el.FindElement("./Reason/Text"); t != nil {
			f.Reason = t.Text()
		}
		return f
	}

	if c := el.FindElement("./faultcode"); c != nil {
		code := strings.TrimSpace(c.Text())
		switch localName(code) {
		case "Client", "Server":
			f.Code = FaultCode(localName(code))
		default:
			f.Code = FaultClient
			f.Subcode = code
		}
	}
	if s := el.FindElement("./faultstring"); s != nil {
		f.Reason = s.Text()
	}
	return f
}

func (m *Message) faultElement() *etree.Element {
	p := m.Payload()
	if p == nil || p.Tag != "Fault" || p.NamespaceURI() != m.version.Namespace() {
		return nil
	}
	return p
}

func soap12Code(c FaultCode) string {
	if c == FaultServer {
		return "Receiver"
	}
	return "Sender"
}

func neutralCode(local string) FaultCode {
	switch local {
	case "Receiver", "Server":
		return FaultServer
	default:
		return FaultClient
	}
}

func localName(qname string) string {
	qname = strings.TrimSpace(qname)
	if _, local, ok := strings.Cut(qname, ":"); ok {
		return local
	}
	return qname
}
