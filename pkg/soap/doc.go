// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package soap provides the SOAP 1.1 and SOAP 1.2 message model used by the
transports and security interceptors of this module.

A [Message] wraps an [etree.Document] holding a SOAP envelope. Messages are
created empty or parsed from a stream by a [MessageFactory]:

	factory := soap.NewMessageFactory(soap.V11)
	msg := factory.CreateMessage()
	msg.SetPayload(etree.NewElement("ping"))

	var buf bytes.Buffer
	msg.WriteTo(&buf)

	parsed, err := factory.ReadMessage(&buf, msg.ContentType())

# Versions

The envelope namespace selects the SOAP version:

	V11  http://schemas.xmlsoap.org/soap/envelope/     text/xml
	V12  http://www.w3.org/2003/05/soap-envelope      application/soap+xml

When reading, the factory detects the version from the envelope namespace,
so a SOAP 1.1 factory can read SOAP 1.2 responses and vice versa.

# Faults

Faults are added with [Message.AddFault] and read back with
[Message.Fault]. The fault code is version neutral ([FaultClient],
[FaultServer]) and is mapped onto Client/Server (SOAP 1.1) or
Sender/Receiver (SOAP 1.2). A qualified subcode such as
wsse:FailedAuthentication can be attached.

# References

  - SOAP 1.1: https://www.w3.org/TR/2000/NOTE-SOAP-20000508/
  - SOAP 1.2: https://www.w3.org/TR/soap12-part1/
*/
package soap
