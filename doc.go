// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package springws is a toolkit for document-driven SOAP web services.

# Overview

The module provides the client and server sides of a SOAP exchange: an HTTP
message sender with bounded connection pooling, an HTTP server that hands
envelopes to a receiver, and WS-Security UsernameToken authentication backed
by a pluggable authentication manager.

# Package Structure

	github.com/goodstudio/spring-projects-spring-ws/pkg/soap        - SOAP 1.1/1.2 envelopes and faults
	github.com/goodstudio/spring-projects-spring-ws/pkg/transport   - HTTP and AMQP senders, HTTP server
	github.com/goodstudio/spring-projects-spring-ws/pkg/compression - GZIP content coding
	github.com/goodstudio/spring-projects-spring-ws/pkg/authn       - Authentication manager, user stores, security context
	github.com/goodstudio/spring-projects-spring-ws/pkg/wss         - UsernameToken processing and callback handlers

The wsctl command in cmd/wsctl runs a server from a YAML configuration and
sends messages from the command line.

# Quick Start

To send a message:

	sender := transport.NewHTTPMessageSender(transport.DefaultHTTPSenderConfig())
	defer sender.Close()

	endpoint, _ := url.Parse("http://localhost:8080/ws")
	conn, err := sender.CreateConnection(ctx, endpoint)
	if err != nil {
	    return err
	}
	defer conn.Close()

	req := soap.NewMessageFactory(soap.V11).CreateMessage()
	req.SetPayload(payload)
	if err := conn.Send(ctx, req); err != nil {
	    return err
	}
	resp, err := conn.Receive(ctx, soap.NewMessageFactory(soap.V11))

To authenticate incoming UsernameTokens:

	mgr := authn.NewProviderManager(logger, authn.NewDAOProvider(users, authn.NewBcryptEncoder(0)))
	handler, _ := wss.NewPasswordValidationHandler(mgr)
	interceptor, _ := wss.NewInterceptor(&wss.InterceptorConfig{ValidationHandler: handler})

	server := transport.NewHTTPServer(":8080", nil, interceptor.Wrap(receiver))

# References

  - SOAP 1.1: https://www.w3.org/TR/2000/NOTE-SOAP-20000508/
  - SOAP 1.2: https://www.w3.org/TR/soap12-part1/
  - WS-Security UsernameToken Profile 1.1: https://docs.oasis-open.org/wss/v1.1/wss-v1.1-spec-os-UsernameTokenProfile.pdf

# License

BSD-2-Clause License
*/
package springws
