// Copyright (c) 2024 SIROS Foundation
// SPDX-License-Identifier: BSD-2-Clause

/*
Package wss implements WS-Security UsernameToken processing.

Incoming UsernameTokens are handed to a CallbackHandler as callbacks. The
PasswordValidationHandler authenticates plain text passwords through an
authn.Manager and stores the result in the request's security context:

	handler, err := wss.NewPasswordValidationHandler(manager)
	interceptor, err := wss.NewInterceptor(&wss.InterceptorConfig{
	    ValidationHandler:    handler,
	    RequireUsernameToken: true,
	})
	server := transport.NewHTTPServer(":8080", nil, interceptor.Wrap(endpoint))

The endpoint reads the authenticated principal with
authn.AuthenticationFromContext. A failed authentication is answered with a
client fault carrying the wsse:FailedAuthentication subcode, unless the
handler was created with WithIgnoreFailure(true).

Clients add credentials to outgoing messages with AddUsernameToken or the
interceptor's SecureRequest.

Signatures, encryption and digest password verification are not supported.

# References

  - WS-Security 1.1 SOAP Message Security: https://docs.oasis-open.org/wss-m/wss/v1.1.1/os/wss-SOAPMessageSecurity-v1.1.1-os.html
  - UsernameToken Profile 1.1: https://docs.oasis-open.org/wss-m/wss/v1.1.1/os/wss-UsernameTokenProfile-v1.1.1-os.html
*/
package wss
