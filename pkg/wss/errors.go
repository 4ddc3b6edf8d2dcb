package wss

import (
	"errors"
	"fmt"

	"github.com/goodstudio/spring-projects-spring-ws/pkg/soap"
)

// ErrorCode is a WS-Security fault code
type ErrorCode string

// WS-Security fault codes
const (
	UnsupportedSecurityToken ErrorCode = "UnsupportedSecurityToken"
	UnsupportedAlgorithm     ErrorCode = "UnsupportedAlgorithm"
	InvalidSecurity          ErrorCode = "InvalidSecurity"
	InvalidSecurityToken     ErrorCode = "InvalidSecurityToken"
	FailedAuthentication     ErrorCode = "FailedAuthentication"
	FailedCheck              ErrorCode = "FailedCheck"
	SecurityTokenUnavailable ErrorCode = "SecurityTokenUnavailable"
)

var faultStrings = map[ErrorCode]string{
	UnsupportedSecurityToken: "An unsupported token was provided",
	UnsupportedAlgorithm:     "An unsupported signature or encryption algorithm was used",
	InvalidSecurity:          "An error was discovered processing the <wsse:Security> header",
	InvalidSecurityToken:     "An invalid security token was provided",
	FailedAuthentication:     "The security token could not be authenticated or authorized",
	FailedCheck:              "The signature or decryption was invalid",
	SecurityTokenUnavailable: "Referenced security token could not be retrieved",
}

// SecurityError is a WS-Security processing error that maps to a SOAP fault
type SecurityError struct {
	Code ErrorCode
	Err  error
}

// NewSecurityError creates a SecurityError
func NewSecurityError(code ErrorCode, err error) *SecurityError {
	return &SecurityError{Code: code, Err: err}
}

func (e *SecurityError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.FaultCode(), e.FaultString())
	}
	return fmt.Sprintf("%s: %s: %v", e.FaultCode(), e.FaultString(), e.Err)
}

func (e *SecurityError) Unwrap() error {
	return e.Err
}

// FaultCode returns the prefixed fault code, e.g. "wsse:FailedAuthentication"
func (e *SecurityError) FaultCode() string {
	return "wsse:" + string(e.Code)
}

// FaultString returns the standard description of the code
func (e *SecurityError) FaultString() string {
	if s, ok := faultStrings[e.Code]; ok {
		return s
	}
	return string(e.Code)
}

// Fault converts the error into a client SOAP fault. The cause is not
// included so authentication details do not leak to the caller.
func (e *SecurityError) Fault() *soap.Fault {
	return &soap.Fault{
		Code:             soap.FaultClient,
		Subcode:          e.FaultCode(),
		SubcodeNamespace: NsWSSE,
		Reason:           e.FaultString(),
	}
}

// ErrUnsupportedCallback is matched by errors for callbacks a handler cannot process
var ErrUnsupportedCallback = errors.New("unsupported callback")

// UnsupportedCallbackError reports a callback a handler cannot process
type UnsupportedCallbackError struct {
	Callback Callback
	Reason   string
}

func (e *UnsupportedCallbackError) Error() string {
	msg := fmt.Sprintf("unsupported callback %T", e.Callback)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is matches ErrUnsupportedCallback
func (e *UnsupportedCallbackError) Is(target error) bool {
	return target == ErrUnsupportedCallback
}
