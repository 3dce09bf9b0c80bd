// Package errs defines the structured error type shared by weave packages.
//
// Callers should branch on Kind or Code rather than matching error strings.
// Use errors.As to extract *Error for structured handling.
package errs

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
type Kind string

const (
	// KindConfiguration covers recoverable setup problems, e.g. a key-bound
	// operation on a provider that holds no key, or invalid settings.
	KindConfiguration Kind = "Configuration"
	// KindInput covers malformed caller input: encoded text, keyfiles, item trees.
	KindInput Kind = "Input"
	// KindCrypto covers signature verification failures.
	KindCrypto Kind = "Crypto"
)

// Stable codes. A code names the violated condition; several codes share a Kind.
const (
	CodeDecode        = "WEAVE-B64-001"
	CodeKeyRead       = "WEAVE-KEY-001"
	CodeKeyParse      = "WEAVE-KEY-002"
	CodeKeyType       = "WEAVE-KEY-003"
	CodeKeyInvalid    = "WEAVE-KEY-004"
	CodeNoKey         = "WEAVE-KEY-100"
	CodeItem          = "WEAVE-ITEM-001"
	CodeVerify        = "WEAVE-SIG-001"
	CodeSign          = "WEAVE-SIG-002"
	CodeEnvelope      = "WEAVE-ENV-001"
	CodeEnvelopeMatch = "WEAVE-ENV-002"
	CodeConfig        = "WEAVE-CFG-001"
)

// Error is the structured error type.
//
// Path is set for errors tied to a file (keyfile loading). Message is for humans.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Path    string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := e.Message
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// New returns an *Error without a cause.
func New(kind Kind, code, msg string) error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

// Wrap returns an *Error with cause attached. A nil cause is equivalent to New.
func Wrap(kind Kind, code, msg string, cause error) error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

// KeyLoad returns an Input error for a keyfile that could not be loaded.
func KeyLoad(code, path, msg string, cause error) error {
	return &Error{Kind: KindInput, Code: code, Message: msg, Path: path, Cause: cause}
}

// NoKey is returned by key-bound operations when no key is held.
func NoKey() error {
	return New(KindConfiguration, CodeNoKey, "no private key present")
}

// IsKind reports whether err is (or wraps) a *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// Code returns the stable code for a structured error, or "" if unknown.
func Code(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Code
}

func IsNoKey(err error) bool  { return Code(err) == CodeNoKey }
func IsDecode(err error) bool { return Code(err) == CodeDecode }
func IsVerify(err error) bool { return Code(err) == CodeVerify }

// IsKeyLoad reports whether err is any keyfile loading failure.
func IsKeyLoad(err error) bool {
	switch Code(err) {
	case CodeKeyRead, CodeKeyParse, CodeKeyType, CodeKeyInvalid:
		return true
	}
	return false
}
