// Package updateerr implements the error taxonomy the update protocol surfaces
// to callers: every failure path in the core is one of a fixed set of kinds so
// that a caller can distinguish a security failure from a plain I/O hiccup.
package updateerr

import (
	"errors"
	"fmt"
)

// Kind classifies a core failure. Callers should branch on Kind, never on the
// error's formatted text.
type Kind string

const (
	// Io is an underlying file or network failure.
	Io Kind = "io"
	// MalformedManifest means meta.json does not parse or a required field
	// is missing or invalid (including path-safety violations).
	MalformedManifest Kind = "malformed_manifest"
	// SignatureInvalid means the canonical bytes do not verify against the
	// embedded public key.
	SignatureInvalid Kind = "signature_invalid"
	// PackageCorrupt means a referenced package entry is missing or its
	// hash does not match PackageFileHash.
	PackageCorrupt Kind = "package_corrupt"
	// SourceMismatch means an on-disk pre-image hash does not match a
	// modified action's SourceHash.
	SourceMismatch Kind = "source_mismatch"
	// TargetMismatch means a reconstructed file's hash does not match
	// TargetHash.
	TargetMismatch Kind = "target_mismatch"
	// MalformedPatch means a bsdiff header or stream is invalid.
	MalformedPatch Kind = "malformed_patch"
	// UnsupportedKey means a PEM block parsed but its curve/algorithm is
	// not P-256/SHA-256.
	UnsupportedKey Kind = "unsupported_key"
	// Cancelled means the caller asked to stop.
	Cancelled Kind = "cancelled"
)

// securityKinds are presented to users as security failures, never as plain
// I/O errors, per spec.
var securityKinds = map[Kind]bool{
	SignatureInvalid: true,
	PackageCorrupt:   true,
	TargetMismatch:   true,
	UnsupportedKey:   true,
}

// IsSecurity reports whether kind must be surfaced as a security failure.
func IsSecurity(kind Kind) bool {
	return securityKinds[kind]
}

// Error is the concrete error type returned by every core package. Path is
// the offending file or manifest field, when one is known.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a bare Error of the given kind with a message and no inner cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Err: errors.New(msg)}
}

// Newf builds a bare Error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// Wrap attaches a kind and an offending path to an existing error.
func Wrap(kind Kind, path string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Path: path, Err: err}
}

// WithPath attaches path context to err without discarding its Kind, for
// callers that learn a file path only after a lower-level package has
// already classified the failure. An untyped err becomes Io.
func WithPath(err error, path string) error {
	if err == nil {
		return nil
	}
	var ue *Error
	if errors.As(err, &ue) {
		if ue.Path != "" {
			return ue
		}
		return &Error{Kind: ue.Kind, Path: path, Err: ue.Err}
	}
	return &Error{Kind: Io, Path: path, Err: err}
}

// Is reports whether err is (or wraps) an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind == kind
	}
	return false
}
