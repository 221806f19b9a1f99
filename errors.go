package apsig

import (
	"errors"
	"fmt"
)

// Signature header errors.
var (
	// ErrSignatureHeaderMissing is returned when a request carries no "Signature" header.
	ErrSignatureHeaderMissing = errors.New("apsig: missing \"signature\" header")

	// ErrParseSignatureHeader is returned when the "Signature" header value does not follow the field list grammar.
	ErrParseSignatureHeader = errors.New("apsig: malformed signature header")

	// ErrHeaderValueNotUTF8 is returned when the "Signature" header value is not valid UTF-8.
	ErrHeaderValueNotUTF8 = errors.New("apsig: signature header value is not valid UTF-8")

	// ErrSignatureBase64 is returned when the signature field is not valid base64.
	ErrSignatureBase64 = errors.New("apsig: signature is not valid base64")

	// ErrSerializeHeader is returned when a serialized header cannot be used as an HTTP header value.
	ErrSerializeHeader = errors.New("apsig: cannot serialize signature header")
)

// Key and algorithm errors.
var (
	// ErrCryptoBackend wraps failures reported by the cryptographic backend.
	ErrCryptoBackend = errors.New("apsig: cryptographic backend failure")

	// ErrInvalidKey is returned for nil, undersized or undecodable key material.
	ErrInvalidKey = errors.New("apsig: invalid key material")

	// ErrKeyAlgorithmMismatch is returned when a key cannot be used with the selected algorithm.
	ErrKeyAlgorithmMismatch = errors.New("apsig: key type does not match algorithm")

	// ErrEmptyKeyID is returned when a signing configuration has no key identifier.
	ErrEmptyKeyID = errors.New("apsig: key id must not be empty")
)

// Digest errors.
var (
	// ErrDigestMissing is returned when a digest header is required but absent.
	ErrDigestMissing = errors.New("apsig: digest header missing")

	// ErrDigestMismatch is returned when a digest does not match the message body.
	ErrDigestMismatch = errors.New("apsig: digest mismatch")

	// ErrUnsupportedDigest is returned for digest schemes other than SHA-256 and SHA-512.
	ErrUnsupportedDigest = errors.New("apsig: unsupported digest scheme")
)

// MissingFieldError reports a mandatory field absent from a parsed signature header.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("apsig: signature header is missing field %q", e.Field)
}

// UnknownAlgorithmError reports an algorithm name that is not in the registry.
type UnknownAlgorithmError struct {
	Name string
}

func (e *UnknownAlgorithmError) Error() string {
	return fmt.Sprintf("apsig: unknown algorithm %q", e.Name)
}
