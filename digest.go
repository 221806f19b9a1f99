package apsig

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/dunglas/httpsfv"
)

// Constants define the hash algorithm to be used for the digest
const (
	DigestSha256 = "sha-256"
	DigestSha512 = "sha-512"
)

// SetDigest computes the digest of the request body, and sets the "Digest" header, e.g.
// "SHA-256=X48E9qOokqqrvdts8nOJRJN3OWDUoyWxBf7kbu9DBPE=". This is the value usually signed as "digest"
// between federated servers. The body is replaced by a buffer with the same content.
func SetDigest(req *http.Request, scheme string) error {
	d, err := GenerateDigestHeader(&req.Body, scheme)
	if err != nil {
		return err
	}
	req.Header.Set("Digest", d)
	return nil
}

// GenerateDigestHeader generates a "Digest" header value for the body (RFC 3230 style).
// Side effect: the message body is fully read, and replaced by a static buffer
// containing the body contents.
func GenerateDigestHeader(body *io.ReadCloser, scheme string) (string, error) {
	buff, err := duplicateBody(body)
	if err != nil {
		return "", err
	}
	raw, err := rawDigest(buff.Bytes(), scheme)
	if err != nil {
		return "", err
	}
	return strings.ToUpper(scheme) + "=" + base64.StdEncoding.EncodeToString(raw), nil
}

// ValidateDigestHeader validates a "Digest" header value against the body. Scheme names are matched
// without regard to case, unknown schemes are ignored, and at least one known scheme must be present.
// All known schemes must match.
func ValidateDigestHeader(received string, body *io.ReadCloser) error {
	if strings.TrimSpace(received) == "" {
		return ErrDigestMissing
	}
	buff, err := duplicateBody(body)
	if err != nil {
		return err
	}
	var found bool
	for _, entry := range strings.Split(received, ",") {
		scheme, value, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok {
			return fmt.Errorf("malformed Digest header entry %q", entry)
		}
		scheme = strings.ToLower(scheme)
		if !knownDigest(scheme) {
			continue
		}
		want, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return fmt.Errorf("digest for %s is not valid base64: %w", scheme, err)
		}
		if err := matchDigest(buff.Bytes(), scheme, want); err != nil {
			return err
		}
		found = true
	}
	if !found {
		return fmt.Errorf("%w: no known scheme in Digest header", ErrUnsupportedDigest)
	}
	return nil
}

// SetContentDigest sets the RFC 9530 "Content-Digest" header, with one member per scheme, e.g.
// "sha-256=:X48E9qOokqqrvdts8nOJRJN3OWDUoyWxBf7kbu9DBPE=:". The body is replaced by a buffer with the same content.
func SetContentDigest(req *http.Request, schemes ...string) error {
	d, err := GenerateContentDigestHeader(&req.Body, schemes)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Digest", d)
	return nil
}

// GenerateContentDigestHeader generates a "Content-Digest" value for the body. Every scheme must be known.
// Side effect: the body is fully read, and replaced by a static buffer with the same content.
func GenerateContentDigestHeader(body *io.ReadCloser, schemes []string) (string, error) {
	if len(schemes) == 0 {
		return "", fmt.Errorf("%w: no scheme given", ErrUnsupportedDigest)
	}
	buff, err := duplicateBody(body)
	if err != nil {
		return "", err
	}
	dict := httpsfv.NewDictionary()
	for _, scheme := range schemes {
		raw, err := rawDigest(buff.Bytes(), scheme)
		if err != nil {
			return "", err
		}
		dict.Add(scheme, httpsfv.NewItem(raw))
	}
	return httpsfv.Marshal(dict)
}

// ValidateContentDigestHeader validates "Content-Digest" values, as returned by Header.Values, against the body.
// The rules are those of ValidateDigestHeader, and in addition one of the accepted schemes must be present.
func ValidateContentDigestHeader(received []string, body *io.ReadCloser, accepted []string) error {
	if len(received) == 0 {
		return ErrDigestMissing
	}
	if len(accepted) == 0 {
		return fmt.Errorf("%w: no accepted scheme given", ErrUnsupportedDigest)
	}
	for _, a := range accepted {
		if !knownDigest(a) {
			return fmt.Errorf("%w: %s", ErrUnsupportedDigest, a)
		}
	}
	dict, err := httpsfv.UnmarshalDictionary(received)
	if err != nil {
		return fmt.Errorf("malformed Content-Digest header: %w", err)
	}
	names := dict.Names()
	if !slices.ContainsFunc(accepted, func(a string) bool { return slices.Contains(names, a) }) {
		return fmt.Errorf("%w: Content-Digest has none of %v", ErrUnsupportedDigest, accepted)
	}
	buff, err := duplicateBody(body)
	if err != nil {
		return err
	}
	for _, scheme := range names {
		if !knownDigest(scheme) {
			continue
		}
		member, _ := dict.Get(scheme)
		item, ok := member.(httpsfv.Item)
		if !ok {
			return fmt.Errorf("malformed Content-Digest member %s", scheme)
		}
		want, ok := item.Value.([]byte)
		if !ok {
			return fmt.Errorf("content digest for %s is not a byte sequence", scheme)
		}
		if err := matchDigest(buff.Bytes(), scheme, want); err != nil {
			return err
		}
	}
	return nil
}

func duplicateBody(body *io.ReadCloser) (*bytes.Buffer, error) {
	buff := &bytes.Buffer{}
	if body != nil && *body != nil {
		_, err := buff.ReadFrom(*body)
		if err != nil {
			return nil, err
		}

		_ = (*body).Close()

		*body = io.NopCloser(bytes.NewReader(buff.Bytes()))
	}
	return buff, nil
}

func rawDigest(b []byte, scheme string) ([]byte, error) {
	switch scheme {
	case DigestSha256:
		s := sha256.Sum256(b)
		return s[:], nil
	case DigestSha512:
		s := sha512.Sum512(b)
		return s[:], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDigest, scheme)
	}
}

func knownDigest(scheme string) bool {
	return scheme == DigestSha256 || scheme == DigestSha512
}

// matchDigest compares want with the digest of body under a known scheme.
func matchDigest(body []byte, scheme string, want []byte) error {
	raw, err := rawDigest(body, scheme)
	if err != nil {
		return err
	}
	if !bytes.Equal(raw, want) {
		return fmt.Errorf("%w for scheme %s", ErrDigestMismatch, scheme)
	}
	return nil
}
