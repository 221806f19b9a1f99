package apsig

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"unicode/utf8"

	"golang.org/x/net/http/httpguts"
)

const signatureHeaderName = "Signature"

// SignMessage signs m and sets its "Signature" header. It returns the header value.
func (c *SigningConfig) SignMessage(m *Message) (string, error) {
	if err := c.validate(); err != nil {
		return "", err
	}
	sel := fieldSelection{headers: c.signedHeaders, other: c.other}
	input := signingString(sel, m)
	raw, err := c.algorithm.Sign(c.privateKey, []byte(input))
	if err != nil {
		return "", err
	}
	keyID := c.keyID
	h := SignatureHeader{
		KeyID:     &keyID,
		Algorithm: c.algorithm.Name(),
		Headers:   sel.headers,
		Signature: base64.StdEncoding.EncodeToString(raw),
		Other:     sel.other,
	}
	value := h.String()
	if !httpguts.ValidHeaderFieldValue(value) {
		return "", fmt.Errorf("%w: not a valid header value", ErrSerializeHeader)
	}
	m.headers.Set(signatureHeaderName, value)
	return value, nil
}

// SignRequest signs an HTTP request and adds the "Signature" header to it.
// Headers named in the configuration but missing from the request are signed as empty values.
func SignRequest(config *SigningConfig, req *http.Request) error {
	m, err := messageFromRequest(req)
	if err != nil {
		return err
	}
	_, err = config.SignMessage(m)
	return err
}

// VerifyRequest verifies the "Signature" header of req with key. A well-formed header whose signature does not
// match yields false and a nil error; malformed or missing headers, unknown algorithms and unusable keys yield an error.
func VerifyRequest(req *http.Request, key *PublicKey) (bool, error) {
	m, err := messageFromRequest(req)
	if err != nil {
		return false, err
	}
	return m.Verify(key)
}

// Verify verifies the signature on this message. See VerifyRequest.
func (m *Message) Verify(key *PublicKey) (bool, error) {
	verified, _, err := m.VerifyDebug(key)
	return verified, err
}

// VerifyDebug is like Verify, and also returns the signing string that was reconstructed
// (empty if the header could not be parsed).
func (m *Message) VerifyDebug(key *PublicKey) (verified bool, signingInput string, err error) {
	h, err := m.SignatureHeader()
	if err != nil {
		return false, "", err
	}
	signingInput = signingString(h.selection(), m)
	alg, err := AlgorithmByName(h.Algorithm)
	if err != nil {
		return false, signingInput, err
	}
	sig, err := h.SignatureBytes()
	if err != nil {
		return false, signingInput, err
	}
	verified, err = alg.Verify(key, []byte(signingInput), sig)
	return verified, signingInput, err
}

// SignatureHeader extracts and parses the "Signature" header.
func (m *Message) SignatureHeader() (*SignatureHeader, error) {
	value, found := m.rawHeader(signatureHeaderName)
	if !found {
		return nil, ErrSignatureHeaderMissing
	}
	if !utf8.ValidString(value) {
		return nil, ErrHeaderValueNotUTF8
	}
	return ParseSignatureHeader(value)
}

// KeyID returns the keyId of the message's signature, so that the caller can look up the public key
// before verifying. It returns false if there is no parsable signature header or it has no keyId.
func (m *Message) KeyID() (string, bool) {
	h, err := m.SignatureHeader()
	if err != nil || h.KeyID == nil {
		return "", false
	}
	return *h.KeyID, true
}

// KeyID returns the keyId of the request's signature. See Message.KeyID.
func KeyID(req *http.Request) (string, bool) {
	m, err := messageFromRequest(req)
	if err != nil {
		return "", false
	}
	return m.KeyID()
}
