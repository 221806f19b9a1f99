package apsig

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultSignedHeaders are the fields signed unless SetSignedHeaders is called.
var DefaultSignedHeaders = []string{RequestTarget, "host", "date", "digest", "content-type"}

// SigningConfig holds what is needed to sign a request: the algorithm, the private key,
// the key ID published in the header, the ordered list of fields to sign, and extra
// parameters such as created and expires that are copied verbatim into the header.
type SigningConfig struct {
	algorithm     Algorithm
	privateKey    *PrivateKey
	keyID         string
	signedHeaders []string
	other         Params
}

// NewSigningConfig returns a configuration that signs DefaultSignedHeaders with key under keyID.
// The key must match the algorithm.
func NewSigningConfig(algorithm Algorithm, key *PrivateKey, keyID string) (*SigningConfig, error) {
	if keyID = strings.TrimSpace(keyID); keyID == "" {
		return nil, ErrEmptyKeyID
	}
	if key == nil || key.key == nil {
		return nil, fmt.Errorf("%w: private key must not be nil", ErrInvalidKey)
	}
	if err := algorithm.checkKey(key.key.Public()); err != nil {
		return nil, err
	}
	return &SigningConfig{
		algorithm:     algorithm,
		privateKey:    key,
		keyID:         keyID,
		signedHeaders: append([]string(nil), DefaultSignedHeaders...),
	}, nil
}

// SetSignedHeaders replaces the list of signed fields. Order matters: the verifier reproduces it exactly.
func (c *SigningConfig) SetSignedHeaders(headers ...string) *SigningConfig {
	c.signedHeaders = append([]string(nil), headers...)
	return c
}

// AddParam appends an extra field to the signature header.
func (c *SigningConfig) AddParam(name, value string) *SigningConfig {
	c.other = append(c.other, Param{Name: name, Value: value})
	return c
}

// SetCreated sets the created field, in seconds since the epoch.
func (c *SigningConfig) SetCreated(t time.Time) *SigningConfig {
	return c.setParam(createdField, strconv.FormatInt(t.Unix(), 10))
}

// SetExpires sets the expires field, in seconds since the epoch.
func (c *SigningConfig) SetExpires(t time.Time) *SigningConfig {
	return c.setParam(expiresField, strconv.FormatInt(t.Unix(), 10))
}

func (c *SigningConfig) setParam(name, value string) *SigningConfig {
	for i := range c.other {
		if c.other[i].Name == name {
			c.other[i].Value = value
			return c
		}
	}
	return c.AddParam(name, value)
}

func (c *SigningConfig) KeyID() string {
	return c.keyID
}

func (c *SigningConfig) Algorithm() Algorithm {
	return c.algorithm
}

// SignedHeaders returns a copy of the list of signed fields.
func (c *SigningConfig) SignedHeaders() []string {
	return append([]string(nil), c.signedHeaders...)
}

// validate checks that the header built from c can be parsed back.
func (c *SigningConfig) validate() error {
	if !representable(c.keyID) {
		return fmt.Errorf("%w: cannot represent key id %q", ErrSerializeHeader, c.keyID)
	}
	if len(c.signedHeaders) == 0 {
		return fmt.Errorf("%w: no fields to sign", ErrSerializeHeader)
	}
	for _, h := range c.signedHeaders {
		if h == "" || strings.ContainsAny(h, "\", \t\r\n") {
			return fmt.Errorf("%w: invalid field name %q", ErrSerializeHeader, h)
		}
	}
	for _, p := range c.other {
		switch p.Name {
		case keyIDField, algorithmField, headersField, signatureField:
			return fmt.Errorf("%w: reserved parameter name %q", ErrSerializeHeader, p.Name)
		}
		if p.Name == "" || strings.IndexFunc(p.Name, func(r rune) bool { return r >= 0x80 || !isAlphanumeric(byte(r)) }) >= 0 {
			return fmt.Errorf("%w: parameter name %q is not alphanumeric", ErrSerializeHeader, p.Name)
		}
		if !representable(p.Value) {
			return fmt.Errorf("%w: cannot represent value %q of parameter %s", ErrSerializeHeader, p.Value, p.Name)
		}
	}
	return nil
}

// representable reports whether v survives serialization: values with a space are quoted, others are bare.
func representable(v string) bool {
	if v == "" || strings.Contains(v, "\"") {
		return false
	}
	if strings.Contains(v, " ") {
		return true
	}
	return !strings.ContainsAny(v, ",\t\r\n")
}
