package apsig

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Names of the fields in a "Signature" header that have a dedicated meaning.
const (
	keyIDField     = "keyId"
	algorithmField = "algorithm"
	headersField   = "headers"
	signatureField = "signature"
	createdField   = "created"
	expiresField   = "expires"
)

// Param is a single name=value pair of a signature header.
type Param struct {
	Name  string
	Value string
}

// Params is an ordered list of signature header fields. Names may repeat.
type Params []Param

// Get returns the value of the first field called name.
func (ps Params) Get(name string) (string, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// SignatureHeader is the parsed form of a "Signature" header:
//
//	keyId="https://example.com/actor#main-key",algorithm="rsa-sha256",headers="(request-target) host date",signature="..."
//
// Headers keeps the field names in the order they were given, since the order determines the signing string.
// Fields other than keyId, algorithm, headers and signature (typically created and expires) are kept in Other,
// in encounter order.
type SignatureHeader struct {
	KeyID     *string
	Algorithm string
	Headers   []string
	Signature string
	Other     Params
}

// fieldSelection is what determines the signing string: the signed field names and the extra
// parameters that (created) and (expires) resolve against. It is a signature header without a signature.
type fieldSelection struct {
	headers []string
	other   Params
}

func (h *SignatureHeader) selection() fieldSelection {
	return fieldSelection{headers: h.Headers, other: h.Other}
}

// ParseSignatureHeader parses the value of a "Signature" header. Whitespace is allowed around names, "=" and values,
// values are either double-quoted (no escapes) or bare tokens, and unknown fields are preserved.
// The algorithm, headers and signature fields are mandatory; keyId is not.
func ParseSignatureHeader(input string) (*SignatureHeader, error) {
	fields, err := parseFieldList(input)
	if err != nil {
		return nil, err
	}
	h := SignatureHeader{}
	var haveAlgorithm, haveHeaders, haveSignature bool
	for _, f := range fields {
		switch f.Name {
		case keyIDField:
			v := f.Value
			h.KeyID = &v
		case algorithmField:
			h.Algorithm = f.Value
			haveAlgorithm = true
		case headersField:
			// the list may be folded over several lines
			h.Headers = strings.Fields(f.Value)
			haveHeaders = true
		case signatureField:
			h.Signature = f.Value
			haveSignature = true
		default:
			h.Other = append(h.Other, f)
		}
	}
	switch {
	case !haveAlgorithm:
		return nil, &MissingFieldError{Field: algorithmField}
	case !haveHeaders:
		return nil, &MissingFieldError{Field: headersField}
	case !haveSignature:
		return nil, &MissingFieldError{Field: signatureField}
	}
	if len(h.Headers) == 0 {
		return nil, fmt.Errorf("%w: empty headers list", ErrParseSignatureHeader)
	}
	return &h, nil
}

// String serializes the header as keyId (if set), algorithm, headers, signature, then the other fields in order.
// A value is quoted only when it contains a space.
func (h *SignatureHeader) String() string {
	var b strings.Builder
	add := func(name, value string) {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(name)
		b.WriteByte('=')
		if strings.Contains(value, " ") {
			b.WriteByte('"')
			b.WriteString(value)
			b.WriteByte('"')
		} else {
			b.WriteString(value)
		}
	}
	if h.KeyID != nil {
		add(keyIDField, *h.KeyID)
	}
	add(algorithmField, h.Algorithm)
	add(headersField, strings.Join(h.Headers, " "))
	add(signatureField, h.Signature)
	for _, p := range h.Other {
		add(p.Name, p.Value)
	}
	return b.String()
}

// SignatureBytes returns the decoded signature.
func (h *SignatureHeader) SignatureBytes() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(h.Signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSignatureBase64, err)
	}
	return raw, nil
}

// Created returns the value of the created field, or nil if there is none. It does not check the time.
func (h *SignatureHeader) Created() (*time.Time, error) {
	return h.timeParam(createdField)
}

// Expires returns the value of the expires field, or nil if there is none. It does not check the time.
func (h *SignatureHeader) Expires() (*time.Time, error) {
	return h.timeParam(expiresField)
}

func (h *SignatureHeader) timeParam(name string) (*time.Time, error) {
	v, ok := h.Other.Get(name)
	if !ok {
		return nil, nil
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: field %s is not an integer: %q", ErrParseSignatureHeader, name, v)
	}
	t := time.Unix(secs, 0)
	return &t, nil
}

// fieldParser scans the comma-separated name=value list of a signature header.
type fieldParser struct {
	input string
	pos   int
}

func parseFieldList(input string) (Params, error) {
	p := &fieldParser{input: input}
	p.skipSpace()
	if p.done() {
		return nil, nil
	}
	var fields Params
	for {
		f, err := p.field()
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
		if p.done() {
			return fields, nil
		}
		if c := p.input[p.pos]; c != ',' {
			return nil, p.errorf("trailing data %q", p.input[p.pos:])
		}
		p.pos++
	}
}

func (p *fieldParser) field() (Param, error) {
	p.skipSpace()
	name := p.scan(isAlphanumeric)
	if name == "" {
		return Param{}, p.errorf("expected field name")
	}
	p.skipSpace()
	if p.done() || p.input[p.pos] != '=' {
		return Param{}, p.errorf("expected \"=\" after %s", name)
	}
	p.pos++
	p.skipSpace()
	value, err := p.value()
	if err != nil {
		return Param{}, err
	}
	p.skipSpace()
	return Param{Name: name, Value: value}, nil
}

func (p *fieldParser) value() (string, error) {
	if !p.done() && p.input[p.pos] == '"' {
		start := p.pos + 1
		end := strings.IndexByte(p.input[start:], '"')
		if end < 0 {
			return "", p.errorf("unterminated quoted string")
		}
		p.pos = start + end + 1
		return p.input[start : start+end], nil
	}
	v := p.scan(isTokenChar)
	if v == "" {
		return "", p.errorf("expected value")
	}
	return v, nil
}

func (p *fieldParser) scan(accept func(byte) bool) string {
	start := p.pos
	for !p.done() && accept(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *fieldParser) skipSpace() {
	p.scan(isSpace)
}

func (p *fieldParser) done() bool {
	return p.pos >= len(p.input)
}

func (p *fieldParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s at offset %d", ErrParseSignatureHeader, fmt.Sprintf(format, args...), p.pos)
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isAlphanumeric(c byte) bool {
	return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' || '0' <= c && c <= '9'
}

func isTokenChar(c byte) bool {
	return c != ',' && !isSpace(c)
}
