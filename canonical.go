package apsig

import (
	"strings"
)

// Pseudo-headers recognized in the headers field.
const (
	RequestTarget = "(request-target)"
	Created       = "(created)"
	Expires       = "(expires)"
)

// signingString builds the string that is signed: one "name: value" line per selected field, in order,
// separated by "\n" with no trailing newline. Names are lower-cased; absent values are empty.
func signingString(sel fieldSelection, m *Message) string {
	var b strings.Builder
	for i, name := range sel.headers {
		if i > 0 {
			b.WriteByte('\n')
		}
		label := strings.ToLower(name)
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(fieldValue(label, sel.other, m))
	}
	return b.String()
}

func fieldValue(label string, other Params, m *Message) string {
	switch label {
	case RequestTarget:
		return m.requestTarget()
	case Created:
		v, _ := other.Get(createdField)
		return v
	case Expires:
		v, _ := other.Get(expiresField)
		return v
	default:
		return m.header(label)
	}
}

// SigningString returns the string that h's signature covers for message m. It is meant for debugging
// interoperability problems.
func SigningString(m *Message, h *SignatureHeader) string {
	return signingString(h.selection(), m)
}
