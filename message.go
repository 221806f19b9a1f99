package apsig

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Message is the view of an HTTP request that signatures are computed over: method, path, optional query and
// headers. The header map is borrowed from the caller; signing adds the "Signature" header to it.
type Message struct {
	headers   http.Header
	method    string
	path      string
	query     *string
	authority string
}

// MessageConfig configures a Message. Use WithRequest for an *http.Request, or the individual setters.
type MessageConfig struct {
	method    string
	url       *url.URL
	headers   http.Header
	authority string
}

// NewMessageConfig returns a new MessageConfig.
func NewMessageConfig() *MessageConfig {
	return &MessageConfig{}
}

func (b *MessageConfig) WithMethod(method string) *MessageConfig {
	b.method = method
	return b
}

func (b *MessageConfig) WithURL(u *url.URL) *MessageConfig {
	b.url = u
	return b
}

func (b *MessageConfig) WithHeaders(headers http.Header) *MessageConfig {
	b.headers = headers
	return b
}

// WithAuthority sets the value used for the host field when the header map has no "Host" entry,
// which is the case for requests parsed by net/http.
func (b *MessageConfig) WithAuthority(authority string) *MessageConfig {
	b.authority = authority
	return b
}

func (b *MessageConfig) WithRequest(req *http.Request) *MessageConfig {
	if req == nil {
		return b
	}
	authority := req.Host
	if authority == "" && req.URL != nil {
		authority = req.URL.Host
	}
	return b.
		WithMethod(req.Method).
		WithURL(req.URL).
		WithHeaders(req.Header).
		WithAuthority(authority)
}

// NewMessage constructs a new Message from the provided config.
func NewMessage(config *MessageConfig) (*Message, error) {
	if config == nil {
		config = NewMessageConfig()
	}
	if config.method == "" {
		return nil, fmt.Errorf("message config must have a method")
	}
	if config.url == nil {
		return nil, fmt.Errorf("message config must have a URL")
	}
	if config.headers == nil {
		return nil, fmt.Errorf("message config must have headers")
	}
	path := config.url.EscapedPath()
	if path == "" {
		path = "/"
	}
	var query *string
	if config.url.RawQuery != "" || config.url.ForceQuery {
		q := config.url.RawQuery
		query = &q
	}
	return &Message{
		headers:   config.headers,
		method:    config.method,
		path:      path,
		query:     query,
		authority: config.authority,
	}, nil
}

func messageFromRequest(req *http.Request) (*Message, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	return NewMessage(NewMessageConfig().WithRequest(req))
}

// requestTarget is the value of the (request-target) pseudo-header.
func (m *Message) requestTarget() string {
	method := strings.ToLower(m.method)
	if m.query == nil {
		return method + " " + m.path
	}
	return method + " " + m.path + "?" + *m.query
}

// header looks up a header by name, ignoring case. Repeated headers are joined with ", ".
// A missing header yields the empty string. host is the authority when one is known, since
// net/http sends req.Host and ignores a Host entry in the header map.
func (m *Message) header(name string) string {
	if m.authority != "" && strings.EqualFold(name, "host") {
		return m.authority
	}
	values := m.headers.Values(name)
	if len(values) == 0 {
		for k, v := range m.headers {
			if strings.EqualFold(k, name) {
				values = v
				break
			}
		}
	}
	if len(values) == 0 {
		return ""
	}
	return foldFields(values)
}

func foldFields(fields []string) string {
	ff := strings.TrimSpace(fields[0])
	for i := 1; i < len(fields); i++ {
		ff += ", " + strings.TrimSpace(fields[i])
	}
	return ff
}

// rawHeader returns the first value of a header, and whether it is present at all.
func (m *Message) rawHeader(name string) (string, bool) {
	values := m.headers.Values(name)
	if len(values) == 0 {
		return "", false
	}
	return values[0], true
}
