package predicate

import (
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
)

var ErrNoHeaders = errors.New("expected at least one value in headers predicate")

// Header requires a request header. With a pattern the header value must also
// match it, anchored at the start of the value.
type Header struct {
	name    string
	pattern string
	re      *regexp.Regexp
}

// NewHeader parses "Name" or "Name:regex".
func NewHeader(val string) (*Header, error) {
	name, pattern, hasPattern := strings.Cut(val, ":")
	h := &Header{name: name}
	if !hasPattern {
		return h, nil
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("header predicate %q: %w", val, err)
	}
	h.pattern = pattern
	h.re = re
	return h, nil
}

func (h *Header) Text() string {
	if h.re == nil {
		return "header " + h.name
	}
	return fmt.Sprintf("header %s=%s", h.name, h.pattern)
}

func (h *Header) Match(r *http.Request) (bool, error) {
	values := r.Header.Values(h.name)
	if len(values) == 0 {
		return false, nil
	}
	if h.re == nil {
		return true, nil
	}
	return h.re.MatchString(values[0]), nil
}

// Headers requires every listed header.
type Headers struct {
	subs []*Header
}

// NewHeaders builds a Headers predicate from "Name" or "Name:regex" values.
// It fails when vals is empty or a pattern does not compile.
func NewHeaders(vals ...string) (*Headers, error) {
	if len(vals) == 0 {
		return nil, ErrNoHeaders
	}
	subs := make([]*Header, 0, len(vals))
	for _, val := range vals {
		h, err := NewHeader(val)
		if err != nil {
			return nil, err
		}
		subs = append(subs, h)
	}
	return &Headers{subs: subs}, nil
}

func (h *Headers) Text() string {
	texts := make([]string, 0, len(h.subs))
	for _, sub := range h.subs {
		texts = append(texts, sub.Text())
	}
	return strings.Join(texts, ", ")
}

func (h *Headers) Match(r *http.Request) (bool, error) {
	for _, sub := range h.subs {
		if ok, _ := sub.Match(r); !ok {
			return false, nil
		}
	}
	return true, nil
}
