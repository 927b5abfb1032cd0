package predicate

import (
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Domain matches requests addressed to a host. An empty value matches every
// request so a single instance can serve local development.
type Domain struct {
	val string
}

func NewDomain(val string) *Domain {
	return &Domain{val: val}
}

func (d *Domain) Text() string {
	return fmt.Sprintf("domain = '%s'", d.val)
}

func (d *Domain) Match(r *http.Request) (bool, error) {
	if d.val == "" {
		return true, nil
	}
	return SameDomain(requestDomain(r), d.val), nil
}

// SameDomain reports whether host matches pattern. A pattern starting with "."
// matches the bare domain and every subdomain of it. Any other pattern must
// equal the host. Comparison ignores case.
func SameDomain(host, pattern string) bool {
	if pattern == "" {
		return false
	}
	host = strings.ToLower(host)
	pattern = strings.ToLower(pattern)
	if strings.HasPrefix(pattern, ".") {
		return strings.HasSuffix(host, pattern) || host == pattern[1:]
	}
	return host == pattern
}

// requestDomain is the request host without its port.
func requestDomain(r *http.Request) string {
	host := r.Host
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
}
