// Package predicate holds route predicates: conditions a request must meet for
// a route to match. A request that fails a predicate is treated like one for
// an unknown route.
package predicate

import (
	"net/http"
	"strings"
)

// Predicate is a route match condition. Text describes it for logs and route
// listings.
type Predicate interface {
	Text() string
	Match(r *http.Request) (bool, error)
}

// All reports whether every predicate matches. It stops at the first mismatch
// or error.
func All(r *http.Request, preds ...Predicate) (bool, error) {
	for _, p := range preds {
		ok, err := p.Match(r)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// Describe joins the text of the given predicates.
func Describe(preds ...Predicate) string {
	texts := make([]string, 0, len(preds))
	for _, p := range preds {
		texts = append(texts, p.Text())
	}
	return strings.Join(texts, ", ")
}
