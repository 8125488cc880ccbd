// Package netx provides HTTP client plumbing for callers that talk to a
// remote endpoint on behalf of a logged-in user.
package netx

import (
	"net/http"

	"github.com/campbellco/wolfden/internal/csrf"
)

// CSRFTransport is an http.RoundTripper that stamps outgoing state-changing
// requests with the current anti-forgery token before delegating to Base.
type CSRFTransport struct {
	Guard *csrf.Guard
	Base  http.RoundTripper
}

// NewCSRFClient returns an http.Client whose requests carry the guard's
// token on POST/PUT/PATCH/DELETE.
func NewCSRFClient(guard *csrf.Guard) *http.Client {
	return &http.Client{Transport: &CSRFTransport{Guard: guard}}
}

func (t *CSRFTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.Guard.Attach(req.Context(), req.Method, req.Header); err != nil {
		return nil, err
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
