package httpx

import (
	"fmt"
	"net/http"
)

// APIKeyRoundTripper injects an API key as a query parameter into every
// outgoing request. The marketplace provider authenticates this way rather
// than with an Authorization header.
type APIKeyRoundTripper struct {
	next      http.RoundTripper
	paramName string
	apiKey    string
}

func NewAPIKeyRoundTripper(
	next http.RoundTripper,
	paramName string,
	apiKey string,
) APIKeyRoundTripper {
	return APIKeyRoundTripper{
		next:      next,
		paramName: paramName,
		apiKey:    apiKey,
	}
}

// RoundTrip implements http.RoundTripper interface.
func (rt APIKeyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	query := clone.URL.Query()
	query.Set(rt.paramName, rt.apiKey)
	clone.URL.RawQuery = query.Encode()

	resp, err := rt.next.RoundTrip(clone)
	if err != nil {
		return nil, fmt.Errorf("next.RoundTrip %w", err)
	}

	return resp, nil
}
