package client

import (
	"net/http"
)

// credentialsTransport attaches stored cookies to every outgoing request and records
// cookies set by responses, so callers never have to opt in per request.
type credentialsTransport struct {
	jar  http.CookieJar
	next http.RoundTripper
}

func (t *credentialsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	out := req.Clone(req.Context())
	for _, c := range t.jar.Cookies(out.URL) {
		out.AddCookie(c)
	}

	resp, err := t.next.RoundTrip(out)
	if err != nil {
		return nil, err
	}
	if rc := resp.Cookies(); len(rc) > 0 {
		t.jar.SetCookies(out.URL, rc)
	}
	return resp, nil
}
