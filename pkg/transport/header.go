package transport

import (
	"net/http"
)

// skipHeaders are request headers the transport sets itself or that only make
// sense for a single connection. User-configured values for them are dropped.
var skipHeaders = map[string]struct{}{
	"Connection":        {},
	"Host":              {},
	"Content-Length":    {},
	"Transfer-Encoding": {},

	// Go's http.Transport negotiates gzip itself and decompresses for us.
	"Accept-Encoding": {},

	"Content-Type":  {},
	"Accept":        {},
	"Authorization": {},
}

// filterHeaders canonicalizes extra request headers and drops the ones in
// skipHeaders.
func filterHeaders(extra map[string]string) http.Header {
	h := make(http.Header, len(extra))
	for k, v := range extra {
		key := http.CanonicalHeaderKey(k)
		if _, skip := skipHeaders[key]; skip {
			continue
		}
		h.Set(key, v)
	}
	return h
}
