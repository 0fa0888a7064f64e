// Package middleware holds the http.Handler wrappers the API server
// chains around its mux: panic recovery, request ids, security
// headers, body size limiting, CORS, request logging and prometheus
// metrics. Every wrapper follows the func(http.Handler) http.Handler
// shape so the chain composes by nesting.
package middleware
