// Package handler implements the HTTP layer of the handle mock.
//
// # Handlers
//
// HandleHandler serves the handle REST API:
//
//	GET    /api/handles/{prefix}/{suffix}              resolve a handle
//	PUT    /api/handles/{prefix}/{suffix}?overwrite=   create, or merge by index
//	DELETE /api/handles/{prefix}/{suffix}?index=       delete a handle or some values
//	GET    /hrls/handles/{prefix}?TYPE=glob&limit=&page= reverse lookup
//
// plus seed import and export (JSON or YAML), journal, last-handle and
// health endpoints.
//
// # Response Format
//
// Handle endpoints answer with {responseCode, handle, values|message}. The
// responseCode follows the handle protocol (1 success, 2 error, 3 server
// busy, 4 protocol error, 100 not found, 101 already exists) and the HTTP
// status is derived from the same store outcome, so both always agree.
// Reverse lookups answer with a JSON array of handle strings. Endpoints
// outside the protocol return {error, details} on failure.
//
// # Middleware
//
// Chain composes Recover, CORS, Logger and RateLimit. Logger assigns an
// X-Request-ID and counts requests in Prometheus.
package handler
