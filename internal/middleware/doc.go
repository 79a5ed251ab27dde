// Package middleware provides the HTTP middleware chain for the
// culling API.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Prometheus request metrics with low-cardinality path labels
//   - Response compression (gzip) for JSON payloads
package middleware
