// Package middleware provides HTTP middleware for the gallery server.
//
// It includes:
//   - Request logging in W3C Extended Log Format
//   - Gzip compression of JSON responses
//   - Prometheus request metrics keyed by route
//
// Image routes (/thumb/, /media/) are left out of request logs unless
// static file logging is enabled, and are never compressed.
package middleware
