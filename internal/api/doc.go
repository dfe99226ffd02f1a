// Package api hosts the HTTP server, middleware, and handlers for the tango
// site. Notable routes:
//   - GET /health for probes and GET /metrics for Prometheus scraping.
//   - GET /api/milongas for the number of milongas running today.
//   - GET /api/random_quote and the X-API-Key guarded quote writes.
//   - POST /api/send-message for the contact form.
//   - GET / and /images/* for the static site.
package api
