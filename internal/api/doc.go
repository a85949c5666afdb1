// Package api hosts the HTTP status surface for operator access and uptime
// checks. Notable routes:
//   - GET / for the HTML landing page.
//   - GET /health for uptime probes; reports degraded when the monitor loop
//     is not running.
//   - GET /status for the full monitor snapshot plus recent check and alert
//     history.
//   - GET /metrics for Prometheus scraping.
package api
