// Package server implements the HTTP server using Echo framework.
//
// Routes: health/metrics/version (observability), read-only streak API,
// inbound chat events (webhooks), and the live streak feed (WebSocket).
// Handlers split by concern: handlers_health.go, handlers_api.go,
// handlers_webhook.go, handlers_feed.go.
package server
