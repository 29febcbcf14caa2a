// Package server implements the HTTP server using Echo framework.
//
// Routes: auth (login), leads (public intake + triage), users (roster),
// settings (email notifications), activity (audit trail), events (SSE push).
// Handlers split by domain: handlers_auth.go, handlers_leads.go,
// handlers_users.go, handlers_settings.go, handlers_events.go.
package server
