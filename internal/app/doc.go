// Package app provides the application service layer.
//
// Orchestrates use cases: lead intake and triage, admin login, roster
// management, notification settings, activity history. Sits between HTTP
// handlers and domain repositories. Depends on domain interfaces, not
// concrete implementations. Live events fan out through the broadcaster
// only after the underlying write succeeds.
package app
