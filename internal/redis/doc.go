// Package redis implements Redis-backed guards for the public lead form.
//
// Provides RateLimiter (fixed-window submission throttling per client) and
// Deduper (suppressing duplicate inquiries inside a short window).
package redis
