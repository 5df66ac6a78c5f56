// Package echoes is the Echoes of Art API server: artists publish media
// posts and writings, readers like, save, bookmark and comment on them, and
// new writing comments are pushed live to everyone reading the piece.

// Binaries live under cmd/:

// - cmd/server: HTTP API and the /ws relay
// - cmd/migrate: schema migrations
// - cmd/seed: development and test fixtures, counter recount
// - cmd/cli: the echoes command-line client

// Packages under internal/:

// - internal/handlers: HTTP handlers and route registration
// - internal/auth: registration, email OTP verification, JWT sessions
// - internal/models: gorm models
// - internal/repository: user queries and engagement toggles
// - internal/moderation: Gemini comment moderation and tag suggestions
// - internal/websocket: per-writing comment rooms
// - internal/search: Elasticsearch indexing with a database fallback
// - internal/storage: S3, Cloudinary and local media uploads
// - internal/email: SES and log-only OTP delivery
// - internal/middleware: rate limits, response cache, logging, metrics, tracing

// See the individual package documentation for detailed API reference.
package echoes
