package domain

import "time"

// Admin is a registered operator account. Admins own websites.
type Admin struct {
	// ID is the unique identifier, supplied by the upstream auth layer.
	ID string

	// Email is unique across all admins.
	Email string

	// Name is the display name.
	Name string
}

// Website is a registered site whose content is ingested and queried.
// A website exclusively owns its notes, chunks, sessions and responses:
// deleting it removes all of them.
type Website struct {
	// ID is the unique identifier.
	ID string

	// AdminID links to the owning Admin.
	AdminID string

	// URL is unique across all websites.
	URL string

	// Domain is the registrable domain of the URL.
	Domain string

	// Name is the display name.
	Name string
}

// Note is a freeform annotation attached to a website at creation time.
// Notes are carried into sessions as read-only context.
type Note struct {
	// ID is the unique identifier.
	ID string

	// WebsiteID links to the owning Website.
	WebsiteID string

	// Content is the note text.
	Content string
}

// EmbeddedChunk is one unit of ingested website text paired with its
// embedding vector. Chunks are only ever created through ingestion.
type EmbeddedChunk struct {
	// ID is the unique identifier.
	ID string

	// WebsiteID links to the owning Website.
	WebsiteID string

	// Content is the chunk text.
	Content string

	// Vector is the embedding. Its length always matches the embedder's
	// configured dimension.
	Vector []float32
}

// Session groups the query/response exchanges of one conversation,
// scoped to a single website. A session has no closed state; it is a
// grouping key that stays open indefinitely.
type Session struct {
	// ID is the unique identifier.
	ID string

	// WebsiteID links to the owning Website.
	WebsiteID string

	// CreatedAt is when the session started.
	CreatedAt time.Time

	// Notes are the owning website's notes, joined on read.
	Notes []Note
}

// Response is one query/answer exchange recorded against a session.
// Responses are append-only; they are never mutated or deleted on
// their own.
type Response struct {
	// ID is the unique identifier.
	ID string

	// SessionID links to the owning Session.
	SessionID string

	// Query is the user's question.
	Query string

	// Answer is the generated answer text.
	Answer string

	// Category is a free-form label applied by the caller.
	Category string

	// CreatedAt is when the exchange was recorded.
	CreatedAt time.Time
}
