// Package services implements the application use cases on top of the
// driven ports: registration, ingestion, retrieval and the session
// ledger. Services hold no state of their own beyond their ports.
package services
