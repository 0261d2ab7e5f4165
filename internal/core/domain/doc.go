// Package domain contains the core business entities and errors.
// It has no dependencies on adapters or external services.
package domain
