// Package driving provides interfaces for the application's use cases
// (primary/inbound ports). The routing layer, CLI and watchers call
// these; they never reach into adapters directly.
package driving
