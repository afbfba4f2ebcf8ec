// Package domain defines the core business entities for Diario.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Publication: A court-gazette publication fetched from the upstream feed
//   - Registration: A bar registration (number + state) being watched
//   - ScoreResult: The relevance score assigned to a publication
//   - Query: A date-bounded watch query against the upstream listing API
//   - Job: The lifecycle of a single watch invocation
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
