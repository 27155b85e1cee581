// Package domain defines the core business entities for Radar tracing.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceRecord: An audit row extracted from Radar
//   - TracedRecord: A raw row returned by the tracing partner
//   - UnifiedRecord: An audit row joined with its traced row
//   - Discrepancy: A categorised mismatch between the two
//   - RunManifest: What stage 1 produced for stage 2 to pick up
//
// Every unified row is addressed through a FieldIndex, never by raw position.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
