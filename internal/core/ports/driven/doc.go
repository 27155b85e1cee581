// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RadarStore: Patient query and corrective writes (Postgres)
//   - RequestSequence: RR tracing batch numbers (SQL Server)
//   - ManifestStore: Run manifest persistence (SQLite)
//   - RecordFiles: Audit, request and traced file codecs
//   - Exchange: Tracing inbox and outbox
//   - ReportWriter: Workbook output
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - MetricsRecorder: Per-run metrics. A nil recorder disables metrics.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
