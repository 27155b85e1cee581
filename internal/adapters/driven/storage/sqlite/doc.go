// Package sqlite provides the SQLite-based run manifest store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files;
// an up migration records its own version in schema_migrations.
//
// # Data Location
//
// By default, the database is radar_tracing.db in the working directory
// (paths.manifest_db in config.toml).
package sqlite
