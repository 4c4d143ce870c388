// Package queue persists transcription jobs in SQLite and exposes helpers
// for driving their lifecycle.
//
// The Store manages database connections, schema initialization, stats
// queries, heartbeat tracking, stuck-item recovery, and the status
// transitions the workflow manager moves items through. Items capture the
// source video, extracted audio, transcript, and final subtitle paths so
// stages can coordinate without additional state.
//
// The database is transient storage for in-flight jobs rather than a
// long-term archive. Schema changes bump the version in schema.go; users
// clear the database to adopt the new schema.
package queue
