// Package postgres implements the store interfaces against a PostgreSQL
// database. The orchestrator core is in-memory; this package only archives
// terminal jobs so that history survives restarts.
package postgres
