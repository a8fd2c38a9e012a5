// Package store defines persistence interfaces and shared store errors.
// The orchestrator itself is an in-memory scheduler; these interfaces are
// implemented by collaborator stores such as the Postgres job history.
package store
