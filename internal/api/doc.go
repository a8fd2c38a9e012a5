// Package api contains the HTTP handlers of the orchestrator: the queue
// management endpoints, the lyrics endpoint, and the public provider
// callback. Handlers translate between the wire format and the service
// layer; they own no queue state.
package api
