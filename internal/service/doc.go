// Package service contains the application-level operations of the queue
// orchestrator. It sits between the HTTP API and the queue state, owning
// the request validation, the credit gate, and the rule that every state
// mutation pokes the dispatcher.
package service
