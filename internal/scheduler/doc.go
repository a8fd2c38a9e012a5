// Package scheduler contains the active components of the orchestrator:
// the dispatcher that converts queue state and policy into provider
// submissions, the scheduling scope policy, and the completion reconciler
// that applies asynchronous provider events back onto queue state.
package scheduler
