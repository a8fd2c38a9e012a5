// Package generation defines the boundary between the orchestrator core
// and the external generation provider. The interfaces here are implemented
// by platform adapters; the scheduler and poller depend only on this package.
package generation
