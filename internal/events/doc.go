// Package events carries asynchronous completion and progress events from
// their producers (the status poller and the provider webhook) to the
// completion reconciler, without either side knowing about the other.
package events
