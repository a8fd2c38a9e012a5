// Package poller periodically queries the generation provider for the
// state of outstanding tasks and republishes what it learns as completion
// events. It is the fallback path for tasks whose provider callbacks never
// arrive; the reconciler treats both sources identically.
package poller
