// Package queue holds the in-memory state of the generation queue: the
// queue items and scheduling policy, the provider job records, and the
// task-to-project binding. It is pure state plus mutation operations;
// no component in this package performs I/O.
package queue
