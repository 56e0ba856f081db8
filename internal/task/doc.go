// Package task runs long background actions off the request path.
//
// A Coordinator owns a fixed-size WorkerPool, a Registry of actions and a
// Manager holding in-memory state for every run. Starting an action creates
// a per-run Channel: the run job writes progress and log messages to it and
// a forward goroutine mirrors them into the Manager, which is what pollers read.
// Nothing is persisted; all run state is lost on restart.
package task
