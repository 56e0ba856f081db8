// Package orchestrator turns a four-stage Processor (analyse, enumerate,
// process, persist) into a task.Action.
//
// Items are processed either linearly in enumeration order or by a bounded
// set of workers fed round robin after each item has been checked with
// AlreadyCompleted. A failing item is logged to the run's error output and
// never aborts the run; only analysis, enumeration or a lost message channel
// do.
package orchestrator
