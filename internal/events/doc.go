// Package events provides a small in-process publish/subscribe layer.
//
// The coordinator publishes one event per outbound run response so that
// observers can follow runs without polling the task manager, and callers
// can request an action start by emitting an ActionRequested event instead
// of holding a reference to the coordinator.
//
// The primary components are:
// - Event: a typed, JSON-encoded notification
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
package events
