// Package api exposes the task engine over HTTP: listing actions, starting
// them, and inspecting or removing their runs. Handlers translate engine
// errors to status codes and never leak raw error text to clients.
package api
