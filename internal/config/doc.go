// Package config loads, parses and validates settings from environment
// variables (SHELF_ prefix) and an optional YAML file. It gives the server
// typed access to its settings while keeping configuration details separate
// from the task engine.
package config
