// Package store defines the persistence ports used by media actions and the
// transaction helper shared by every database-backed action.
package store
