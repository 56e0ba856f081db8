// Package postgres implements the storage interfaces of internal/store on
// PostgreSQL through the pgx stdlib driver. It also owns connection setup and
// the embedded goose migrations that create the media table.
package postgres
