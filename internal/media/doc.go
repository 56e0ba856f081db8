// Package media provides the orchestrated actions that maintain the media
// table: add_hash fills in missing content hashes and remove_missing_files
// drops rows whose file is gone from disk.
package media
