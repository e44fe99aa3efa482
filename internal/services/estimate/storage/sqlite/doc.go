// Package sqlite provides the SQLite-backed audit journal of the estimate service.
//
// Entries are append-only and keyed by an autoincrement sequence that doubles
// as the page cursor.
package sqlite
