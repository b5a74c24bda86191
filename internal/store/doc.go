// Package store keeps named scene documents in a SQLite database.
//
// It uses modernc.org/sqlite, so the binary stays CGO-free and the database
// is a single file under the data directory.
package store
