// Package stores is the persistence layer: a SQLite database in WAL
// mode holding tracked configuration files, package pins, and run
// history, with schema migrations embedded in the binary.
package stores
