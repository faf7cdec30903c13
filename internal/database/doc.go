// Package database keeps a history of report runs in SQLite.
//
// Every finished run is stored as JSON together with a summary row, and
// every delivery attempt gets its own row so that the history command can
// show what was sent where without decoding whole runs. The database is a
// single file, fieldreport.db, opened through the CGO-free
// modernc.org/sqlite driver.
package database
