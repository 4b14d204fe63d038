// Package runlog keeps a local history of completed conversion runs in
// SQLite so past batches stay inspectable after their console output is gone.
package runlog
