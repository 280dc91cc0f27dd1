// Package queue persists audio pipeline jobs in SQLite so batches can
// be processed unattended by the worker loop.
package queue
