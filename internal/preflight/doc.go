// Package preflight provides readiness checks for the external binaries
// and filesystem paths the pipeline depends on.
//
// The CLI "overdub status" command renders the individual checks; the
// work command refuses to start when a required tool is missing.
package preflight
