// Package worker drains the job queue sequentially, dispatching each
// job to the download, stretch, or separation service.
package worker
