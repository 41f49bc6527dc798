package constants

// JobStatus is the canonical status for rows in process_job.
type JobStatus string

// Stable values (store these exact strings in the ledger).
const (
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusOK      JobStatus = "OK"      // output written
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)
