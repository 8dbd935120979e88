package constants

// JobStatus is the canonical status for tracked extraction jobs.
type JobStatus string

// Stable values (these exact strings go over the wire).
const (
	JobStatusProcessing JobStatus = "processing" // accepted and running (or queued)
	JobStatusCompleted  JobStatus = "completed"  // workbook rendered, download available
	JobStatusFailed     JobStatus = "failed"     // terminal failure at some stage
	JobStatusCancelled  JobStatus = "cancelled"  // cancelled by client request
)

// Terminal reports whether a job in this status accepts no further transitions.
func (s JobStatus) Terminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// Progress checkpoints written by the pipeline runner. Progress only ever
// moves forward through this sequence.
const (
	ProgressCreated    = 0   // record created at upload time
	ProgressStarted    = 10  // runner picked the job up
	ProgressExtracted  = 40  // stage 1: text extracted
	ProgressStructured = 70  // stage 2: LLM returned sections
	ProgressRendered   = 100 // stage 3: workbook written
)
