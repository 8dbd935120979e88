// Package jobs owns the in-memory job registry and the background pipeline
// that takes an uploaded report from text extraction through workbook
// rendering.
package jobs

import (
	"errors"
	"time"

	"github.com/ShreedharDynamicCraft/financeautomation/constants"
)

// Job is the tracked record for one submitted file.
type Job struct {
	ID          string              `json:"task_id"`
	Filename    string              `json:"filename"`
	Template    string              `json:"template"`
	FilePath    string              `json:"-"`
	Status      constants.JobStatus `json:"status"`
	Progress    int                 `json:"progress"`
	DownloadURL string              `json:"download_url,omitempty"`
	Error       string              `json:"error,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
}

var (
	// ErrJobExists is returned when creating a record whose ID is taken.
	ErrJobExists = errors.New("job already exists")
	// ErrJobFinished is returned for mutations of a terminal record.
	ErrJobFinished = errors.New("job already finished")
)
