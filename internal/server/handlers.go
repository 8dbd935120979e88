package server

import (
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ShreedharDynamicCraft/financeautomation/constants"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/common"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/jobs"
	"github.com/ShreedharDynamicCraft/financeautomation/internal/template"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type uploadResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

type statusResponse struct {
	TaskID      string              `json:"task_id"`
	Status      constants.JobStatus `json:"status"`
	DownloadURL string              `json:"download_url,omitempty"`
	Error       string              `json:"error,omitempty"`
	Progress    int                 `json:"progress"`
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Welcome to " + constants.AppName,
		"version": constants.Version,
		"status":  "active",
	})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": constants.Version,
	})
}

// upload accepts a multipart PDF plus a template name, stores the file,
// registers the job, and hands it to the pipeline queue. The request returns
// as soon as the job is queued.
func (s *Server) upload(c *gin.Context) {
	// A hard cap on the request body backs up the per-file size check below.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxUploadSize+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("file size exceeds %.1fMB limit", float64(s.cfg.MaxUploadSize)/(1024*1024)),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file selected"})
		return
	}
	if fh.Filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file selected"})
		return
	}
	if !constants.IsAllowedExt(filepath.Ext(fh.Filename)) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "only PDF files are supported"})
		return
	}
	if fh.Size > s.cfg.MaxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file size exceeds %.1fMB limit", float64(s.cfg.MaxUploadSize)/(1024*1024)),
		})
		return
	}

	tmplName := c.PostForm("template")
	if _, err := template.Lookup(tmplName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid template selection, expected one of: " + strings.Join(template.Names(), ", "),
		})
		return
	}

	taskID := uuid.New().String()
	filename := filepath.Base(fh.Filename) // strip any path components
	dest := filepath.Join(s.cfg.UploadDir, taskID+"_"+filename)

	if err := c.SaveUploadedFile(fh, dest); err != nil {
		s.logger.Error("failed to save upload", "task_id", taskID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error during upload"})
		return
	}

	job := jobs.Job{
		ID:        taskID,
		Filename:  filename,
		Template:  tmplName,
		FilePath:  dest,
		Status:    constants.JobStatusProcessing,
		Progress:  constants.ProgressCreated,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.registry.Create(job); err != nil {
		s.logger.Error("failed to register job", "task_id", taskID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error during upload"})
		return
	}

	if err := s.queue.Enqueue(c.Request.Context(), jobs.Task{ID: taskID}); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service is shutting down"})
		return
	}

	s.logger.Info("started processing task", "task_id", taskID, "filename", filename, "template", tmplName)
	c.JSON(http.StatusOK, uploadResponse{
		TaskID:  taskID,
		Message: "File uploaded successfully. Processing started.",
	})
}

func (s *Server) status(c *gin.Context) {
	id := c.Param("task_id")
	job, err := s.registry.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
		return
	}
	c.JSON(http.StatusOK, statusResponse{
		TaskID:      job.ID,
		Status:      job.Status,
		DownloadURL: job.DownloadURL,
		Error:       job.Error,
		Progress:    job.Progress,
	})
}

func (s *Server) listJobs(c *gin.Context) {
	c.JSON(http.StatusOK, s.registry.List())
}

func (s *Server) cancelJob(c *gin.Context) {
	id := c.Param("task_id")
	err := s.registry.Cancel(id)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "Task cancelled successfully"})
	case errors.Is(err, jobs.ErrJobFinished):
		c.JSON(http.StatusOK, gin.H{"message": "Task already finished"})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found"})
	default:
		s.logger.Error("cancel failed", "task_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "error cancelling job"})
	}
}

func (s *Server) download(c *gin.Context) {
	name := c.Param("filename")
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	path := filepath.Join(s.cfg.OutputDir, name)
	if !fileExists(path) {
		c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
		return
	}
	c.Header("Content-Type", xlsxContentType)
	c.FileAttachment(path, name)
}
