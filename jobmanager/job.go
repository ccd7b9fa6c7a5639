package jobmanager

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"lama/runtime"
	"lama/shared"
)

// JobID is a unique identifier for a job
type JobID int64

// JobStatus represents the current status of a job
type JobStatus string

const (
	StatusRunning   JobStatus = "running"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
	StatusCancelled JobStatus = "cancelled"
)

// Task is one background invocation. It should return promptly once ctx is
// done; a result produced after cancellation is discarded.
type Task func(ctx context.Context) (runtime.Value, error)

// Job is a function invocation running in the background
type Job struct {
	ID        JobID
	Function  string
	Arguments string
	StartTime time.Time

	mu      sync.RWMutex
	status  JobStatus
	result  runtime.Value
	err     error
	endTime time.Time
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewJob creates a running job for function called with the rendered
// argument list arguments
func NewJob(id JobID, function, arguments string) *Job {
	return &Job{
		ID:        id,
		Function:  function,
		Arguments: arguments,
		StartTime: time.Now(),
		status:    StatusRunning,
		done:      make(chan struct{}),
	}
}

// Status returns the current status of the job
func (j *Job) Status() JobStatus {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.status
}

// Result returns the value the function returned, nil unless completed
func (j *Job) Result() runtime.Value {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.result
}

// Err returns the failure of the job, if any
func (j *Job) Err() error {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.err
}

// Done is closed when the job leaves the running state
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// finish moves a running job to its final state. It reports false when the
// job had already finished, e.g. because it was cancelled first.
func (j *Job) finish(status JobStatus, result runtime.Value, err error) bool {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.status != StatusRunning {
		return false
	}
	j.status = status
	j.result = result
	j.err = err
	j.endTime = time.Now()
	close(j.done)
	return true
}

// Duration returns how long the job ran, or has been running
func (j *Job) Duration() time.Duration {
	j.mu.RLock()
	defer j.mu.RUnlock()

	if j.endTime.IsZero() {
		return time.Since(j.StartTime)
	}
	return j.endTime.Sub(j.StartTime)
}

// EndTime returns when the job finished, zero while running
func (j *Job) EndTime() time.Time {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.endTime
}

// Command renders the invocation as typed at the prompt
func (j *Job) Command() string {
	return fmt.Sprintf("%s(%s)", j.Function, j.Arguments)
}

// ToMap returns a map representation of the job for display
func (j *Job) ToMap() map[string]interface{} {
	j.mu.RLock()
	defer j.mu.RUnlock()

	result := map[string]interface{}{
		"id":         j.ID,
		"status":     j.status,
		"command":    j.Command(),
		"start_time": j.StartTime.Format(time.RFC3339),
	}

	if !j.endTime.IsZero() {
		result["end_time"] = j.endTime.Format(time.RFC3339)
		result["duration"] = j.endTime.Sub(j.StartTime).String()
	}
	if j.result != nil {
		result["result"] = shared.FormatValueForDisplay(j.result)
	}
	if j.err != nil {
		result["error"] = j.err.Error()
	}
	return result
}

// String returns a one-line summary such as "[2] fib(30) completed => 832040"
func (j *Job) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] %s %s", j.ID, j.Command(), j.Status())
	switch j.Status() {
	case StatusCompleted:
		b.WriteString(" => " + shared.FormatValueForDisplay(j.Result()))
	case StatusFailed:
		b.WriteString(": " + j.Err().Error())
	}
	return b.String()
}
