package jobmanager

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"lama/errors"
	"lama/logging"
	"lama/runtime"
)

// JobManager runs function invocations in the background
type JobManager struct {
	jobs       map[JobID]*Job
	mu         sync.RWMutex
	semaphore  chan struct{}        // For concurrency limiting
	nextID     JobID                // Next job ID
	notifyChan chan JobNotification // Channel for job notifications
	ctx        context.Context      // Context for cancellation
	cancel     context.CancelFunc   // Cancel function for the context
	wg         sync.WaitGroup       // WaitGroup for tracking running jobs
	logger     logging.Logger
}

// JobNotification represents a notification about a job status change
type JobNotification struct {
	JobID  JobID
	Status JobStatus
	Result runtime.Value
	Error  error
}

// NewJobManager creates a new JobManager with the specified concurrency limit
func NewJobManager(concurrencyLimit int, logger logging.Logger) *JobManager {
	if concurrencyLimit < 1 {
		concurrencyLimit = 1
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &JobManager{
		jobs:       make(map[JobID]*Job),
		semaphore:  make(chan struct{}, concurrencyLimit),
		nextID:     1,
		notifyChan: make(chan JobNotification, 100),
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger.WithComponent("jobs"),
	}
}

// Submit starts task in the background and returns its job ID. It fails
// without blocking when the concurrency limit is reached.
func (jm *JobManager) Submit(function, arguments string, task Task) (JobID, error) {
	select {
	case <-jm.ctx.Done():
		return 0, errors.NewSystemError("JOB_MANAGER_SHUT_DOWN", "job manager is shutting down")
	default:
	}

	select {
	case jm.semaphore <- struct{}{}:
	default:
		return 0, errors.NewSystemError("JOB_LIMIT_REACHED",
			fmt.Sprintf("concurrency limit of %d background jobs reached", cap(jm.semaphore)))
	}

	ctx, cancel := context.WithCancel(jm.ctx)
	jm.mu.Lock()
	job := NewJob(jm.nextID, function, arguments)
	job.cancel = cancel
	jm.nextID++
	jm.jobs[job.ID] = job
	jm.mu.Unlock()

	jm.logger.Debug("job submitted",
		logging.Int64Field("job", int64(job.ID)),
		logging.StringField("command", job.Command()))

	jm.wg.Add(1)
	go jm.executeJob(ctx, job, task)
	return job.ID, nil
}

func (jm *JobManager) executeJob(ctx context.Context, job *Job, task Task) {
	defer jm.wg.Done()
	defer func() { <-jm.semaphore }()
	defer job.cancel()

	result, err := task(ctx)

	status := StatusCompleted
	if err != nil {
		status = StatusFailed
		result = nil
	}
	if !job.finish(status, result, err) {
		return
	}

	jm.logger.Debug("job finished",
		logging.Int64Field("job", int64(job.ID)),
		logging.StringField("status", string(status)),
		logging.DurationField("duration", job.Duration()))
	jm.notify(JobNotification{JobID: job.ID, Status: status, Result: result, Error: err})
}

func (jm *JobManager) notify(n JobNotification) {
	select {
	case jm.notifyChan <- n:
	default:
		jm.logger.Warn("job notification dropped", logging.Int64Field("job", int64(n.JobID)))
	}
}

// GetJob returns a specific job
func (jm *JobManager) GetJob(id JobID) (*Job, error) {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	job, exists := jm.jobs[id]
	if !exists {
		return nil, errors.NewValidationError("JOB_NOT_FOUND", fmt.Sprintf("job with ID %d not found", id))
	}
	return job, nil
}

// Wait blocks until job id finishes or ctx is done
func (jm *JobManager) Wait(ctx context.Context, id JobID) (*Job, error) {
	job, err := jm.GetJob(id)
	if err != nil {
		return nil, err
	}
	select {
	case <-job.Done():
		return job, nil
	case <-ctx.Done():
		return job, ctx.Err()
	}
}

// ListJobs returns all jobs ordered by ID
func (jm *JobManager) ListJobs() []*Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	jobs := make([]*Job, 0, len(jm.jobs))
	for _, job := range jm.jobs {
		jobs = append(jobs, job)
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].ID < jobs[k].ID })
	return jobs
}

// Notifications returns the channel for job notifications
func (jm *JobManager) Notifications() <-chan JobNotification {
	return jm.notifyChan
}

// CancelJob marks a running job cancelled. The task sees its context
// cancelled; whatever it returns afterwards is dropped.
func (jm *JobManager) CancelJob(id JobID) error {
	job, err := jm.GetJob(id)
	if err != nil {
		return err
	}

	cancelled := errors.NewSystemError("JOB_CANCELLED", "job cancelled by user")
	if !job.finish(StatusCancelled, nil, cancelled) {
		return errors.NewValidationError("JOB_NOT_RUNNING",
			fmt.Sprintf("job %d is not running (status: %s)", id, job.Status()))
	}
	job.cancel()
	jm.notify(JobNotification{JobID: id, Status: StatusCancelled, Error: cancelled})
	return nil
}

// GetRunningJobsCount returns the number of currently running jobs
func (jm *JobManager) GetRunningJobsCount() int {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	count := 0
	for _, job := range jm.jobs {
		if job.Status() == StatusRunning {
			count++
		}
	}
	return count
}

// GetConcurrencyLimit returns the concurrency limit
func (jm *JobManager) GetConcurrencyLimit() int {
	return cap(jm.semaphore)
}

// CleanFinishedJobs removes finished jobs that ended more than olderThan ago
func (jm *JobManager) CleanFinishedJobs(olderThan time.Duration) int {
	jm.mu.Lock()
	defer jm.mu.Unlock()

	cutoff := time.Now().Add(-olderThan)
	removed := 0
	for id, job := range jm.jobs {
		if job.Status() == StatusRunning {
			continue
		}
		if job.EndTime().Before(cutoff) {
			delete(jm.jobs, id)
			removed++
		}
	}
	return removed
}

// Shutdown cancels running jobs, waits for their goroutines and closes the
// notification channel
func (jm *JobManager) Shutdown() {
	jm.cancel()
	jm.wg.Wait()
	close(jm.notifyChan)
}
