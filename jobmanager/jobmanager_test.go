package jobmanager

import (
	"context"
	"testing"
	"time"

	"lama/errors"
	"lama/runtime"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, jm *JobManager, id JobID) *Job {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := jm.Wait(ctx, id)
	require.NoError(t, err)
	return job
}

func TestSubmitCompletes(t *testing.T) {
	jm := NewJobManager(2, nil)
	defer jm.Shutdown()

	id, err := jm.Submit("square", "7", func(context.Context) (runtime.Value, error) {
		return runtime.Int64(49), nil
	})
	require.NoError(t, err)

	job := waitFor(t, jm, id)
	assert.Equal(t, StatusCompleted, job.Status())
	assert.Equal(t, runtime.Int64(49), job.Result())
	assert.NoError(t, job.Err())
	assert.Equal(t, "[1] square(7) completed => 49", job.String())

	n := <-jm.Notifications()
	assert.Equal(t, id, n.JobID)
	assert.Equal(t, StatusCompleted, n.Status)
}

func TestSubmitFails(t *testing.T) {
	jm := NewJobManager(1, nil)
	defer jm.Shutdown()

	boom := errors.NewUndefinedFunctionError("g")
	id, err := jm.Submit("g", "", func(context.Context) (runtime.Value, error) {
		return nil, boom
	})
	require.NoError(t, err)

	job := waitFor(t, jm, id)
	assert.Equal(t, StatusFailed, job.Status())
	assert.Nil(t, job.Result())
	assert.True(t, errors.Is(job.Err(), errors.ErrUndefinedFunction))
	assert.Contains(t, job.ToMap(), "error")
}

func TestConcurrencyLimit(t *testing.T) {
	jm := NewJobManager(1, nil)
	defer jm.Shutdown()

	release := make(chan struct{})
	first, err := jm.Submit("slow", "", func(context.Context) (runtime.Value, error) {
		<-release
		return runtime.Null, nil
	})
	require.NoError(t, err)

	_, err = jm.Submit("other", "", func(context.Context) (runtime.Value, error) {
		return runtime.Null, nil
	})
	require.Error(t, err)
	execErr, ok := errors.AsExecutionError(err)
	require.True(t, ok)
	assert.Equal(t, "JOB_LIMIT_REACHED", execErr.Code)
	assert.Equal(t, 1, jm.GetRunningJobsCount())

	close(release)
	waitFor(t, jm, first)

	// The slot is released after the job goroutine returns.
	assert.Eventually(t, func() bool {
		id, err := jm.Submit("again", "", func(context.Context) (runtime.Value, error) {
			return runtime.True, nil
		})
		if err != nil {
			return false
		}
		waitFor(t, jm, id)
		return true
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCancelJob(t *testing.T) {
	jm := NewJobManager(1, nil)
	defer jm.Shutdown()

	started := make(chan struct{})
	id, err := jm.Submit("loop", "", func(ctx context.Context) (runtime.Value, error) {
		close(started)
		<-ctx.Done()
		return runtime.Int64(1), nil
	})
	require.NoError(t, err)
	<-started

	require.NoError(t, jm.CancelJob(id))
	job := waitFor(t, jm, id)
	assert.Equal(t, StatusCancelled, job.Status())
	assert.Nil(t, job.Result())

	assert.Error(t, jm.CancelJob(id))
	assert.Error(t, jm.CancelJob(99))
}

func TestListAndClean(t *testing.T) {
	jm := NewJobManager(4, nil)
	defer jm.Shutdown()

	for i := 0; i < 3; i++ {
		id, err := jm.Submit("f", "", func(context.Context) (runtime.Value, error) {
			return runtime.Null, nil
		})
		require.NoError(t, err)
		waitFor(t, jm, id)
	}

	jobs := jm.ListJobs()
	require.Len(t, jobs, 3)
	for i, job := range jobs {
		assert.Equal(t, JobID(i+1), job.ID)
	}

	assert.Equal(t, 0, jm.CleanFinishedJobs(time.Hour))
	assert.Equal(t, 3, jm.CleanFinishedJobs(-time.Second))
	assert.Empty(t, jm.ListJobs())
}

func TestSubmitAfterShutdown(t *testing.T) {
	jm := NewJobManager(1, nil)
	jm.Shutdown()

	_, err := jm.Submit("f", "", func(context.Context) (runtime.Value, error) {
		return runtime.Null, nil
	})
	assert.Error(t, err)
}
