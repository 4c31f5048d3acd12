/*
Package jobs provides utilities for running and waiting on background tasks.
It standardizes a few aspects of channels and contexts to make it easy to run
background work that can be canceled and shut down gracefully.
*/
package jobs

import (
	"context"
	"time"

	"github.com/forumkit/anonboard/src/logging"
	"github.com/rs/zerolog"
)

// A Job is used to handle and track the completion of an asynchronous or
// background task.
type Job struct {
	Name   string
	Ctx    context.Context
	Logger zerolog.Logger
	cancel func()
	done   chan struct{}
}

func New(name string) *Job {
	logger := logging.With().Str("job", name).Logger()
	ctx, cancel := context.WithCancel(context.Background())
	ctx = logging.AttachLoggerToContext(&logger, ctx)
	return &Job{
		Name:   name,
		Ctx:    ctx,
		Logger: logger,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Sends a cancel signal to the Job, indicating that it should finish its work
// and shut down. Expected to be called from outside the job.
func (j *Job) Cancel() {
	j.cancel()
}

// Returns a channel that can be waited on to receive a Cancel signal from
// outside.
func (j *Job) Canceled() <-chan struct{} {
	return j.Ctx.Done()
}

// Marks the Job as finished. Expected to be called by the job code itself
// when the work is complete.
func (j *Job) Finish() *Job {
	close(j.done)
	return j
}

// Returns a channel that can be waited on to tell when the Job is finished.
func (j *Job) Finished() <-chan struct{} {
	return j.done
}

// A utility for running and canceling multiple jobs at once.
type Jobs []*Job

// Returns the names of all jobs that have not yet finished.
func (jobs Jobs) ListUnfinished() []string {
	var unfinished []string
	for _, job := range jobs {
		select {
		case <-job.Finished():
		default:
			unfinished = append(unfinished, job.Name)
		}
	}
	return unfinished
}

// Cancels all tracked jobs, giving them a chance to finish gracefully. Will
// return when all jobs finish or when the timeout expires, whichever comes
// first. Returns the names of all jobs that did not finish in time.
func (jobs Jobs) CancelAndWait(timeout time.Duration) []string {
	allDone := make(chan struct{})
	for _, job := range jobs {
		job.Cancel()
	}
	go func() {
		for _, job := range jobs {
			<-job.Finished()
		}
		close(allDone)
	}()

	select {
	case <-allDone:
		return nil
	case <-time.After(timeout):
		var unfinished []string
		for _, job := range jobs {
			select {
			case <-job.Finished():
			default:
				unfinished = append(unfinished, job.Name)
			}
		}
		return unfinished
	}
}
