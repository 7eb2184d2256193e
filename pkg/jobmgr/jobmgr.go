// Package jobmgr runs named jobs with cancellation and in-memory tracking.
//
// Typical usage:
//
//	jm := jobmgr.NewManager(func(msg string) {
//	    log.Println("[DEBUG] job", msg)
//	})
//
//	job, err := jm.Schedule("cleanup:42", 30*time.Second, func(ctx context.Context) error {
//	    // runs after the delay unless job.Cancel() was called first
//	    return nil
//	})
//
// There is no retry logic and no persistence: jobs live in goroutines and
// disappear when they finish or when the process exits.
package jobmgr

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrJobRunning is returned when a job with the same name is already tracked.
var ErrJobRunning = errors.New("job is already running")

// Job represents a tracked unit of work.
type Job struct {
	Name   string
	Start  time.Time // when the runner is due
	cancel context.CancelFunc
	done   chan struct{}
}

// Cancel stops the job. A job whose delay has not elapsed never runs.
func (j *Job) Cancel() { j.cancel() }

// Done is closed once the job has finished or was cancelled.
func (j *Job) Done() <-chan struct{} { return j.done }

// StatusReporter receives lifecycle events for jobs.
// Example messages:
//
//	running:purge:123
//	error:purge:123:unknown message
//	done:purge:123
//	cancelled:cleanup:7
type StatusReporter func(string)

// Manager orchestrates starting, stopping and tracking jobs.
// It is safe for concurrent use.
type Manager struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	Reporter StatusReporter
}

// NewManager creates a new Manager. The reporter callback may be nil.
func NewManager(reporter StatusReporter) *Manager {
	return &Manager{
		jobs:     make(map[string]*Job),
		Reporter: reporter,
	}
}

// Run runs a job in the current goroutine and blocks until completion.
// The name is held for the duration so that a second Run or Schedule with the
// same name fails with ErrJobRunning.
func (m *Manager) Run(ctx context.Context, name string, runner func(ctx context.Context) error) error {
	job, ctx, err := m.track(ctx, name, time.Now())
	if err != nil {
		return err
	}
	defer m.finish(job)

	m.report("running:" + name)
	err = runner(ctx)
	m.reportResult(name, err)
	return err
}

// Schedule runs a job in a separate goroutine once delay has elapsed.
// Cancelling the job before then means the runner is never called.
func (m *Manager) Schedule(name string, delay time.Duration, runner func(ctx context.Context) error) (*Job, error) {
	job, ctx, err := m.track(context.Background(), name, time.Now().Add(delay))
	if err != nil {
		return nil, err
	}

	go func() {
		defer m.finish(job)

		if delay > 0 {
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				m.report("cancelled:" + name)
				return
			case <-t.C:
			}
		}

		m.report("running:" + name)
		m.reportResult(name, runner(ctx))
	}()

	return job, nil
}

// StopAll cancels every tracked job.
func (m *Manager) StopAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, j := range m.jobs {
		j.Cancel()
	}
}

// List returns the sorted names of tracked jobs.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.jobs))
	for k := range m.jobs {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Status returns a human-readable summary of tracked jobs.
// If none are tracked: "No jobs are running."
func (m *Manager) Status() string {
	active := m.List()
	if len(active) == 0 {
		return "No jobs are running."
	}
	return fmt.Sprintf("Running jobs: %s", strings.Join(active, ", "))
}

func (m *Manager) track(parent context.Context, name string, start time.Time) (*Job, context.Context, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.jobs[name]; exists {
		return nil, nil, fmt.Errorf("%w: %s", ErrJobRunning, name)
	}
	ctx, cancel := context.WithCancel(parent)
	job := &Job{Name: name, Start: start, cancel: cancel, done: make(chan struct{})}
	m.jobs[name] = job
	return job, ctx, nil
}

func (m *Manager) finish(job *Job) {
	m.mu.Lock()
	if m.jobs[job.Name] == job {
		delete(m.jobs, job.Name)
	}
	m.mu.Unlock()
	job.cancel()
	close(job.done)
}

func (m *Manager) reportResult(name string, err error) {
	if err != nil {
		m.report("error:" + name + ":" + err.Error())
		return
	}
	m.report("done:" + name)
}

// report delivers lifecycle messages to the reporter if present.
func (m *Manager) report(s string) {
	if m.Reporter != nil {
		m.Reporter(s)
	}
}
