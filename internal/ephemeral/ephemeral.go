// Package ephemeral deletes command invocations and bot replies after a delay.
package ephemeral

import (
	"context"
	"fmt"
	"log"
	"slices"
	"sync/atomic"
	"time"

	"b3bot/internal/chat"
	"b3bot/pkg/jobmgr"
)

// DefaultDelay is how long ephemeral messages stay visible.
const DefaultDelay = 30 * time.Second

// Deleter is the part of chat.Transport the manager needs.
type Deleter interface {
	Delete(ctx context.Context, ref chat.MessageRef) error
}

// Task is one pending cleanup.
type Task struct {
	Messages []chat.MessageRef
	job      *jobmgr.Job
}

// Cancel keeps the messages of a task that has not fired yet.
func (t *Task) Cancel() { t.job.Cancel() }

// Done is closed when the task has run or was cancelled.
func (t *Task) Done() <-chan struct{} { return t.job.Done() }

// Manager schedules deferred deletions. Each call to Schedule gets its own
// job; tasks never share messages and need no locking between them.
type Manager struct {
	del   Deleter
	delay time.Duration
	jobs  *jobmgr.Manager
	seq   atomic.Uint64
}

// New returns a manager deleting through del after delay.
func New(del Deleter, delay time.Duration) *Manager {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Manager{del: del, delay: delay, jobs: jobmgr.NewManager(nil)}
}

// Delay is the configured cleanup delay.
func (m *Manager) Delay() time.Duration { return m.delay }

// Schedule deletes refs in order once the delay elapses. Delete errors such as
// messages that are already gone are logged and otherwise ignored. The caller
// does not wait for the deletion.
func (m *Manager) Schedule(refs ...chat.MessageRef) *Task {
	refs = slices.DeleteFunc(slices.Clone(refs), func(r chat.MessageRef) bool { return r.ID == "" })
	name := fmt.Sprintf("cleanup:%d", m.seq.Add(1))
	job, err := m.jobs.Schedule(name, m.delay, func(ctx context.Context) error {
		for _, ref := range refs {
			if err := m.del.Delete(ctx, ref); err != nil {
				log.Printf("[DEBUG] Cleanup of message %s in %s skipped: %v", ref.ID, ref.ChannelID, err)
			}
		}
		return nil
	})
	if err != nil {
		// Names are unique per manager, so this cannot happen.
		panic(err)
	}
	return &Task{Messages: refs, job: job}
}

// Pending returns the number of cleanups that have not finished.
func (m *Manager) Pending() int { return len(m.jobs.List()) }

// Close cancels every pending cleanup.
func (m *Manager) Close() { m.jobs.StopAll() }
