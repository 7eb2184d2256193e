// Package purge deletes a channel's messages newer than a cutoff and keeps a
// transcript of what was removed.
package purge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"b3bot/internal/chat"
	"b3bot/pkg/jobmgr"
	"b3bot/pkg/retrylimit"
)

// ErrInvalidCutoff is returned when clearsince arguments do not form a date.
var ErrInvalidCutoff = errors.New("invalid cutoff")

// ErrBusy is returned when a purge of the same channel is already running.
var ErrBusy = errors.New("purge already running in this channel")

// UpstreamDeliveryError reports that the transcript could not be attached to
// the channel and was written to Path instead.
type UpstreamDeliveryError struct {
	Path string
	Err  error
}

func (e *UpstreamDeliveryError) Error() string {
	return fmt.Sprintf("transcript upload failed, saved to %s: %v", e.Path, e.Err)
}

func (e *UpstreamDeliveryError) Unwrap() error { return e.Err }

// ParseCutoff reads "year month day [hour] [minute] [second]" as a UTC time.
// Out of range components are rejected rather than normalized.
func ParseCutoff(args []string) (time.Time, error) {
	if len(args) < 3 || len(args) > 6 {
		return time.Time{}, fmt.Errorf("%w: want 3 to 6 components, got %d", ErrInvalidCutoff, len(args))
	}
	var v [6]int
	for i, a := range args {
		n, err := strconv.Atoi(a)
		if err != nil || n < 0 || strings.HasPrefix(a, "+") {
			return time.Time{}, fmt.Errorf("%w: %q is not a number", ErrInvalidCutoff, a)
		}
		v[i] = n
	}
	t := time.Date(v[0], time.Month(v[1]), v[2], v[3], v[4], v[5], 0, time.UTC)
	if t.Year() != v[0] || int(t.Month()) != v[1] || t.Day() != v[2] ||
		t.Hour() != v[3] || t.Minute() != v[4] || t.Second() != v[5] || v[0] < 1 {
		return time.Time{}, fmt.Errorf("%w: %s is not a valid date", ErrInvalidCutoff, strings.Join(args, " "))
	}
	return t, nil
}

// Report is the outcome of a purge.
type Report struct {
	Count int
	// Lines holds "<author> content" for each deleted message, oldest first.
	Lines []string
}

// Transcript joins the report lines.
func (r Report) Transcript() string { return strings.Join(r.Lines, "\n") }

// Filename is the attachment name used for a transcript created at t.
func Filename(t time.Time) string {
	return fmt.Sprintf("deleted-messages_%d.txt", t.Unix())
}

// Worker runs purges.
type Worker struct {
	Transport   chat.Transport
	FallbackDir string
	Now         func() time.Time

	limiter *retrylimit.AdaptiveLimiter
	jobs    *jobmgr.Manager
}

// NewWorker paces deletes at up to perSecond requests, slowing down when the
// chat service throttles.
func NewWorker(t chat.Transport, fallbackDir string, perSecond float64) *Worker {
	if perSecond <= 0 {
		perSecond = 5
	}
	max := rate.Limit(perSecond)
	return &Worker{
		Transport:   t,
		FallbackDir: fallbackDir,
		Now:         time.Now,
		limiter:     retrylimit.NewAdaptiveLimiter(max, max/10, max, max/10, 0.5),
		jobs: jobmgr.NewManager(func(msg string) {
			log.Printf("[DEBUG] purge job %s", msg)
		}),
	}
}

// PurgeSince deletes every message in the channel strictly after cutoff,
// oldest first. It stops at the first failed delete and returns what was
// deleted so far along with the error.
func (w *Worker) PurgeSince(ctx context.Context, channelID string, cutoff time.Time) (Report, error) {
	var rep Report
	err := w.jobs.Run(ctx, "purge:"+channelID, func(ctx context.Context) error {
		for m, err := range w.Transport.History(ctx, channelID, cutoff) {
			if err != nil {
				return fmt.Errorf("failed to read history: %w", err)
			}
			if err := w.limiter.Wait(ctx); err != nil {
				return err
			}
			line := fmt.Sprintf("<%s> %s", m.Author.Name, m.Content)
			derr := w.Transport.Delete(ctx, m.Ref())
			w.limiter.Observe(derr)
			if derr != nil {
				return fmt.Errorf("failed to delete message %s: %w", m.ID, derr)
			}
			rep.Lines = append(rep.Lines, line)
			rep.Count++
		}
		return nil
	})
	if errors.Is(err, jobmgr.ErrJobRunning) {
		return rep, ErrBusy
	}
	return rep, err
}

// Rate is the current delete pace in messages per second. It drops while
// deletes are throttled and recovers as they succeed.
func (w *Worker) Rate() float64 { return w.limiter.CurrentLimit() }

// Status lists the channels being purged right now.
func (w *Worker) Status() string { return w.jobs.Status() }

// Deliver attaches the transcript to the channel. If that fails the
// transcript is written to FallbackDir and an *UpstreamDeliveryError naming
// the file is returned; any other error means the transcript was lost.
func (w *Worker) Deliver(ctx context.Context, channelID string, rep Report) error {
	name := Filename(w.Now())
	_, err := w.Transport.SendAttachment(ctx, channelID, name, strings.NewReader(rep.Transcript()))
	if err == nil {
		return nil
	}
	log.Printf("[WARN] Failed to attach transcript to %s: %v", channelID, err)

	path := filepath.Join(w.FallbackDir, name)
	if werr := os.WriteFile(path, []byte(rep.Transcript()), 0o644); werr != nil {
		return fmt.Errorf("failed to save transcript after upload error %v: %w", err, werr)
	}
	log.Printf("[INFO] Transcript saved to %s", path)
	return &UpstreamDeliveryError{Path: path, Err: err}
}
