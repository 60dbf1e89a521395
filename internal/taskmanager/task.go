// Package taskmanager serializes WeiBack's long-running jobs: at most
// one active task at a time, with progress/error reporting and
// cooperative cancellation. The shape is lifted from the teacher's
// ticking workers (NotificationCleanupWorker, ScheduledPosts worker) —
// a ctx-driven loop, a mutex-guarded slot, bracketed log lines — but
// generalized from "one periodic worker" to "one user-started job with
// a lifecycle the caller can observe".
package taskmanager

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/weiback-dev/weiback/internal/model"
)

type Kind string

const (
	KindBackupUser      Kind = "backup_user"
	KindBackupFavorites Kind = "backup_favorites"
	KindRebackupPost    Kind = "rebackup_post"
	KindExport          Kind = "export"
	KindCleanupPictures Kind = "cleanup_pictures"
	KindCleanupAvatars  Kind = "cleanup_avatars"
	KindUnfavorite      Kind = "unfavorite"
)

type Status string

const (
	InProgress Status = "in_progress"
	Completed  Status = "completed"
	Failed     Status = "failed"
)

// Task is the one currently active (or just-finished) job.
type Task struct {
	ID          string
	Kind        Kind
	Description string
	Status      Status
	Progress    int
	Total       int
	Error       string

	startedAt time.Time
}

// Snapshot is a read-only copy of Task safe to hand to callers.
type Snapshot = Task

// Manager owns the single active task slot, a cancellation signal for
// it, and a drain-on-read buffer of subtask errors. It is safe for
// concurrent use.
type Manager struct {
	mu      sync.Mutex
	current *Task
	cancel  context.CancelFunc
	errs    []model.SubTaskError
	logger  *log.Logger
	hub     *Hub
	nextID  int
}

func New(logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{logger: logger}
}

// SetHub attaches an optional live-progress websocket hub. A nil hub
// (the default) makes progress reporting a no-op beyond the buffer.
func (m *Manager) SetHub(h *Hub) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hub = h
}

// ErrJobActive is returned by StartJob when a task is already running.
var ErrJobActive = fmt.Errorf("job already active")

// StartJob performs a compare-and-swap against "no active task": if
// one is already in progress, it fails immediately with ErrJobActive.
// The returned context is cancelled when Cancel is called; run should
// observe ctx.Done() at page boundaries and before each media fetch,
// per spec.
func (m *Manager) StartJob(kind Kind, description string, run func(ctx context.Context, t *Task)) (string, error) {
	m.mu.Lock()
	if m.current != nil && m.current.Status == InProgress {
		m.mu.Unlock()
		return "", ErrJobActive
	}
	m.nextID++
	id := fmt.Sprintf("task_%d_%d", time.Now().Unix(), m.nextID)
	ctx, cancel := context.WithCancel(context.Background())
	t := &Task{ID: id, Kind: kind, Description: description, Status: InProgress, startedAt: time.Now()}
	m.current = t
	m.cancel = cancel
	m.errs = nil
	m.mu.Unlock()

	m.logger.Printf("[TaskManager] start id=%s kind=%s desc=%q", id, kind, description)
	m.broadcast(t)

	go func() {
		run(ctx, t)
		m.mu.Lock()
		dur := time.Since(t.startedAt)
		m.mu.Unlock()
		m.logger.Printf("[TaskManager] finished id=%s kind=%s status=%s progress=%d total=%d dur=%s", t.ID, t.Kind, t.Status, t.Progress, t.Total, dur)
		m.broadcast(t)
	}()

	return id, nil
}

// GetCurrentTask returns a copy of the current task, or nil if none
// has ever run.
func (m *Manager) GetCurrentTask() *Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return nil
	}
	cp := *m.current
	return &cp
}

// Cancel requests cancellation of the active task. It is a no-op if no
// task is active. Per spec, in-flight HTTP requests finish naturally;
// the job itself decides Completed-vs-Failed based on whether it was
// mid-transaction when cancellation landed.
func (m *Manager) Cancel() {
	m.mu.Lock()
	cancel := m.cancel
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// ReportProgress updates progress/total on the active task and
// broadcasts it to the optional hub. It does not change Status.
func (m *Manager) ReportProgress(t *Task, progress, total int) {
	m.mu.Lock()
	t.Progress = progress
	t.Total = total
	m.mu.Unlock()
	m.broadcast(t)
}

// Complete transitions the task to Completed.
func (m *Manager) Complete(t *Task) {
	m.mu.Lock()
	t.Status = Completed
	m.mu.Unlock()
	m.broadcast(t)
}

// Fail transitions the task to Failed with a human-readable message.
// Per spec this is reserved for errors that leave the current job
// unable to make further progress (auth lost, DB corrupted, repository
// path unwritable) — per-record/per-file errors go to AddSubTaskError
// instead.
func (m *Manager) Fail(t *Task, err error) {
	m.mu.Lock()
	t.Status = Failed
	t.Error = err.Error()
	m.mu.Unlock()
	m.logger.Printf("[TaskManager] failed id=%s kind=%s err=%v", t.ID, t.Kind, err)
	m.broadcast(t)
}

// AddSubTaskError buffers a non-fatal, record/file-scoped error. It
// never changes task status.
func (m *Manager) AddSubTaskError(e model.SubTaskError) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	m.mu.Lock()
	m.errs = append(m.errs, e)
	hub := m.hub
	t := m.current
	m.mu.Unlock()
	m.logger.Printf("[TaskManager] subtask_error kind=%s ref=%s msg=%q", e.Kind, e.Ref, e.Message)
	if hub != nil && t != nil {
		hub.broadcastSubTaskError(t.ID, e)
	}
}

// TakeSubTaskErrors drains and returns the buffered subtask errors.
func (m *Manager) TakeSubTaskErrors() []model.SubTaskError {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := m.errs
	m.errs = nil
	return out
}

func (m *Manager) broadcast(t *Task) {
	m.mu.Lock()
	hub := m.hub
	cp := *t
	m.mu.Unlock()
	if hub != nil {
		hub.broadcastTask(&cp)
	}
}
