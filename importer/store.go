package importer

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrTaskNotFound is returned when a task identifier is unknown or has
// been evicted.
var ErrTaskNotFound = errors.New("task not found")

// ErrTaskFinished is returned when attempting to mutate a task that has
// already reached a terminal status.
var ErrTaskFinished = errors.New("task already finished")

// Store is the process-wide registry of import tasks. It is the single
// source of truth read by the status endpoint and written by the
// pipeline runner; all access goes through a mutex so single-field
// updates are atomic.
type Store struct {
	mu        sync.RWMutex
	tasks     map[string]*Task
	retention time.Duration
	maxTasks  int
}

// NewStore creates a task store. Terminal tasks older than retention are
// evicted lazily on task creation; maxTasks bounds the total number of
// retained entries.
func NewStore(retention time.Duration, maxTasks int) *Store {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if maxTasks <= 0 {
		maxTasks = 200
	}
	return &Store{
		tasks:     make(map[string]*Task),
		retention: retention,
		maxTasks:  maxTasks,
	}
}

// Create registers a new pending task for the given photo count and
// returns its snapshot. The caller does not wait for processing.
func (s *Store) Create(total int) Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evictLocked()

	id := "import_" + strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
	task := &Task{
		ID:        id,
		Status:    StatusPending,
		Total:     total,
		CreatedAt: time.Now(),
	}
	s.tasks[id] = task
	return *task
}

// Get returns a snapshot copy of the task state.
func (s *Store) Get(taskID string) (Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return Task{}, ErrTaskNotFound
	}
	return *task, nil
}

// Update applies an atomic in-place mutation to a task. Tasks in a
// terminal status are immutable; Update then returns ErrTaskFinished
// so a terminal status can never be observed to change.
func (s *Store) Update(taskID string, mutate func(*Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	if task.Status.IsTerminal() {
		return ErrTaskFinished
	}

	mutate(task)

	if task.Status.IsTerminal() && task.CompletedAt == nil {
		now := time.Now()
		task.CompletedAt = &now
	}
	return nil
}

// Cancel requests cooperative cancellation of a running task. The
// runner observes the flag between photos and stops cleanly.
func (s *Store) Cancel(taskID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[taskID]
	if !ok {
		return ErrTaskNotFound
	}
	if task.Status.IsTerminal() {
		return ErrTaskFinished
	}
	task.cancelRequested = true
	return nil
}

// CancelRequested reports whether cancellation was requested for a task.
func (s *Store) CancelRequested(taskID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[taskID]
	return ok && task.cancelRequested
}

// List returns snapshots of all retained tasks, most recent first.
func (s *Store) List() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Task, 0, len(s.tasks))
	for _, task := range s.tasks {
		out = append(out, *task)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// evictLocked drops expired terminal tasks and, if the store is still
// over capacity, the oldest terminal tasks. Running tasks are never
// evicted. Caller must hold the write lock.
func (s *Store) evictLocked() {
	cutoff := time.Now().Add(-s.retention)

	var terminal []*Task
	for id, task := range s.tasks {
		if !task.Status.IsTerminal() {
			continue
		}
		if task.CompletedAt != nil && task.CompletedAt.Before(cutoff) {
			delete(s.tasks, id)
			continue
		}
		terminal = append(terminal, task)
	}

	over := len(s.tasks) + 1 - s.maxTasks
	if over <= 0 {
		return
	}
	sort.Slice(terminal, func(i, j int) bool {
		return terminal[i].CreatedAt.Before(terminal[j].CreatedAt)
	})
	for i := 0; i < over && i < len(terminal); i++ {
		delete(s.tasks, terminal[i].ID)
	}
}
