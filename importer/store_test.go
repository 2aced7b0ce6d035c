package importer

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// TestStoreCreateAndGet verifies task creation defaults and snapshot reads.
func TestStoreCreateAndGet(t *testing.T) {
	s := NewStore(time.Hour, 10)

	task := s.Create(5)
	if !strings.HasPrefix(task.ID, "import_") {
		t.Fatalf("unexpected task ID: %s", task.ID)
	}
	if task.Status != StatusPending {
		t.Fatalf("status = %s, want %s", task.Status, StatusPending)
	}
	if task.Total != 5 || task.Processed != 0 || task.Failed != 0 {
		t.Fatalf("unexpected counters: %+v", task)
	}

	got, err := s.Get(task.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != task.ID {
		t.Fatalf("got ID %s, want %s", got.ID, task.ID)
	}
}

// TestStoreGetUnknownTask verifies the distinct not-found error.
func TestStoreGetUnknownTask(t *testing.T) {
	s := NewStore(time.Hour, 10)
	if _, err := s.Get("import_missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}
}

// TestStoreUpdateRejectsTerminal verifies terminal tasks cannot mutate.
func TestStoreUpdateRejectsTerminal(t *testing.T) {
	s := NewStore(time.Hour, 10)
	task := s.Create(1)

	if err := s.Update(task.ID, func(t *Task) { t.Status = StatusCompleted }); err != nil {
		t.Fatalf("update to terminal: %v", err)
	}

	got, _ := s.Get(task.ID)
	if got.CompletedAt == nil {
		t.Fatal("terminal transition should set CompletedAt")
	}

	err := s.Update(task.ID, func(t *Task) { t.Processed = 99 })
	if !errors.Is(err, ErrTaskFinished) {
		t.Fatalf("err = %v, want ErrTaskFinished", err)
	}
	got, _ = s.Get(task.ID)
	if got.Processed != 0 {
		t.Fatalf("terminal task mutated: processed = %d", got.Processed)
	}
}

// TestStoreCancelFlow verifies cooperative cancellation flagging.
func TestStoreCancelFlow(t *testing.T) {
	s := NewStore(time.Hour, 10)
	task := s.Create(3)

	if s.CancelRequested(task.ID) {
		t.Fatal("fresh task should not be cancel-requested")
	}
	if err := s.Cancel(task.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !s.CancelRequested(task.ID) {
		t.Fatal("cancel flag not set")
	}

	if err := s.Cancel("import_missing"); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("err = %v, want ErrTaskNotFound", err)
	}

	_ = s.Update(task.ID, func(t *Task) { t.Status = StatusCancelled })
	if err := s.Cancel(task.ID); !errors.Is(err, ErrTaskFinished) {
		t.Fatalf("err = %v, want ErrTaskFinished", err)
	}
}

// TestStoreListNewestFirst verifies list ordering.
func TestStoreListNewestFirst(t *testing.T) {
	s := NewStore(time.Hour, 10)
	first := s.Create(1)
	time.Sleep(2 * time.Millisecond)
	second := s.Create(1)

	tasks := s.List()
	if len(tasks) != 2 {
		t.Fatalf("len = %d, want 2", len(tasks))
	}
	if tasks[0].ID != second.ID || tasks[1].ID != first.ID {
		t.Fatalf("unexpected order: %s, %s", tasks[0].ID, tasks[1].ID)
	}
}

// TestStoreEvictionKeepsRunningTasks verifies capacity eviction only
// removes terminal tasks.
func TestStoreEvictionKeepsRunningTasks(t *testing.T) {
	s := NewStore(time.Hour, 2)

	running := s.Create(1)
	done := s.Create(1)
	_ = s.Update(done.ID, func(t *Task) { t.Status = StatusCompleted })

	// pushes the store over capacity; the terminal task must go first
	third := s.Create(1)

	if _, err := s.Get(done.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Fatalf("terminal task should be evicted, got err = %v", err)
	}
	if _, err := s.Get(running.ID); err != nil {
		t.Fatalf("running task evicted: %v", err)
	}
	if _, err := s.Get(third.ID); err != nil {
		t.Fatalf("new task missing: %v", err)
	}
}
