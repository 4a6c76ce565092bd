package store

import (
	"time"

	"github.com/manus-manager/console/domain"
)

// Tasks is the normalized task collection.
type Tasks struct {
	List[domain.Task]

	now func() time.Time
}

func NewTasks() *Tasks {
	return &Tasks{
		List: newList(func(t domain.Task) int { return t.ID }),
		now:  time.Now,
	}
}

// SetProgress updates a task's progress percentage, clamped to [0,100].
// An empty status leaves the current status untouched; progress updates
// arrive independently of full task updates.
func (s *Tasks) SetProgress(id, progress int, status domain.TaskStatus) {
	progress = domain.ClampProgress(progress)
	s.patch(id, func(t *domain.Task) {
		t.Progress = progress
		if status != "" {
			t.Status = status
		}
	})
}

// ApplyEvent folds a pushed task_update into the collection: progress,
// status and the server-stamped timestamps.
func (s *Tasks) ApplyEvent(ev *domain.TaskEvent) {
	progress := domain.ClampProgress(ev.Progress)
	s.patch(ev.ID, func(t *domain.Task) {
		t.Progress = progress
		if ev.Status != "" {
			t.Status = ev.Status
		}
		if ev.StartedAt != nil {
			t.StartedAt = ev.StartedAt
		}
		if ev.CompletedAt != nil {
			t.CompletedAt = ev.CompletedAt
		}
	})
}

// Assign points a task at an agent. A pending task moves to in_progress
// with a client-estimated started_at; tasks in any other status keep their
// status and timestamps, only agent_id changes. The gateway replaces the
// record with the server's canonical copy when the assign call settles, so
// the estimate never outlives the round-trip.
func (s *Tasks) Assign(taskID, agentID int) {
	ts := s.now()
	s.patch(taskID, func(t *domain.Task) {
		t.AgentID = &agentID
		if t.Status == domain.TaskStatusPending {
			t.Status = domain.TaskStatusInProgress
			t.StartedAt = &ts
		}
	})
}
