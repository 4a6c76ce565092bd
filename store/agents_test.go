package store

import (
	"testing"
	"time"

	"github.com/manus-manager/console/domain"
)

func TestAgentsSetStatusStampsLastActive(t *testing.T) {
	s := NewAgents()
	stamp := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return stamp }

	s.FetchSucceeded([]domain.Agent{
		{ID: 3, Name: "worker-3", Status: domain.AgentStatusRunning},
		{ID: 4, Name: "worker-4", Status: domain.AgentStatusIdle},
	})

	s.SetStatus(3, domain.AgentStatusPaused)

	got, _ := s.Get(3)
	if got.Status != domain.AgentStatusPaused {
		t.Errorf("expected status paused, got %s", got.Status)
	}
	if got.LastActive == nil || !got.LastActive.Equal(stamp) {
		t.Errorf("expected last_active %v, got %v", stamp, got.LastActive)
	}

	other, _ := s.Get(4)
	if other.Status != domain.AgentStatusIdle || other.LastActive != nil {
		t.Errorf("unrelated agent mutated: %+v", other)
	}
}

func TestAgentsSetStatusMirrorsSelected(t *testing.T) {
	s := NewAgents()
	s.FetchSucceeded([]domain.Agent{{ID: 1, Status: domain.AgentStatusRunning}})
	s.Select(domain.Agent{ID: 1, Status: domain.AgentStatusRunning})

	s.SetStatus(1, domain.AgentStatusError)

	sel := s.State().Selected
	if sel == nil || sel.Status != domain.AgentStatusError {
		t.Errorf("expected selected mirrored to error, got %+v", sel)
	}
}

func TestAgentsSetStatusMissIsNoop(t *testing.T) {
	s := NewAgents()
	s.FetchSucceeded([]domain.Agent{{ID: 1, Status: domain.AgentStatusIdle}})

	s.SetStatus(99, domain.AgentStatusRunning)

	got, _ := s.Get(1)
	if got.Status != domain.AgentStatusIdle {
		t.Errorf("unrelated agent mutated: %+v", got)
	}
}

func TestAgentsApplyEventUsesServerTimestamp(t *testing.T) {
	s := NewAgents()
	clientStamp := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clientStamp }
	serverStamp := time.Date(2026, 1, 1, 0, 0, 5, 0, time.UTC)

	s.FetchSucceeded([]domain.Agent{{ID: 2, Status: domain.AgentStatusIdle}})
	s.ApplyEvent(&domain.AgentEvent{ID: 2, Status: domain.AgentStatusRunning, LastActive: &serverStamp})

	got, _ := s.Get(2)
	if got.Status != domain.AgentStatusRunning {
		t.Errorf("expected status running, got %s", got.Status)
	}
	if got.LastActive == nil || !got.LastActive.Equal(serverStamp) {
		t.Errorf("expected server last_active %v, got %v", serverStamp, got.LastActive)
	}
}

func TestAgentsApplyEventWithoutTimestampKeepsExisting(t *testing.T) {
	s := NewAgents()
	existing := time.Date(2026, 2, 2, 12, 0, 0, 0, time.UTC)
	s.FetchSucceeded([]domain.Agent{{ID: 5, Status: domain.AgentStatusRunning, LastActive: &existing}})

	s.ApplyEvent(&domain.AgentEvent{ID: 5, Status: domain.AgentStatusTerminated})

	got, _ := s.Get(5)
	if got.Status != domain.AgentStatusTerminated {
		t.Errorf("expected status terminated, got %s", got.Status)
	}
	if got.LastActive == nil || !got.LastActive.Equal(existing) {
		t.Errorf("expected last_active preserved, got %v", got.LastActive)
	}
}
