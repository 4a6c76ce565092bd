package gateway

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/manus-manager/console/domain"
)

func TestSubscribeRequiresAuthentication(t *testing.T) {
	f := newFixture(t)

	_, err := f.gw.SubscribeEvents(context.Background(), SubscribeOptions{})
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestSubscribeOpensTrackingChannel(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	sub, err := f.gw.SubscribeEvents(context.Background(), SubscribeOptions{})
	if err != nil {
		t.Fatalf("SubscribeEvents failed: %v", err)
	}
	defer sub.Close()

	waitFor(t, time.Second, func() bool { return f.srv.ClientCount() == 1 })
}

func TestAgentUpdateEventFlowsIntoStore(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	a, _ := seedAgentFixtures(f)
	f.gw.RefreshAgents(context.Background())

	sub, err := f.gw.SubscribeEvents(context.Background(), SubscribeOptions{})
	if err != nil {
		t.Fatalf("SubscribeEvents failed: %v", err)
	}
	defer sub.Close()
	waitFor(t, time.Second, func() bool { return f.srv.ClientCount() == 1 })

	stamp := time.Now().UTC().Truncate(time.Second)
	err = f.srv.Push(domain.EventAgentUpdate, domain.AgentEvent{
		ID:         a.ID,
		Name:       a.Name,
		Status:     domain.AgentStatusError,
		LastActive: &stamp,
	})
	if err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		got, ok := f.agents.Get(a.ID)
		return ok && got.Status == domain.AgentStatusError
	})
	got, _ := f.agents.Get(a.ID)
	if got.LastActive == nil || !got.LastActive.Equal(stamp) {
		t.Errorf("expected server last_active %v, got %v", stamp, got.LastActive)
	}
}

func TestTaskUpdateEventFlowsIntoStore(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	_, t2 := seedTaskFixtures(f, nil)
	f.gw.RefreshTasks(context.Background())

	sub, err := f.gw.SubscribeEvents(context.Background(), SubscribeOptions{})
	if err != nil {
		t.Fatalf("SubscribeEvents failed: %v", err)
	}
	defer sub.Close()
	waitFor(t, time.Second, func() bool { return f.srv.ClientCount() == 1 })

	if err := f.srv.Push(domain.EventTaskUpdate, domain.TaskEvent{
		ID:       t2.ID,
		Title:    t2.Title,
		Status:   domain.TaskStatusInProgress,
		Progress: 85,
	}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		got, ok := f.tasks.Get(t2.ID)
		return ok && got.Progress == 85
	})
}

func TestLogUpdateEventReachesHandler(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	var mu sync.Mutex
	var received []*domain.LogEvent
	sub, err := f.gw.SubscribeEvents(context.Background(), SubscribeOptions{
		OnLog: func(l *domain.LogEvent) {
			mu.Lock()
			received = append(received, l)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("SubscribeEvents failed: %v", err)
	}
	defer sub.Close()
	waitFor(t, time.Second, func() bool { return f.srv.ClientCount() == 1 })

	agentID := 3
	if err := f.srv.Push(domain.EventLogUpdate, domain.LogEvent{
		ID:        1,
		AgentID:   &agentID,
		Level:     domain.LogLevelInfo,
		Message:   "Agent status changed to paused",
		Timestamp: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}

	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(received) == 1
	})
	mu.Lock()
	defer mu.Unlock()
	if received[0].AgentID == nil || *received[0].AgentID != 3 {
		t.Errorf("unexpected log event %+v", received[0])
	}
}

func TestUnknownEventTypeIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	a, _ := seedAgentFixtures(f)
	f.gw.RefreshAgents(context.Background())

	var mu sync.Mutex
	var seen []domain.EventType
	sub, err := f.gw.SubscribeEvents(context.Background(), SubscribeOptions{
		OnEvent: func(ev *domain.Event) {
			mu.Lock()
			seen = append(seen, ev.Type)
			mu.Unlock()
		},
	})
	if err != nil {
		t.Fatalf("SubscribeEvents failed: %v", err)
	}
	defer sub.Close()
	waitFor(t, time.Second, func() bool { return f.srv.ClientCount() == 1 })

	if err := f.srv.Push("metrics_update", map[string]any{"cpu": 0.4}); err != nil {
		t.Fatalf("Push failed: %v", err)
	}
	waitFor(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 1
	})

	// The unknown envelope reached the observer and left the stores alone.
	got, _ := f.agents.Get(a.ID)
	if got.Status != domain.AgentStatusRunning {
		t.Errorf("unknown event must not touch stores, got %+v", got)
	}
}

func TestSubscriptionEndsOnContextCancel(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	ctx, cancel := context.WithCancel(context.Background())
	sub, err := f.gw.SubscribeEvents(ctx, SubscribeOptions{})
	if err != nil {
		t.Fatalf("SubscribeEvents failed: %v", err)
	}
	waitFor(t, time.Second, func() bool { return f.srv.ClientCount() == 1 })

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not end after context cancel")
	}
}

func TestSubscriptionEndsOnClose(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	sub, err := f.gw.SubscribeEvents(context.Background(), SubscribeOptions{})
	if err != nil {
		t.Fatalf("SubscribeEvents failed: %v", err)
	}
	waitFor(t, time.Second, func() bool { return f.srv.ClientCount() == 1 })

	sub.Close()
	select {
	case <-sub.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not end after Close")
	}
	waitFor(t, time.Second, func() bool { return f.srv.ClientCount() == 0 })
}
