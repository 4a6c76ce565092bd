package gateway

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/manus-manager/console/domain"
)

func seedAnalyticsFixtures(f *fixture) domain.Agent {
	a, _ := seedAgentFixtures(f)
	started := time.Now().UTC().Add(-2 * time.Minute)
	finished := started.Add(90 * time.Second)
	f.srv.SeedTask(domain.Task{Title: "done", Status: domain.TaskStatusCompleted, OwnerID: 7, AgentID: &a.ID, Priority: 1, Progress: 100, StartedAt: &started, CompletedAt: &finished})
	f.srv.SeedTask(domain.Task{Title: "broken", Status: domain.TaskStatusFailed, OwnerID: 7, AgentID: &a.ID, Priority: 1})
	f.srv.SeedTask(domain.Task{Title: "queued", Status: domain.TaskStatusPending, OwnerID: 7, Priority: 2})
	f.srv.SeedTask(domain.Task{Title: "active", Status: domain.TaskStatusInProgress, OwnerID: 7, AgentID: &a.ID, Priority: 1, Progress: 30})
	return a
}

func TestDashboardAggregates(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	seedAnalyticsFixtures(f)

	dash, err := f.gw.Dashboard(context.Background())
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if dash.AgentCount != 2 || dash.TaskCount != 4 {
		t.Errorf("expected 2 agents / 4 tasks, got %d/%d", dash.AgentCount, dash.TaskCount)
	}
	if dash.CompletedTasks != 1 || dash.FailedTasks != 1 || dash.PendingTasks != 1 || dash.InProgressTasks != 1 {
		t.Errorf("unexpected status breakdown %+v", dash)
	}
	if dash.OverallProgress != 25 {
		t.Errorf("expected 25%% overall progress, got %d", dash.OverallProgress)
	}
	if dash.TaskStatusCounts["completed"] != 1 {
		t.Errorf("unexpected task status counts %v", dash.TaskStatusCounts)
	}
}

func TestDashboardIsCached(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	seedAnalyticsFixtures(f)

	for i := 0; i < 3; i++ {
		if _, err := f.gw.Dashboard(context.Background()); err != nil {
			t.Fatalf("Dashboard call %d failed: %v", i, err)
		}
	}
	if hits := f.srv.Hits(http.MethodGet, "/analytics/dashboard"); hits != 1 {
		t.Errorf("expected 1 round-trip for cached dashboard, got %d", hits)
	}

	f.gw.InvalidateAnalytics()
	if _, err := f.gw.Dashboard(context.Background()); err != nil {
		t.Fatalf("Dashboard after invalidation failed: %v", err)
	}
	if hits := f.srv.Hits(http.MethodGet, "/analytics/dashboard"); hits != 2 {
		t.Errorf("expected fresh round-trip after invalidation, got %d hits", hits)
	}
}

func TestAgentStats(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	seedAnalyticsFixtures(f)

	stats, err := f.gw.AgentStats(context.Background())
	if err != nil {
		t.Fatalf("AgentStats failed: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("expected stats for 2 agents, got %d", len(stats))
	}
	busy := stats[0]
	if busy.TotalTasks != 3 || busy.CompletedTasks != 1 || busy.FailedTasks != 1 || busy.InProgressTasks != 1 {
		t.Errorf("unexpected workload %+v", busy)
	}
	if busy.SuccessRate != 50 {
		t.Errorf("expected 50%% success rate, got %d", busy.SuccessRate)
	}
	if stats[1].TotalTasks != 0 {
		t.Errorf("expected idle agent with no tasks, got %+v", stats[1])
	}
}

func TestTaskStats(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	seedAnalyticsFixtures(f)

	stats, err := f.gw.TaskStats(context.Background())
	if err != nil {
		t.Fatalf("TaskStats failed: %v", err)
	}
	if stats.TotalTasks != 4 {
		t.Errorf("expected 4 tasks, got %d", stats.TotalTasks)
	}
	if stats.CompletedTasks != 1 || stats.FailedTasks != 1 || stats.InProgressTasks != 1 || stats.PendingTasks != 1 {
		t.Errorf("unexpected status breakdown %+v", stats)
	}
	if stats.AvgCompletionTimeSeconds != 90 {
		t.Errorf("expected 90s average completion time, got %v", stats.AvgCompletionTimeSeconds)
	}
	if stats.TasksByPriority["1"] != 3 || stats.TasksByPriority["2"] != 1 {
		t.Errorf("unexpected priority breakdown %v", stats.TasksByPriority)
	}
}

func TestAgentPerformance(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	a := seedAnalyticsFixtures(f)
	f.srv.SeedAgentLog(domain.AgentLog{
		ID:        1,
		AgentID:   a.ID,
		Level:     domain.LogLevelInfo,
		Message:   "Agent started",
		Timestamp: time.Now().UTC(),
	})

	perf, err := f.gw.AgentPerformance(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("AgentPerformance failed: %v", err)
	}
	if perf.AgentID != a.ID || perf.Name != a.Name || perf.Status != a.Status {
		t.Errorf("unexpected performance identity %+v", perf)
	}
	if perf.TotalTasks != 3 || perf.CompletedTasks != 1 || perf.FailedTasks != 1 || perf.InProgressTasks != 1 {
		t.Errorf("unexpected workload %+v", perf)
	}
	if len(perf.TaskCompletionTimes) != 1 {
		t.Fatalf("expected 1 completion time, got %d", len(perf.TaskCompletionTimes))
	}
	ct := perf.TaskCompletionTimes[0]
	if ct.Title != "done" || ct.CompletionTimeSeconds != 90 {
		t.Errorf("unexpected completion time %+v", ct)
	}
	if len(perf.RecentLogs) != 1 || perf.RecentLogs[0].Message != "Agent started" {
		t.Errorf("unexpected recent logs %+v", perf.RecentLogs)
	}
}
