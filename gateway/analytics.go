package gateway

import (
	"context"
	"fmt"

	"github.com/manus-manager/console/domain"
)

// Analytics reads are cached for a short TTL: dashboard widgets poll on a
// timer and the numbers move slowly. fetchCached is the shared path.

func (g *Gateway) Dashboard(ctx context.Context) (*domain.Dashboard, error) {
	return fetchCached[domain.Dashboard](g, ctx, "dashboard", "/analytics/dashboard")
}

func (g *Gateway) AgentStats(ctx context.Context) ([]domain.AgentStats, error) {
	stats, err := fetchCached[[]domain.AgentStats](g, ctx, "agent_stats", "/analytics/agents/stats")
	if err != nil {
		return nil, err
	}
	return *stats, nil
}

func (g *Gateway) TaskStats(ctx context.Context) (*domain.TaskStats, error) {
	return fetchCached[domain.TaskStats](g, ctx, "task_stats", "/analytics/tasks/stats")
}

func (g *Gateway) AgentPerformance(ctx context.Context, agentID int) (*domain.AgentPerformance, error) {
	key := fmt.Sprintf("agent_performance_%d", agentID)
	path := fmt.Sprintf("/analytics/agents/%d/performance", agentID)
	return fetchCached[domain.AgentPerformance](g, ctx, key, path)
}

// InvalidateAnalytics drops all cached analytics responses; mutating flows
// that must see fresh numbers immediately call it.
func (g *Gateway) InvalidateAnalytics() {
	g.analytics.Flush()
}

func fetchCached[T any](g *Gateway, ctx context.Context, key, path string) (*T, error) {
	if cached, found := g.analytics.Get(key); found {
		return cached.(*T), nil
	}

	var out T
	if err := g.client.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	g.analytics.SetDefault(key, &out)
	return &out, nil
}
