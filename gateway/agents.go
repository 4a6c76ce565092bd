package gateway

import (
	"context"
	"fmt"

	"github.com/manus-manager/console/domain"
)

// RefreshAgents replaces the agent store's collection with the server's
// list. Concurrent refreshes coalesce: the duplicate returns immediately
// and the single in-flight round-trip settles the store.
func (g *Gateway) RefreshAgents(ctx context.Context) error {
	if !g.refreshes.begin("agents") {
		return nil
	}
	defer g.refreshes.end("agents")

	g.agents.FetchStart()
	var list []domain.Agent
	if err := g.client.getJSON(ctx, "/agents", &list); err != nil {
		g.agents.FetchFailed(errMessage(err))
		return err
	}
	g.agents.FetchSucceeded(list)
	return nil
}

// FetchAgent loads a single agent and selects it for detail views. The
// record is not inserted into the list; the next refresh carries it.
func (g *Gateway) FetchAgent(ctx context.Context, id int) (*domain.Agent, error) {
	var agent domain.Agent
	if err := g.client.getJSON(ctx, fmt.Sprintf("/agents/%d", id), &agent); err != nil {
		return nil, err
	}
	g.agents.Select(agent)
	return &agent, nil
}

func (g *Gateway) CreateAgent(ctx context.Context, in domain.AgentCreate) (*domain.Agent, error) {
	var agent domain.Agent
	if err := g.client.postJSON(ctx, "/agents", in, &agent); err != nil {
		return nil, err
	}
	g.agents.Add(agent)
	g.logger.Infow("agent_created", "agent_id", agent.ID, "name", agent.Name)
	return &agent, nil
}

func (g *Gateway) UpdateAgent(ctx context.Context, id int, upd domain.AgentUpdate) (*domain.Agent, error) {
	var agent domain.Agent
	if err := g.client.putJSON(ctx, fmt.Sprintf("/agents/%d", id), upd, &agent); err != nil {
		return nil, err
	}
	g.agents.Replace(agent)
	return &agent, nil
}

func (g *Gateway) DeleteAgent(ctx context.Context, id int) error {
	if err := g.client.delete(ctx, fmt.Sprintf("/agents/%d", id)); err != nil {
		return err
	}
	g.agents.Remove(id)
	g.logger.Infow("agent_deleted", "agent_id", id)
	return nil
}

// StartAgent, StopAgent and PauseAgent issue lifecycle transitions. The
// server decides the resulting status; the store takes the canonical record
// from the response rather than guessing.
func (g *Gateway) StartAgent(ctx context.Context, id int) (*domain.Agent, error) {
	return g.agentLifecycle(ctx, id, "start")
}

func (g *Gateway) StopAgent(ctx context.Context, id int) (*domain.Agent, error) {
	return g.agentLifecycle(ctx, id, "stop")
}

func (g *Gateway) PauseAgent(ctx context.Context, id int) (*domain.Agent, error) {
	return g.agentLifecycle(ctx, id, "pause")
}

func (g *Gateway) agentLifecycle(ctx context.Context, id int, action string) (*domain.Agent, error) {
	var agent domain.Agent
	if err := g.client.postJSON(ctx, fmt.Sprintf("/agents/%d/%s", id, action), nil, &agent); err != nil {
		return nil, err
	}
	g.agents.Replace(agent)
	g.logger.Infow("agent_lifecycle", "agent_id", id, "action", action, "status", agent.Status)
	return &agent, nil
}
