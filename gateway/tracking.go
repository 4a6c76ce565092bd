package gateway

import (
	"context"
	"fmt"

	"github.com/manus-manager/console/domain"
)

type agentStatusRequest struct {
	Status domain.AgentStatus `json:"status"`
}

type taskProgressRequest struct {
	TaskStatus domain.TaskStatus `json:"task_status,omitempty"`
}

// AgentLogs fetches the newest tracking-log lines for an agent, newest
// first. A limit of 0 takes the server default.
func (g *Gateway) AgentLogs(ctx context.Context, agentID, limit int) ([]domain.AgentLog, error) {
	path := fmt.Sprintf("/tracking/agents/%d/logs", agentID)
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var logs []domain.AgentLog
	if err := g.client.getJSON(ctx, path, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// TaskLogs fetches the newest tracking-log lines for a task, newest first.
func (g *Gateway) TaskLogs(ctx context.Context, taskID, limit int) ([]domain.TaskLog, error) {
	path := fmt.Sprintf("/tracking/tasks/%d/logs", taskID)
	if limit > 0 {
		path = fmt.Sprintf("%s?limit=%d", path, limit)
	}
	var logs []domain.TaskLog
	if err := g.client.getJSON(ctx, path, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// ReportAgentStatus pushes a status change through the tracking surface.
// The status is validated before the call; the store takes the canonical
// record from the response.
func (g *Gateway) ReportAgentStatus(ctx context.Context, agentID int, status domain.AgentStatus) (*domain.Agent, error) {
	if !status.Valid() {
		return nil, &ValidationError{Field: "status", Message: fmt.Sprintf("invalid agent status %q", status)}
	}

	var agent domain.Agent
	path := fmt.Sprintf("/tracking/agents/%d/status", agentID)
	if err := g.client.postJSON(ctx, path, agentStatusRequest{Status: status}, &agent); err != nil {
		return nil, err
	}
	g.agents.Replace(agent)
	g.logger.Infow("agent_status_reported", "agent_id", agentID, "status", status)
	return &agent, nil
}

// ReportTaskProgress pushes a progress update, optionally with a status
// transition. Progress is clamped to [0,100] before the call; an empty
// status leaves the server's status untouched.
func (g *Gateway) ReportTaskProgress(ctx context.Context, taskID, progress int, status domain.TaskStatus) (*domain.Task, error) {
	if status != "" && !status.Valid() {
		return nil, &ValidationError{Field: "task_status", Message: fmt.Sprintf("invalid task status %q", status)}
	}
	progress = domain.ClampProgress(progress)

	var task domain.Task
	path := fmt.Sprintf("/tracking/tasks/%d/progress/%d", taskID, progress)
	if err := g.client.postJSON(ctx, path, taskProgressRequest{TaskStatus: status}, &task); err != nil {
		return nil, err
	}
	g.tasks.Replace(task)
	g.logger.Infow("task_progress_reported", "task_id", taskID, "progress", progress, "status", status)
	return &task, nil
}
