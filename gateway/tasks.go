package gateway

import (
	"context"
	"fmt"

	"github.com/manus-manager/console/domain"
)

// RefreshTasks replaces the task store's collection with the server's list.
// Duplicate concurrent refreshes coalesce like RefreshAgents.
func (g *Gateway) RefreshTasks(ctx context.Context) error {
	if !g.refreshes.begin("tasks") {
		return nil
	}
	defer g.refreshes.end("tasks")

	g.tasks.FetchStart()
	var list []domain.Task
	if err := g.client.getJSON(ctx, "/tasks", &list); err != nil {
		g.tasks.FetchFailed(errMessage(err))
		return err
	}
	g.tasks.FetchSucceeded(list)
	return nil
}

// FetchTask loads a single task and selects it for detail views.
func (g *Gateway) FetchTask(ctx context.Context, id int) (*domain.Task, error) {
	var task domain.Task
	if err := g.client.getJSON(ctx, fmt.Sprintf("/tasks/%d", id), &task); err != nil {
		return nil, err
	}
	g.tasks.Select(task)
	return &task, nil
}

func (g *Gateway) CreateTask(ctx context.Context, in domain.TaskCreate) (*domain.Task, error) {
	var task domain.Task
	if err := g.client.postJSON(ctx, "/tasks", in, &task); err != nil {
		return nil, err
	}
	g.tasks.Add(task)
	g.logger.Infow("task_created", "task_id", task.ID, "title", task.Title)
	return &task, nil
}

func (g *Gateway) UpdateTask(ctx context.Context, id int, upd domain.TaskUpdate) (*domain.Task, error) {
	var task domain.Task
	if err := g.client.putJSON(ctx, fmt.Sprintf("/tasks/%d", id), upd, &task); err != nil {
		return nil, err
	}
	g.tasks.Replace(task)
	return &task, nil
}

func (g *Gateway) DeleteTask(ctx context.Context, id int) error {
	if err := g.client.delete(ctx, fmt.Sprintf("/tasks/%d", id)); err != nil {
		return err
	}
	g.tasks.Remove(id)
	g.logger.Infow("task_deleted", "task_id", id)
	return nil
}

// AssignTask hands a task to an agent. The server stamps started_at and the
// pending→in_progress transition; the store takes the canonical record from
// the response.
func (g *Gateway) AssignTask(ctx context.Context, taskID, agentID int) (*domain.Task, error) {
	var task domain.Task
	if err := g.client.postJSON(ctx, fmt.Sprintf("/tasks/%d/assign/%d", taskID, agentID), nil, &task); err != nil {
		return nil, err
	}
	g.tasks.Replace(task)
	g.logger.Infow("task_assigned", "task_id", taskID, "agent_id", agentID, "status", task.Status)
	return &task, nil
}
