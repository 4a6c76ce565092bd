package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// ==================== PUSH EVENTS ====================

type EventType string

const (
	EventAgentUpdate EventType = "agent_update"
	EventTaskUpdate  EventType = "task_update"
	EventLogUpdate   EventType = "log_update"
)

// Event is the envelope pushed over the tracking channel. Data stays raw
// until the type is known; Decode* methods interpret it.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// AgentEvent is the partial agent record carried by an agent_update event.
type AgentEvent struct {
	ID         int         `json:"id"`
	Name       string      `json:"name"`
	Status     AgentStatus `json:"status"`
	LastActive *time.Time  `json:"last_active,omitempty"`
}

// TaskEvent is the partial task record carried by a task_update event.
type TaskEvent struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Status      TaskStatus `json:"status"`
	Progress    int        `json:"progress"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// LogEvent is the log line carried by a log_update event. Exactly one of
// AgentID and TaskID is set, matching the entity the line belongs to.
type LogEvent struct {
	ID        int       `json:"id"`
	AgentID   *int      `json:"agent_id,omitempty"`
	TaskID    *int      `json:"task_id,omitempty"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ParseEvent decodes a raw channel message into an envelope. The payload is
// left raw; callers switch on Type and call the matching Decode method.
func ParseEvent(raw []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("failed to parse event envelope: %w", err)
	}
	if ev.Type == "" {
		return nil, fmt.Errorf("event envelope missing type")
	}
	return &ev, nil
}

func (e *Event) DecodeAgent() (*AgentEvent, error) {
	var payload AgentEvent
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode agent_update payload: %w", err)
	}
	return &payload, nil
}

func (e *Event) DecodeTask() (*TaskEvent, error) {
	var payload TaskEvent
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode task_update payload: %w", err)
	}
	return &payload, nil
}

func (e *Event) DecodeLog() (*LogEvent, error) {
	var payload LogEvent
	if err := json.Unmarshal(e.Data, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode log_update payload: %w", err)
	}
	return &payload, nil
}
