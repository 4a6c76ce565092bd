package domain

import (
	"time"
)

// ==================== ENUMS ====================

type AgentStatus string

const (
	AgentStatusRunning    AgentStatus = "running"
	AgentStatusIdle       AgentStatus = "idle"
	AgentStatusPaused     AgentStatus = "paused"
	AgentStatusError      AgentStatus = "error"
	AgentStatusTerminated AgentStatus = "terminated"
)

func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusRunning, AgentStatusIdle, AgentStatusPaused, AgentStatusError, AgentStatusTerminated:
		return true
	}
	return false
}

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status is a final state: the server never
// moves a task out of completed, failed or cancelled.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

type LogLevel string

const (
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
)

// ==================== RECORDS ====================

// User is the authenticated account record. It is replaced wholesale on
// login and profile updates; the session store owns the single live copy.
type User struct {
	ID             int        `json:"id"`
	Username       string     `json:"username"`
	Email          string     `json:"email"`
	FullName       string     `json:"full_name,omitempty"`
	ProfilePicture string     `json:"profile_picture,omitempty"`
	IsActive       bool       `json:"is_active"`
	IsSuperuser    bool       `json:"is_superuser"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      *time.Time `json:"updated_at,omitempty"`
}

// Agent is a managed worker process. Status transitions are
// server-authoritative; the client mirrors them and reconciles with every
// fetched record.
type Agent struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Status      AgentStatus `json:"status"`
	OwnerID     int         `json:"owner_id"`
	InstanceURL string      `json:"instance_url,omitempty"`
	MaxTasks    int         `json:"max_tasks"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   *time.Time  `json:"updated_at,omitempty"`
	LastActive  *time.Time  `json:"last_active,omitempty"`
}

// Task is a unit of work optionally assigned to one agent. Progress is a
// percentage clamped to [0,100]; priority ranges 0 (lowest) to 3.
type Task struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	OwnerID     int        `json:"owner_id"`
	AgentID     *int       `json:"agent_id,omitempty"`
	Priority    int        `json:"priority"`
	Progress    int        `json:"progress"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// AgentLog is one tracking-log line for an agent.
type AgentLog struct {
	ID        int       `json:"id"`
	AgentID   int       `json:"agent_id"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// TaskLog is one tracking-log line for a task.
type TaskLog struct {
	ID        int       `json:"id"`
	TaskID    int       `json:"task_id"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ClampProgress bounds a task progress percentage to [0,100].
func ClampProgress(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}
