package domain

// Analytics payloads returned by the /analytics endpoints. Read-only on the
// client, rendered straight into dashboard widgets.

// Dashboard aggregates the current user's agents and tasks.
type Dashboard struct {
	AgentCount        int            `json:"agent_count"`
	TaskCount         int            `json:"task_count"`
	AgentStatusCounts map[string]int `json:"agent_status_counts"`
	TaskStatusCounts  map[string]int `json:"task_status_counts"`
	OverallProgress   int            `json:"overall_progress"`
	CompletedTasks    int            `json:"completed_tasks"`
	FailedTasks       int            `json:"failed_tasks"`
	InProgressTasks   int            `json:"in_progress_tasks"`
	PendingTasks      int            `json:"pending_tasks"`
}

// AgentStats is the per-agent workload summary.
type AgentStats struct {
	ID              int         `json:"id"`
	Name            string      `json:"name"`
	Status          AgentStatus `json:"status"`
	TotalTasks      int         `json:"total_tasks"`
	CompletedTasks  int         `json:"completed_tasks"`
	FailedTasks     int         `json:"failed_tasks"`
	InProgressTasks int         `json:"in_progress_tasks"`
	SuccessRate     int         `json:"success_rate"`
	LastActive      *string     `json:"last_active"`
}

// TaskStats summarizes the user's tasks across statuses. Priorities arrive
// as a JSON object, so the keys are strings even though priorities are
// numeric.
type TaskStats struct {
	TotalTasks               int            `json:"total_tasks"`
	CompletedTasks           int            `json:"completed_tasks"`
	FailedTasks              int            `json:"failed_tasks"`
	InProgressTasks          int            `json:"in_progress_tasks"`
	PendingTasks             int            `json:"pending_tasks"`
	AvgCompletionTimeSeconds float64        `json:"avg_completion_time_seconds"`
	TasksByPriority          map[string]int `json:"tasks_by_priority"`
}

// TaskCompletionTime records how long one completed task took.
type TaskCompletionTime struct {
	TaskID                int     `json:"task_id"`
	Title                 string  `json:"title"`
	CompletionTimeSeconds float64 `json:"completion_time_seconds"`
}

// PerformanceLog is one recent log line in an agent performance report.
type PerformanceLog struct {
	ID        int      `json:"id"`
	Timestamp string   `json:"timestamp"`
	Level     LogLevel `json:"level"`
	Message   string   `json:"message"`
}

// AgentPerformance is the detailed per-agent report: workload counters,
// completion times of finished tasks, and the most recent log lines.
type AgentPerformance struct {
	AgentID             int                  `json:"agent_id"`
	Name                string               `json:"name"`
	Status              AgentStatus          `json:"status"`
	TotalTasks          int                  `json:"total_tasks"`
	CompletedTasks      int                  `json:"completed_tasks"`
	FailedTasks         int                  `json:"failed_tasks"`
	InProgressTasks     int                  `json:"in_progress_tasks"`
	TaskCompletionTimes []TaskCompletionTime `json:"task_completion_times"`
	RecentLogs          []PerformanceLog     `json:"recent_logs"`
	LastActive          *string              `json:"last_active"`
}
