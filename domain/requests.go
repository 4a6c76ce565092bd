package domain

// Request payloads for the manager API. Optional fields are pointers so an
// unset field is omitted from the JSON body instead of zeroing the server's
// value.

type AgentCreate struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	MaxTasks    *int    `json:"max_tasks,omitempty"`
	InstanceURL string  `json:"instance_url,omitempty"`
	APIKey      string  `json:"api_key,omitempty"`
	OwnerID     int     `json:"owner_id"`
}

type AgentUpdate struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	MaxTasks    *int    `json:"max_tasks,omitempty"`
	InstanceURL *string `json:"instance_url,omitempty"`
	APIKey      *string `json:"api_key,omitempty"`
}

type TaskCreate struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    int    `json:"priority"`
	Progress    int    `json:"progress"`
	OwnerID     int    `json:"owner_id"`
	AgentID     *int   `json:"agent_id,omitempty"`
}

type TaskUpdate struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *int    `json:"priority,omitempty"`
	Progress    *int    `json:"progress,omitempty"`
	AgentID     *int    `json:"agent_id,omitempty"`
}

type UserUpdate struct {
	Username       *string `json:"username,omitempty"`
	Email          *string `json:"email,omitempty"`
	FullName       *string `json:"full_name,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
	Password       *string `json:"password,omitempty"`
}
