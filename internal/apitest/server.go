// Package apitest runs an in-memory stand-in for the manager API on a
// loopback listener. Test suites seed fixtures, point the gateway at the
// server's URL, and inject push events over the tracking channel. Behavior
// mirrors the real server: lifecycle endpoints decide the resulting status,
// assign stamps started_at, errors come back as {"detail": ...}.
package apitest

import (
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/manus-manager/console/domain"
)

// Credentials accepted by /auth/login and the token it mints.
const (
	Username = "alice"
	Password = "secret123"
	Token    = "test-access-token"
)

type failure struct {
	status int
	detail string
}

type Server struct {
	app *fiber.App
	ln  net.Listener

	mu       sync.Mutex
	user     domain.User
	agents   map[int]domain.Agent
	tasks    map[int]domain.Task
	agentLog map[int][]domain.AgentLog
	taskLog  map[int][]domain.TaskLog
	nextID   int
	failures map[string]failure
	hits     map[string]int
	delay    time.Duration

	connMu sync.Mutex
	conns  []*websocket.Conn
}

func New() *Server {
	s := &Server{
		user: domain.User{
			ID:        7,
			Username:  Username,
			Email:     "alice@example.com",
			IsActive:  true,
			CreatedAt: time.Now().UTC(),
		},
		agents:   make(map[int]domain.Agent),
		tasks:    make(map[int]domain.Task),
		agentLog: make(map[int][]domain.AgentLog),
		taskLog:  make(map[int][]domain.TaskLog),
		nextID:   1,
		failures: make(map[string]failure),
		hits:     make(map[string]int),
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(s.observe)

	app.Post("/auth/login", s.login)
	app.Get("/auth/google/auth-url", s.googleAuthURL)
	app.Post("/auth/google", s.googleLogin)

	app.Use("/tracking/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/tracking/ws", websocket.New(s.handleWS))

	authed := app.Group("", s.requireBearer)
	authed.Get("/auth/me", s.me)
	authed.Put("/users/:id", s.updateUser)

	authed.Get("/agents", s.listAgents)
	authed.Post("/agents", s.createAgent)
	authed.Get("/agents/:id", s.getAgent)
	authed.Put("/agents/:id", s.updateAgent)
	authed.Delete("/agents/:id", s.deleteAgent)
	authed.Post("/agents/:id/start", s.agentLifecycle(domain.AgentStatusRunning))
	authed.Post("/agents/:id/stop", s.agentLifecycle(domain.AgentStatusIdle))
	authed.Post("/agents/:id/pause", s.agentLifecycle(domain.AgentStatusPaused))

	authed.Get("/tasks", s.listTasks)
	authed.Post("/tasks", s.createTask)
	authed.Get("/tasks/:id", s.getTask)
	authed.Put("/tasks/:id", s.updateTask)
	authed.Delete("/tasks/:id", s.deleteTask)
	authed.Post("/tasks/:id/assign/:agentId", s.assignTask)

	authed.Get("/tracking/agents/:id/logs", s.agentLogs)
	authed.Get("/tracking/tasks/:id/logs", s.taskLogs)
	authed.Post("/tracking/agents/:id/status", s.reportAgentStatus)
	authed.Post("/tracking/tasks/:id/progress/:progress", s.reportTaskProgress)

	authed.Get("/analytics/dashboard", s.dashboard)
	authed.Get("/analytics/agents/stats", s.agentStats)
	authed.Get("/analytics/tasks/stats", s.taskStats)
	authed.Get("/analytics/agents/:id/performance", s.agentPerformance)

	s.app = app
	return s
}

// Start binds a loopback listener and serves until Close. It returns the
// http:// base URL; swap the scheme for ws:// to reach the tracking channel.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}
	s.ln = ln
	go s.app.Listener(ln)
	return "http://" + ln.Addr().String(), nil
}

func (s *Server) Close() {
	s.connMu.Lock()
	for _, c := range s.conns {
		c.Close()
	}
	s.conns = nil
	s.connMu.Unlock()
	s.app.Shutdown()
}

// ==================== FIXTURES & TEST HOOKS ====================

// SeedAgent inserts an agent fixture, assigning an id when none is set.
func (s *Server) SeedAgent(a domain.Agent) domain.Agent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.ID == 0 {
		a.ID = s.nextID
		s.nextID++
	} else if a.ID >= s.nextID {
		s.nextID = a.ID + 1
	}
	s.agents[a.ID] = a
	return a
}

// SeedTask inserts a task fixture, assigning an id when none is set.
func (s *Server) SeedTask(t domain.Task) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.ID == 0 {
		t.ID = s.nextID
		s.nextID++
	} else if t.ID >= s.nextID {
		s.nextID = t.ID + 1
	}
	s.tasks[t.ID] = t
	return t
}

// SeedAgentLog appends a log fixture for an agent.
func (s *Server) SeedAgentLog(l domain.AgentLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.agentLog[l.AgentID] = append(s.agentLog[l.AgentID], l)
}

// SeedTaskLog appends a log fixture for a task.
func (s *Server) SeedTaskLog(l domain.TaskLog) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.taskLog[l.TaskID] = append(s.taskLog[l.TaskID], l)
}

// Fail makes every request for the given method+path answer with the given
// status and detail until cleared with an empty detail.
func (s *Server) Fail(method, path string, status int, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + path
	if detail == "" {
		delete(s.failures, key)
		return
	}
	s.failures[key] = failure{status: status, detail: detail}
}

// Hits reports how many requests reached the given method+path.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// SetDelay makes every handler sleep before answering, letting tests hold
// requests in flight.
func (s *Server) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Push broadcasts an event envelope to every tracking-channel client.
func (s *Server) Push(eventType domain.EventType, data any) error {
	envelope := map[string]any{"type": eventType, "data": data}
	s.connMu.Lock()
	defer s.connMu.Unlock()
	for _, c := range s.conns {
		if err := c.WriteJSON(envelope); err != nil {
			return fmt.Errorf("failed to push event: %w", err)
		}
	}
	return nil
}

// ClientCount reports how many tracking-channel clients are connected.
func (s *Server) ClientCount() int {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	return len(s.conns)
}

// Agent returns the server's current copy of an agent.
func (s *Server) Agent(id int) (domain.Agent, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.agents[id]
	return a, ok
}

// Task returns the server's current copy of a task.
func (s *Server) Task(id int) (domain.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	return t, ok
}

// ==================== MIDDLEWARE ====================

func (s *Server) observe(c *fiber.Ctx) error {
	s.mu.Lock()
	s.hits[c.Method()+" "+c.Path()]++
	fail, failing := s.failures[c.Method()+" "+c.Path()]
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if failing {
		return c.Status(fail.status).JSON(fiber.Map{"detail": fail.detail})
	}
	return c.Next()
}

func (s *Server) requireBearer(c *fiber.Ctx) error {
	auth := c.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) || auth[len(prefix):] != Token {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Not authenticated"})
	}
	return c.Next()
}

// ==================== AUTH ====================

func (s *Server) login(c *fiber.Ctx) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	if username != Username || password != Password {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Incorrect username or password"})
	}

	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	return c.JSON(fiber.Map{
		"access_token": Token,
		"token_type":   "bearer",
		"user":         user,
	})
}

func (s *Server) googleAuthURL(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"auth_url": "https://accounts.google.com/o/oauth2/auth?client_id=test"})
}

func (s *Server) googleLogin(c *fiber.Ctx) error {
	var req struct {
		Token string `json:"token"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"detail": "Invalid Google token"})
	}

	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	return c.JSON(fiber.Map{
		"access_token": Token,
		"token_type":   "bearer",
		"user":         user,
	})
}

func (s *Server) me(c *fiber.Ctx) error {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	return c.JSON(user)
}

func (s *Server) updateUser(c *fiber.Ctx) error {
	var upd domain.UserUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Invalid request body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if upd.Username != nil {
		s.user.Username = *upd.Username
	}
	if upd.Email != nil {
		s.user.Email = *upd.Email
	}
	if upd.FullName != nil {
		s.user.FullName = *upd.FullName
	}
	if upd.ProfilePicture != nil {
		s.user.ProfilePicture = *upd.ProfilePicture
	}
	now := time.Now().UTC()
	s.user.UpdatedAt = &now
	return c.JSON(s.user)
}

// ==================== AGENTS ====================

func (s *Server) listAgents(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]domain.Agent, 0, len(s.agents))
	for _, a := range s.agents {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return c.JSON(list)
}

func (s *Server) createAgent(c *fiber.Ctx) error {
	var in domain.AgentCreate
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Invalid request body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	agent := domain.Agent{
		ID:          s.nextID,
		Name:        in.Name,
		Description: in.Description,
		Status:      domain.AgentStatusIdle,
		OwnerID:     in.OwnerID,
		InstanceURL: in.InstanceURL,
		MaxTasks:    5,
		CreatedAt:   time.Now().UTC(),
	}
	if in.Status != nil {
		agent.Status = domain.AgentStatus(*in.Status)
	}
	if in.MaxTasks != nil {
		agent.MaxTasks = *in.MaxTasks
	}
	s.nextID++
	s.agents[agent.ID] = agent
	return c.Status(fiber.StatusCreated).JSON(agent)
}

func (s *Server) getAgent(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	s.mu.Lock()
	agent, ok := s.agents[id]
	s.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Agent not found"})
	}
	return c.JSON(agent)
}

func (s *Server) updateAgent(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	var upd domain.AgentUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Invalid request body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	agent, ok := s.agents[id]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Agent not found"})
	}
	if upd.Name != nil {
		agent.Name = *upd.Name
	}
	if upd.Description != nil {
		agent.Description = *upd.Description
	}
	if upd.Status != nil {
		agent.Status = domain.AgentStatus(*upd.Status)
	}
	if upd.MaxTasks != nil {
		agent.MaxTasks = *upd.MaxTasks
	}
	if upd.InstanceURL != nil {
		agent.InstanceURL = *upd.InstanceURL
	}
	now := time.Now().UTC()
	agent.UpdatedAt = &now
	s.agents[id] = agent
	return c.JSON(agent)
}

func (s *Server) deleteAgent(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[id]; !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Agent not found"})
	}
	delete(s.agents, id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) agentLifecycle(target domain.AgentStatus) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _ := c.ParamsInt("id")
		s.mu.Lock()
		defer s.mu.Unlock()
		agent, ok := s.agents[id]
		if !ok {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Agent not found"})
		}
		agent.Status = target
		now := time.Now().UTC()
		agent.LastActive = &now
		s.agents[id] = agent
		return c.JSON(agent)
	}
}

// ==================== TASKS ====================

func (s *Server) listTasks(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := make([]domain.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return c.JSON(list)
}

func (s *Server) createTask(c *fiber.Ctx) error {
	var in domain.TaskCreate
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Invalid request body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	task := domain.Task{
		ID:          s.nextID,
		Title:       in.Title,
		Description: in.Description,
		Status:      domain.TaskStatusPending,
		OwnerID:     in.OwnerID,
		AgentID:     in.AgentID,
		Priority:    in.Priority,
		Progress:    domain.ClampProgress(in.Progress),
		CreatedAt:   time.Now().UTC(),
	}
	if in.Status != "" {
		task.Status = domain.TaskStatus(in.Status)
	}
	s.nextID++
	s.tasks[task.ID] = task
	return c.Status(fiber.StatusCreated).JSON(task)
}

func (s *Server) getTask(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	s.mu.Lock()
	task, ok := s.tasks[id]
	s.mu.Unlock()
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Task not found"})
	}
	return c.JSON(task)
}

func (s *Server) updateTask(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	var upd domain.TaskUpdate
	if err := c.BodyParser(&upd); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": "Invalid request body"})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Task not found"})
	}
	now := time.Now().UTC()
	if upd.Title != nil {
		task.Title = *upd.Title
	}
	if upd.Description != nil {
		task.Description = *upd.Description
	}
	if upd.Status != nil {
		next := domain.TaskStatus(*upd.Status)
		if next == domain.TaskStatusInProgress && task.StartedAt == nil {
			task.StartedAt = &now
		} else if (next == domain.TaskStatusCompleted || next == domain.TaskStatusFailed) && task.CompletedAt == nil {
			task.CompletedAt = &now
		}
		task.Status = next
	}
	if upd.Priority != nil {
		task.Priority = *upd.Priority
	}
	if upd.Progress != nil {
		task.Progress = domain.ClampProgress(*upd.Progress)
	}
	if upd.AgentID != nil {
		task.AgentID = upd.AgentID
	}
	task.UpdatedAt = &now
	s.tasks[id] = task
	return c.JSON(task)
}

func (s *Server) deleteTask(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Task not found"})
	}
	delete(s.tasks, id)
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) assignTask(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	agentID, _ := c.ParamsInt("agentId")

	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Task not found"})
	}
	if _, ok := s.agents[agentID]; !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Agent not found"})
	}
	task.AgentID = &agentID
	if task.Status == domain.TaskStatusPending {
		now := time.Now().UTC()
		task.Status = domain.TaskStatusInProgress
		task.StartedAt = &now
	}
	s.tasks[id] = task
	return c.JSON(task)
}

// ==================== TRACKING ====================

func (s *Server) agentLogs(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	limit := c.QueryInt("limit", 100)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.agents[id]; !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Agent not found"})
	}
	logs := s.agentLog[id]
	if len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}
	out := make([]domain.AgentLog, len(logs))
	for i, l := range logs {
		out[len(logs)-1-i] = l
	}
	return c.JSON(out)
}

func (s *Server) taskLogs(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	limit := c.QueryInt("limit", 100)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Task not found"})
	}
	logs := s.taskLog[id]
	if len(logs) > limit {
		logs = logs[len(logs)-limit:]
	}
	out := make([]domain.TaskLog, len(logs))
	for i, l := range logs {
		out[len(logs)-1-i] = l
	}
	return c.JSON(out)
}

func (s *Server) reportAgentStatus(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	var req struct {
		Status domain.AgentStatus `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil || !req.Status.Valid() {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"detail": fmt.Sprintf("Invalid status: %s", req.Status)})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	agent, ok := s.agents[id]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Agent not found"})
	}
	agent.Status = req.Status
	now := time.Now().UTC()
	agent.LastActive = &now
	s.agents[id] = agent
	return c.JSON(agent)
}

func (s *Server) reportTaskProgress(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	progress, _ := c.ParamsInt("progress")
	var req struct {
		TaskStatus domain.TaskStatus `json:"task_status"`
	}
	c.BodyParser(&req)

	s.mu.Lock()
	defer s.mu.Unlock()
	task, ok := s.tasks[id]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Task not found"})
	}
	task.Progress = domain.ClampProgress(progress)
	if req.TaskStatus != "" {
		now := time.Now().UTC()
		if req.TaskStatus == domain.TaskStatusInProgress && task.StartedAt == nil {
			task.StartedAt = &now
		} else if (req.TaskStatus == domain.TaskStatusCompleted || req.TaskStatus == domain.TaskStatusFailed) && task.CompletedAt == nil {
			task.CompletedAt = &now
		}
		task.Status = req.TaskStatus
	}
	s.tasks[id] = task
	return c.JSON(task)
}

// ==================== ANALYTICS ====================

func (s *Server) dashboard(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	agentCounts := make(map[string]int)
	for _, a := range s.agents {
		agentCounts[string(a.Status)]++
	}
	taskCounts := make(map[string]int)
	var completed, failed, inProgress, pending int
	for _, t := range s.tasks {
		taskCounts[string(t.Status)]++
		switch t.Status {
		case domain.TaskStatusCompleted:
			completed++
		case domain.TaskStatusFailed:
			failed++
		case domain.TaskStatusInProgress:
			inProgress++
		case domain.TaskStatusPending:
			pending++
		}
	}
	overall := 0
	if len(s.tasks) > 0 {
		overall = completed * 100 / len(s.tasks)
	}

	return c.JSON(domain.Dashboard{
		AgentCount:        len(s.agents),
		TaskCount:         len(s.tasks),
		AgentStatusCounts: agentCounts,
		TaskStatusCounts:  taskCounts,
		OverallProgress:   overall,
		CompletedTasks:    completed,
		FailedTasks:       failed,
		InProgressTasks:   inProgress,
		PendingTasks:      pending,
	})
}

func (s *Server) agentStats(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := make([]domain.AgentStats, 0, len(s.agents))
	for _, a := range s.agents {
		st := domain.AgentStats{ID: a.ID, Name: a.Name, Status: a.Status}
		for _, t := range s.tasks {
			if t.AgentID == nil || *t.AgentID != a.ID {
				continue
			}
			st.TotalTasks++
			switch t.Status {
			case domain.TaskStatusCompleted:
				st.CompletedTasks++
			case domain.TaskStatusFailed:
				st.FailedTasks++
			case domain.TaskStatusInProgress:
				st.InProgressTasks++
			}
		}
		if st.CompletedTasks+st.FailedTasks > 0 {
			st.SuccessRate = st.CompletedTasks * 100 / (st.CompletedTasks + st.FailedTasks)
		}
		if a.LastActive != nil {
			la := a.LastActive.Format(time.RFC3339)
			st.LastActive = &la
		}
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].ID < stats[j].ID })
	return c.JSON(stats)
}

func (s *Server) taskStats(c *fiber.Ctx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := domain.TaskStats{
		TotalTasks:      len(s.tasks),
		TasksByPriority: make(map[string]int),
	}
	var totalSeconds float64
	var timed int
	for _, t := range s.tasks {
		stats.TasksByPriority[strconv.Itoa(t.Priority)]++
		switch t.Status {
		case domain.TaskStatusCompleted:
			stats.CompletedTasks++
			if t.StartedAt != nil && t.CompletedAt != nil {
				totalSeconds += t.CompletedAt.Sub(*t.StartedAt).Seconds()
				timed++
			}
		case domain.TaskStatusFailed:
			stats.FailedTasks++
		case domain.TaskStatusInProgress:
			stats.InProgressTasks++
		case domain.TaskStatusPending:
			stats.PendingTasks++
		}
	}
	if timed > 0 {
		stats.AvgCompletionTimeSeconds = totalSeconds / float64(timed)
	}
	return c.JSON(stats)
}

func (s *Server) agentPerformance(c *fiber.Ctx) error {
	id, _ := c.ParamsInt("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	agent, ok := s.agents[id]
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"detail": "Agent not found"})
	}

	perf := domain.AgentPerformance{
		AgentID:             agent.ID,
		Name:                agent.Name,
		Status:              agent.Status,
		TaskCompletionTimes: []domain.TaskCompletionTime{},
		RecentLogs:          []domain.PerformanceLog{},
	}
	for _, t := range s.tasks {
		if t.AgentID == nil || *t.AgentID != agent.ID {
			continue
		}
		perf.TotalTasks++
		switch t.Status {
		case domain.TaskStatusCompleted:
			perf.CompletedTasks++
			if t.StartedAt != nil && t.CompletedAt != nil {
				perf.TaskCompletionTimes = append(perf.TaskCompletionTimes, domain.TaskCompletionTime{
					TaskID:                t.ID,
					Title:                 t.Title,
					CompletionTimeSeconds: t.CompletedAt.Sub(*t.StartedAt).Seconds(),
				})
			}
		case domain.TaskStatusFailed:
			perf.FailedTasks++
		case domain.TaskStatusInProgress:
			perf.InProgressTasks++
		}
	}
	for _, l := range s.agentLog[agent.ID] {
		perf.RecentLogs = append(perf.RecentLogs, domain.PerformanceLog{
			ID:        l.ID,
			Timestamp: l.Timestamp.Format(time.RFC3339),
			Level:     l.Level,
			Message:   l.Message,
		})
	}
	if agent.LastActive != nil {
		la := agent.LastActive.Format(time.RFC3339)
		perf.LastActive = &la
	}
	return c.JSON(perf)
}

// ==================== TRACKING CHANNEL ====================

func (s *Server) handleWS(c *websocket.Conn) {
	if c.Query("token") != Token {
		c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "invalid token"))
		c.Close()
		return
	}

	s.connMu.Lock()
	s.conns = append(s.conns, c)
	s.connMu.Unlock()

	defer func() {
		s.connMu.Lock()
		for i, conn := range s.conns {
			if conn == c {
				s.conns = append(s.conns[:i], s.conns[i+1:]...)
				break
			}
		}
		s.connMu.Unlock()
		c.Close()
	}()

	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
