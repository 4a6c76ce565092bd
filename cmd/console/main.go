package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/manus-manager/console/config"
	"github.com/manus-manager/console/domain"
	"github.com/manus-manager/console/gateway"
	"github.com/manus-manager/console/logger"
	"github.com/manus-manager/console/store"
)

// A small headless console: it logs in, loads the agent and task stores,
// then follows the push channel and prints every update until interrupted.
func main() {
	configPath := "config/config.yaml"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		configPath = "../config/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	session := store.NewSession()
	agents := store.NewAgents()
	tasks := store.NewTasks()

	gw := gateway.New(gateway.Config{
		API:       cfg.API,
		Analytics: cfg.Analytics,
		Session:   session,
		Agents:    agents,
		Tasks:     tasks,
		Logger:    log,
	})

	username := os.Getenv("CONSOLE_USERNAME")
	password := os.Getenv("CONSOLE_PASSWORD")
	if username == "" || password == "" {
		log.Fatal("CONSOLE_USERNAME and CONSOLE_PASSWORD must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	user, err := gw.Login(ctx, username, password)
	cancel()
	if err != nil {
		log.Fatalf("login failed: %v", err)
	}
	log.Infof("logged in as %s", user.Username)

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	if err := gw.RefreshAgents(ctx); err != nil {
		log.Warnf("failed to load agents: %v", err)
	}
	if err := gw.RefreshTasks(ctx); err != nil {
		log.Warnf("failed to load tasks: %v", err)
	}
	cancel()
	log.Infof("loaded %d agents, %d tasks", agents.Len(), tasks.Len())

	sub, err := gw.SubscribeEvents(context.Background(), gateway.SubscribeOptions{
		OnEvent: func(ev *domain.Event) {
			log.Infow("event", "type", ev.Type)
		},
		OnLog: func(l *domain.LogEvent) {
			log.Infow("remote_log",
				"level", l.Level,
				"message", l.Message,
				"agent_id", l.AgentID,
				"task_id", l.TaskID,
			)
		},
	})
	if err != nil {
		log.Fatalf("failed to subscribe to events: %v", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutting down...")
		sub.Close()
	case <-sub.Done():
		if err := sub.Err(); err != nil {
			log.Errorf("event channel closed: %v", err)
		}
	}
	log.Info("console exited")
}
