package gateway

import (
	"sync"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/manus-manager/console/config"
	"github.com/manus-manager/console/logger"
	"github.com/manus-manager/console/store"
)

// Gateway binds the low-level client to the stores: every intent method
// performs its round-trip and, on success, dispatches the corresponding
// store transition with the server's response record. Failures are returned
// to the caller; only list refreshes record them in store state.
type Gateway struct {
	client    *Client
	session   *store.Session
	agents    *store.Agents
	tasks     *store.Tasks
	logger    *logger.Logger
	analytics *cache.Cache
	eventsURL string
	refreshes inflight
}

type Config struct {
	API       config.APIConfig
	Analytics config.AnalyticsConfig
	Session   *store.Session
	Agents    *store.Agents
	Tasks     *store.Tasks
	Logger    *logger.Logger
}

func New(cfg Config) *Gateway {
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	// Dashboard widgets poll; a short TTL keeps them off the API without
	// showing stale numbers for long.
	ttl := cfg.Analytics.CacheTTL
	if ttl <= 0 {
		ttl = 15 * time.Second
	}
	cleanup := cfg.Analytics.CacheInterval
	if cleanup <= 0 {
		cleanup = time.Minute
	}

	return &Gateway{
		client: NewClient(ClientConfig{
			BaseURL: cfg.API.BaseURL,
			Tokens:  cfg.Session,
			Timeout: cfg.API.RequestTimeout,
			Logger:  log,
		}),
		session:   cfg.Session,
		agents:    cfg.Agents,
		tasks:     cfg.Tasks,
		logger:    log,
		analytics: cache.New(ttl, cleanup),
		eventsURL: cfg.API.EventsURL(),
		refreshes: inflight{active: make(map[string]bool)},
	}
}

// inflight coalesces duplicate list refreshes: a refresh issued while the
// same refresh is already in flight returns without a second round-trip.
type inflight struct {
	mu     sync.Mutex
	active map[string]bool
}

// begin reports whether the caller owns the refresh. The owner must call
// end when the round-trip settles.
func (f *inflight) begin(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.active[key] {
		return false
	}
	f.active[key] = true
	return true
}

func (f *inflight) end(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.active, key)
}
