package store

import (
	"time"

	"github.com/manus-manager/console/domain"
)

// Agents is the normalized agent collection.
type Agents struct {
	List[domain.Agent]

	now func() time.Time
}

func NewAgents() *Agents {
	return &Agents{
		List: newList(func(a domain.Agent) int { return a.ID }),
		now:  time.Now,
	}
}

// SetStatus mirrors a status transition pushed by the server or issued
// through a start/stop/pause intent, stamping last_active with the client
// clock. The stamp is an estimate; any later fetched record overwrites it
// with server truth.
func (s *Agents) SetStatus(id int, status domain.AgentStatus) {
	ts := s.now()
	s.patch(id, func(a *domain.Agent) {
		a.Status = status
		a.LastActive = &ts
	})
}

// ApplyEvent folds a pushed agent_update into the collection. The event
// carries server truth, so its last_active wins over any client estimate.
func (s *Agents) ApplyEvent(ev *domain.AgentEvent) {
	s.patch(ev.ID, func(a *domain.Agent) {
		a.Status = ev.Status
		if ev.LastActive != nil {
			a.LastActive = ev.LastActive
		}
	})
}
