package handlers

import (
	"sync"
	"time"

	"raf-importer/internal/library"
	"raf-importer/internal/startup"
)

type Handlers struct {
	session *library.Session
	config  *startup.Config
	started time.Time

	mu         sync.RWMutex
	startupErr string
}

func New(session *library.Session, config *startup.Config) *Handlers {
	return &Handlers{
		session: session,
		config:  config,
		started: time.Now(),
	}
}

// SetStartupError records a failed initial open so health checks report
// the service as degraded instead of silently empty.
func (h *Handlers) SetStartupError(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.startupErr = err.Error()
	} else {
		h.startupErr = ""
	}
}

func (h *Handlers) startupError() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.startupErr
}
