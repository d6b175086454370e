package cluster

import (
	"encoding/json"
	"net/http"
	"sync"
)

// CheckFunc returns an error when the dependency it probes is unhealthy.
type CheckFunc func() error

// HealthAggregator runs every registered check behind one HTTP endpoint.
type HealthAggregator struct {
	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func NewHealthAggregator() *HealthAggregator {
	return &HealthAggregator{
		checks: make(map[string]CheckFunc),
	}
}

// AddCheck registers check under name, replacing any previous one.
func (h *HealthAggregator) AddCheck(name string, check CheckFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// Handler answers 200 with {"status":"healthy"} when every check passes, otherwise 503
// with the failing checks and their errors.
func (h *HealthAggregator) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mu.RLock()
		failures := make(map[string]string)
		for name, check := range h.checks {
			if err := check(); err != nil {
				failures[name] = err.Error()
			}
		}
		h.mu.RUnlock()

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if len(failures) > 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(failures)
			return
		}
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}
}
