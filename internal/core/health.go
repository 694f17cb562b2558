package core

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// healthCheckTimeout caps the time all probes may take together. A probe
// that misses the deadline is reported unhealthy.
const healthCheckTimeout = 2 * time.Second

// HealthProbe is one subsystem health check. Each probe covers a critical
// dependency (database, event queue, outbound topic).
type HealthProbe interface {
	Name() string
	Check(ctx context.Context) error
}

type componentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type healthResponse struct {
	Status     string                     `json:"status"`
	Components map[string]componentStatus `json:"components,omitempty"`
}

// HandlePing is the liveness endpoint: the process is up and serving.
func (s *Server) HandlePing(w http.ResponseWriter, _ *http.Request) {
	JSON(w, http.StatusOK, map[string]string{"status": "UP"})
}

// HandleHealth runs all registered probes concurrently. 200 when every
// probe passes, 503 when any fails or misses the deadline.
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	if len(s.HealthProbes) == 0 {
		JSON(w, http.StatusOK, healthResponse{Status: "UP"})
		return
	}

	type probeResult struct {
		name string
		err  error
	}

	var (
		mu      sync.Mutex
		results = make(map[string]probeResult, len(s.HealthProbes))
		wg      sync.WaitGroup
	)

	for _, probe := range s.HealthProbes {
		wg.Add(1)
		go func(p HealthProbe) {
			defer wg.Done()

			var err error
			func() {
				defer func() {
					if r := recover(); r != nil {
						err = fmt.Errorf("probe panicked: %v", r)
					}
				}()
				err = p.Check(ctx)
			}()

			mu.Lock()
			results[p.Name()] = probeResult{name: p.Name(), err: err}
			mu.Unlock()
		}(probe)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		// Build a partial response; probes still running count as failed.
	}

	mu.Lock()
	defer mu.Unlock()

	components := make(map[string]componentStatus, len(s.HealthProbes))
	healthy := true
	for _, probe := range s.HealthProbes {
		name := probe.Name()
		result, completed := results[name]
		switch {
		case !completed:
			healthy = false
			components[name] = componentStatus{Status: "DOWN", Message: "health check timed out"}
		case result.err != nil:
			healthy = false
			components[name] = componentStatus{Status: "DOWN", Message: result.err.Error()}
		default:
			components[name] = componentStatus{Status: "UP"}
		}
	}

	resp := healthResponse{Status: "UP", Components: components}
	if !healthy {
		resp.Status = "DOWN"
		JSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	JSON(w, http.StatusOK, resp)
}
