package server

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"git.home.luguber.info/inful/panorama/internal/logfields"
)

// RunFunc performs one generation.
type RunFunc func(ctx context.Context) error

// Status is the outcome of the most recent regeneration.
type Status struct {
	Running   bool      `json:"running"`
	Runs      int       `json:"runs"`
	LastRun   time.Time `json:"last_run,omitzero"`
	LastError string    `json:"last_error,omitempty"`
}

// Regenerator serializes generation requests.
type Regenerator struct {
	run  RunFunc
	reqs chan struct{}

	mu      sync.Mutex
	running bool
	pending bool
	status  Status
}

func NewRegenerator(run RunFunc) *Regenerator {
	return &Regenerator{run: run, reqs: make(chan struct{}, 1)}
}

// Trigger requests a regeneration without blocking.
func (r *Regenerator) Trigger() {
	select {
	case r.reqs <- struct{}{}:
	default:
	}
}

// Loop processes requests until ctx is done.
func (r *Regenerator) Loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.reqs:
			r.mu.Lock()
			if r.running {
				r.pending = true
				r.mu.Unlock()
				continue
			}
			r.running = true
			r.status.Running = true
			r.mu.Unlock()

			go r.execute(ctx)
		}
	}
}

func (r *Regenerator) execute(ctx context.Context) {
	slog.Info("Regenerating site")
	start := time.Now()
	err := r.run(ctx)
	if err != nil {
		slog.Warn("Regeneration failed", logfields.Error(err))
	} else {
		slog.Info("Regeneration complete", logfields.DurationMS(float64(time.Since(start).Milliseconds())))
	}

	r.mu.Lock()
	r.running = false
	r.status.Running = false
	r.status.Runs++
	r.status.LastRun = start
	r.status.LastError = ""
	if err != nil {
		r.status.LastError = err.Error()
	}
	again := r.pending
	r.pending = false
	r.mu.Unlock()

	if again && ctx.Err() == nil {
		r.Trigger()
	}
}

func (r *Regenerator) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}
