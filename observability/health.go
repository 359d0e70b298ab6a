package observability

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/kbukum/pullpipe/conduit"
)

// HealthStatus is the state of a component or of the whole service.
type HealthStatus string

const (
	HealthStatusUp       HealthStatus = "up"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusDown     HealthStatus = "down"
)

func (s HealthStatus) severity() int {
	switch s {
	case HealthStatusUp:
		return 0
	case HealthStatusDegraded:
		return 1
	default:
		return 2
	}
}

// CheckTimeout bounds a single component check.
const CheckTimeout = 2 * time.Second

// Health is one component's result.
type Health struct {
	Name    string            `json:"name"`
	Status  HealthStatus      `json:"status"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// Report aggregates component results; Status is the worst of them.
type Report struct {
	Service    string       `json:"service"`
	Status     HealthStatus `json:"status"`
	Version    string       `json:"version,omitempty"`
	Components []Health     `json:"components,omitempty"`
}

// HealthChecker is implemented by components that can report their health.
type HealthChecker interface {
	CheckHealth(ctx context.Context) Health
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc func(ctx context.Context) Health

// CheckHealth calls f.
func (f HealthCheckFunc) CheckHealth(ctx context.Context) Health { return f(ctx) }

// Check runs the checkers concurrently and aggregates them in the order
// given. A checker that panics or outlives CheckTimeout is reported down.
func Check(ctx context.Context, service, version string, checkers ...HealthChecker) *Report {
	results := make([]Health, len(checkers))
	var wg sync.WaitGroup
	for i, c := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = runCheck(ctx, c)
		}()
	}
	wg.Wait()

	rep := &Report{Service: service, Version: version, Status: HealthStatusUp, Components: results}
	for _, h := range results {
		if h.Status.severity() > rep.Status.severity() {
			rep.Status = h.Status
		}
	}
	return rep
}

func runCheck(ctx context.Context, c HealthChecker) Health {
	ctx, cancel := context.WithTimeout(ctx, CheckTimeout)
	defer cancel()

	ch := make(chan Health, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				ch <- Health{Status: HealthStatusDown, Message: fmt.Sprintf("check panicked: %v", v)}
			}
		}()
		ch <- c.CheckHealth(ctx)
	}()

	select {
	case h := <-ch:
		return h
	case <-ctx.Done():
		return Health{Status: HealthStatusDown, Message: "check did not finish: " + ctx.Err().Error()}
	}
}

// ConduitCheck opens and closes a pipe. Streams cannot be served when the
// process is out of file descriptors.
func ConduitCheck() HealthChecker {
	return HealthCheckFunc(func(context.Context) Health {
		h := Health{Name: "conduit", Status: HealthStatusUp}
		c, err := conduit.Open()
		if err != nil {
			h.Status = HealthStatusDown
			h.Message = err.Error()
			return h
		}
		defer c.Close()
		h.Details = map[string]string{"capacity": strconv.Itoa(c.Capacity())}
		return h
	})
}

// DirCheck reports whether dir exists and is a directory.
func DirCheck(name, dir string) HealthChecker {
	return HealthCheckFunc(func(context.Context) Health {
		h := Health{Name: name, Status: HealthStatusUp}
		info, err := os.Stat(dir)
		switch {
		case err != nil:
			h.Status = HealthStatusDown
			h.Message = err.Error()
		case !info.IsDir():
			h.Status = HealthStatusDown
			h.Message = dir + " is not a directory"
		}
		return h
	})
}
