// Package validation checks that backing services are reachable, both at
// boot (REQUIRED_SERVICES) and for the /health endpoint.
package validation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Curious-3/EchoesOfArt-sub000/internal/logger"
	"go.uber.org/zap"
)

// Check probes one service. It must honour ctx.
type Check func(ctx context.Context) error

const checkTimeout = 10 * time.Second

// ServiceValidator holds named checks and the subset that is required.
type ServiceValidator struct {
	mu               sync.RWMutex
	checks           map[string]Check
	requiredServices []string
}

// NewServiceValidator creates a validator that requires the named services.
func NewServiceValidator(required []string) *ServiceValidator {
	return &ServiceValidator{
		checks:           make(map[string]Check),
		requiredServices: required,
	}
}

// Register adds or replaces the check for a service.
func (sv *ServiceValidator) Register(name string, check Check) {
	sv.mu.Lock()
	defer sv.mu.Unlock()
	sv.checks[name] = check
}

// ValidateServices runs every required check and fails on the first error.
// A required service with no registered check counts as unavailable, since
// it means the service was not configured at all.
func (sv *ServiceValidator) ValidateServices(ctx context.Context) error {
	if len(sv.requiredServices) == 0 {
		logger.Log.Info("No required services configured for validation")
		return nil
	}

	logger.Log.Info("Validating required services", zap.Strings("services", sv.requiredServices))

	for _, name := range sv.requiredServices {
		sv.mu.RLock()
		check, ok := sv.checks[name]
		sv.mu.RUnlock()
		if !ok {
			return fmt.Errorf("required service %q is not configured", name)
		}

		timeoutCtx, cancel := context.WithTimeout(ctx, checkTimeout)
		err := check(timeoutCtx)
		cancel()
		if err != nil {
			logger.ErrorWithFields("Required service validation failed", err, zap.String("service", name))
			return fmt.Errorf("required service %q validation failed: %w", name, err)
		}

		logger.Log.Info("Service validated successfully", zap.String("service", name))
	}

	logger.Log.Info("All required services validated successfully")
	return nil
}

// ServiceStatus is one row of a health report.
type ServiceStatus struct {
	Name     string `json:"name"`
	Healthy  bool   `json:"healthy"`
	Required bool   `json:"required"`
	Error    string `json:"error,omitempty"`
	Latency  string `json:"latency"`
}

// Report runs every registered check concurrently. healthy is false when a
// required service fails.
func (sv *ServiceValidator) Report(ctx context.Context) (statuses []ServiceStatus, healthy bool) {
	sv.mu.RLock()
	checks := make(map[string]Check, len(sv.checks))
	for name, check := range sv.checks {
		checks[name] = check
	}
	sv.mu.RUnlock()

	required := make(map[string]bool, len(sv.requiredServices))
	for _, name := range sv.requiredServices {
		required[name] = true
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for name, check := range checks {
		wg.Add(1)
		go func(name string, check Check) {
			defer wg.Done()
			timeoutCtx, cancel := context.WithTimeout(ctx, checkTimeout)
			defer cancel()

			start := time.Now()
			err := check(timeoutCtx)
			status := ServiceStatus{
				Name:     name,
				Healthy:  err == nil,
				Required: required[name],
				Latency:  time.Since(start).Round(time.Millisecond).String(),
			}
			if err != nil {
				status.Error = err.Error()
			}

			mu.Lock()
			statuses = append(statuses, status)
			mu.Unlock()
		}(name, check)
	}
	wg.Wait()

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Name < statuses[j].Name })

	healthy = true
	for _, s := range statuses {
		if s.Required && !s.Healthy {
			healthy = false
		}
	}
	for name := range required {
		if _, ok := checks[name]; !ok {
			healthy = false
		}
	}
	return statuses, healthy
}
