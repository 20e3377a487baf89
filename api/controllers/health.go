package controllers

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/shopcart-backend/api/responses"
	"github.com/angelmondragon/shopcart-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/shopcart-backend/pkg/errors"
	"github.com/angelmondragon/shopcart-backend/pkg/logger"
)

const readinessTimeout = 3 * time.Second

// Pinger is any dependency the readiness probe can check.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependency names a Pinger for the readiness report.
type Dependency struct {
	Name   string
	Pinger Pinger
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Shopcart-Env", cfg.App.Env)
		responses.WriteJSON(w, http.StatusOK, map[string]string{"status": "live"})
	}
}

// HealthReady pings every dependency concurrently. Any failure yields 503
// with a per-dependency status map.
func HealthReady(cfg *config.Config, deps []Dependency, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Shopcart-Env", cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		results := make([]error, len(deps))
		var g errgroup.Group
		for i, dep := range deps {
			g.Go(func() error {
				if dep.Pinger == nil {
					return nil
				}
				results[i] = dep.Pinger.Ping(ctx)
				return nil
			})
		}
		_ = g.Wait()

		checks := make(map[string]string, len(deps))
		var failed error
		for i, dep := range deps {
			if results[i] != nil {
				checks[dep.Name] = "down"
				if failed == nil {
					failed = pkgerrors.Wrap(pkgerrors.CodeDependency, results[i], dep.Name+" unavailable").
						WithDetails(map[string]any{"dependency": dep.Name})
				}
				continue
			}
			checks[dep.Name] = "up"
		}

		if failed != nil {
			if logg != nil {
				logg.Error(logg.WithField(r.Context(), "checks", checks), "health.not_ready", failed)
			}
			responses.WriteJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "not_ready", "checks": checks})
			return
		}
		responses.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready", "checks": checks})
	}
}
