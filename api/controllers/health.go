package controllers

import (
	"net/http"

	"github.com/pacificfuels/lcfs-backend/api/responses"
	"github.com/pacificfuels/lcfs-backend/pkg/config"
	"github.com/pacificfuels/lcfs-backend/pkg/db"
	pkgerrors "github.com/pacificfuels/lcfs-backend/pkg/errors"
	"github.com/pacificfuels/lcfs-backend/pkg/logger"
	"github.com/pacificfuels/lcfs-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LCFS-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when the database and redis both answer.
func HealthReady(cfg *config.Config, logg *logger.Logger, dbP db.Pinger, redisP redis.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-LCFS-Env", cfg.App.Env)
		ctx := r.Context()

		if dbP != nil {
			if err := dbP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database unavailable").
					WithDetails(map[string]any{"dependency": "postgres"}))
				return
			}
		}
		if redisP != nil {
			if err := redisP.Ping(ctx); err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis unavailable").
					WithDetails(map[string]any{"dependency": "redis"}))
				return
			}
		}

		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
