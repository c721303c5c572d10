package http

import (
	"net/http"
	"os"
	"time"

	"github.com/aussiebroadwan/billboard/internal/blog/store"
	"github.com/aussiebroadwan/billboard/pkg/billboardsdk"
	"github.com/aussiebroadwan/billboard/pkg/httpx"
)

// LivezHandler godoc
//
//	@Summary		Health Check Endpoint
//	@Description	Liveness check returning uptime and version. Always 200 while the process is serving.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	billboardsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get]
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, billboardsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness check that pings the database and checks the avatar directory.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	billboardsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	billboardsdk.HealthResponse	"service not ready"
//	@Router			/readyz [get]
func ReadyzHandler(startTime time.Time, version string, st store.Store, avatarDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &billboardsdk.HealthChecks{Database: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if st == nil {
			checks.Database = "error: not configured"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		} else if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		if avatarDir != "" {
			checks.Media = "ok"
			if info, err := os.Stat(avatarDir); err != nil || !info.IsDir() {
				checks.Media = "error: avatar directory missing"
				overallStatus = "degraded"
				statusCode = http.StatusServiceUnavailable
			}
		}

		httpx.WriteJSON(w, statusCode, billboardsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		})
	}
}
