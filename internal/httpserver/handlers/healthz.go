package handlers

import (
	"net/http"
	"time"

	"github.com/MrSnakeDoc/portal/internal/domain"
	"github.com/MrSnakeDoc/portal/internal/httpserver/deps"
)

type buildInfo struct {
	Version   string `json:"version,omitempty"`
	Commit    string `json:"commit,omitempty"`
	BuildDate string `json:"build_date,omitempty"`
	GoVersion string `json:"go_version,omitempty"`
}

type healthzResponse struct {
	Status        string         `json:"status"`
	UptimeSeconds int64          `json:"uptime_seconds"`
	Routes        map[string]int `json:"routes"`
	Ledger        bool           `json:"ledger"`
	Build         buildInfo      `json:"build"`
}

// Healthz is the liveness probe. It only reads in-process state, so a down
// Caddy or Redis never makes portal look dead.
func Healthz(d deps.Deps) http.HandlerFunc {
	build := buildInfo{
		Version:   d.Version,
		Commit:    d.Commit,
		BuildDate: d.BuildDate,
		GoVersion: d.GoVersion,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		counts := map[string]int{domain.SourceAPI: 0, domain.SourceFile: 0}
		for _, route := range d.Routes.Routes() {
			counts[route.Source]++
		}

		writeJSON(w, http.StatusOK, healthzResponse{
			Status:        "ok",
			UptimeSeconds: int64(time.Since(d.StartTime) / time.Second),
			Routes:        counts,
			Ledger:        d.Ledger != nil,
			Build:         build,
		})
	}
}
