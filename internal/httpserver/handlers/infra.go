package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/MrSnakeDoc/portal/internal/httpserver/deps"
)

type componentStatus struct {
	OK       bool   `json:"ok"`
	Endpoint string `json:"endpoint,omitempty"`
	Mode     string `json:"mode,omitempty"`
	Routes   *int   `json:"routes,omitempty"`
	LastSync string `json:"ledger_sync,omitempty"`
	Error    string `json:"error,omitempty"`
}

type infraResponse struct {
	Mode       string                     `json:"mode"`
	Components map[string]componentStatus `json:"components"`
}

// Infra reports the state of every dependency and derives an overall mode:
// "critical" without Caddy, "degraded" when the ledger is down, "optimal" otherwise.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		count := len(d.Routes.Routes())
		routes := componentStatus{
			OK:     true,
			Routes: &count,
			Mode:   routesMode(d.RoutesFile),
		}
		if d.LastSync != nil {
			if t := d.LastSync(); !t.IsZero() {
				routes.LastSync = t.UTC().Format(time.RFC3339)
			}
		}

		components := map[string]componentStatus{
			"caddy":  probe(r.Context(), d.Caddy, d.CaddyEndpoint),
			"redis":  checkLedger(r.Context(), d.Ledger),
			"routes": routes,
		}

		writeJSON(w, http.StatusOK, infraResponse{
			Mode:       determineMode(components),
			Components: components,
		})
	}
}

func probe(ctx context.Context, p deps.Pinger, endpoint string) componentStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := p.Ping(ctx); err != nil {
		return componentStatus{OK: false, Endpoint: endpoint, Error: err.Error()}
	}
	return componentStatus{OK: true, Endpoint: endpoint}
}

func checkLedger(ctx context.Context, ledger deps.Pinger) componentStatus {
	if ledger == nil {
		return componentStatus{OK: true, Mode: "disabled"}
	}
	st := probe(ctx, ledger, "")
	st.Mode = "persistent"
	return st
}

func routesMode(routesFile string) string {
	if routesFile == "" {
		return "api"
	}
	return "api+file"
}

func determineMode(components map[string]componentStatus) string {
	if !components["caddy"].OK {
		return "critical"
	}
	if !components["redis"].OK {
		return "degraded"
	}
	return "optimal"
}
