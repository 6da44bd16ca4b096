package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/portal/internal/domain"
	"github.com/MrSnakeDoc/portal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/portal/internal/logger"
)

const maxBodyBytes = 4 << 10

type createRouteRequest struct {
	Port *int64 `json:"port"`
}

type listRoutesResponse struct {
	Routes []*domain.Route `json:"routes"`
}

// ListRoutes returns the routes portal manages
func ListRoutes(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, listRoutesResponse{Routes: d.Routes.Routes()})
	}
}

// GetRoute returns one managed route
func GetRoute(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route, ok := d.Routes.Get(chi.URLParam(r, "id"))
		if !ok {
			writeError(w, http.StatusNotFound, "route not found")
			return
		}
		writeJSON(w, http.StatusOK, route)
	}
}

// CreateRoute registers a route for the port in the body: 201 when created,
// 200 when portal already manages it. Caddy being unreachable maps to 502.
func CreateRoute(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createRouteRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body: "+err.Error())
			return
		}
		if req.Port == nil {
			writeError(w, http.StatusBadRequest, "port is required")
			return
		}
		if *req.Port < 1 || *req.Port > 65535 {
			writeError(w, http.StatusBadRequest, "port must be within 1-65535")
			return
		}

		port := uint32(*req.Port)
		_, existed := d.Routes.Get(domain.RouteID(port))

		route, err := d.Routes.Register(r.Context(), port, domain.SourceAPI)
		if err != nil {
			d.Logger.Error("failed to register route",
				logger.Int("port", int(*req.Port)),
				logger.Error(err))
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		w.Header().Set("Location", "/routes/"+route.ID)
		if existed {
			writeJSON(w, http.StatusOK, route)
			return
		}
		writeJSON(w, http.StatusCreated, route)
	}
}

// DeleteRoute unregisters a route by id. Unknown ids are still forwarded to
// Caddy, which owns the config.
func DeleteRoute(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		if err := d.Routes.Unregister(r.Context(), id); err != nil {
			d.Logger.Error("failed to unregister route",
				logger.String("route_id", id),
				logger.Error(err))
			writeError(w, http.StatusBadGateway, err.Error())
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
