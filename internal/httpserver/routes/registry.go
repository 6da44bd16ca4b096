package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/portal/internal/httpserver/deps"
	"github.com/MrSnakeDoc/portal/internal/logger"
)

// Group mounts a related set of control endpoints.
type Group func(r chi.Router, d deps.Deps)

type group struct {
	name  string
	mount Group
	mws   []func(http.Handler) http.Handler
}

var groups []group

// Register adds a named group, mounted behind mws. Called from init().
func Register(name string, mount Group, mws ...func(http.Handler) http.Handler) {
	groups = append(groups, group{name: name, mount: mount, mws: mws})
}

// RegisterAll mounts every group on r in registration order.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, g := range groups {
		target := r
		if len(g.mws) > 0 {
			target = r.With(g.mws...)
		}
		g.mount(target, d)
		d.Logger.Debug("control routes mounted", logger.String("group", g.name))
	}
}
