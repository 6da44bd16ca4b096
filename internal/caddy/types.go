package caddy

import "github.com/MrSnakeDoc/portal/internal/domain"

// HandlerReverseProxy is the Caddy handler module name for reverse proxying.
const HandlerReverseProxy = "reverse_proxy"

// Route is the JSON shape of an HTTP route in the Caddy config tree.
// The "@id" key makes the route addressable through /id/<id>.
type Route struct {
	ID     string    `json:"@id"`
	Match  []Match   `json:"match"`
	Handle []Handler `json:"handle"`
}

// Match is a host matcher set.
type Match struct {
	Host []string `json:"host"`
}

// Handler is a route handler. Only reverse_proxy is produced here.
type Handler struct {
	Handler   string     `json:"handler"`
	Upstreams []Upstream `json:"upstreams"`
}

// Upstream is a reverse_proxy dial target.
type Upstream struct {
	Dial string `json:"dial"`
}

// NewRoute builds the route forwarding 127.0.0.1 to the local port.
func NewRoute(port uint32) Route {
	return Route{
		ID: domain.RouteID(port),
		Match: []Match{
			{Host: []string{domain.LoopbackHost}},
		},
		Handle: []Handler{
			{
				Handler:   HandlerReverseProxy,
				Upstreams: []Upstream{{Dial: domain.DialAddr(port)}},
			},
		},
	}
}
