package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// RouteIDPrefix prefixes every route id handed to the proxy.
	RouteIDPrefix = "route-"

	// LoopbackHost is the host matched by managed routes and used in TLS subjects.
	LoopbackHost = "127.0.0.1"
)

// Route sources.
const (
	SourceAPI  = "api"
	SourceFile = "file"
)

// Route is portal's bookkeeping for a route it registered with the proxy.
//
// The proxy server stays the system of record: this record is never diffed
// against the proxy configuration, it only remembers what portal asked for.
type Route struct {
	// ID is the proxy-side handle, always RouteID(Port).
	ID string `json:"id"`

	// Port is the local upstream port traffic is forwarded to.
	Port uint32 `json:"port"`

	// Dial is the upstream dial string (":<port>").
	Dial string `json:"dial"`

	// Subject is the TLS automation subject registered with the route.
	Subject string `json:"subject"`

	// Source tells who asked for the route (api or file).
	Source string `json:"source"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRoute derives a route record for port.
func NewRoute(port uint32, source string, now time.Time) *Route {
	return &Route{
		ID:        RouteID(port),
		Port:      port,
		Dial:      DialAddr(port),
		Subject:   TLSSubject(port),
		Source:    source,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RouteID returns "route-<port>".
func RouteID(port uint32) string {
	return RouteIDPrefix + strconv.FormatUint(uint64(port), 10)
}

// DialAddr returns ":<port>", a dial string with the host left empty.
func DialAddr(port uint32) string {
	return ":" + strconv.FormatUint(uint64(port), 10)
}

// TLSSubject returns "127.0.0.1:<port>". This is the literal dial target,
// not a bare hostname.
func TLSSubject(port uint32) string {
	return LoopbackHost + ":" + strconv.FormatUint(uint64(port), 10)
}

// ParseRouteID extracts the port from an id built by RouteID.
func ParseRouteID(id string) (uint32, error) {
	raw, ok := strings.CutPrefix(id, RouteIDPrefix)
	if !ok || raw == "" {
		return 0, fmt.Errorf("invalid route id: %q", id)
	}
	port, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid route id %q: %w", id, err)
	}
	return uint32(port), nil
}
