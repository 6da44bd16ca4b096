package caddy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MrSnakeDoc/portal/internal/domain"
	"github.com/MrSnakeDoc/portal/internal/logger"
	"github.com/MrSnakeDoc/portal/internal/utils"
)

const (
	// DefaultEndpoint is the well-known local address of the Caddy admin API.
	DefaultEndpoint = "http://127.0.0.1:2019"
	// DefaultServer is the name Caddy gives the first HTTP server of an adapted config.
	DefaultServer = "srv0"
	// DefaultTimeout bounds a single admin request.
	DefaultTimeout = 10 * time.Second

	// maxLoggedBody caps how much of a response body ends up in the logs.
	maxLoggedBody = 4 << 10
)

// Options configures a Registrar.
type Options struct {
	Endpoint   string        // admin API base URL (ex: "http://127.0.0.1:2019")
	Server     string        // HTTP server name in apps.http.servers (ex: "srv0")
	TLSPolicy  int           // index in apps.tls.automation.policies
	Timeout    time.Duration // per-request timeout when HTTPClient is nil
	HTTPClient *http.Client  // optional, shared across calls
}

// Registrar adds and removes reverse-proxy routes through the Caddy admin API.
//
// It keeps no state between calls: whether a route exists is only known by
// Caddy. Calls are never retried.
type Registrar struct {
	endpoint string
	server   string
	policy   int
	client   *http.Client
	logger   logger.Logger
}

// New builds a Registrar, filling unset options with defaults.
func New(opts Options, log logger.Logger) *Registrar {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Server == "" {
		opts.Server = DefaultServer
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}

	return &Registrar{
		endpoint: strings.TrimRight(opts.Endpoint, "/"),
		server:   opts.Server,
		policy:   opts.TLSPolicy,
		client:   client,
		logger:   log.With(logger.String("component", "caddy")),
	}
}

// Endpoint returns the admin API base URL in use.
func (r *Registrar) Endpoint() string { return r.endpoint }

func (r *Registrar) routesURL() string {
	return fmt.Sprintf("%s/config/apps/http/servers/%s/routes", r.endpoint, r.server)
}

func (r *Registrar) subjectsURL() string {
	return fmt.Sprintf("%s/config/apps/tls/automation/policies/%d/subjects", r.endpoint, r.policy)
}

func (r *Registrar) idURL(id string) string {
	return r.endpoint + "/id/" + id
}

// AddRoute registers a route forwarding 127.0.0.1 to :port, then adds
// 127.0.0.1:port to the TLS automation subjects.
//
// The subject is only posted once the route request got a response. If the
// second request fails the route stays registered; cleaning it up is the
// caller's job.
func (r *Registrar) AddRoute(ctx context.Context, port uint32) error {
	route := NewRoute(port)

	res, err := r.send(ctx, http.MethodPost, r.routesURL(), route)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRouteCreationFailed, err)
	}
	r.logResponse("route created", res, logger.String("route_id", route.ID))

	subject := domain.TLSSubject(port)
	res, err = r.send(ctx, http.MethodPost, r.subjectsURL(), subject)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTLSSubjectRegistrationFailed, err)
	}
	r.logResponse("route tls subject created", res,
		logger.String("route_id", route.ID),
		logger.String("subject", subject))

	return nil
}

// DeleteRoute removes the config object registered under routeID.
//
// routeID is opaque: no format check is done. A "not found" answer from Caddy
// is not an error. TLS subjects added by AddRoute are left untouched, see
// RemoveTLSSubject.
func (r *Registrar) DeleteRoute(ctx context.Context, routeID string) error {
	r.logger.Info("cleaning up route", logger.String("route_id", routeID))

	res, err := r.send(ctx, http.MethodDelete, r.idURL(routeID), nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRouteDeletionFailed, err)
	}
	r.logResponse("route deleted", res, logger.String("route_id", routeID))

	return nil
}

// RemoveTLSSubject drops every 127.0.0.1:port entry from the TLS automation
// subjects. Entries are deleted from the highest index down so the indexes
// still to delete stay valid. A missing subject, or a policy Caddy can't
// list, is not an error.
func (r *Registrar) RemoveTLSSubject(ctx context.Context, port uint32) error {
	subject := domain.TLSSubject(port)

	res, err := r.send(ctx, http.MethodGet, r.subjectsURL(), nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTLSSubjectRemovalFailed, err)
	}
	if !res.ok() {
		r.logResponse("tls subjects not listable, nothing to remove", res,
			logger.String("subject", subject))
		return nil
	}

	var subjects []string
	if err := json.Unmarshal(res.body, &subjects); err != nil {
		return fmt.Errorf("%w: decode subjects: %w", ErrTLSSubjectRemovalFailed, err)
	}

	removed := 0
	for i := len(subjects) - 1; i >= 0; i-- {
		if subjects[i] != subject {
			continue
		}
		res, err = r.send(ctx, http.MethodDelete, r.subjectsURL()+"/"+strconv.Itoa(i), nil)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrTLSSubjectRemovalFailed, err)
		}
		r.logResponse("route tls subject removed", res,
			logger.String("subject", subject),
			logger.Int("index", i))
		removed++
	}

	if removed == 0 {
		r.logger.Info("tls subject not registered, nothing to remove",
			logger.String("subject", subject))
	}
	return nil
}

// Ping checks that the admin API answers with a 2xx on /config/.
func (r *Registrar) Ping(ctx context.Context) error {
	res, err := r.send(ctx, http.MethodGet, r.endpoint+"/config/", nil)
	if err != nil {
		return fmt.Errorf("caddy admin unreachable: %w", err)
	}
	if !res.ok() {
		return fmt.Errorf("caddy admin returned status %d", res.status)
	}
	return nil
}

type response struct {
	status int
	body   []byte
}

func (res *response) ok() bool {
	return res.status >= 200 && res.status < 300
}

// send performs one admin request. payload, when non-nil, is JSON encoded.
// Only failures to send the request or read the response are returned.
func (r *Registrar) send(ctx context.Context, method, url string, payload any) (*response, error) {
	body := io.Reader(http.NoBody)
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer utils.Close(resp.Body)

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &response{status: resp.StatusCode, body: data}, nil
}

func (r *Registrar) logResponse(msg string, res *response, fields ...logger.Field) {
	body := res.body
	if len(body) > maxLoggedBody {
		body = body[:maxLoggedBody]
	}
	fields = append(fields,
		logger.Int("status", res.status),
		logger.String("response", strings.TrimSpace(string(body))))

	// Caddy answered, so the call succeeded, but an error status is worth a warning.
	if res.status >= http.StatusBadRequest {
		r.logger.Warn(msg, fields...)
		return
	}
	r.logger.Info(msg, fields...)
}
