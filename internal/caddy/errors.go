package caddy

import "errors"

// Phase errors. Returned errors wrap one of these together with the
// underlying transport error, so both errors.Is(err, ErrRouteCreationFailed)
// and errors.As(err, &netErr) work.
//
// Only transport-level failures are reported: an HTTP response with an
// error status still counts as success for AddRoute and DeleteRoute.
var (
	ErrRouteCreationFailed          = errors.New("route creation failed")
	ErrTLSSubjectRegistrationFailed = errors.New("tls subject registration failed")
	ErrRouteDeletionFailed          = errors.New("route deletion failed")
	ErrTLSSubjectRemovalFailed      = errors.New("tls subject removal failed")
)
