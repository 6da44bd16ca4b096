package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrSnakeDoc/portal/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

func TestAllowOnlyCIDRS(t *testing.T) {
	tests := []struct {
		name       string
		allowed    []string
		trustProxy bool
		remote     string
		xff        string
		want       int
	}{
		{"empty list passes", nil, false, "203.0.113.7:5000", "", http.StatusOK},
		{"exact ip", []string{"127.0.0.1"}, false, "127.0.0.1:5000", "", http.StatusOK},
		{"cidr", []string{"10.0.0.0/8"}, false, "10.1.2.3:5000", "", http.StatusOK},
		{"outside", []string{"10.0.0.0/8"}, false, "192.168.1.1:5000", "", http.StatusForbidden},
		{"xff ignored without trust", []string{"10.0.0.0/8"}, false, "192.168.1.1:5000", "10.0.0.1", http.StatusForbidden},
		{"xff honored with trust", []string{"10.0.0.0/8"}, true, "192.168.1.1:5000", "10.0.0.1, 192.168.1.1", http.StatusOK},
		{"ipv6 loopback", []string{"::1"}, false, "[::1]:5000", "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := AllowOnlyCIDRS(tt.allowed, tt.trustProxy, logger.NewNop())(okHandler)

			req := httptest.NewRequest(http.MethodPost, "/routes", nil)
			req.RemoteAddr = tt.remote
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
