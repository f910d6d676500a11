package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIPKeyExtractors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		remote     string
		proxied    string
	}{
		{
			name:       "no headers",
			remoteAddr: "203.0.113.7:51234",
			remote:     "203.0.113.7",
			proxied:    "203.0.113.7",
		},
		{
			name:       "spoofed forwarded for",
			remoteAddr: "203.0.113.7:51234",
			headers:    map[string]string{"X-Forwarded-For": "1.1.1.1, 198.51.100.4"},
			remote:     "203.0.113.7",
			proxied:    "198.51.100.4",
		},
		{
			name:       "real ip wins behind a proxy",
			remoteAddr: "10.0.0.1:80",
			headers:    map[string]string{"X-Forwarded-For": "1.1.1.1", "X-Real-IP": " 198.51.100.9 "},
			remote:     "10.0.0.1",
			proxied:    "198.51.100.9",
		},
		{
			name:       "address without port",
			remoteAddr: "203.0.113.7",
			remote:     "203.0.113.7",
			proxied:    "203.0.113.7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			require.Equal(t, tt.remote, RemoteIPKeyExtractor(req))
			require.Equal(t, tt.proxied, ProxyIPKeyExtractor(req))
		})
	}
}
