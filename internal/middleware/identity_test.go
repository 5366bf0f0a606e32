package middleware_test

import (
	"testing"

	"github.com/serroba/htmlflow/internal/middleware"
	"github.com/stretchr/testify/assert"
)

func TestClientIdentity(t *testing.T) {
	tests := []struct {
		name       string
		trustProxy bool
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{name: "remote host with port", remoteAddr: "192.168.1.1:12345", want: "192.168.1.1"},
		{name: "remote host without port", remoteAddr: "192.168.1.1", want: "192.168.1.1"},
		{name: "ipv6 remote", remoteAddr: "[2001:db8::1]:443", want: "2001:db8::1"},
		{name: "ipv4-mapped ipv6 is unmapped", remoteAddr: "[::ffff:10.0.0.5]:80", want: "10.0.0.5"},
		{name: "empty remote", remoteAddr: "", want: ""},
		{name: "garbage remote", remoteAddr: "not-an-address", want: ""},
		{
			name:       "forwarded headers ignored without trust",
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195", "X-Real-IP": "203.0.113.100"},
			want:       "10.0.0.1",
		},
		{
			name:       "first X-Forwarded-For entry with trust",
			trustProxy: true,
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18, 150.172.238.178"},
			want:       "203.0.113.195",
		},
		{
			name:       "X-Real-IP when X-Forwarded-For is absent",
			trustProxy: true,
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Real-IP": "203.0.113.100"},
			want:       "203.0.113.100",
		},
		{
			name:       "invalid X-Forwarded-For falls back to X-Real-IP",
			trustProxy: true,
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "203.0.113.100"},
			want:       "203.0.113.100",
		},
		{
			name:       "invalid headers fall back to remote address",
			trustProxy: true,
			remoteAddr: "10.0.0.1:5000",
			headers:    map[string]string{"X-Forwarded-For": "unknown", "X-Real-IP": "also-bad"},
			want:       "10.0.0.1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := newMockHumaContext(tt.remoteAddr)
			for k, v := range tt.headers {
				ctx.headers[k] = v
			}

			assert.Equal(t, tt.want, middleware.ClientIdentity(tt.trustProxy)(ctx))
		})
	}
}
