package middleware

import (
	"net"
	"net/netip"
	"strings"

	"github.com/danielgtaylor/huma/v2"
)

// IdentityFunc resolves the caller address used as the quota identity.
// It returns "" when no usable address is available.
type IdentityFunc func(ctx huma.Context) string

// ClientIdentity returns an IdentityFunc. By default only the connection's
// remote address is used. With trustProxy, X-Forwarded-For (first entry) and
// X-Real-IP take precedence; enable it only behind a proxy that overwrites them.
func ClientIdentity(trustProxy bool) IdentityFunc {
	return func(ctx huma.Context) string {
		if trustProxy {
			if ip := forwardedIP(ctx); ip != "" {
				return ip
			}
		}

		return remoteIP(ctx.RemoteAddr())
	}
}

func forwardedIP(ctx huma.Context) string {
	// X-Forwarded-For may contain a chain; the first entry is the original client
	if xff := ctx.Header("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := parseIP(first); ip != "" {
			return ip
		}
	}

	return parseIP(ctx.Header("X-Real-IP"))
}

func remoteIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(strings.TrimSpace(remoteAddr))
	if err != nil {
		return parseIP(remoteAddr)
	}

	return parseIP(host)
}

func parseIP(s string) string {
	addr, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return ""
	}

	return addr.Unmap().String()
}
