package web

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/orderenhancer/internal/core"
)

// withRequestScope copies the client IP and the optional ?store= scope
// into the request context.
func withRequestScope(r *http.Request) (context.Context, error) {
	ctx := core.ContextWithClientIP(r.Context(), clientIP(r))

	store := r.URL.Query().Get("store")
	if store == "" {
		return ctx, nil
	}
	id, err := strconv.Atoi(store)
	if err != nil || id < 0 {
		return ctx, fmt.Errorf("invalid store %q", store)
	}
	return core.ContextWithStoreID(ctx, id), nil
}

// clientIP returns the host part of RemoteAddr, already rewritten by
// TrustedRealIP for requests from trusted proxies.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
