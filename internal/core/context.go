package core

import "context"

type contextKey string

const (
	ctxKeyStoreID  contextKey = "store_id"
	ctxKeyClientIP contextKey = "client_ip"
)

// ContextWithStoreID scopes ctx to a store view. Feature flags and the
// grid are resolved for this store.
func ContextWithStoreID(ctx context.Context, storeID int) context.Context {
	return context.WithValue(ctx, ctxKeyStoreID, storeID)
}

// StoreIDFromContext returns the store scope of ctx, or nil for the default scope.
func StoreIDFromContext(ctx context.Context) *int {
	if v, ok := ctx.Value(ctxKeyStoreID).(int); ok {
		return &v
	}
	return nil
}

// ContextWithClientIP records who requested an export, for the export log.
func ContextWithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyClientIP, ip)
}

// ClientIPFromContext extracts the client IP from context.
func ClientIPFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyClientIP).(string); ok {
		return v
	}
	return ""
}
