package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/crudimport/internal/core"
)

// WithRequestMetadata adds the client IP and User-Agent to ctx so upload
// logs can carry them.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	ctx = core.ContextWithIPAddress(ctx, clientIP(r))
	ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
	return ctx
}
