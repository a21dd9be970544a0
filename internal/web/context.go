package web

import (
	"context"
	"net/http"

	"github.com/JonMunkholm/devicebulk/internal/core"
	"github.com/JonMunkholm/devicebulk/internal/web/middleware"
)

// WithRequestMetadata adds IP, User-Agent and the authenticated actor to
// context for audit logging.
func WithRequestMetadata(ctx context.Context, r *http.Request) context.Context {
	return core.WithRequestMeta(ctx, core.RequestMeta{
		IPAddress: r.RemoteAddr, // Already processed by middleware.TrustedRealIP
		UserAgent: r.UserAgent(),
		Actor:     middleware.ActorFromContext(r.Context()),
	})
}
