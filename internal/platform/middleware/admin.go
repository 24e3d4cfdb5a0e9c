package middleware

import (
	"log/slog"
	"net/http"

	"atrium/pkg/requestcontext"
)

// RequireAdmin rejects callers whose resolved role does not pass the gate.
// The gate is injected so this stays a thin transport shim; the actual
// predicate lives with the account service. It must run before handlers read
// any data, so non-admins cannot distinguish "not found" from "not allowed".
func RequireAdmin(gate func(role string) error, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if err := gate(requestcontext.ActorRole(ctx)); err != nil {
				logger.WarnContext(ctx, "forbidden - admin role required",
					"actor_id", requestcontext.ActorID(ctx).String(),
					"request_id", requestcontext.RequestID(ctx),
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Admin role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
