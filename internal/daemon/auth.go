package daemon

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"pricingboard/internal/access"
	"pricingboard/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// actorHandler is a route that runs on behalf of a resolved identity.
type actorHandler func(w http.ResponseWriter, r *http.Request, actor access.Identity)

// authed resolves the bearer token through the identity provider. Requests
// without a known session are rejected with 401. A user without a role is
// let through; every operation checks rights itself.
func (s *apiServer) authed(next actorHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := s.daemon.services.Identity.Resolve(r.Context(), bearerToken(r))
		if err != nil {
			s.fail(w, r, err)
			return
		}
		ctx := logging.WithActor(r.Context(), actor.UserID, string(actor.Role))
		next(w, r.WithContext(ctx), actor)
	})
}

// bearerToken reads "Authorization: Bearer <token>", falling back to the
// access_token query parameter so resolved file URLs work as plain links.
func bearerToken(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	return strings.TrimSpace(r.URL.Query().Get("access_token"))
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logging.WithRequestID(r.Context(), id)))
	})
}
