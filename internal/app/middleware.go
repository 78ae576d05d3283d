package app

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/treso/treso/pkg/directory"
)

// SetupMiddleware wires all HTTP middlewares for the application.
func SetupMiddleware(r *mux.Router, deps *Dependencies) {

	// Propagate X-User-Id header into context for downstream services
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			userIdHeader := req.Header.Get("X-User-Id")
			ctx := req.Context()

			if userIdHeader != "" {
				u, err := deps.DirectoryService.GetUserByUid(ctx, userIdHeader)
				if err != nil {
					if errors.Is(err, directory.ErrUserNotFound) {
						log.Debugf("user not found: %s", userIdHeader)
						http.Error(w, "user not found", http.StatusForbidden)
						return
					}
					log.Errorf("failed to get user: %v", err)
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				if !u.Active {
					http.Error(w, "user is not active", http.StatusForbidden)
					return
				}
				ctx = directory.WithActor(ctx, u)
			}
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
}
