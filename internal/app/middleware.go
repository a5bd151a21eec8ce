package app

import (
	"net/http"
	"strings"

	"github.com/boardledger/boardledger/internal/rest"
	"github.com/boardledger/boardledger/pkg/user"
	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

const (
	userIdHeader   = "X-User-Id"
	userNameHeader = "X-User-Name"
)

// SetupMiddleware wires all HTTP middlewares for the API router.
func SetupMiddleware(api *mux.Router) {
	// The identity provider in front of the service has already verified these headers.
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			userId := strings.TrimSpace(req.Header.Get(userIdHeader))
			if userId == "" {
				log.Debugf("request to %s without %s header", req.URL.Path, userIdHeader)
				rest.WriteError(w, user.ErrNoUser)
				return
			}
			displayName := strings.TrimSpace(req.Header.Get(userNameHeader))
			if displayName == "" {
				displayName = userId
			}
			ctx := user.WithUser(req.Context(), user.User{Id: userId, DisplayName: displayName})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
}
