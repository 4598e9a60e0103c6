package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"cabin-booking-backend/internal/auth"
	"cabin-booking-backend/internal/booking"
	"cabin-booking-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	ledger  *booking.Ledger
	filter  *booking.FilterEngine
	auth    *auth.Provider
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, ledger *booking.Ledger, authProvider *auth.Provider, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		ledger:  ledger,
		filter:  booking.NewFilterEngine(ledger.Checker()),
		auth:    authProvider,
		webpush: webpushOptions,
	}
}

const sessionKey = "session"

// session returns the authenticated session attached by the middleware, or a
// zero session when the request is anonymous.
func session(c *gin.Context) booking.Session {
	if v, ok := c.Get(sessionKey); ok {
		return v.(booking.Session)
	}
	return booking.Session{}
}

// Session attaches the caller's session to the context when a valid bearer
// token is presented. Anonymous requests pass through untouched.
func (h *Handler) Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			if sess, found := h.auth.SessionFromToken(token); found {
				c.Set(sessionKey, sess)
			}
		}
		c.Next()
	}
}

// RequireClient rejects anonymous requests.
func (h *Handler) RequireClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session(c).Authenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "client session required"})
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects requests without an administrator session.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "administrator session required"})
			return
		}
		c.Next()
	}
}

// abortWithError maps an engine error onto an HTTP status with a
// human-readable message; the structured kind stays matchable server-side.
func abortWithError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, booking.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, booking.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, booking.ErrInvalidRange), errors.Is(err, booking.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, booking.ErrAuthRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, booking.ErrStorageUnavailable):
		status = http.StatusServiceUnavailable
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
