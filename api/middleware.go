package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Domenick1991/travelagency/internal/domain"
	"github.com/Domenick1991/travelagency/internal/metrics"
	"github.com/gin-gonic/gin"
)

const userKey = "travel.user"

type TokenVerifier interface {
	Verify(token string) (string, error)
}

type UserLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Authenticate resolves the bearer token to a user row and stores it on the context.
func Authenticate(verifier TokenVerifier, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			writeError(c, fmt.Errorf("%w: bearer token required", domain.ErrUnauthenticated))
			return
		}

		userID, err := verifier.Verify(strings.TrimSpace(token))
		if err != nil {
			writeError(c, err)
			return
		}

		user, err := users.GetByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				err = fmt.Errorf("%w: unknown user", domain.ErrUnauthenticated)
			}
			writeError(c, err)
			return
		}

		c.Set(userKey, *user)
		c.Next()
	}
}

// RequireRole lets the request through only for users holding one of roles.
func RequireRole(roles ...domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := currentUser(c)
		if !ok {
			writeError(c, domain.ErrUnauthenticated)
			return
		}
		for _, r := range roles {
			if user.Role == r {
				c.Next()
				return
			}
		}
		writeError(c, fmt.Errorf("%w: %s role cannot access this route", domain.ErrForbidden, user.Role))
	}
}

func currentUser(c *gin.Context) (domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := v.(domain.User)
	return user, ok
}

// RequestLogger logs one line per request and records request metrics.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		elapsed := time.Since(start)
		status := c.Writer.Status()

		metrics.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		metrics.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(elapsed.Seconds())

		slog.InfoContext(c.Request.Context(), "http request",
			"method", c.Request.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
		)
	}
}
