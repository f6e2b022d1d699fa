/**
 * @description
 * This file contains custom middleware for the HTTP router: admin JWT
 * verification for the pricing-management endpoints and a Redis-backed
 * fixed-window rate limit for the public quote and lead endpoints.
 *
 * @dependencies
 * - context, net/http, strings, time: Standard Go libraries.
 * - github.com/golang-jwt/jwt/v5: JWT parsing and HMAC verification.
 */

package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AdminSubjectContextKey is a custom type for the context key to avoid collisions.
type AdminSubjectContextKey string

const adminSubjectKey AdminSubjectContextKey = "adminSubject"

// AdminAuthMiddleware creates a middleware that validates HS256 admin tokens.
// Tokens must carry a role=admin claim; maxAge additionally bounds token age
// from the iat claim so long-lived exp values cannot stretch a session.
func AdminAuthMiddleware(secret string, maxAge time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.TrimSpace(secret) == "" {
				writeError(w, http.StatusServiceUnavailable, "admin_disabled", "Admin API is not configured")
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Authorization header required")
				return
			}

			tokenString := strings.TrimPrefix(authHeader, "Bearer ")
			if tokenString == authHeader {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid Authorization header format")
				return
			}

			token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
				}
				return []byte(secret), nil
			})
			if err != nil || !token.Valid {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid token")
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Invalid token claims")
				return
			}

			if role, _ := claims["role"].(string); role != "admin" {
				writeError(w, http.StatusForbidden, "forbidden", "Admin role required")
				return
			}

			if maxAge > 0 {
				issuedAt, err := claims.GetIssuedAt()
				if err != nil || issuedAt == nil {
					writeError(w, http.StatusUnauthorized, "unauthorized", "Token missing issued-at claim")
					return
				}
				if time.Since(issuedAt.Time) > maxAge {
					writeError(w, http.StatusUnauthorized, "unauthorized", "Token too old")
					return
				}
			}

			subject, _ := claims["sub"].(string)
			ctx := context.WithValue(r.Context(), adminSubjectKey, subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminSubject retrieves the authenticated admin subject from the request context.
func GetAdminSubject(ctx context.Context) (string, bool) {
	subject, ok := ctx.Value(adminSubjectKey).(string)
	return subject, ok
}

// RateLimiter is the slice of the app rate limiter the API layer needs.
type RateLimiter interface {
	ConsumeRateLimit(ctx context.Context, scope, subject string, limit int, window time.Duration) (count int, retryAfterSeconds int, err error)
}

// rateLimitMiddleware throttles a route per client IP using a fixed
// one-minute window. A nil limiter or limiter error lets the request
// through; availability of quoting beats strictness of throttling.
func rateLimitMiddleware(limiter RateLimiter, scope string, limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil || limit <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			count, retryAfter, err := limiter.ConsumeRateLimit(r.Context(), scope, clientIP(r), limit, time.Minute)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			if count > limit {
				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				writeError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests; slow down and retry")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
