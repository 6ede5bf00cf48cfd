package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/teachhire/marketplace/backend/internal/domain"
)

// AuthClaims are issued by the identity provider and signed with the shared secret.
type AuthClaims struct {
	Role  string `json:"role"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
}

func (rw *ResponseWriter) WriteHeader(statusCode int) {
	rw.StatusCode = statusCode
	rw.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), RequestIDCtxKey, requestID)

		rw := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(rw, r.WithContext(ctx))
		duration := time.Since(start)
		slog.Info("request handled", "request_id", requestID, "status", rw.StatusCode, "ip", r.RemoteAddr, "method", r.Method, "path", r.URL.Path, "duration", duration)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				h.internalServerError(w, r, fmt.Errorf("panic: %v", err))
				fmt.Print(string(debug.Stack()))
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) tokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(h.config.JWT.CookieName); err == nil {
		return cookie.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func (h *Handler) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := h.tokenFromRequest(r)
		if tokenString == "" {
			h.errorResponse(w, r, http.StatusUnauthorized, "not signed in")
			return
		}

		claims := &AuthClaims{}
		_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
			return []byte(h.config.JWT.Secret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || claims.Subject == "" {
			h.errorResponse(w, r, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := r.Context()
		ctx = context.WithValue(ctx, RoleCtxKey, claims.Role)
		ctx = context.WithValue(ctx, SubCtxKey, claims.Subject)
		ctx = context.WithValue(ctx, EmailCtxKey, claims.Email)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// account loads the caller's account. The stored role is authoritative from here on.
func (h *Handler) account(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub := r.Context().Value(SubCtxKey).(string)

		acc, err := h.engine.GetAccount(r.Context(), sub)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrNotFound):
				h.errorResponse(w, r, http.StatusForbidden, "account is not registered, call POST /accounts/me first")
			default:
				h.internalServerError(w, r, err)
			}
			return
		}

		ctx := context.WithValue(r.Context(), AccountCtx, acc)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) RequiredRole(roles ...domain.Role) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			acc := r.Context().Value(AccountCtx).(*domain.Account)
			if !slices.Contains(roles, acc.Role) {
				h.errorResponse(w, r, http.StatusForbidden, "permission denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *Handler) job(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jobID, err := idParam(r)
		if err != nil {
			h.badRequest(w, r, err)
			return
		}

		job, err := h.engine.GetJob(r.Context(), jobID)
		if err != nil {
			h.engineError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), JobCtx, job)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
