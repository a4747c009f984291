package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"tailscale.com/client/tailscale/apitype"

	"github.com/claude/cirqulofit/internal/auth"
	"github.com/claude/cirqulofit/internal/metrics"
	"github.com/claude/cirqulofit/internal/models"
)

type contextKey int

const (
	callerKey contextKey = iota
	accountKey
	tokenKey
)

// Caller identifies who is on the other end of a request.
type Caller struct {
	Login       string `json:"login"`
	DisplayName string `json:"display_name"`
}

var localCaller = Caller{Login: "local", DisplayName: "Local Dev User"}

// WhoIser resolves a remote address to a tailnet identity.
type WhoIser interface {
	WhoIs(ctx context.Context, remoteAddr string) (*apitype.WhoIsResponse, error)
}

// callerFromContext returns the caller set by TailscaleIdentity, or the
// local dev caller when none was set.
func callerFromContext(r *http.Request) Caller {
	if c, ok := r.Context().Value(callerKey).(Caller); ok {
		return c
	}
	return localCaller
}

// accountFromContext returns the account attached by RequireSession.
func accountFromContext(r *http.Request) (models.Account, bool) {
	a, ok := r.Context().Value(accountKey).(models.Account)
	return a, ok
}

func tokenFromContext(r *http.Request) string {
	t, _ := r.Context().Value(tokenKey).(string)
	return t
}

// TailscaleIdentity attaches the tailnet caller to the request context. With
// no WhoIser, or when the lookup fails, the local dev caller is used.
func TailscaleIdentity(lookup func() WhoIser, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller := localCaller
			if wi := lookup(); wi != nil {
				who, err := wi.WhoIs(r.Context(), r.RemoteAddr)
				switch {
				case err != nil:
					log.Warn("tailscale whois failed", "remote", r.RemoteAddr, "error", err)
				case who != nil && who.UserProfile != nil:
					caller = Caller{Login: who.UserProfile.LoginName, DisplayName: who.UserProfile.DisplayName}
				}
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), callerKey, caller)))
		})
	}
}

// APIKeyAuth returns middleware that validates the X-API-Key header.
func APIKeyAuth(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("X-API-Key")
			if key == "" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing API key"})
				return
			}
			if key != apiKey {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "invalid API key"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSession validates the bearer token against the identity provider.
// Requests without an Authorization header fall back to the stored token.
func RequireSession(gw auth.Gateway, fallback func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" && fallback != nil {
				token = fallback()
			}
			acct, err := gw.CheckSession(r.Context(), token)
			if errors.Is(err, auth.ErrNoAccess) {
				writeJSON(w, http.StatusForbidden, map[string]string{"error": "account has no access to this app"})
				return
			}
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{
					"error":     "not authenticated",
					"login_url": gw.LoginURL(""),
				})
				return
			}
			ctx := context.WithValue(r.Context(), accountKey, acct)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// RequestLogging returns middleware that logs each request.
func RequestLogging(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			log.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", sw.status,
				"caller", callerFromContext(r).Login,
				"duration", time.Since(start).String(),
			)
		})
	}
}

// Metrics counts requests by method and status and observes their duration.
// A nil manager disables it.
func Metrics(m *metrics.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			m.CounterRequests.WithLabelValues(r.Method, strconv.Itoa(sw.status)).Inc()
			m.HistRequestDuration.Observe(time.Since(start).Seconds())
		})
	}
}

// PanicRecovery turns handler panics into 500s.
func PanicRecovery(m *metrics.Manager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error("panic serving request", "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
					if m != nil {
						m.CounterHandleRequestPanic.Inc()
					}
					writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORS adds permissive CORS headers for local development.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusWriter wraps ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Flush keeps streaming responses working through the wrapper.
func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
