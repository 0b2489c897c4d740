package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/foliowise/advisor/internal/common"
	"github.com/foliowise/advisor/internal/models"
)

// Headers the gateway validates on every non-health request.
const (
	HeaderAppKey        = "X-Portfolio-App-Key"
	HeaderRequestedWith = "X-Requested-With"
	HeaderAttestation   = "X-App-Attestation"

	requestedWithValue = "XMLHttpRequest"
)

// responseWriter wraps http.ResponseWriter to capture status code and bytes written.
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// recoveryMiddleware catches panics and returns 500.
func recoveryMiddleware(logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error().
						Str("panic", fmt.Sprintf("%v", rec)).
						Str("path", r.URL.Path).
						Msg("Panic recovered in HTTP handler")
					WriteApiError(w, http.StatusInternalServerError, models.ErrCodeBackend, "Internal server error", "")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// corsMiddleware enforces the origin allow-list with exact string matching.
// Requests without an Origin header (same-origin, curl) pass through.
func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				if !allowed[origin] {
					WriteApiError(w, http.StatusUnauthorized, models.ErrCodeAuth, "Origin not allowed", "")
					return
				}
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderAppKey+", "+HeaderRequestedWith+", "+HeaderAttestation+", X-Request-ID, X-Correlation-ID")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// correlationIDMiddleware extracts or generates a correlation ID.
func correlationIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corrID := r.Header.Get("X-Request-ID")
		if corrID == "" {
			corrID = r.Header.Get("X-Correlation-ID")
		}
		if corrID == "" {
			corrID = uuid.New().String()[:8]
		}
		w.Header().Set("X-Correlation-ID", corrID)
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			dur := time.Since(start)
			corrID := w.Header().Get("X-Correlation-ID")

			event := logger.Trace()
			if rw.statusCode >= 500 {
				event = logger.Error()
			} else if rw.statusCode >= 400 {
				event = logger.Info()
			}

			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", rw.statusCode).
				Int("bytes", rw.bytesWritten).
				Dur("duration", dur).
				Str("correlation_id", corrID).
				Msg("HTTP request")
		})
	}
}

// isExemptPath reports whether gateway auth is skipped for a path.
// Health and version stay open for probes and monitoring.
func isExemptPath(path string) bool {
	return path == "/api/health" || path == "/api/version"
}

// gatewayAuthMiddleware enforces the shared-secret header contract:
// X-Portfolio-App-Key must match exactly, X-Requested-With must carry the
// CSRF marker, and in attestation mode X-App-Attestation must be a valid
// HS256 token. Rejections are 401 with no retry-after hint.
func gatewayAuthMiddleware(config *common.Config, logger *common.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isExemptPath(r.URL.Path) || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			appKey := r.Header.Get(HeaderAppKey)
			if appKey == "" {
				WriteApiError(w, http.StatusUnauthorized, models.ErrCodeAuth, "Missing authentication header: "+HeaderAppKey, "")
				return
			}
			if appKey != config.Gateway.AppKey {
				logger.Info().Str("path", r.URL.Path).Msg("Rejected request with invalid app key")
				WriteApiError(w, http.StatusUnauthorized, models.ErrCodeAuth, "Invalid authentication credentials", "")
				return
			}

			requestedWith := r.Header.Get(HeaderRequestedWith)
			if requestedWith == "" {
				WriteApiError(w, http.StatusUnauthorized, models.ErrCodeAuth, "Missing required header: "+HeaderRequestedWith, "")
				return
			}
			if requestedWith != requestedWithValue {
				WriteApiError(w, http.StatusUnauthorized, models.ErrCodeAuth, "Invalid "+HeaderRequestedWith+" header value", "")
				return
			}

			if config.RequireAttestation() {
				token := r.Header.Get(HeaderAttestation)
				if token == "" {
					WriteApiError(w, http.StatusUnauthorized, models.ErrCodeAuth, "Missing attestation token", "")
					return
				}
				if err := validateAttestation(token, []byte(config.Gateway.AttestationSecret)); err != nil {
					logger.Info().Err(err).Str("path", r.URL.Path).Msg("Rejected request with invalid attestation token")
					WriteApiError(w, http.StatusUnauthorized, models.ErrCodeAuth, "Invalid attestation token", "")
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// validateAttestation parses and verifies an HS256 attestation token.
// Expiry is enforced by the parser.
func validateAttestation(tokenString string, secret []byte) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("token is not valid")
	}
	return nil
}

// applyMiddleware wraps a handler with the middleware stack.
func applyMiddleware(handler http.Handler, logger *common.Logger, config *common.Config) http.Handler {
	// Apply in reverse order (last applied = first executed)
	handler = loggingMiddleware(logger)(handler)
	handler = gatewayAuthMiddleware(config, logger)(handler)
	handler = correlationIDMiddleware(handler)
	handler = corsMiddleware(config.Gateway.AllowedOrigins)(handler)
	handler = recoveryMiddleware(logger)(handler)
	return handler
}
