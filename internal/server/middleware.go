package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"lifeshare/pkg/types"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Context key types to avoid collisions
type contextKey string

const (
	contextKeySession contextKey = "session"
	contextKeyProfile contextKey = "profile"
)

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Service) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("http request")
	})
}

// LoadSession resolves the access token cookie, when present, into a session
// whose role is read from the directory on every request. Invalid tokens are
// dropped and the request continues anonymously; a verifier outage is a 503.
func (s *Service) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		accessToken, ok := s.accessToken(r)
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		session, err := s.verifier.Verify(ctx, accessToken)
		if errors.Is(err, types.ErrBackendUnavailable) {
			// the token may still be good; keep the cookie
			s.logger.WithError(err).Error("failed to verify access token")
			s.renderError(w, r, err)
			return
		}
		if err != nil {
			s.logger.WithError(err).Info("discarding invalid access token")
			s.clearAccessTokenCookie(w)
			next.ServeHTTP(w, r)
			return
		}

		session, profile, err := s.directory.ResolveSession(ctx, session)
		if err != nil {
			s.logger.WithError(err).WithField("user_id", session.UserID).Error("failed to resolve session")
			s.renderError(w, r, err)
			return
		}

		ctx = context.WithValue(ctx, contextKeySession, session)
		if profile != nil {
			ctx = context.WithValue(ctx, contextKeyProfile, profile)
		}

		s.logger.WithFields(logrus.Fields{
			"user_id": session.UserID,
			"role":    session.Role,
		}).Debug("authenticated user")

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAuth sends anonymous visitors to the login page and remembers where
// they were going.
func (s *Service) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFromContext(r.Context()).IsAuthenticated() {
			if r.Method == http.MethodGet {
				s.setRedirectCookie(w, r.URL.RequestURI(), time.Minute*5)
			}
			s.redirectToLogin(w, r)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects signed in non-admins with 403. Hiding the admin links
// in the navbar is not the permission check; this is.
func (s *Service) RequireAdmin(next http.Handler) http.Handler {
	return s.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := sessionFromContext(r.Context())
		if !session.IsAdmin() {
			s.logger.WithFields(logrus.Fields{
				"user_id": session.UserID,
				"path":    r.URL.Path,
			}).Warn("non-admin denied admin route")
			s.renderError(w, r, types.ErrPermissionDenied)
			return
		}

		next.ServeHTTP(w, r)
	}))
}

func (s *Service) StripTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path

		if path != "/" && strings.HasSuffix(path, "/") {
			newURL := *r.URL
			newURL.Path = strings.TrimSuffix(path, "/")

			http.Redirect(w, r, newURL.String(), http.StatusMovedPermanently)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// RateLimitAuth throttles login and sign-up attempts per client IP.
func (s *Service) RateLimitAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !s.authLimiter.allow(ip) {
			s.logger.WithField("ip", ip).Warn("auth rate limit exceeded")
			w.Header().Set("Retry-After", "60")
			http.Error(w, "too many requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// limiterIdleTTL is how long a client's bucket is kept after its last
// request. A bucket idle that long has refilled, so dropping it loses nothing.
const limiterIdleTTL = 10 * time.Minute

type ipLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	buckets   map[string]*ipBucket
	lastSweep time.Time
	now       func() time.Time
}

type ipBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPLimiter(limit rate.Limit, burst int) *ipLimiter {
	return &ipLimiter{
		limit:   limit,
		burst:   burst,
		buckets: make(map[string]*ipBucket),
		now:     time.Now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= limiterIdleTTL {
		l.sweep(now)
	}

	b, ok := l.buckets[ip]
	if !ok {
		b = &ipBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[ip] = b
	}
	b.lastSeen = now
	l.mu.Unlock()

	return b.limiter.AllowN(now, 1)
}

// sweep drops buckets idle for limiterIdleTTL. Callers hold mu.
func (l *ipLimiter) sweep(now time.Time) {
	for ip, b := range l.buckets {
		if now.Sub(b.lastSeen) >= limiterIdleTTL {
			delete(l.buckets, ip)
		}
	}
	l.lastSweep = now
}

func (l *ipLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func sessionFromContext(ctx context.Context) types.Session {
	session, _ := ctx.Value(contextKeySession).(types.Session)
	return session
}

func profileFromContext(ctx context.Context) *types.DonorProfile {
	profile, _ := ctx.Value(contextKeyProfile).(*types.DonorProfile)
	return profile
}
