package server

import (
	"context"
	"embed"
	"encoding/base64"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"lifeshare/internal/auth"
	"lifeshare/internal/directory"
	"lifeshare/pkg/types"

	"github.com/alexedwards/flow"
	"github.com/go-playground/form/v4"
	"github.com/gorilla/securecookie"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

//go:embed templates static
var uiFS embed.FS
var decoder = form.NewDecoder()

// Authenticator is the identity provider behind register, confirm, login and
// logout.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (string, error)
	Confirm(ctx context.Context, email, code string) error
	Login(ctx context.Context, email, password string) (*auth.Token, error)
	Logout(ctx context.Context, accessToken string) error
}

// SessionVerifier turns an access token into a session.
type SessionVerifier interface {
	Verify(ctx context.Context, accessToken string) (types.Session, error)
}

// ObjectReader serves uploaded photos when they are kept in process.
type ObjectReader interface {
	Object(key string) (types.Photo, bool)
}

type Service struct {
	logger    *logrus.Logger
	config    *types.Config
	directory *directory.Service
	templates *template.Template

	auth     Authenticator
	verifier SessionVerifier
	cookie   *securecookie.SecureCookie
	uploads  ObjectReader

	metrics     *metrics
	authLimiter *ipLimiter

	server *http.Server
}

func New(
	config *types.Config,
	logger *logrus.Logger,
	dir *directory.Service,
	authenticator Authenticator,
	verifier SessionVerifier,
	uploads ObjectReader,
) (*Service, error) {
	mux := flow.New()

	hashKey, err := base64.StdEncoding.DecodeString(config.CookieHashKey)
	if err != nil {
		return nil, fmt.Errorf("decode cookie hash key: %w", err)
	}
	blockKey, err := base64.StdEncoding.DecodeString(config.CookieBlockKey)
	if err != nil {
		return nil, fmt.Errorf("decode cookie block key: %w", err)
	}

	s := &Service{
		logger:    logger,
		config:    config,
		directory: dir,
		auth:      authenticator,
		verifier:  verifier,
		cookie:    securecookie.New(hashKey, blockKey),
		uploads:   uploads,

		metrics:     newMetrics(prometheus.NewRegistry()),
		authLimiter: newIPLimiter(rate.Limit(float64(config.AuthRateLimitPerMin)/60), config.AuthRateLimitBurst),

		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", config.ServerPort),
			Handler:           mux,
			ReadTimeout:       time.Duration(config.ReadTimeoutSec) * time.Second,
			ReadHeaderTimeout: time.Duration(config.ReadTimeoutSec) * time.Second,
			WriteTimeout:      time.Duration(config.WriteTimeoutSec) * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
	}

	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates

	s.buildRouter(mux)
	// flow only runs middleware for matched routes
	s.server.Handler = s.StripTrailingSlash(mux)

	return s, nil
}

func (s *Service) Start() error {
	return s.server.ListenAndServe()
}

func (s *Service) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Handler exposes the routed handler, for tests.
func (s *Service) Handler() http.Handler {
	return s.server.Handler
}

func (s *Service) buildRouter(r *flow.Mux) {
	r.Use(s.LoggingMiddleware)
	r.Use(s.MetricsMiddleware)

	r.HandleFunc("/healthz", s.handleHealth, http.MethodGet)
	r.Handle("/metrics", s.metrics.handler(), http.MethodGet)

	staticRoot, err := fs.Sub(uiFS, "static")
	if err != nil {
		s.logger.WithError(err).Fatal("failed to mount static assets")
	}
	r.Handle("/static/...", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))), http.MethodGet)

	if s.uploads != nil {
		r.HandleFunc("/uploads/...", s.handleUpload, http.MethodGet)
	}

	r.Group(func(r *flow.Mux) {
		r.Use(s.LoadSession)

		r.HandleFunc("/", s.handleHome, http.MethodGet)
		r.HandleFunc("/donors", s.handleDonors, http.MethodGet)

		r.HandleFunc("/register", s.handleGetRegister, http.MethodGet)
		r.HandleFunc("/register/confirm", s.handleGetRegisterConfirm, http.MethodGet)
		r.HandleFunc("/register/confirm", s.handlePostRegisterConfirm, http.MethodPost)
		r.HandleFunc("/login", s.handleGetLogin, http.MethodGet)
		r.HandleFunc("/logout", s.handlePostLogout, http.MethodPost)

		r.Group(func(r *flow.Mux) {
			r.Use(s.RateLimitAuth)

			r.HandleFunc("/register", s.handlePostRegister, http.MethodPost)
			r.HandleFunc("/login", s.handlePostLogin, http.MethodPost)
		})

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireAuth)

			r.HandleFunc("/profile", s.handleGetProfile, http.MethodGet)
			r.HandleFunc("/profile", s.handlePostProfile, http.MethodPost)
		})

		r.Group(func(r *flow.Mux) {
			r.Use(s.RequireAdmin)

			r.HandleFunc("/admin", s.handleGetAdmin, http.MethodGet)
			r.HandleFunc("/admin/config", s.handlePostAdminConfig, http.MethodPost)
			r.HandleFunc("/admin/donors/:id/promote", s.handlePostAdminPromote, http.MethodPost)
			r.HandleFunc("/admin/donors/:id/delete", s.handlePostAdminDelete, http.MethodPost)
			r.HandleFunc("/admin/donors/:id/edit", s.handleGetAdminEdit, http.MethodGet)
			r.HandleFunc("/admin/donors/:id/edit", s.handlePostAdminEdit, http.MethodPost)
		})
	})
}

func loadTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"fieldError": func(errs map[string]string, field string) string {
			return errs[field]
		},
		"selected": func(current, option any) bool {
			return fmt.Sprint(current) == fmt.Sprint(option)
		},
	}

	t := template.New("").Funcs(funcMap)
	err := fs.WalkDir(uiFS, "templates", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		data, err := fs.ReadFile(uiFS, path)
		if err != nil {
			return fmt.Errorf("read template %s: %w", path, err)
		}

		if _, err := t.Parse(string(data)); err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return t, nil
}
