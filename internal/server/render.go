package server

import (
	"bytes"
	"errors"
	"net/http"

	"lifeshare/pkg/types"
)

type errorPageData struct {
	types.BasePageData
	Status  int
	Message string
}

// render executes a template into a buffer so a failing template never
// leaves a half written page behind.
func (s *Service) render(w http.ResponseWriter, r *http.Request, status int, templateName string, data any) {
	ctx := r.Context()
	session := sessionFromContext(ctx)

	if setter, ok := data.(types.NavbarDataSetter); ok {
		navbar := types.NavbarData{
			IsAuthenticated: session.IsAuthenticated(),
			IsAdmin:         session.IsAdmin(),
			UserID:          session.UserID,
			UserEmail:       session.Email,
		}
		if profile := profileFromContext(ctx); profile != nil {
			navbar.UserName = profile.FullName
			if profile.ProfilePhoto != nil {
				navbar.AvatarURL = *profile.ProfilePhoto
			}
		}
		setter.SetNavbarData(navbar)
	}

	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, templateName, data); err != nil {
		s.logger.WithError(err).WithField("template", templateName).Error("failed to render template")
		s.internalServerError(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError shows the status page matching err.
func (s *Service) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("request failed")
	}

	s.render(w, r, status, "page.error", &errorPageData{
		BasePageData: types.BasePageData{Title: http.StatusText(status)},
		Status:       status,
		Message:      message,
	})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound, "We could not find what you were looking for."
	case errors.Is(err, types.ErrPermissionDenied):
		return http.StatusForbidden, "You do not have permission to do that."
	case errors.Is(err, types.ErrValidation):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, types.ErrBackendUnavailable):
		return http.StatusServiceUnavailable, "The service is temporarily unavailable. Please try again."
	default:
		return http.StatusInternalServerError, "Something went wrong. Please try again."
	}
}

func (s *Service) internalServerError(w http.ResponseWriter) {
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
