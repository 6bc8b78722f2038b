package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"lifeshare/internal"
	"lifeshare/internal/auth"
	"lifeshare/internal/directory"
	"lifeshare/pkg/types"
)

func (s *Service) handleGetLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	session := sessionFromContext(ctx)
	if session.IsAuthenticated() {
		s.logger.WithField("user_id", session.UserID).Info("user is already logged in, redirecting")
		http.Redirect(w, r, directory.LandingPath(directory.ViewFor(session, profileFromContext(ctx))), http.StatusSeeOther)
		return
	}

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "Log In"},
		Email:        strings.TrimSpace(r.URL.Query().Get("email")),
		Error:        strings.TrimSpace(r.URL.Query().Get("error")),
	}
	if r.URL.Query().Get("confirmed") == "true" {
		data.Message = "Your account is confirmed. You can log in now."
	}

	s.render(w, r, http.StatusOK, "page.login", data)
}

func (s *Service) handlePostLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	data := &types.LoginPageData{
		BasePageData: types.BasePageData{Title: "Log In"},
		Email:        email,
	}

	token, err := s.auth.Login(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, types.ErrUserNotConfirmed):
			v := url.Values{}
			v.Set("email", email)
			http.Redirect(w, r, "/register/confirm?"+v.Encode(), http.StatusSeeOther)
		case errors.Is(err, types.ErrInvalidCredentials):
			data.Error = "Invalid email or password."
			s.render(w, r, http.StatusUnauthorized, "page.login", data)
		default:
			s.logger.WithError(err).Error("failed to log in user")
			data.Error = "Unable to log in right now. Please try again."
			s.render(w, r, http.StatusServiceUnavailable, "page.login", data)
		}
		return
	}

	session, err := s.verifier.Verify(ctx, token.AccessToken)
	if err != nil {
		s.logger.WithError(err).Error("failed to verify freshly issued access token")
		s.renderError(w, r, err)
		return
	}

	profile, err := s.ensureProfile(ctx, session)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", session.UserID).Error("failed to load profile on login")
		s.renderError(w, r, err)
		return
	}
	session.Role = profile.Role

	if err := s.setAccessTokenCookie(w, token); err != nil {
		s.logger.WithError(err).Error("failed to encrypt access token")
		s.internalServerError(w)
		return
	}

	s.logger.WithField("user_id", session.UserID).Info("user logged in")

	// Check to see if this login attempt was the result of an unauthed redirect
	if redirectCookie, err := r.Cookie(internal.COOKIE_REDIRECT_NAME); err == nil && safeRedirectPath(redirectCookie.Value) {
		s.clearRedirectCookie(w)
		http.Redirect(w, r, redirectCookie.Value, http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, directory.LandingPath(directory.ViewFor(session, profile)), http.StatusSeeOther)
}

func (s *Service) handlePostLogout(w http.ResponseWriter, r *http.Request) {
	if accessToken, ok := s.accessToken(r); ok {
		if err := s.auth.Logout(r.Context(), accessToken); err != nil {
			s.logger.WithError(err).Warn("failed to revoke access token")
		}
	}

	s.clearAccessTokenCookie(w)
	s.redirectWithNotice(w, r, "/", "You have been logged out.")
}

// ensureProfile returns the directory record of an authenticated user,
// creating it when the account exists at the identity provider only.
func (s *Service) ensureProfile(ctx context.Context, session types.Session) (*types.DonorProfile, error) {
	profile, err := s.directory.Profile(ctx, session.UserID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, types.ErrUserNotFound) {
		return nil, err
	}

	user := &types.DonorProfile{ID: session.UserID}
	if session.Email != "" {
		email := session.Email
		user.Email = &email
	}
	if _, err := s.directory.CreateUser(ctx, user); err != nil && !errors.Is(err, types.ErrUserExists) {
		return nil, err
	}

	return s.directory.Profile(ctx, session.UserID)
}

func (s *Service) accessToken(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(internal.COOKIE_ACCESS_TOKEN_NAME)
	if err != nil {
		return "", false
	}

	var accessToken string
	if err := s.cookie.Decode(internal.COOKIE_ACCESS_TOKEN_NAME, cookie.Value, &accessToken); err != nil {
		s.logger.WithError(err).Debug("failed to decrypt access token")
		return "", false
	}
	return accessToken, accessToken != ""
}

func (s *Service) setAccessTokenCookie(w http.ResponseWriter, token *auth.Token) error {
	encryptedToken, err := s.cookie.Encode(internal.COOKIE_ACCESS_TOKEN_NAME, token.AccessToken)
	if err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    encryptedToken,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   token.ExpiresIn,
		Path:     "/",
	})
	return nil
}

func (s *Service) clearAccessTokenCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_ACCESS_TOKEN_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

func (s *Service) setRedirectCookie(w http.ResponseWriter, path string, age time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_REDIRECT_NAME,
		Value:    path,
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(age.Seconds()),
	})
}

func (s *Service) clearRedirectCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     internal.COOKIE_REDIRECT_NAME,
		Value:    "",
		HttpOnly: true,
		Secure:   s.config.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})
}

// safeRedirectPath accepts local absolute paths only.
func safeRedirectPath(path string) bool {
	return strings.HasPrefix(path, "/") && !strings.HasPrefix(path, "//")
}
