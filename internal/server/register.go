package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"lifeshare/internal/directory"
	"lifeshare/pkg/types"
)

func (s *Service) handleGetRegister(w http.ResponseWriter, r *http.Request) {
	if sessionFromContext(r.Context()).IsAuthenticated() {
		s.logger.Info("user is already logged in, redirecting to home")
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	data := &types.RegisterPageData{
		BasePageData: types.BasePageData{Title: "Register"},
	}

	s.render(w, r, http.StatusOK, "page.register", data)
}

func (s *Service) handlePostRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	confirmPassword := r.FormValue("confirm_password")

	data := &types.RegisterPageData{
		BasePageData: types.BasePageData{Title: "Create Account"},
		Email:        email,
	}

	data.FieldErrors = directory.ValidateRegisterInput(email, password, confirmPassword)
	if len(data.FieldErrors) > 0 {
		s.logger.WithField("field_errors", data.FieldErrors).Info("validation errors during registration")

		data.Error = "Please fix the highlighted fields."
		s.render(w, r, http.StatusUnprocessableEntity, "page.register", data)
		return
	}

	userID, err := s.auth.Register(ctx, email, password)
	if err != nil {
		s.logger.WithError(err).Error("failed to signup user")

		status := http.StatusUnprocessableEntity
		var fieldErrs types.FieldErrors
		var validationErr *types.ValidationError
		switch {
		case errors.As(err, &fieldErrs):
			data.FieldErrors = fieldErrs
			data.Error = "Please fix the highlighted fields."
		case errors.As(err, &validationErr):
			data.Error = validationErr.Message
		default:
			status = http.StatusServiceUnavailable
			data.Error = "Unable to create account right now. Please try again."
		}

		s.render(w, r, status, "page.register", data)
		return
	}

	_, err = s.directory.CreateUser(ctx, &types.DonorProfile{ID: userID, Email: &email})
	if err != nil && !errors.Is(err, types.ErrUserExists) {
		// not fatal: ensureProfile creates the record on the first login
		s.logger.WithError(err).WithField("user_id", userID).Error("failed to create directory record after signup")
	}

	v := url.Values{}
	v.Set("email", email)

	http.Redirect(w, r, fmt.Sprintf("/register/confirm?%s", v.Encode()), http.StatusSeeOther)
}

func (s *Service) handleGetRegisterConfirm(w http.ResponseWriter, r *http.Request) {
	data := &types.ConfirmRegisterPageData{
		BasePageData: types.BasePageData{Title: "Confirm Your Account"},
		Email:        strings.TrimSpace(r.URL.Query().Get("email")),
		Message:      "We sent a confirmation code to your email address.",
	}

	s.render(w, r, http.StatusOK, "page.register.confirm", data)
}

func (s *Service) handlePostRegisterConfirm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	email := strings.TrimSpace(r.FormValue("email"))
	code := strings.TrimSpace(r.FormValue("code"))

	data := &types.ConfirmRegisterPageData{
		BasePageData: types.BasePageData{Title: "Confirm Your Account"},
		Email:        email,
	}

	if err := s.auth.Confirm(ctx, email, code); err != nil {
		s.logger.WithError(err).Error("failed to confirm user signup")

		status := http.StatusUnprocessableEntity
		var validationErr *types.ValidationError
		if errors.As(err, &validationErr) {
			data.Error = validationErr.Message
		} else {
			status = http.StatusServiceUnavailable
			data.Error = "Unable to confirm account. Please try again."
		}

		s.render(w, r, status, "page.register.confirm", data)
		return
	}

	v := url.Values{}
	v.Set("confirmed", "true")
	v.Set("email", email)

	// Redirect to login after successful confirmation
	http.Redirect(w, r, "/login?"+v.Encode(), http.StatusSeeOther)
}
