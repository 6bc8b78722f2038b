package server

import (
	"errors"
	"net/http"
	"strings"

	"lifeshare/pkg/types"
)

const (
	adminTabDonors = "donors"
	adminTabConfig = "config"
)

func (s *Service) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	tab := r.URL.Query().Get("tab")
	if tab != adminTabConfig {
		tab = adminTabDonors
	}

	data, err := s.adminPageData(r, tab)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	data.Notice = strings.TrimSpace(r.URL.Query().Get("notice"))
	data.Error = strings.TrimSpace(r.URL.Query().Get("error"))

	s.render(w, r, http.StatusOK, "page.admin", data)
}

func (s *Service) adminPageData(r *http.Request, tab string) (*types.AdminPageData, error) {
	overview, err := s.directory.AdminOverview(r.Context(), sessionFromContext(r.Context()))
	if err != nil {
		return nil, err
	}

	cards := s.donorCards(overview.Donors)
	return &types.AdminPageData{
		BasePageData: types.BasePageData{Title: "Admin"},
		Tab:          tab,
		Donors:       cards,
		Config:       overview.Config,
		Total:        len(cards),
		FieldErrors:  map[string]string{},
	}, nil
}

func (s *Service) handlePostAdminConfig(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		s.redirectWithError(w, r, "/admin?tab=config", "Invalid form payload.")
		return
	}

	var form types.SiteConfigForm
	if err := decoder.Decode(&form, r.PostForm); err != nil {
		s.redirectWithError(w, r, "/admin?tab=config", "Invalid form payload.")
		return
	}

	err := s.directory.UpdateSiteConfig(ctx, sessionFromContext(ctx), form)
	if err == nil {
		s.redirectWithNotice(w, r, "/admin?tab=config", "Site settings saved.")
		return
	}

	var fieldErrs types.FieldErrors
	if !errors.As(err, &fieldErrs) {
		s.renderError(w, r, err)
		return
	}

	data, loadErr := s.adminPageData(r, adminTabConfig)
	if loadErr != nil {
		s.renderError(w, r, loadErr)
		return
	}
	// show what the admin typed, not the stored values
	data.Config = &types.SiteConfig{HeroQuote: form.HeroQuote, WhatsAppNumber: form.WhatsAppNumber}
	data.FieldErrors = fieldErrs
	data.Error = "Please fix the highlighted fields."

	s.render(w, r, http.StatusUnprocessableEntity, "page.admin", data)
}

func (s *Service) handlePostAdminPromote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.PathValue("id")

	if err := s.directory.PromoteUser(ctx, sessionFromContext(ctx), userID); err != nil {
		s.adminActionFailed(w, r, err, "Could not promote that user.")
		return
	}

	s.redirectWithNotice(w, r, "/admin", "User promoted to admin.")
}

func (s *Service) handlePostAdminDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.PathValue("id")

	if err := s.directory.DeleteUser(ctx, sessionFromContext(ctx), userID); err != nil {
		s.adminActionFailed(w, r, err, "Could not delete that donor.")
		return
	}

	s.redirectWithNotice(w, r, "/admin", "Donor deleted.")
}

func (s *Service) handleGetAdminEdit(w http.ResponseWriter, r *http.Request) {
	target, err := s.adminEditTarget(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.render(w, r, http.StatusOK, "page.profile", s.profilePageData(r, target, types.ProfileFormFrom(target.profile)))
}

func (s *Service) handlePostAdminEdit(w http.ResponseWriter, r *http.Request) {
	target, err := s.adminEditTarget(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	s.submitProfile(w, r, target)
}

func (s *Service) adminEditTarget(r *http.Request) (profileTarget, error) {
	ctx := r.Context()
	userID := r.PathValue("id")

	profile, err := s.directory.Profile(ctx, userID)
	if err != nil {
		return profileTarget{}, err
	}

	name := profile.FullName
	if name == "" {
		name = "donor"
	}

	return profileTarget{
		profile:     profile,
		action:      "/admin/donors/" + profile.ID + "/edit",
		heading:     "Edit " + name,
		successPath: "/admin",
	}, nil
}

// adminActionFailed reports user facing failures on the admin page and
// anything else as a status page.
func (s *Service) adminActionFailed(w http.ResponseWriter, r *http.Request, err error, msg string) {
	switch {
	case errors.Is(err, types.ErrNotFound):
		s.redirectWithError(w, r, "/admin", "That user no longer exists.")
	case errors.Is(err, types.ErrValidation):
		s.redirectWithError(w, r, "/admin", err.Error())
	case errors.Is(err, types.ErrPermissionDenied):
		s.renderError(w, r, err)
	default:
		s.logger.WithError(err).WithField("path", r.URL.Path).Error("admin action failed")
		s.redirectWithError(w, r, "/admin", msg)
	}
}
