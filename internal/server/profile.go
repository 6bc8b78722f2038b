package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lifeshare/internal/directory"
	"lifeshare/pkg/types"
)

// profileTarget describes whose donor form is being edited and where the
// form posts to.
type profileTarget struct {
	profile     *types.DonorProfile
	action      string
	heading     string
	successPath string
}

func (s *Service) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile := profileFromContext(ctx)
	if profile == nil {
		var err error
		profile, err = s.ensureProfile(ctx, sessionFromContext(ctx))
		if err != nil {
			s.renderError(w, r, err)
			return
		}
	}

	target := s.selfTarget(profile)
	data := s.profilePageData(r, target, types.ProfileFormFrom(profile))
	data.Notice = strings.TrimSpace(r.URL.Query().Get("notice"))
	data.Error = strings.TrimSpace(r.URL.Query().Get("error"))

	s.render(w, r, http.StatusOK, "page.profile", data)
}

func (s *Service) handlePostProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile := profileFromContext(ctx)
	if profile == nil {
		var err error
		profile, err = s.ensureProfile(ctx, sessionFromContext(ctx))
		if err != nil {
			s.renderError(w, r, err)
			return
		}
	}

	s.submitProfile(w, r, s.selfTarget(profile))
}

func (s *Service) selfTarget(profile *types.DonorProfile) profileTarget {
	heading := "Update your donor profile"
	if !profile.IsComplete() {
		heading = "Complete your donor profile"
	}

	return profileTarget{
		profile:     profile,
		action:      "/profile",
		heading:     heading,
		successPath: "/",
	}
}

// submitProfile handles a donor form post for target, from the donor
// themselves or from an admin.
func (s *Service) submitProfile(w http.ResponseWriter, r *http.Request, target profileTarget) {
	ctx := r.Context()
	session := sessionFromContext(ctx)

	form, photo, err := s.readProfileForm(w, r)
	if err == nil {
		var saved *types.DonorProfile
		saved, err = s.directory.SubmitProfile(ctx, session, target.profile.ID, form, photo)
		if err == nil {
			successPath := target.successPath
			if saved.ID == session.UserID {
				successPath = directory.LandingPath(directory.ViewFor(session, saved))
			}
			s.redirectWithNotice(w, r, successPath, "Profile saved.")
			return
		}
	}

	if !errors.Is(err, types.ErrValidation) {
		s.renderError(w, r, err)
		return
	}

	data := s.profilePageData(r, target, form)
	data.Error = "Please fix the highlighted fields."

	var fieldErrs types.FieldErrors
	var validationErr *types.ValidationError
	switch {
	case errors.As(err, &fieldErrs):
		data.FieldErrors = fieldErrs
	case errors.As(err, &validationErr) && validationErr.Field != "":
		data.FieldErrors = map[string]string{validationErr.Field: validationErr.Message}
	default:
		data.Error = err.Error()
	}

	s.render(w, r, http.StatusUnprocessableEntity, "page.profile", data)
}

func (s *Service) profilePageData(r *http.Request, target profileTarget, form types.ProfileForm) *types.ProfilePageData {
	data := &types.ProfilePageData{
		BasePageData: types.BasePageData{Title: "Donor Profile"},
		Action:       target.action,
		Heading:      target.heading,
		Form:         form,
		FieldErrors:  map[string]string{},
		BloodGroups:  types.AllBloodGroups,
		Districts:    types.Districts,
		Cities:       types.Cities,
	}
	if target.profile.ProfilePhoto != nil {
		data.PhotoURL = *target.profile.ProfilePhoto
	}
	if result, err := s.directory.Eligibility(target.profile); err == nil {
		data.Eligibility = &result
	}
	return data
}

// readProfileForm decodes the donor form and the optional photo. Plain
// urlencoded posts are accepted too.
func (s *Service) readProfileForm(w http.ResponseWriter, r *http.Request) (types.ProfileForm, *types.Photo, error) {
	var form types.ProfileForm
	maxSize := s.config.MaxUploadSizeBytes

	r.Body = http.MaxBytesReader(w, r.Body, maxSize+(1<<20))
	if err := r.ParseMultipartForm(maxSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return form, nil, photoTooLarge(maxSize)
		}
		return form, nil, &types.ValidationError{Message: "Could not read the submitted form."}
	}

	if err := decoder.Decode(&form, r.PostForm); err != nil {
		return form, nil, &types.ValidationError{Message: "Could not read the submitted form."}
	}

	file, header, err := r.FormFile("profile_photo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return form, nil, nil
		}
		return form, nil, fmt.Errorf("read profile photo: %w", err)
	}
	defer file.Close()

	if header.Size > maxSize {
		return form, nil, photoTooLarge(maxSize)
	}

	body, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return form, nil, fmt.Errorf("read profile photo: %w", err)
	}
	if int64(len(body)) > maxSize {
		return form, nil, photoTooLarge(maxSize)
	}

	return form, &types.Photo{
		ContentType: http.DetectContentType(body),
		Size:        int64(len(body)),
		Body:        body,
	}, nil
}

func photoTooLarge(maxSize int64) error {
	return &types.ValidationError{
		Field:   "profile_photo",
		Message: fmt.Sprintf("Photo must be %d MB or smaller.", maxSize>>20),
	}
}
