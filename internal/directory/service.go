// Package directory is the operation boundary of the donor directory. Every
// call takes the caller's session explicitly, and admin-only operations are
// rejected here with types.ErrPermissionDenied whatever the UI shows.
package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifeshare/internal/donor"
	"lifeshare/pkg/types"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type UserStore interface {
	User(ctx context.Context, userID string) (*types.DonorProfile, error)
	ListDonors(ctx context.Context, criteria types.FilterCriteria) ([]*types.DonorProfile, error)
	Create(ctx context.Context, user *types.DonorProfile) error
	Update(ctx context.Context, userID string, update types.ProfileUpdate) error
	Delete(ctx context.Context, userID string) error
}

type ConfigStore interface {
	SiteConfig(ctx context.Context) (*types.SiteConfig, error)
	UpdateSiteConfig(ctx context.Context, update types.SiteConfigUpdate) error
}

type BlobStore interface {
	Upload(ctx context.Context, key string, photo *types.Photo) (string, error)
	Delete(ctx context.Context, key string) error
}

type Service struct {
	users  UserStore
	config ConfigStore
	blobs  BlobStore
	logger logrus.FieldLogger
	now    func() time.Time
}

func New(users UserStore, config ConfigStore, blobs BlobStore, logger logrus.FieldLogger) *Service {
	return &Service{
		users:  users,
		config: config,
		blobs:  blobs,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for eligibility and date validation.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

func (s *Service) Now() time.Time {
	return s.now()
}

// PhotoKey is the blob key of a user's profile photo.
func PhotoKey(userID string) string {
	return "profiles/" + userID
}

// ListDonors returns donors matching criteria in directory order.
func (s *Service) ListDonors(ctx context.Context, criteria types.FilterCriteria) ([]*types.DonorProfile, error) {
	donors, err := s.users.ListDonors(ctx, criteria)
	if err != nil {
		return nil, err
	}
	return donor.Filter(donors, criteria), nil
}

func (s *Service) Profile(ctx context.Context, userID string) (*types.DonorProfile, error) {
	if userID == "" {
		return nil, types.ErrUserNotFound
	}
	return s.users.User(ctx, userID)
}

// CreateUser records a freshly registered account and returns its id. The
// role defaults to donor.
func (s *Service) CreateUser(ctx context.Context, user *types.DonorProfile) (string, error) {
	if user.Role == "" {
		user.Role = types.RoleDonor
	}
	if err := s.users.Create(ctx, user); err != nil {
		return "", err
	}

	s.logger.WithField("user_id", user.ID).Info("user created")
	return user.ID, nil
}

// UpdateProfile writes a partial update. Users may edit their own profile;
// admins may edit anyone's. Only admins may change a role.
func (s *Service) UpdateProfile(ctx context.Context, session types.Session, userID string, update types.ProfileUpdate) error {
	if err := authorizeEdit(session, userID); err != nil {
		return err
	}
	if update.Role != nil && !session.IsAdmin() {
		return fmt.Errorf("change role of %s: %w", userID, types.ErrPermissionDenied)
	}

	return s.users.Update(ctx, userID, update)
}

// SubmitProfile validates the donor form and saves it for targetID, uploading
// photo first when one is given. It returns the saved profile.
func (s *Service) SubmitProfile(ctx context.Context, session types.Session, targetID string, form types.ProfileForm, photo *types.Photo) (*types.DonorProfile, error) {
	if err := authorizeEdit(session, targetID); err != nil {
		return nil, err
	}

	target, err := s.users.User(ctx, targetID)
	if err != nil {
		return nil, err
	}

	update, err := ValidateProfileForm(form, s.now())
	if err != nil {
		return nil, err
	}

	if photo != nil {
		if err := ValidatePhoto(photo); err != nil {
			return nil, err
		}

		url, err := s.blobs.Upload(ctx, PhotoKey(targetID), photo)
		if err != nil {
			return nil, err
		}
		update.ProfilePhoto = &url
	}

	// an admin filling in the donor form keeps the admin role
	if target.Role == "" {
		role := types.RoleDonor
		update.Role = &role
	}

	if err := s.users.Update(ctx, targetID, update); err != nil {
		// a previous photo lived under the same key and is already replaced
		if update.ProfilePhoto != nil && target.ProfilePhoto == nil {
			if delErr := s.blobs.Delete(ctx, PhotoKey(targetID)); delErr != nil {
				s.logger.WithError(delErr).WithField("user_id", targetID).Error("failed to remove orphaned profile photo")
			}
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":   targetID,
		"editor_id": session.UserID,
	}).Info("profile submitted")

	return s.users.User(ctx, targetID)
}

func (s *Service) PromoteUser(ctx context.Context, session types.Session, userID string) error {
	if !session.IsAdmin() {
		return fmt.Errorf("promote %s: %w", userID, types.ErrPermissionDenied)
	}

	target, err := s.users.User(ctx, userID)
	if err != nil {
		return err
	}
	if target.Role == types.RoleAdmin {
		return nil
	}

	role := types.RoleAdmin
	if err := s.users.Update(ctx, userID, types.ProfileUpdate{Role: &role}); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"admin_id": session.UserID,
	}).Info("user promoted to admin")
	return nil
}

// DeleteUser removes a user and their profile photo. The photo goes first; if
// that fails the record is kept.
func (s *Service) DeleteUser(ctx context.Context, session types.Session, userID string) error {
	if !session.IsAdmin() {
		return fmt.Errorf("delete %s: %w", userID, types.ErrPermissionDenied)
	}
	if userID == session.UserID {
		return &types.ValidationError{Message: "You cannot delete your own account."}
	}

	target, err := s.users.User(ctx, userID)
	if err != nil {
		return err
	}

	if target.ProfilePhoto != nil && *target.ProfilePhoto != "" {
		if err := s.blobs.Delete(ctx, PhotoKey(userID)); err != nil {
			return err
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  userID,
		"admin_id": session.UserID,
	}).Info("user deleted")
	return nil
}

func (s *Service) SiteConfig(ctx context.Context) (*types.SiteConfig, error) {
	return s.config.SiteConfig(ctx)
}

func (s *Service) UpdateSiteConfig(ctx context.Context, session types.Session, form types.SiteConfigForm) error {
	if !session.IsAdmin() {
		return fmt.Errorf("update site config: %w", types.ErrPermissionDenied)
	}

	update, err := ValidateSiteConfigForm(form)
	if err != nil {
		return err
	}

	if err := s.config.UpdateSiteConfig(ctx, update); err != nil {
		return err
	}

	s.logger.WithField("admin_id", session.UserID).Info("site config updated")
	return nil
}

type Overview struct {
	Donors []*types.DonorProfile
	Config *types.SiteConfig
}

// AdminOverview loads the donor list and the site configuration concurrently.
func (s *Service) AdminOverview(ctx context.Context, session types.Session) (*Overview, error) {
	if !session.IsAdmin() {
		return nil, fmt.Errorf("admin overview: %w", types.ErrPermissionDenied)
	}

	var out Overview
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		donors, err := s.users.ListDonors(gctx, types.FilterCriteria{})
		if err != nil {
			return err
		}
		out.Donors = donors
		return nil
	})

	g.Go(func() error {
		config, err := s.config.SiteConfig(gctx)
		if err != nil {
			return err
		}
		out.Config = config
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &out, nil
}

// Eligibility computes a profile's eligibility at the service clock.
func (s *Service) Eligibility(p *types.DonorProfile) (types.EligibilityResult, error) {
	return donor.ProfileEligibility(p, s.now())
}

// ResolveSession fills in the role of an authenticated session from the
// stored profile. A session whose profile is gone keeps no role.
func (s *Service) ResolveSession(ctx context.Context, session types.Session) (types.Session, *types.DonorProfile, error) {
	if !session.IsAuthenticated() {
		return session, nil, nil
	}

	profile, err := s.users.User(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, types.ErrUserNotFound) {
			session.Role = ""
			return session, nil, nil
		}
		return session, nil, err
	}

	session.Role = profile.Role
	return session, profile, nil
}

func authorizeEdit(session types.Session, userID string) error {
	if !session.IsAuthenticated() {
		return fmt.Errorf("edit %s: %w", userID, types.ErrPermissionDenied)
	}
	if session.UserID != userID && !session.IsAdmin() {
		return fmt.Errorf("edit %s: %w", userID, types.ErrPermissionDenied)
	}
	return nil
}
