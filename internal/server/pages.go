package server

import (
	"net/http"
	"strings"
	"time"

	"lifeshare/pkg/types"
)

func (s *Service) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	config, err := s.directory.SiteConfig(ctx)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	data := &types.HomePageData{
		BasePageData: types.BasePageData{Title: "LifeShare"},
		Notice:       strings.TrimSpace(r.URL.Query().Get("notice")),
		Error:        strings.TrimSpace(r.URL.Query().Get("error")),
		HeroQuote:    config.HeroQuote,
		WhatsAppLink: whatsAppLink(config.WhatsAppNumber),
	}

	s.render(w, r, http.StatusOK, "page.home", data)
}

func (s *Service) handleDonors(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var criteria types.FilterCriteria
	if err := decoder.Decode(&criteria, r.URL.Query()); err != nil {
		s.logger.WithError(err).Debug("failed to decode donor filters")
		s.renderError(w, r, &types.ValidationError{Message: "Invalid filter."})
		return
	}
	criteria.District = strings.TrimSpace(criteria.District)
	criteria.City = strings.TrimSpace(criteria.City)
	criteria.BloodGroup = strings.TrimSpace(criteria.BloodGroup)

	donors, err := s.directory.ListDonors(ctx, criteria)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	cards := s.donorCards(donors)

	data := &types.DonorsPageData{
		BasePageData: types.BasePageData{Title: "Find Donors"},
		Donors:       cards,
		Filters:      criteria,
		BloodGroups:  types.AllBloodGroups,
		Districts:    types.Districts,
		Cities:       types.Cities,
		Total:        len(cards),
		Notice:       strings.TrimSpace(r.URL.Query().Get("notice")),
		Error:        strings.TrimSpace(r.URL.Query().Get("error")),
	}

	s.render(w, r, http.StatusOK, "page.donors", data)
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// handleUpload serves photos kept by the in-process blob store.
func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/uploads/")

	photo, ok := s.uploads.Object(key)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", photo.ContentType)
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(photo.Body)
}

func (s *Service) donorCards(donors []*types.DonorProfile) []*types.DonorCard {
	cards := make([]*types.DonorCard, 0, len(donors))
	for _, d := range donors {
		cards = append(cards, s.donorCard(d))
	}
	return cards
}

func (s *Service) donorCard(d *types.DonorProfile) *types.DonorCard {
	card := &types.DonorCard{
		ID:          d.ID,
		FullName:    d.FullName,
		Initial:     d.Initial(),
		Age:         d.Age,
		Phone:       d.Phone,
		City:        d.City,
		District:    d.District,
		BloodGroup:  d.BloodGroup,
		Role:        d.Role,
		ContactLink: whatsAppLink(d.Phone),
	}
	if d.ProfilePhoto != nil {
		card.PhotoURL = *d.ProfilePhoto
	}
	if d.LastDonateDate != nil {
		card.LastDonateDate = d.LastDonateDate.Format(time.DateOnly)
	}

	if result, err := s.directory.Eligibility(d); err == nil {
		card.HasEligibility = true
		card.Eligible = result.Eligible
		card.RemainingDays = result.RemainingDays
	}

	return card
}

// whatsAppLink builds a wa.me chat link from a phone number, keeping digits
// only. Bengali digits are converted.
func whatsAppLink(number string) string {
	var digits strings.Builder
	for _, r := range number {
		switch {
		case r >= '0' && r <= '9':
			digits.WriteRune(r)
		case r >= '০' && r <= '৯':
			digits.WriteRune('0' + (r - '০'))
		}
	}

	if digits.Len() == 0 {
		return ""
	}
	return "https://wa.me/" + digits.String()
}
