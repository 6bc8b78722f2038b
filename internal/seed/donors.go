package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"lifeshare/internal/utils"
	"lifeshare/pkg/types"
)

// DonorRepository is what seeding needs from a user store.
type DonorRepository interface {
	User(ctx context.Context, userID string) (*types.DonorProfile, error)
	Create(ctx context.Context, user *types.DonorProfile) error
	Update(ctx context.Context, userID string, update types.ProfileUpdate) error
}

type ConfigRepository interface {
	SiteConfig(ctx context.Context) (*types.SiteConfig, error)
}

type fakeDonorSeed struct {
	ID         string
	Email      string
	FullName   string
	Age        int
	Phone      string
	District   string
	City       string
	BloodGroup types.BloodGroup
	// days since the last donation, relative to the seeding time
	DaysAgo int
}

var fakeDonors = []fakeDonorSeed{
	{ID: "seed-donor-01", Email: "rahim.uddin+seed1@example.com", FullName: "Rahim Uddin", Age: 29, Phone: "01711000001", District: "ঢাকা", City: "ঢাকা", BloodGroup: types.BloodGroupAPos, DaysAgo: 120},
	{ID: "seed-donor-02", Email: "nusrat.jahan+seed2@example.com", FullName: "Nusrat Jahan", Age: 24, Phone: "01711000002", District: "ঢাকা", City: "ঢাকা", BloodGroup: types.BloodGroupOPos, DaysAgo: 30},
	{ID: "seed-donor-03", Email: "karim.mia+seed3@example.com", FullName: "Karim Mia", Age: 41, Phone: "01711000003", District: "সিলেট", City: "সিলেট", BloodGroup: types.BloodGroupONeg, DaysAgo: 90},
	{ID: "seed-donor-04", Email: "farzana.akter+seed4@example.com", FullName: "Farzana Akter", Age: 33, Phone: "01711000004", District: "চট্টগ্রাম", City: "চট্টগ্রাম", BloodGroup: types.BloodGroupBPos, DaysAgo: 200},
	{ID: "seed-donor-05", Email: "tanvir.hasan+seed5@example.com", FullName: "Tanvir Hasan", Age: 37, Phone: "01711000005", District: "রাজশাহী", City: "রাজশাহী", BloodGroup: types.BloodGroupABPos, DaysAgo: 60},
	{ID: "seed-donor-06", Email: "sumaiya.islam+seed6@example.com", FullName: "Sumaiya Islam", Age: 22, Phone: "01711000006", District: "খুলনা", City: "খুলনা", BloodGroup: types.BloodGroupANeg, DaysAgo: 89},
	{ID: "seed-donor-07", Email: "arif.hossain+seed7@example.com", FullName: "Arif Hossain", Age: 45, Phone: "01711000007", District: "বরিশাল", City: "বরিশাল", BloodGroup: types.BloodGroupBNeg, DaysAgo: 365},
	{ID: "seed-donor-08", Email: "mitu.rahman+seed8@example.com", FullName: "Mitu Rahman", Age: 27, Phone: "01711000008", District: "ময়মনসিংহ", City: "ময়মনসিংহ", BloodGroup: types.BloodGroupABNeg, DaysAgo: 10},
}

// Donors returns the demo donor profiles with donation dates relative to now.
func Donors(now time.Time) []*types.DonorProfile {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	out := make([]*types.DonorProfile, 0, len(fakeDonors))
	for _, d := range fakeDonors {
		out = append(out, &types.DonorProfile{
			ID:             d.ID,
			Role:           types.RoleDonor,
			FullName:       d.FullName,
			Age:            d.Age,
			Phone:          d.Phone,
			City:           d.City,
			District:       d.District,
			BloodGroup:     d.BloodGroup,
			LastDonateDate: utils.TimePtr(today.AddDate(0, 0, -d.DaysAgo)),
			Email:          utils.StringPtr(d.Email),
		})
	}
	return out
}

// SeedDonors upserts the demo donors and returns how many were written.
// Existing records keep their role.
func SeedDonors(ctx context.Context, repo DonorRepository, now time.Time) (int, error) {
	seeded := 0
	for _, donor := range Donors(now) {
		_, err := repo.User(ctx, donor.ID)
		if err != nil {
			if !errors.Is(err, types.ErrUserNotFound) {
				return seeded, fmt.Errorf("failed to fetch fake donor %s: %w", donor.ID, err)
			}

			if err := repo.Create(ctx, donor); err != nil {
				return seeded, fmt.Errorf("failed to create fake donor %s: %w", donor.ID, err)
			}
			seeded++
			continue
		}

		update := types.ProfileUpdate{
			FullName:       &donor.FullName,
			Age:            &donor.Age,
			Phone:          &donor.Phone,
			City:           &donor.City,
			District:       &donor.District,
			BloodGroup:     &donor.BloodGroup,
			LastDonateDate: donor.LastDonateDate,
			Email:          donor.Email,
		}
		if err := repo.Update(ctx, donor.ID, update); err != nil {
			return seeded, fmt.Errorf("failed to update fake donor %s: %w", donor.ID, err)
		}
		seeded++
	}

	return seeded, nil
}

// SeedSiteConfig makes sure the site configuration row exists.
func SeedSiteConfig(ctx context.Context, repo ConfigRepository) (*types.SiteConfig, error) {
	config, err := repo.SiteConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load site config: %w", err)
	}
	return config, nil
}
