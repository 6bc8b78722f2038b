package donor

import "lifeshare/pkg/types"

// Filter returns the donors matching every non-empty field of c, in input
// order. Matching is exact and case sensitive. Empty criteria return donors
// unchanged.
func Filter(donors []*types.DonorProfile, c types.FilterCriteria) []*types.DonorProfile {
	if c.IsEmpty() {
		return donors
	}

	out := make([]*types.DonorProfile, 0, len(donors))
	for _, d := range donors {
		if Matches(d, c) {
			out = append(out, d)
		}
	}
	return out
}

func Matches(d *types.DonorProfile, c types.FilterCriteria) bool {
	if d == nil {
		return false
	}
	if c.District != "" && d.District != c.District {
		return false
	}
	if c.City != "" && d.City != c.City {
		return false
	}
	if c.BloodGroup != "" && string(d.BloodGroup) != c.BloodGroup {
		return false
	}
	return true
}
