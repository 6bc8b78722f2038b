package directory

import "lifeshare/pkg/types"

// ViewState selects which screens and actions a visitor gets.
type ViewState int

const (
	ViewAnonymous ViewState = iota
	ViewIncompleteProfile
	ViewDonor
	ViewAdmin
)

func (v ViewState) String() string {
	switch v {
	case ViewAnonymous:
		return "anonymous"
	case ViewIncompleteProfile:
		return "incomplete_profile"
	case ViewDonor:
		return "donor"
	case ViewAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// ViewFor derives the view state from the session and the stored profile.
// Admins are admins whether or not they filled in the donor form.
func ViewFor(session types.Session, profile *types.DonorProfile) ViewState {
	if !session.IsAuthenticated() {
		return ViewAnonymous
	}
	if session.IsAdmin() {
		return ViewAdmin
	}
	if !profile.IsComplete() {
		return ViewIncompleteProfile
	}
	return ViewDonor
}

// LandingPath is where a visitor goes after signing in.
func LandingPath(v ViewState) string {
	switch v {
	case ViewAdmin:
		return "/admin"
	case ViewIncompleteProfile:
		return "/profile"
	default:
		return "/"
	}
}
