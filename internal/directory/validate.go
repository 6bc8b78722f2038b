package directory

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"lifeshare/internal/donor"
	"lifeshare/pkg/types"
)

const (
	MinDonorAge = 18
	MaxDonorAge = 65

	maxQuoteLength = 500
)

var (
	hasUpperReg  = regexp.MustCompile(`[A-Z]`)
	hasLowerReg  = regexp.MustCompile(`[a-z]`)
	hasDigitReg  = regexp.MustCompile(`[0-9]`)
	hasSymbolReg = regexp.MustCompile(`[^A-Za-z0-9]`)

	phoneReg = regexp.MustCompile(`^\+?[0-9০-৯][0-9০-৯ \-]{5,19}$`)
)

// ValidateProfileForm checks the donor form and converts it into a full
// profile update. now bounds the last donation date.
func ValidateProfileForm(form types.ProfileForm, now time.Time) (types.ProfileUpdate, error) {
	errs := types.FieldErrors{}

	fullName := strings.TrimSpace(form.FullName)
	if fullName == "" {
		errs.Add("full_name", "Full name is required.")
	}

	age, err := strconv.Atoi(strings.TrimSpace(form.Age))
	switch {
	case strings.TrimSpace(form.Age) == "":
		errs.Add("age", "Age is required.")
	case err != nil:
		errs.Add("age", "Enter your age as a number.")
	case age < MinDonorAge || age > MaxDonorAge:
		errs.Add("age", "Donors must be between 18 and 65 years old.")
	}

	phone := strings.TrimSpace(form.Phone)
	if phone == "" {
		errs.Add("phone", "Phone number is required.")
	} else if !phoneReg.MatchString(phone) {
		errs.Add("phone", "Enter a valid phone number.")
	}

	group := types.BloodGroup(strings.TrimSpace(form.BloodGroup))
	if group == "" {
		errs.Add("blood_group", "Blood group is required.")
	} else if !group.Valid() {
		errs.Add("blood_group", "Select a valid blood group.")
	}

	district := strings.TrimSpace(form.District)
	if district == "" {
		errs.Add("district", "District is required.")
	}

	city := strings.TrimSpace(form.City)
	if city == "" {
		errs.Add("city", "City is required.")
	}

	lastDonate, err := donor.ParseDonationDate(form.LastDonateDate)
	if err != nil {
		errs.Add("last_donate_date", "Enter a valid date.")
	} else if donor.InFuture(lastDonate, now) {
		errs.Add("last_donate_date", "Last donation date cannot be in the future.")
	}

	if err := errs.OrNil(); err != nil {
		return types.ProfileUpdate{}, err
	}

	return types.ProfileUpdate{
		FullName:       &fullName,
		Age:            &age,
		Phone:          &phone,
		City:           &city,
		District:       &district,
		BloodGroup:     &group,
		LastDonateDate: &lastDonate,
	}, nil
}

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

func ValidatePhoto(photo *types.Photo) error {
	if len(photo.Body) == 0 {
		return &types.ValidationError{Field: "profile_photo", Message: "The selected photo is empty."}
	}
	if !allowedPhotoTypes[photo.ContentType] {
		return &types.ValidationError{Field: "profile_photo", Message: "Upload a JPEG, PNG, WebP or GIF image."}
	}
	return nil
}

func ValidateSiteConfigForm(form types.SiteConfigForm) (types.SiteConfigUpdate, error) {
	errs := types.FieldErrors{}

	quote := strings.TrimSpace(form.HeroQuote)
	if quote == "" {
		errs.Add("hero_quote", "Hero quote is required.")
	} else if utf8.RuneCountInString(quote) > maxQuoteLength {
		errs.Add("hero_quote", "Hero quote must be 500 characters or fewer.")
	}

	number := strings.TrimSpace(form.WhatsAppNumber)
	if number == "" {
		errs.Add("whatsapp_number", "WhatsApp number is required.")
	} else if !phoneReg.MatchString(number) {
		errs.Add("whatsapp_number", "Enter a valid phone number.")
	}

	if err := errs.OrNil(); err != nil {
		return types.SiteConfigUpdate{}, err
	}

	return types.SiteConfigUpdate{HeroQuote: &quote, WhatsAppNumber: &number}, nil
}

// ValidateRegisterInput checks the sign-up form before it reaches the
// identity provider.
func ValidateRegisterInput(email, password, confirmPassword string) types.FieldErrors {
	errs := types.FieldErrors{}

	email = strings.TrimSpace(email)
	if email == "" {
		errs["email"] = "Email is required."
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "Enter a valid email address."
	}

	if password != confirmPassword {
		errs["confirm_password"] = "Passwords do not match."
	}

	hasUpper := hasUpperReg.MatchString(password)
	hasLower := hasLowerReg.MatchString(password)
	hasDigit := hasDigitReg.MatchString(password)
	hasSymbol := hasSymbolReg.MatchString(password)

	if len(password) < 12 || !hasUpper || !hasLower || !hasDigit || !hasSymbol {
		errs["password"] = "Password must be at least 12 characters and include uppercase, lowercase, number, and symbol."
	}

	return errs
}
