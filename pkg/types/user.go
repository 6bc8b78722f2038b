package types

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleDonor Role = "donor"
)

type BloodGroup string

const (
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
)

var AllBloodGroups = []BloodGroup{
	BloodGroupAPos, BloodGroupANeg,
	BloodGroupBPos, BloodGroupBNeg,
	BloodGroupABPos, BloodGroupABNeg,
	BloodGroupOPos, BloodGroupONeg,
}

func (b BloodGroup) Valid() bool {
	for _, g := range AllBloodGroups {
		if b == g {
			return true
		}
	}
	return false
}

// DonorProfile is a registered user of the directory. Only ID, Role, Email and
// CreatedAt are set right after registration; the remaining fields arrive with
// the donor form.
type DonorProfile struct {
	ID             string     `db:"id"`
	Role           Role       `db:"role"`
	FullName       string     `db:"full_name"`
	Age            int        `db:"age"`
	Phone          string     `db:"phone"`
	City           string     `db:"city"`
	District       string     `db:"district"`
	BloodGroup     BloodGroup `db:"blood_group"`
	LastDonateDate *time.Time `db:"last_donate_date"`
	ProfilePhoto   *string    `db:"profile_photo"`
	Email          *string    `db:"email"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

func (p *DonorProfile) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

// IsComplete reports whether the donor form has been submitted.
func (p *DonorProfile) IsComplete() bool {
	if p == nil {
		return false
	}

	return strings.TrimSpace(p.FullName) != "" &&
		p.BloodGroup != "" &&
		strings.TrimSpace(p.District) != "" &&
		strings.TrimSpace(p.City) != "" &&
		p.LastDonateDate != nil && !p.LastDonateDate.IsZero()
}

func (p *DonorProfile) Initial() string {
	name := strings.TrimSpace(p.FullName)
	if name == "" {
		return "?"
	}
	return string([]rune(name)[0])
}

// ProfileUpdate is a partial write. Nil fields are left untouched.
type ProfileUpdate struct {
	Role           *Role
	FullName       *string
	Age            *int
	Phone          *string
	City           *string
	District       *string
	BloodGroup     *BloodGroup
	LastDonateDate *time.Time
	ProfilePhoto   *string
	Email          *string
}

func (u ProfileUpdate) Columns() map[string]any {
	out := make(map[string]any)
	if u.Role != nil {
		out["role"] = *u.Role
	}
	if u.FullName != nil {
		out["full_name"] = *u.FullName
	}
	if u.Age != nil {
		out["age"] = *u.Age
	}
	if u.Phone != nil {
		out["phone"] = *u.Phone
	}
	if u.City != nil {
		out["city"] = *u.City
	}
	if u.District != nil {
		out["district"] = *u.District
	}
	if u.BloodGroup != nil {
		out["blood_group"] = *u.BloodGroup
	}
	if u.LastDonateDate != nil {
		out["last_donate_date"] = *u.LastDonateDate
	}
	if u.ProfilePhoto != nil {
		out["profile_photo"] = *u.ProfilePhoto
	}
	if u.Email != nil {
		out["email"] = *u.Email
	}
	return out
}

// Apply copies the set fields of u onto p.
func (u ProfileUpdate) Apply(p *DonorProfile) {
	if u.Role != nil {
		p.Role = *u.Role
	}
	if u.FullName != nil {
		p.FullName = *u.FullName
	}
	if u.Age != nil {
		p.Age = *u.Age
	}
	if u.Phone != nil {
		p.Phone = *u.Phone
	}
	if u.City != nil {
		p.City = *u.City
	}
	if u.District != nil {
		p.District = *u.District
	}
	if u.BloodGroup != nil {
		p.BloodGroup = *u.BloodGroup
	}
	if u.LastDonateDate != nil {
		t := *u.LastDonateDate
		p.LastDonateDate = &t
	}
	if u.ProfilePhoto != nil {
		photo := *u.ProfilePhoto
		p.ProfilePhoto = &photo
	}
	if u.Email != nil {
		email := *u.Email
		p.Email = &email
	}
}

// FilterCriteria narrows the donor listing. District is the region filter and
// City the locality filter; an empty field places no constraint.
type FilterCriteria struct {
	District   string `form:"district"`
	City       string `form:"city"`
	BloodGroup string `form:"blood_group"`
}

func (c FilterCriteria) IsEmpty() bool {
	return c.District == "" && c.City == "" && c.BloodGroup == ""
}

type EligibilityResult struct {
	Eligible      bool
	RemainingDays int
}

// Session is the caller identity handed to every directory operation. The zero
// value is an anonymous visitor.
type Session struct {
	UserID string
	Email  string
	Role   Role
}

func (s Session) IsAuthenticated() bool {
	return s.UserID != ""
}

func (s Session) IsAdmin() bool {
	return s.IsAuthenticated() && s.Role == RoleAdmin
}
