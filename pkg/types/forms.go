package types

import (
	"strconv"
	"time"
)

// ProfileForm is the donor form payload. Age and LastDonateDate stay strings so
// bad input is reported as a field error rather than a decode failure.
type ProfileForm struct {
	FullName       string `form:"full_name"`
	Age            string `form:"age"`
	Phone          string `form:"phone"`
	City           string `form:"city"`
	District       string `form:"district"`
	BloodGroup     string `form:"blood_group"`
	LastDonateDate string `form:"last_donate_date"`
}

func ProfileFormFrom(p *DonorProfile) ProfileForm {
	if p == nil {
		return ProfileForm{}
	}

	f := ProfileForm{
		FullName:   p.FullName,
		Phone:      p.Phone,
		City:       p.City,
		District:   p.District,
		BloodGroup: string(p.BloodGroup),
	}
	if p.Age > 0 {
		f.Age = strconv.Itoa(p.Age)
	}
	if p.LastDonateDate != nil {
		f.LastDonateDate = p.LastDonateDate.Format(time.DateOnly)
	}
	return f
}

type SiteConfigForm struct {
	HeroQuote      string `form:"hero_quote"`
	WhatsAppNumber string `form:"whatsapp_number"`
}

// Photo is an uploaded profile picture.
type Photo struct {
	ContentType string
	Size        int64
	Body        []byte
}

// Districts and Cities are the selectable location values.
var (
	Districts = []string{"ঢাকা", "চট্টগ্রাম", "সিলেট", "রাজশাহী", "খুলনা", "বরিশাল", "রংপুর", "ময়মনসিংহ"}
	Cities    = []string{"ঢাকা", "চট্টগ্রাম", "সিলেট", "রাজশাহী", "খুলনা", "বরিশাল", "রংপুর", "ময়মনসিংহ"}
)
