package types

import "time"

const (
	DefaultHeroQuote      = "রক্তদান জীবনদান - একটি রক্ত অনেকগুলো জীবন বাঁচাতে পারে"
	DefaultWhatsAppNumber = "+880XXXXXXXXX"
)

// SiteConfig is the singleton record edited from the admin panel.
type SiteConfig struct {
	HeroQuote      string    `db:"hero_quote" json:"heroQuote"`
	WhatsAppNumber string    `db:"whatsapp_number" json:"whatsappNumber"`
	UpdatedAt      time.Time `db:"updated_at" json:"updatedAt"`
}

func DefaultSiteConfig() *SiteConfig {
	return &SiteConfig{
		HeroQuote:      DefaultHeroQuote,
		WhatsAppNumber: DefaultWhatsAppNumber,
	}
}

type SiteConfigUpdate struct {
	HeroQuote      *string
	WhatsAppNumber *string
}

func (u SiteConfigUpdate) Columns() map[string]any {
	out := make(map[string]any)
	if u.HeroQuote != nil {
		out["hero_quote"] = *u.HeroQuote
	}
	if u.WhatsAppNumber != nil {
		out["whatsapp_number"] = *u.WhatsAppNumber
	}
	return out
}

func (u SiteConfigUpdate) Apply(c *SiteConfig) {
	if u.HeroQuote != nil {
		c.HeroQuote = *u.HeroQuote
	}
	if u.WhatsAppNumber != nil {
		c.WhatsAppNumber = *u.WhatsAppNumber
	}
}
