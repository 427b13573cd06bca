package models

import (
	"strings"
	"time"
)

const SiteSettingsID = "site"

type ClientLogo struct {
	Name       string `json:"name"`
	LogoURL    string `json:"logoUrl"`
	WebsiteURL string `json:"websiteUrl"`
}

// Valid reports whether every field is filled in.
func (c ClientLogo) Valid() bool {
	return strings.TrimSpace(c.Name) != "" &&
		strings.TrimSpace(c.LogoURL) != "" &&
		strings.TrimSpace(c.WebsiteURL) != ""
}

type SiteSettings struct {
	SiteName        string       `json:"site_name"`
	WhatsappNumber  *string      `json:"whatsapp_number"`
	WhatsappMessage *string      `json:"whatsapp_message"`
	Currency        string       `json:"currency"`
	NavbarLogoURL   string       `json:"navbar_logo_url"`
	FaviconURL      *string      `json:"favicon_url"`
	Clients         []ClientLogo `json:"clients"`
	UpdatedAt       *time.Time   `json:"updated_at,omitempty"`
}
