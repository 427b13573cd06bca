package dto

import "zozotech/internal/domain/models"

type SettingsRequest struct {
	SiteName        string              `json:"site_name"`
	WhatsappNumber  *string             `json:"whatsapp_number"`
	WhatsappMessage *string             `json:"whatsapp_message"`
	Currency        string              `json:"currency"`
	NavbarLogoURL   *string             `json:"navbar_logo_url"`
	FaviconURL      *string             `json:"favicon_url"`
	Clients         []models.ClientLogo `json:"clients"`
}

// SiteResponse is everything the public landing page needs.
type SiteResponse struct {
	Settings models.SiteSettings `json:"settings"`
	Pricing  RankedPackages      `json:"pricing"`
	Posts    []models.Post       `json:"posts"`
}
