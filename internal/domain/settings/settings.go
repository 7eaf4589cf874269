// Package settings holds the two singleton configuration records the admin
// panel edits: presentational site copy and the email/SMTP setup.
package settings

import "context"

// Site is the presentational content shown on the storefront. A single row
// exists; reads fall back to defaults when nothing has been saved yet.
type Site struct {
	HeaderTitle    string `json:"headerTitle"`
	HeaderLogo     string `json:"headerLogo"`
	HeroImage      string `json:"heroImage"`
	HeroHeadline   string `json:"heroHeadline"`
	HeroSubheading string `json:"heroSubheadline"`
	ChefPhoto      string `json:"chefPhoto"`
	ChefName       string `json:"chefName"`
	ChefPosition   string `json:"chefPosition"`
	OpeningHours   string `json:"openingHours"`
	FooterAddress  string `json:"footerAddress"`
	FooterPhone    string `json:"footerPhone"`
	FooterEmail    string `json:"footerEmail"`
	CopyrightText  string `json:"copyrightText"`
}

// DefaultSite is the content seeded on first boot.
func DefaultSite() *Site {
	return &Site{
		HeaderTitle:    "Karuwa",
		HeroHeadline:   "Authentic Nepalese Cuisine",
		HeroSubheading: "Experience the taste of the Himalayas",
		ChefName:       "Chef Rajesh Kumar",
		ChefPosition:   "Head Chef",
		OpeningHours:   "Mon-Sun: 17:00 - 23:00",
		FooterAddress:  "123 High Street, London",
		FooterPhone:    "020 7999 9999",
		FooterEmail:    "info@karuwa.com",
		CopyrightText:  "Karuwa Takeaway. All Rights Reserved.",
	}
}

// Email is the notification configuration: SMTP credentials, addressing, and
// the customer/staff send toggles.
type Email struct {
	SMTPHost           string
	SMTPPort           int
	SMTPUser           string
	SMTPPassword       string
	RestaurantName     string
	RestaurantEmail    string
	StaffEmails        []string
	SendCustomerEmails bool
	SendStaffEmails    bool
}

// DefaultEmail is the configuration seeded on first boot. Sending stays
// enabled but goes nowhere until an operator fills in SMTP credentials.
func DefaultEmail() *Email {
	return &Email{
		SMTPHost:           "smtp-relay.brevo.com",
		SMTPPort:           587,
		RestaurantName:     "Karuwa Takeaway",
		RestaurantEmail:    "restaurant@karuwa.com",
		SendCustomerEmails: true,
		SendStaffEmails:    true,
	}
}

// Repository provides the two singleton records.
type Repository interface {
	GetSite(ctx context.Context) (*Site, error)
	UpdateSite(ctx context.Context, s *Site) error
	GetEmailSettings(ctx context.Context) (*Email, error)
	UpdateEmailSettings(ctx context.Context, e *Email) error
}
