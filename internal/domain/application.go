package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxBioLength is the longest accepted artist bio, in characters.
const MaxBioLength = 300

// ExperienceLevels lists the experience choices on the application form.
var ExperienceLevels = []string{
	"Emerging (0–2 years)",
	"Mid-career (3–7 years)",
	"Established (8–15 years)",
	"Master (15+ years)",
}

// Mediums lists the primary medium choices on the application form.
var Mediums = []string{
	"Oil on Canvas",
	"Acrylic on Canvas",
	"Watercolor",
	"Gouache",
	"Digital Print",
	"Bronze",
	"Ceramic",
	"Mixed Media",
	"Photography",
	"Textile",
}

// ArtistApplication is a submission of the join-artist form.
type ArtistApplication struct {
	FullName   string   `json:"fullName"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	City       string   `json:"city"`
	Bio        string   `json:"bio"`
	ArtTypes   []string `json:"artTypes"`
	Styles     []string `json:"styles"`
	Experience string   `json:"experience"`
	Medium     string   `json:"medium"`
	Portfolio  string   `json:"portfolio"`
	Instagram  string   `json:"instagram"`
	AgreeTerms bool     `json:"agreeTerms"`
}

// ApplicationReceipt acknowledges an accepted application.
type ApplicationReceipt struct {
	Reference   string    `json:"reference"`
	FullName    string    `json:"fullName"`
	Email       string    `json:"email"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Validate checks the application in the order the form reports problems:
// contact details, art types, terms, then field formats.
func (a *ArtistApplication) Validate() error {
	if strings.TrimSpace(a.FullName) == "" || strings.TrimSpace(a.Email) == "" || strings.TrimSpace(a.City) == "" {
		return ErrMissingInformation
	}
	if len(a.ArtTypes) == 0 {
		return ErrArtTypeRequired
	}
	if !a.AgreeTerms {
		return ErrTermsRequired
	}
	if utf8.RuneCountInString(a.Bio) > MaxBioLength {
		return ErrBioTooLong
	}
	if at := strings.IndexByte(a.Email, '@'); at <= 0 || at == len(a.Email)-1 {
		return ErrInvalidEmail
	}
	for _, t := range a.ArtTypes {
		if !IsCategory(t) {
			return fmt.Errorf("%w: %q", ErrUnknownArtType, t)
		}
	}
	for _, s := range a.Styles {
		if !contains(ApplicationStyles, s) {
			return fmt.Errorf("%w: %q", ErrUnknownStyle, s)
		}
	}
	return nil
}
