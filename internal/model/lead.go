// Package model defines the canonical lead record, raw source records, and
// acquisition checkpoint types shared across the pipeline.
package model

import "strings"

// Canonical column names, in output order. TeamSize is optional and always
// emitted last when present in any merged table.
const (
	ColFirstName  = "first_name"
	ColLastName   = "last_name"
	ColRole       = "role"
	ColCompany    = "company"
	ColEmail      = "email"
	ColPhone      = "phone"
	ColWebsite    = "website"
	ColDomain     = "domain"
	ColProfileURL = "profile_url"
	ColSource     = "source"
	ColTeamSize   = "team_size"
)

// CanonicalColumns is the fixed output column order for merged lead tables.
var CanonicalColumns = []string{
	ColFirstName, ColLastName, ColRole, ColCompany, ColEmail, ColPhone,
	ColWebsite, ColDomain, ColProfileURL, ColSource, ColTeamSize,
}

// Lead is a normalized lead record. FirstName, LastName, and Role are
// guaranteed non-empty on every record emitted by the normalizer; all other
// fields use the empty string as the "intentionally absent" sentinel.
type Lead struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Role       string `json:"role"`
	Company    string `json:"company"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Website    string `json:"website"`
	Domain     string `json:"domain"`
	ProfileURL string `json:"profile_url"`
	Source     string `json:"source"`
	TeamSize   string `json:"team_size"`
}

// DedupKey derives the cross-source duplicate identity: the profile URL when
// present, otherwise lowercase name plus domain.
func (l Lead) DedupKey() string {
	if l.ProfileURL != "" {
		return l.ProfileURL
	}
	return strings.ToLower(l.FirstName) + "|" + strings.ToLower(l.LastName) + "|" + l.Domain
}

// Row returns the lead's values in canonical column order.
func (l Lead) Row() []string {
	return []string{
		l.FirstName, l.LastName, l.Role, l.Company, l.Email, l.Phone,
		l.Website, l.Domain, l.ProfileURL, l.Source, l.TeamSize,
	}
}
