package normalize

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// FieldMapping maps each canonical field to an ordered list of acceptable
// source field names; the first non-empty match wins. Adding a source means
// adding mapping entries, never code.
type FieldMapping map[string][]string

// DefaultMapping covers the source schemas seen in practice: Sales Navigator
// exports ("Name", "Title", "Profile URL"), Apollo exports ("First Name",
// "Last Name"), LeadRocks exports ("Job Title", "Phone #1", "Team Size"),
// and D7-style listing feeds ("BusinessName", "WebsiteURL").
func DefaultMapping() FieldMapping {
	return FieldMapping{
		"name":        {"Name", "Full Name", "BusinessName"},
		"first_name":  {"First Name", "first_name", "first name"},
		"last_name":   {"Last Name", "last_name", "last name"},
		"role":        {"Role/Title", "Role", "Title", "Job Title", "title"},
		"company":     {"Company", "Company Name", "BusinessName", "company"},
		"email":       {"Email", "Emails", "email", "Work Email"},
		"phone":       {"Phone", "Telephone", "Phone #1", "Phone Number", "phone"},
		"website":     {"Website", "WebsiteURL", "website", "Company Website"},
		"profile_url": {"Profile URL", "Profile URL (LinkedIn)", "Linkedin", "LinkedIn URL", "profile_url"},
		"team_size":   {"Team Size", "Company Size", "team_size"},
	}
}

// LoadMapping reads a field mapping from a YAML file and overlays it on the
// defaults, so a mapping file only needs to name the fields it changes.
func LoadMapping(path string) (FieldMapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "normalize: read mapping %s", path)
	}

	var wrapper struct {
		Fields FieldMapping `yaml:"fields"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "normalize: parse mapping")
	}

	m := DefaultMapping()
	for field, keys := range wrapper.Fields {
		m[field] = keys
	}
	return m, nil
}

// Pick returns the first non-empty value among the mapped source keys for a
// canonical field.
func (m FieldMapping) Pick(rec model.RawRecord, field string) string {
	for _, key := range m[field] {
		if v := rec.Get(key); v != "" {
			return v
		}
	}
	return ""
}
