package normalize

import "strings"

// executiveRoles is the allow set: a title must contain at least one of
// these (case-insensitively) to be retained.
var executiveRoles = []string{
	"ceo", "cfo", "coo", "founder", "co-founder", "owner", "co-owner",
	"director", "vice president", "president", "chief", "principal", "vp",
}

// excludedRoles is the deny set: a title containing any of these is dropped
// even when an allow token is present ("Assistant to the CEO").
var excludedRoles = []string{
	"coordinator", "assistant", "specialist", "analyst",
	"representative", "associate", "intern",
}

// ExtractRole returns the title verbatim when it names an executive role,
// or empty when the row should be dropped. Normalization filters as well as
// reshapes: non-executive rows are intentionally excluded, not errors.
func ExtractRole(title string) string {
	lower := strings.ToLower(title)

	allowed := false
	for _, role := range executiveRoles {
		if strings.Contains(lower, role) {
			allowed = true
			break
		}
	}
	if !allowed {
		return ""
	}

	for _, excluded := range excludedRoles {
		if strings.Contains(lower, excluded) {
			return ""
		}
	}
	return title
}
