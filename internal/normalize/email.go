package normalize

import "strings"

// personalProviders are consumer mailbox domains; addresses there are not
// business emails.
var personalProviders = map[string]struct{}{
	"gmail.com":   {},
	"yahoo.com":   {},
	"outlook.com": {},
	"hotmail.com": {},
	"icloud.com":  {},
	"aol.com":     {},
}

// genericMailboxes are mailbox keywords for shared or administrative
// addresses that never reach a person.
var genericMailboxes = []string{
	"info", "noreply", "no-reply", "support", "sales", "admin",
	"contact", "hello", "advertising",
}

// IsBusinessEmail reports whether an address is a deliverable-looking
// business email: it contains "@", the domain part contains a dot, and the
// domain is not a personal provider.
func IsBusinessEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	domain := strings.ToLower(strings.TrimSpace(email[at+1:]))
	if !strings.Contains(domain, ".") {
		return false
	}
	_, personal := personalProviders[domain]
	return !personal
}

// IsGenericMailbox reports whether an address looks like a shared mailbox
// (info@, noreply@, ...). Such rows are optionally filtered out because they
// never identify a lead.
func IsGenericMailbox(email string) bool {
	lower := strings.ToLower(email)
	for _, kw := range genericMailboxes {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
