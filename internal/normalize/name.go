package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// nameSuffixes are degree, credential, and title tokens stripped from full
// names before splitting into first/last.
var nameSuffixes = map[string]struct{}{}

func init() {
	for _, s := range []string{
		// Academic and professional degrees
		"JR", "SR", "II", "III", "IV", "MD", "PHD", "RN", "BSN", "MBA",
		"CPA", "CFA", "CWS", "CFP", "DDS", "ESQ", "JD", "MSA", "MS", "MA",
		// Business titles that leak into name fields
		"CEO", "CFO", "COO", "CTO", "CMO", "CHRO", "CIO", "CCO",
		"PRESIDENT", "VP", "DIRECTOR", "MANAGER", "PARTNER", "ASSOCIATE",
		// Real estate designations
		"REALTOR", "ARM", "ABR", "GRI", "CRS", "SRS",
	} {
		nameSuffixes[s] = struct{}{}
	}
}

var (
	quotedNickname = regexp.MustCompile(`["'][\w\s]+["']`)
	initialToken   = regexp.MustCompile(`^[A-Za-z]\.?$`)
	credentialTok  = regexp.MustCompile(`^[A-Z0-9\-]+$`)
)

// asciiFold drops diacritics and any remaining non-ASCII runes. Keeps
// "José" usable as "Jose" instead of discarding the whole token.
var asciiFold = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	runes.Remove(runes.Predicate(func(r rune) bool { return r > unicode.MaxASCII })),
	norm.NFC,
)

// SplitName cleans a raw full name and splits it into first and last name.
// It strips non-ASCII glyphs, quoted nicknames, single-letter initials,
// all-caps credential strings, and suffix tokens, then takes the first two
// surviving tokens. Names reducing to fewer than two tokens are rejected
// with ok=false.
func SplitName(fullName string, extraSuffixes []string) (first, last string, ok bool) {
	folded, _, err := transform.String(asciiFold, fullName)
	if err == nil {
		fullName = folded
	}

	fullName = quotedNickname.ReplaceAllString(fullName, "")
	fullName = strings.ReplaceAll(fullName, ",", " ")

	extra := make(map[string]struct{}, len(extraSuffixes))
	for _, s := range extraSuffixes {
		extra[strings.ToUpper(s)] = struct{}{}
	}

	var words []string
	for _, w := range strings.Fields(fullName) {
		upper := strings.ToUpper(strings.TrimSuffix(w, "."))
		if initialToken.MatchString(w) {
			continue
		}
		// All-caps tokens are credentials (CFA, MSGB-LMOC) unless they are
		// roman-numeral generation markers, which the suffix set handles.
		if credentialTok.MatchString(w) && len(w) > 1 {
			continue
		}
		if _, drop := nameSuffixes[upper]; drop {
			continue
		}
		if _, drop := extra[upper]; drop {
			continue
		}
		words = append(words, w)
	}

	if len(words) < 2 {
		return "", "", false
	}
	return words[0], words[1], true
}
