package normalize

import (
	"net/url"
	"strings"
)

// nonBusinessDomains are hosts that never identify a lead's own business:
// search engines, social platforms, link aggregators, and free blog hosts.
var nonBusinessDomains = map[string]struct{}{}

// freeHostPlatforms reject free subdomains like myagency.wordpress.com.
var freeHostPlatforms = []string{"wordpress.com", "blogspot.com", "wix.com"}

// legalSuffixes are company-name endings stripped before synthesizing a
// domain from the company name.
var legalSuffixes = []string{
	" inc", " llc", " ltd", " corp", " group", " properties", " realty", " homes",
}

func init() {
	for _, d := range []string{
		"google.com", "bing.com", "yahoo.com", "duckduckgo.com",
		"twitter.com", "youtube.com", "facebook.com", "instagram.com",
		"linkedin.com", "tiktok.com", "pinterest.com",
		"linktr.ee", "linkin.bio", "bit.ly", "t.co",
		"wordpress.com", "blogspot.com", "wix.com", "squarespace.com",
		"webflow.io", "medium.com", "tumblr.com",
		"http", "https",
	} {
		nonBusinessDomains[d] = struct{}{}
	}
}

// ExtractDomain derives a business domain from a website URL, falling back
// to a domain synthesized from the company name. Best effort: the fallback
// may produce a plausible-but-wrong domain. Pure and deterministic.
func ExtractDomain(website, company string) string {
	if d := domainFromWebsite(website); d != "" {
		return d
	}
	return domainFromCompany(company)
}

func domainFromWebsite(website string) string {
	if website == "" {
		return ""
	}

	if !strings.HasPrefix(website, "http://") && !strings.HasPrefix(website, "https://") {
		website = "https://" + website
	}
	parsed, err := url.Parse(website)
	if err != nil {
		return ""
	}

	domain := parsed.Hostname()
	if domain == "" {
		domain = strings.Trim(parsed.Path, "/")
	}
	domain = strings.ToLower(domain)
	domain = strings.TrimPrefix(domain, "www.")

	// Search-engine result URLs carry the engine's host, not a business.
	for _, engine := range []string{"bing.com", "google.com", "yahoo.com"} {
		if strings.Contains(domain, engine) && strings.Contains(parsed.Path, "search") {
			return ""
		}
	}

	if _, bad := nonBusinessDomains[domain]; bad {
		return ""
	}
	if strings.Count(domain, ".") < 1 {
		return ""
	}
	for _, platform := range freeHostPlatforms {
		if strings.HasSuffix(domain, "."+platform) {
			return ""
		}
	}

	return domain
}

func domainFromCompany(company string) string {
	if company == "" {
		return ""
	}

	name := strings.ToLower(company)
	for _, suffix := range legalSuffixes {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix)
			break
		}
	}

	var b strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return ""
	}
	return b.String() + ".com"
}
