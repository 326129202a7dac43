package crawl

import "strings"

// blacklistFragments excludes URLs that keyword filtering alone lets through:
// cookie banners, newsletters, legal boilerplate and media sections. Built
// from patterns observed across Austrian and EU institution sites.
var blacklistFragments = []string{
	"cookie", "consent", "newsletter", "/news/", "/press/", "/presse/",
	"/contact/", "/kontakt/", "/about/", "/team/", "/imprint/", "/impressum/",
	"datenschutz", "privacy", "login", "register", "signup", "signin",
	"logout", "account", "sitemap", "/search", "/suche",
	"facebook", "twitter", "linkedin", "youtube", "instagram",
	"subscribe", "unsubscribe", "gdpr", "dsgvo", "/faq",
	"cdn-cgi/l/email-protection", "accessibility",
	"404", "not-found", "nicht-gefunden",
}

// blacklistSuffixes excludes documents discovery cannot extract from.
var blacklistSuffixes = []string{
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".zip", ".jpg", ".jpeg", ".png",
}

// KeepCandidate reports whether a discovered link looks like a funding-program
// page: it must contain at least one configured keyword and none of the
// blacklist fragments.
func KeepCandidate(rawURL string, keywords []string) bool {
	lower := strings.ToLower(rawURL)

	for _, suffix := range blacklistSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}
	for _, fragment := range blacklistFragments {
		if strings.Contains(lower, fragment) {
			return false
		}
	}

	for _, keyword := range keywords {
		if keyword == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(keyword)) {
			return true
		}
	}
	return false
}
