package report

import "strings"

// knownCookies maps exact cookie names to what they are commonly used for.
var knownCookies = map[string]string{
	"_ga":               "Google Analytics visitor ID",
	"_gid":              "Google Analytics daily visitor ID",
	"_gat":              "Google Analytics request throttling",
	"_gcl_au":           "Google Ads conversion tracking",
	"_fbp":              "Meta (Facebook) Pixel browser ID",
	"_fbc":              "Meta (Facebook) click ID",
	"fr":                "Meta (Facebook) advertising",
	"IDE":               "Google DoubleClick advertising",
	"NID":               "Google preferences and advertising",
	"1P_JAR":            "Google advertising",
	"_hjSessionUser":    "Hotjar visitor ID",
	"_clck":             "Microsoft Clarity visitor ID",
	"_clsk":             "Microsoft Clarity session",
	"MUID":              "Microsoft advertising visitor ID",
	"_uetsid":           "Microsoft Ads session",
	"_uetvid":           "Microsoft Ads visitor",
	"__cf_bm":           "Cloudflare bot management",
	"cf_clearance":      "Cloudflare challenge clearance",
	"__stripe_mid":      "Stripe fraud prevention",
	"__stripe_sid":      "Stripe fraud prevention session",
	"PHPSESSID":         "PHP session",
	"JSESSIONID":        "Java servlet session",
	"ASP.NET_SessionId": "ASP.NET session",
	"connect.sid":       "Express session",
	"csrftoken":         "CSRF protection token",
	"XSRF-TOKEN":        "CSRF protection token",
	"OptanonConsent":    "OneTrust consent state",
	"CookieConsent":     "Cookiebot consent state",
	"euconsent-v2":      "IAB TCF consent string",
}

// knownPrefixes maps cookie name prefixes to their usage. Checked in order.
var knownPrefixes = []struct {
	prefix      string
	explanation string
}{
	{"_ga_", "Google Analytics 4 session state"},
	{"_gat_", "Google Analytics request throttling"},
	{"_hjSession", "Hotjar session"},
	{"_hj", "Hotjar analytics"},
	{"__utm", "Google Analytics (legacy urchin)"},
	{"_pk_", "Matomo analytics"},
	{"amp_", "Amplitude analytics"},
	{"ajs_", "Segment analytics"},
	{"intercom-", "Intercom messenger"},
	{"wordpress_logged_in", "WordPress login session"},
	{"wp-settings", "WordPress user settings"},
}

// ExplainCookie returns a short description of a well-known cookie, or ""
// when the name is not recognized.
func ExplainCookie(name string) string {
	if e, ok := knownCookies[name]; ok {
		return e
	}
	for _, p := range knownPrefixes {
		if strings.HasPrefix(name, p.prefix) {
			return p.explanation
		}
	}
	return ""
}
