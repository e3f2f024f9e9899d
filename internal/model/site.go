package model

import "time"

// Site is a persisted URL owning the most recently collected cookie set.
// Sites are created on first save and only removed explicitly.
type Site struct {
	// ID is the database identifier.
	ID int64 `json:"id"`

	// URL is the normalized target URL. It is unique across sites.
	URL string `json:"url"`

	// CreatedAt is when cookies were first saved for this URL.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is refreshed on every save.
	UpdatedAt time.Time `json:"updated_at"`

	// Cookies is the current cookie set in insertion order.
	Cookies []Cookie `json:"cookies"`
}

// CookieCount returns the number of cookies owned by the site.
func (s Site) CookieCount() int {
	return len(s.Cookies)
}

// ExpiredCount returns how many of the site's cookies expired before now.
func (s Site) ExpiredCount(now time.Time) int {
	n := 0
	for _, c := range s.Cookies {
		if c.IsExpired(now) {
			n++
		}
	}
	return n
}

// ThirdPartyCount returns how many cookies belong to another registrable domain.
func (s Site) ThirdPartyCount() int {
	n := 0
	for _, c := range s.Cookies {
		if c.IsThirdParty(s.URL) {
			n++
		}
	}
	return n
}
