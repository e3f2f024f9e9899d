package browser

import (
	"github.com/go-rod/rod/lib/proto"

	"github.com/nao1215/cookiesnap/internal/model"
)

// FromNetworkCookie converts a DevTools cookie. Session cookies and
// non-positive expiries map to a nil Expiry; fractional seconds are truncated.
func FromNetworkCookie(c *proto.NetworkCookie) model.Cookie {
	out := model.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
		SameSite: model.ParseSameSite(string(c.SameSite)),
	}
	if out.Path == "" {
		out.Path = "/"
	}
	if !c.Session {
		out.Expiry = model.ExpiryFromFloat(float64(c.Expires))
	}
	return out
}

// FromNetworkCookies converts a slice, skipping nil entries.
func FromNetworkCookies(in []*proto.NetworkCookie) []model.Cookie {
	out := make([]model.Cookie, 0, len(in))
	for _, c := range in {
		if c == nil {
			continue
		}
		out = append(out, FromNetworkCookie(c))
	}
	return out
}

// ToCookieParam converts a cookie for Network.setCookies. A cookie without a
// domain is bound to pageURL instead.
func ToCookieParam(c model.Cookie, pageURL string) *proto.NetworkCookieParam {
	p := &proto.NetworkCookieParam{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HTTPOnly: c.HTTPOnly,
	}
	if c.Domain == "" {
		p.URL = pageURL
	}
	if c.Expiry != nil {
		p.Expires = proto.TimeSinceEpoch(*c.Expiry)
	}
	switch c.SameSite {
	case model.SameSiteStrict:
		p.SameSite = proto.NetworkCookieSameSiteStrict
	case model.SameSiteLax:
		p.SameSite = proto.NetworkCookieSameSiteLax
	case model.SameSiteNone:
		p.SameSite = proto.NetworkCookieSameSiteNone
	}
	return p
}
