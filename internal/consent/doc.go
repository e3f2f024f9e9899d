// Package consent dismisses cookie consent banners before cookies are read.
//
// The Dismisser tries a fixed, ordered list of selectors. The first one that
// yields an interactable element is clicked, after which the banner is given
// a short pause to animate out. Not finding a banner is the normal outcome on
// many sites and is reported as NotFound rather than as an error; no lookup or
// click failure ever escapes Dismiss.
package consent
