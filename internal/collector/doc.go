// Package collector visits one target in an existing browser session and
// returns the cookies it set.
//
// A visit navigates, waits for the page to settle, dismisses a consent banner
// if one is shown, waits again for scripts unlocked by consent, and reads the
// cookie jar. Progress is reported as a fraction of the visit. Replay does the
// reverse: it loads stored cookies into a session and refreshes the page.
package collector
