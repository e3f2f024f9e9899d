// Package database provides SQLite-based cookie storage for cookiesnap.
//
// The store keeps one row per site URL and that site's most recent cookie
// set. Saving a site replaces its cookies. Deleting a site deletes its
// cookies through an ON DELETE CASCADE foreign key, so the foreign_keys
// pragma is enabled on every connection.
//
// SQLite (via modernc.org/sqlite) is used so the store is a single file that
// needs no CGO and no external server. Expiry timestamps are stored as UTC
// text ("2006-01-02 15:04:05"), which sorts chronologically and lets the
// expiry sweep compare in SQL.
package database
