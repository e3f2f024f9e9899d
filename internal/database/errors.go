package database

import "errors"

var (
	// ErrSiteNotFound is returned when no site is stored for a URL.
	ErrSiteNotFound = errors.New("site not found")

	// ErrDatabaseNotFound is returned by Open when CreateIfNotExists is false
	// and there is no database file.
	ErrDatabaseNotFound = errors.New("database not found")
)
