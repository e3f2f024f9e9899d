package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/cookiesnap/internal/model"
)

// FileName is the database file created inside the data directory.
const FileName = "cookies.db"

// timeLayout is the text layout of every timestamp column.
const timeLayout = "2006-01-02 15:04:05"

// CookieDB is a site-keyed cookie store backed by SQLite.
type CookieDB struct {
	db     *sql.DB
	dbPath string
	now    func() time.Time
}

// Options configures CookieDB behavior.
type Options struct {
	// CreateIfNotExists creates the directory and database file if missing.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool

	// Now returns the current time for created_at and updated_at.
	// Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the cookie store in dbDir.
func Open(dbDir string, opts Options) (*CookieDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("%w at %s", ErrDatabaseNotFound, dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	mode := "rw"
	if opts.CreateIfNotExists {
		mode = "rwc"
	}
	dsn := dbPath + "?mode=" + mode + "&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite has a single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	now := opts.Now
	if now == nil {
		now = time.Now
	}
	cdb := &CookieDB{
		db:     db,
		dbPath: dbPath,
		now:    now,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Path returns the database file path.
func (cdb *CookieDB) Path() string {
	return cdb.dbPath
}

// Close closes the database connection.
func (cdb *CookieDB) Close() error {
	return cdb.db.Close()
}

func (cdb *CookieDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sites (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cookies (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site_id INTEGER NOT NULL REFERENCES sites(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		value TEXT NOT NULL,
		domain TEXT NOT NULL,
		path TEXT NOT NULL DEFAULT '/',
		expires_at TEXT,
		secure INTEGER NOT NULL DEFAULT 0,
		http_only INTEGER NOT NULL DEFAULT 0,
		same_site TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_cookies_site ON cookies(site_id);
	CREATE INDEX IF NOT EXISTS idx_cookies_expires ON cookies(expires_at);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// withTx runs fn in a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func (cdb *CookieDB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Save replaces the stored cookie set of url with cookies. The site is
// created on first save. Every cookie is stored as given; entries sharing
// (name, domain, path) are not merged.
func (cdb *CookieDB) Save(ctx context.Context, url string, cookies []model.Cookie) error {
	key, err := model.NormalizeTarget(url)
	if err != nil {
		return fmt.Errorf("failed to save cookies: %w", err)
	}
	stamp := cdb.now().UTC().Format(timeLayout)

	return cdb.withTx(ctx, func(tx *sql.Tx) error {
		siteID, err := upsertSite(ctx, tx, key, stamp)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cookies WHERE site_id = ?`, siteID); err != nil {
			return fmt.Errorf("failed to clear cookies for %s: %w", key, err)
		}

		stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO cookies (site_id, name, value, domain, path, expires_at, secure, http_only, same_site)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare cookie insert: %w", err)
		}
		defer stmt.Close()

		for _, c := range cookies {
			path := c.Path
			if path == "" {
				path = "/"
			}
			if _, err := stmt.ExecContext(ctx,
				siteID,
				c.Name,
				c.Value,
				c.Domain,
				path,
				expiryToText(c.Expiry),
				c.Secure,
				c.HTTPOnly,
				sameSiteToText(c.SameSite),
			); err != nil {
				return fmt.Errorf("failed to insert cookie %s: %w", c.Name, err)
			}
		}
		return nil
	})
}

func upsertSite(ctx context.Context, tx *sql.Tx, url, stamp string) (int64, error) {
	_, err := tx.ExecContext(ctx, `
	INSERT INTO sites (url, created_at, updated_at)
	VALUES (?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET updated_at = excluded.updated_at
	`, url, stamp, stamp)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert site %s: %w", url, err)
	}

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM sites WHERE url = ?`, url).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to get site id for %s: %w", url, err)
	}
	return id, nil
}

// Load returns the stored cookies of url in insertion order.
// It returns ErrSiteNotFound when the site was never saved.
func (cdb *CookieDB) Load(ctx context.Context, url string) ([]model.Cookie, error) {
	site, err := cdb.GetSite(ctx, url)
	if err != nil {
		return nil, err
	}
	return site.Cookies, nil
}

// GetSite returns the site stored for url together with its cookies.
func (cdb *CookieDB) GetSite(ctx context.Context, url string) (*model.Site, error) {
	key, err := model.NormalizeTarget(url)
	if err != nil {
		return nil, fmt.Errorf("failed to get site: %w", err)
	}

	var site model.Site
	var created, updated string
	err = cdb.db.QueryRowContext(ctx, `
	SELECT id, url, created_at, updated_at FROM sites WHERE url = ?
	`, key).Scan(&site.ID, &site.URL, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSiteNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get site %s: %w", key, err)
	}
	site.CreatedAt = parseTimestamp(created)
	site.UpdatedAt = parseTimestamp(updated)

	cookies, err := cdb.siteCookies(ctx, site.ID)
	if err != nil {
		return nil, err
	}
	site.Cookies = cookies
	return &site, nil
}

func (cdb *CookieDB) siteCookies(ctx context.Context, siteID int64) ([]model.Cookie, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT name, value, domain, path, expires_at, secure, http_only, same_site
	FROM cookies
	WHERE site_id = ?
	ORDER BY id
	`, siteID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cookies: %w", err)
	}
	defer rows.Close()

	cookies := make([]model.Cookie, 0)
	for rows.Next() {
		var c model.Cookie
		var expires, sameSite sql.NullString
		if err := rows.Scan(&c.Name, &c.Value, &c.Domain, &c.Path, &expires, &c.Secure, &c.HTTPOnly, &sameSite); err != nil {
			return nil, fmt.Errorf("failed to scan cookie: %w", err)
		}
		c.Expiry = textToExpiry(expires)
		if sameSite.Valid {
			c.SameSite = model.ParseSameSite(sameSite.String)
		}
		cookies = append(cookies, c)
	}
	return cookies, rows.Err()
}

// ListSites returns every stored site ordered by URL, each with its cookies.
func (cdb *CookieDB) ListSites(ctx context.Context) ([]model.Site, error) {
	rows, err := cdb.db.QueryContext(ctx, `
	SELECT id, url, created_at, updated_at FROM sites ORDER BY url
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}

	sites := make([]model.Site, 0)
	for rows.Next() {
		var s model.Site
		var created, updated string
		if err := rows.Scan(&s.ID, &s.URL, &created, &updated); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		s.CreatedAt = parseTimestamp(created)
		s.UpdatedAt = parseTimestamp(updated)
		sites = append(sites, s)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	// Release the only connection before querying cookies.
	rows.Close()

	for i := range sites {
		cookies, err := cdb.siteCookies(ctx, sites[i].ID)
		if err != nil {
			return nil, err
		}
		sites[i].Cookies = cookies
	}
	return sites, nil
}

// PurgeExpired deletes cookies whose expiry is strictly before now and
// returns how many were deleted. Session cookies and sites are kept.
func (cdb *CookieDB) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	var deleted int64
	err := cdb.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
		DELETE FROM cookies WHERE expires_at IS NOT NULL AND expires_at < ?
		`, now.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("failed to purge expired cookies: %w", err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}

// RemoveSite deletes the site stored for url and its cookies. It reports
// whether a site was removed.
func (cdb *CookieDB) RemoveSite(ctx context.Context, url string) (bool, error) {
	key, err := model.NormalizeTarget(url)
	if err != nil {
		return false, fmt.Errorf("failed to remove site: %w", err)
	}

	removed := false
	err = cdb.withTx(ctx, func(tx *sql.Tx) error {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM sites WHERE url = ?`, key).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to look up site %s: %w", key, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM cookies WHERE site_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete cookies of %s: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM sites WHERE id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete site %s: %w", key, err)
		}
		removed = true
		return nil
	})
	return removed, err
}

// RetainOnly deletes every site whose URL differs from url, with their
// cookies, and returns how many sites were deleted. url does not have to be
// stored; if it is not, every site is deleted.
func (cdb *CookieDB) RetainOnly(ctx context.Context, url string) (int64, error) {
	key, err := model.NormalizeTarget(url)
	if err != nil {
		return 0, fmt.Errorf("failed to prune sites: %w", err)
	}

	var deleted int64
	err = cdb.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM sites WHERE url <> ?`, key)
		if err != nil {
			return fmt.Errorf("failed to delete sites: %w", err)
		}
		deleted, err = res.RowsAffected()
		return err
	})
	return deleted, err
}

// expiryToText converts epoch seconds into the expires_at column value.
// Expiries outside years 1 to 9999 cannot be represented and are stored as
// NULL, like session cookies.
func expiryToText(expiry *int64) sql.NullString {
	if expiry == nil {
		return sql.NullString{}
	}
	t := time.Unix(*expiry, 0).UTC()
	if t.Year() < 1 || t.Year() > 9999 {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(timeLayout), Valid: true}
}

func textToExpiry(s sql.NullString) *int64 {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTimestamp(s.String)
	if t.IsZero() {
		return nil
	}
	sec := t.Unix()
	return &sec
}

func sameSiteToText(s model.SameSite) sql.NullString {
	if s == model.SameSiteUnset {
		return sql.NullString{}
	}
	return sql.NullString{String: string(s), Valid: true}
}

// timestampFormats contains the timestamp formats that SQLite may return.
var timestampFormats = []string{
	timeLayout,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses s as UTC using the known formats, or returns the
// zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.ParseInLocation(format, s, time.UTC); err == nil {
			return t
		}
	}
	return time.Time{}
}
