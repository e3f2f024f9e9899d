package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/cookiesnap/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *CookieDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func cookieNames(cookies []model.Cookie) []string {
	names := make([]string, 0, len(cookies))
	for _, c := range cookies {
		names = append(names, c.Name)
	}
	return names
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %s", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "missing")
		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if !errors.Is(err, ErrDatabaseNotFound) {
			t.Fatalf("expected ErrDatabaseNotFound, got %v", err)
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := t.TempDir()
		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if err := db1.Save(context.Background(), "example.com", []model.Cookie{{Name: "a", Domain: "example.com"}}); err != nil {
			t.Fatalf("failed to save: %v", err)
		}
		_ = db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()

		cookies, err := db2.Load(context.Background(), "example.com")
		if err != nil || len(cookies) != 1 {
			t.Errorf("expected stored cookie to survive reopen, got %v, %v", cookies, err)
		}
	})
}

// TestDefaultOptions tests the default configuration.
func TestDefaultOptions(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	if !opts.CreateIfNotExists {
		t.Error("expected CreateIfNotExists to be true")
	}
	if !opts.EnableWAL {
		t.Error("expected EnableWAL to be true")
	}
}

// TestSaveAndLoad tests storing and reading cookie sets.
func TestSaveAndLoad(t *testing.T) {
	t.Parallel()

	t.Run("save replaces rather than merges", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.Save(ctx, "https://example.com", []model.Cookie{{Name: "a"}, {Name: "b"}}); err != nil {
			t.Fatalf("first save failed: %v", err)
		}
		if err := db.Save(ctx, "https://example.com", []model.Cookie{{Name: "c"}}); err != nil {
			t.Fatalf("second save failed: %v", err)
		}

		cookies, err := db.Load(ctx, "https://example.com")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		names := cookieNames(cookies)
		if len(names) != 1 || names[0] != "c" {
			t.Errorf("expected [c], got %v", names)
		}
	})

	t.Run("expiry round-trips to the second", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		in := model.Cookie{
			Name:     "sid",
			Value:    "s3cr3t",
			Domain:   ".example.com",
			Path:     "/app",
			Secure:   true,
			HTTPOnly: true,
			SameSite: model.SameSiteLax,
			Expiry:   model.Int64Ptr(1700000000),
		}
		if err := db.Save(ctx, "https://example.com", []model.Cookie{in}); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		cookies, err := db.Load(ctx, "https://example.com")
		if err != nil || len(cookies) != 1 {
			t.Fatalf("load failed: %v, %v", cookies, err)
		}
		got := cookies[0]
		if got.Expiry == nil || *got.Expiry != 1700000000 {
			t.Errorf("expected expiry 1700000000, got %v", got.Expiry)
		}
		if got.Name != in.Name || got.Value != in.Value || got.Domain != in.Domain || got.Path != in.Path {
			t.Errorf("unexpected cookie %+v", got)
		}
		if !got.Secure || !got.HTTPOnly || got.SameSite != model.SameSiteLax {
			t.Errorf("flags not preserved: %+v", got)
		}
	})

	t.Run("session cookie keeps no expiry", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.Save(ctx, "https://example.com", []model.Cookie{{Name: "s", Domain: "example.com"}}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		cookies, err := db.Load(ctx, "https://example.com")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if cookies[0].Expiry != nil {
			t.Errorf("expected nil expiry, got %d", *cookies[0].Expiry)
		}
		if cookies[0].SameSite != model.SameSiteUnset {
			t.Errorf("expected unset SameSite, got %q", cookies[0].SameSite)
		}
		if cookies[0].Path != "/" {
			t.Errorf("expected default path, got %q", cookies[0].Path)
		}
	})

	t.Run("out of range expiry is stored as session", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.Save(ctx, "https://example.com", []model.Cookie{{Name: "far", Expiry: model.Int64Ptr(1 << 40)}}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		cookies, err := db.Load(ctx, "https://example.com")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if cookies[0].Expiry != nil {
			t.Errorf("expected nil expiry, got %d", *cookies[0].Expiry)
		}
	})

	t.Run("cookies sharing an identity are all stored", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		in := []model.Cookie{
			{Name: "x", Value: "1", Domain: "a.com", Path: "/"},
			{Name: "x", Value: "2", Domain: "a.com", Path: "/"},
			{Name: "x", Value: "3", Domain: "a.com", Path: "/other"},
		}
		if err := db.Save(ctx, "a.com", in); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		cookies, err := db.Load(ctx, "a.com")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		if len(cookies) != len(in) {
			t.Fatalf("expected %d cookies, got %d", len(in), len(cookies))
		}
		for i, c := range cookies {
			if c.Value != in[i].Value {
				t.Errorf("cookie %d: expected value %q, got %q", i, in[i].Value, c.Value)
			}
		}
	})

	t.Run("url is normalized", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.Save(ctx, "  example.com ", []model.Cookie{{Name: "a"}}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		site, err := db.GetSite(ctx, "https://example.com")
		if err != nil {
			t.Fatalf("get site failed: %v", err)
		}
		if site.URL != "https://example.com" {
			t.Errorf("expected normalized URL, got %q", site.URL)
		}
	})

	t.Run("empty set keeps the site with no cookies", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.Save(ctx, "example.com", []model.Cookie{{Name: "a"}}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := db.Save(ctx, "example.com", nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		cookies, err := db.Load(ctx, "example.com")
		if err != nil {
			t.Fatalf("expected site to remain, got %v", err)
		}
		if len(cookies) != 0 {
			t.Errorf("expected no cookies, got %v", cookies)
		}
	})

	t.Run("unknown site returns ErrSiteNotFound", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if _, err := db.Load(context.Background(), "https://nowhere.example"); !errors.Is(err, ErrSiteNotFound) {
			t.Errorf("expected ErrSiteNotFound, got %v", err)
		}
	})

	t.Run("invalid url is rejected", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		if err := db.Save(context.Background(), "   ", nil); !errors.Is(err, model.ErrEmptyTarget) {
			t.Errorf("expected ErrEmptyTarget, got %v", err)
		}
	})

	t.Run("failed save rolls back and keeps previous cookies", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.Save(ctx, "example.com", []model.Cookie{{Name: "old"}}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if _, err := db.db.ExecContext(ctx, `
		CREATE TRIGGER reject_boom BEFORE INSERT ON cookies
		WHEN NEW.name = 'boom'
		BEGIN SELECT RAISE(ABORT, 'rejected'); END;
		`); err != nil {
			t.Fatalf("failed to create trigger: %v", err)
		}

		if err := db.Save(ctx, "example.com", []model.Cookie{{Name: "new"}, {Name: "boom"}}); err == nil {
			t.Fatal("expected save to fail")
		}

		cookies, err := db.Load(ctx, "example.com")
		if err != nil {
			t.Fatalf("load failed: %v", err)
		}
		names := cookieNames(cookies)
		if len(names) != 1 || names[0] != "old" {
			t.Errorf("expected previous set [old], got %v", names)
		}
	})

	t.Run("timestamps come from the clock", func(t *testing.T) {
		t.Parallel()

		current := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		db, err := Open(t.TempDir(), Options{CreateIfNotExists: true, EnableWAL: true, Now: func() time.Time { return current }})
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		ctx := context.Background()

		if err := db.Save(ctx, "example.com", nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		current = current.Add(time.Hour)
		if err := db.Save(ctx, "example.com", nil); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		site, err := db.GetSite(ctx, "example.com")
		if err != nil {
			t.Fatalf("get site failed: %v", err)
		}
		if !site.CreatedAt.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
			t.Errorf("unexpected created_at %v", site.CreatedAt)
		}
		if !site.UpdatedAt.Equal(current) {
			t.Errorf("unexpected updated_at %v", site.UpdatedAt)
		}
	})
}

// TestRemoveSite tests site deletion.
func TestRemoveSite(t *testing.T) {
	t.Parallel()

	t.Run("removing a site removes its cookies", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.Save(ctx, "example.com", []model.Cookie{{Name: "a"}, {Name: "b"}}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		removed, err := db.RemoveSite(ctx, "example.com")
		if err != nil || !removed {
			t.Fatalf("expected removal, got %v, %v", removed, err)
		}

		var n int
		if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cookies`).Scan(&n); err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected no orphan cookies, got %d", n)
		}
		if _, err := db.Load(ctx, "example.com"); !errors.Is(err, ErrSiteNotFound) {
			t.Errorf("expected ErrSiteNotFound, got %v", err)
		}
	})

	t.Run("deleting a site row cascades to cookies", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.Save(ctx, "example.com", []model.Cookie{{Name: "a"}}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if _, err := db.db.ExecContext(ctx, `DELETE FROM sites`); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		var n int
		if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cookies`).Scan(&n); err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if n != 0 {
			t.Errorf("expected cascade to remove cookies, got %d", n)
		}
	})

	t.Run("unknown site reports false", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		removed, err := db.RemoveSite(context.Background(), "example.com")
		if err != nil || removed {
			t.Errorf("expected (false, nil), got (%v, %v)", removed, err)
		}
	})
}

// TestRetainOnly tests pruning every other site.
func TestRetainOnly(t *testing.T) {
	t.Parallel()

	t.Run("keeps only the given site", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		for _, u := range []string{"a.example", "b.example", "c.example"} {
			if err := db.Save(ctx, u, []model.Cookie{{Name: "x"}}); err != nil {
				t.Fatalf("save failed: %v", err)
			}
		}

		deleted, err := db.RetainOnly(ctx, "b.example")
		if err != nil {
			t.Fatalf("retain failed: %v", err)
		}
		if deleted != 2 {
			t.Errorf("expected 2 deleted sites, got %d", deleted)
		}

		sites, err := db.ListSites(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(sites) != 1 || sites[0].URL != "https://b.example" || len(sites[0].Cookies) != 1 {
			t.Errorf("unexpected sites %+v", sites)
		}
	})

	t.Run("unknown site deletes every site", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		for _, u := range []string{"a.com", "b.com"} {
			if err := db.Save(ctx, u, []model.Cookie{{Name: "x", Domain: u}}); err != nil {
				t.Fatalf("save failed: %v", err)
			}
		}

		deleted, err := db.RetainOnly(ctx, "c.com")
		if err != nil {
			t.Fatalf("retain failed: %v", err)
		}
		if deleted != 2 {
			t.Errorf("expected 2 deleted sites, got %d", deleted)
		}

		sites, err := db.ListSites(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(sites) != 0 {
			t.Errorf("expected no sites, got %+v", sites)
		}

		var orphans int
		if err := db.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cookies`).Scan(&orphans); err != nil {
			t.Fatalf("count failed: %v", err)
		}
		if orphans != 0 {
			t.Errorf("expected cookies to be deleted with their sites, got %d", orphans)
		}
	})
}

// TestPurgeExpired tests removal of expired cookies.
func TestPurgeExpired(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	cookies := []model.Cookie{
		{Name: "past", Expiry: model.Int64Ptr(now.Unix() - 1)},
		{Name: "exact", Expiry: model.Int64Ptr(now.Unix())},
		{Name: "future", Expiry: model.Int64Ptr(now.Unix() + 3600)},
		{Name: "session"},
	}
	if err := db.Save(ctx, "example.com", cookies); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := db.Save(ctx, "expired.example", []model.Cookie{{Name: "old", Expiry: model.Int64Ptr(1000)}}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	deleted, err := db.PurgeExpired(ctx, now)
	if err != nil {
		t.Fatalf("purge failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", deleted)
	}

	remaining, err := db.Load(ctx, "example.com")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	names := cookieNames(remaining)
	want := []string{"exact", "future", "session"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("expected %v, got %v", want, names)
		}
	}

	emptied, err := db.Load(ctx, "expired.example")
	if err != nil {
		t.Fatalf("expected site to be kept, got %v", err)
	}
	if len(emptied) != 0 {
		t.Errorf("expected no cookies, got %v", emptied)
	}
}

// TestListSites tests listing stored sites.
func TestListSites(t *testing.T) {
	t.Parallel()

	t.Run("empty store", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		sites, err := db.ListSites(context.Background())
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(sites) != 0 {
			t.Errorf("expected no sites, got %v", sites)
		}
	})

	t.Run("sites are ordered by url with cookies", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		ctx := context.Background()

		if err := db.Save(ctx, "zeta.example", []model.Cookie{{Name: "z"}}); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		if err := db.Save(ctx, "alpha.example", []model.Cookie{{Name: "a1"}, {Name: "a2"}}); err != nil {
			t.Fatalf("save failed: %v", err)
		}

		sites, err := db.ListSites(ctx)
		if err != nil {
			t.Fatalf("list failed: %v", err)
		}
		if len(sites) != 2 {
			t.Fatalf("expected 2 sites, got %d", len(sites))
		}
		if sites[0].URL != "https://alpha.example" || sites[1].URL != "https://zeta.example" {
			t.Errorf("unexpected order: %s, %s", sites[0].URL, sites[1].URL)
		}
		if sites[0].CookieCount() != 2 || sites[1].CookieCount() != 1 {
			t.Errorf("unexpected cookie counts: %d, %d", sites[0].CookieCount(), sites[1].CookieCount())
		}
	})
}

// TestScenario tests the collect-and-save flow for two targets.
func TestScenario(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	collected := map[string][]model.Cookie{
		"example.com":         {{Name: "a"}, {Name: "b"}},
		"https://example.org": {{Name: "c"}},
	}
	for raw, cookies := range collected {
		if err := db.Save(ctx, raw, cookies); err != nil {
			t.Fatalf("save %s failed: %v", raw, err)
		}
	}

	for key, want := range map[string]int{"https://example.com": 2, "https://example.org": 1} {
		cookies, err := db.Load(ctx, key)
		if err != nil {
			t.Fatalf("load %s failed: %v", key, err)
		}
		if len(cookies) != want {
			t.Errorf("%s: expected %d cookies, got %d", key, want, len(cookies))
		}
	}
}

// TestExpiryText tests the expires_at column conversion.
func TestExpiryText(t *testing.T) {
	t.Parallel()

	t.Run("nil is NULL", func(t *testing.T) {
		t.Parallel()

		if expiryToText(nil).Valid {
			t.Error("expected NULL")
		}
	})

	t.Run("formats in UTC", func(t *testing.T) {
		t.Parallel()

		got := expiryToText(model.Int64Ptr(1700000000))
		if !got.Valid || got.String != "2023-11-14 22:13:20" {
			t.Errorf("unexpected text %+v", got)
		}
	})

	t.Run("year beyond 9999 is NULL", func(t *testing.T) {
		t.Parallel()

		if expiryToText(model.Int64Ptr(253402300800)).Valid {
			t.Error("expected NULL for year 10000")
		}
	})
}
