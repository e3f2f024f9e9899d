package collector

import (
	"context"
	"errors"
	"fmt"

	"github.com/nao1215/cookiesnap/internal/browser"
	"github.com/nao1215/cookiesnap/internal/model"
)

// ErrNothingToReplay is returned when Replay is given no cookies.
var ErrNothingToReplay = errors.New("no cookies to replay")

// ReplayResult summarises a replay.
type ReplayResult struct {
	Added  int
	Failed int
}

// Replay opens url, injects cookies one by one and refreshes the page so the
// site sees them. A cookie the browser rejects is counted in Failed and does
// not stop the replay.
func (c *Collector) Replay(ctx context.Context, session browser.Session, url string, cookies []model.Cookie) (ReplayResult, error) {
	var res ReplayResult
	if len(cookies) == 0 {
		return res, ErrNothingToReplay
	}

	if err := session.Navigate(ctx, url); err != nil {
		return res, fmt.Errorf("failed to open %s for replay: %w", url, err)
	}

	for _, ck := range cookies {
		if err := session.AddCookie(ctx, ck); err != nil {
			res.Failed++
			c.logger.Warn("cookie rejected by browser", "target", url, "name", ck.Name, "domain", ck.Domain, "error", err)
			continue
		}
		res.Added++
	}

	if err := session.Refresh(ctx); err != nil {
		return res, fmt.Errorf("failed to refresh %s after replay: %w", url, err)
	}
	return res, nil
}
