package browser

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// inGameMarkers appear in the URL once the player is past the lobby.
var inGameMarkers = []string{"component=overview", "page=ingame", "game/index"}

// InGame reports whether url belongs to a logged-in game page.
func InGame(url string) bool {
	u := strings.ToLower(url)
	for _, m := range inGameMarkers {
		if strings.Contains(u, m) {
			return true
		}
	}
	return false
}

// TabWatcher is the part of a Session WaitForLogin needs.
type TabWatcher interface {
	Locate(ctx context.Context) (bool, error)
	URL(ctx context.Context) (string, error)
}

// WaitForLogin polls until the player has logged in by hand and the game tab
// shows an in-game page. It only returns early when ctx ends.
func WaitForLogin(ctx context.Context, w TabWatcher, poll time.Duration) error {
	if poll <= 0 {
		poll = 3 * time.Second
	}
	slog.Info("waiting for login; log in and open your planet overview")
	for {
		found, err := w.Locate(ctx)
		if err != nil {
			slog.Debug("login check failed", "error", err)
		}
		if found {
			u, err := w.URL(ctx)
			if err == nil && InGame(u) {
				slog.Info("game detected, starting automation", "url", u)
				return nil
			}
		}

		t := time.NewTimer(poll)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
