package presence

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"chatsync/pkg/errs"
	"chatsync/pkg/logger"
	"chatsync/pkg/models"
	"chatsync/pkg/store"
	"chatsync/pkg/subscribe"
	"chatsync/pkg/telemetry"
)

// Presence is a pure function of now - lastSeen; no online flag is stored.
// The conversation-header policy is the tri-state below. The user-directory
// listing applies the stricter OnlineWindow instead; the two policies
// intentionally disagree and are keyed to their call sites.
const (
	ActiveWindow = 2 * time.Minute
	RecentWindow = 5 * time.Minute
	// OnlineWindow is the "online right now" threshold used only by the
	// directory listing.
	OnlineWindow = 10 * time.Second
	// OfflineRewind is subtracted from now by MarkOffline so the delta
	// computation reports offline without a separate state field.
	OfflineRewind = 10 * time.Minute
)

const (
	StatusActive  = "active"
	StatusRecent  = "recently-active"
	StatusOffline = "offline"
)

// now is swapped out by tests.
var now = time.Now

// StatusOf derives the tri-state presence for a last-seen timestamp (ns).
func StatusOf(lastSeenNS int64) string {
	if lastSeenNS <= 0 {
		return StatusOffline
	}
	delta := now().UTC().Sub(time.Unix(0, lastSeenNS))
	switch {
	case delta < ActiveWindow:
		return StatusActive
	case delta < RecentWindow:
		return StatusRecent
	default:
		return StatusOffline
	}
}

// StatusText renders the human-readable label for a tri-state status.
func StatusText(status string) string {
	switch status {
	case StatusActive:
		return "Active now"
	case StatusRecent:
		return "Active recently"
	default:
		return "Offline"
	}
}

// OnlineNow applies the strict directory-listing policy.
func OnlineNow(lastSeenNS int64) bool {
	if lastSeenNS <= 0 {
		return false
	}
	return now().UTC().Sub(time.Unix(0, lastSeenNS)) < OnlineWindow
}

// ViewOf builds the profile projection with derived presence.
func ViewOf(u models.User, isCurrent bool) models.UserView {
	st := StatusOf(u.LastSeen)
	return models.UserView{
		Subject:       u.Subject,
		Name:          u.Name,
		AvatarURL:     u.AvatarURL,
		Status:        st,
		StatusText:    StatusText(st),
		IsCurrentUser: isCurrent,
	}
}

// Heartbeat patches the subject's lastSeen to now. It reports ready=false
// instead of an error while the directory sync has not delivered the user
// record yet; the client keeps heartbeating and wins the race eventually.
func Heartbeat(subject string) (bool, error) {
	err := store.TouchUserLastSeen(subject, now().UTC().UnixNano())
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			logger.Log.Debug("heartbeat_user_not_synced", zap.String("subject", subject))
			return false, nil
		}
		return false, err
	}
	telemetry.Heartbeats.Inc()
	subscribe.Publish(subscribe.DirectoryTopic)
	return true, nil
}

// MarkOffline rewinds lastSeen so the delta-based computation reports
// offline. Used on tab close/hide; idempotent, and a missing record is a
// no-op for the same directory-sync race as Heartbeat.
func MarkOffline(subject string) error {
	ts := now().UTC().Add(-OfflineRewind).UnixNano()
	if err := store.TouchUserLastSeen(subject, ts); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil
		}
		return err
	}
	subscribe.Publish(subscribe.DirectoryTopic)
	return nil
}
