// Package alerts collects moderation alerts raised elsewhere in the portal
// and surfaces them to administrators.
package alerts

import "time"

// Kind labels what raised the alert.
type Kind string

// Alert kinds.
const (
	KindSuspiciousMessage Kind = "suspicious_message"
	KindLoginLockout      Kind = "login_lockout"
)

// Alert is one recorded incident.
type Alert struct {
	ID        int64
	Kind      Kind
	ForumID   int64
	MessageID int64
	UserID    int64
	Detail    string
	Reviewed  bool
	CreatedAt time.Time
}
