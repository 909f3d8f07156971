package access

import "time"

// CheckLifecycle evaluates the account state machine: active, inactive, or
// locked with an expiry. It runs before any role or scope evaluation, so a
// locked root account is still locked. Lock expiry is a wall-clock
// comparison at decision time; no background sweep is involved.
func CheckLifecycle(p Principal, now time.Time) Decision {
	if !p.IsActive {
		return Denied(ReasonAccountInactive)
	}
	if p.Locked(now) {
		remaining := p.LockedUntil.Sub(now)
		minutes := int((remaining + time.Minute - 1) / time.Minute)
		return Decision{Reason: ReasonAccountLocked, RetryAfterMinutes: minutes}
	}
	return Allowed()
}
