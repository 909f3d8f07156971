// Package auth implements login, logout and the failed-login lockout.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/atheneum-portal/atheneum-portal/internal/access"
	"github.com/atheneum-portal/atheneum-portal/internal/users"
)

// ErrBadCredentials covers both unknown email and wrong password; callers
// must not be able to probe which one it was.
var ErrBadCredentials = errors.New("auth: bad credentials")

// LockoutRecorder receives lockout alerts; the background job queue
// implements it.
type LockoutRecorder interface {
	RecordLoginLockout(ctx context.Context, userID int64, attempts int) error
}

// Service authenticates users and applies the lockout rules. Failed
// attempts are counted in Redis with a sliding expiry; crossing the
// threshold locks the account in the authoritative store.
type Service struct {
	repo      users.Repository
	rdb       *redis.Client
	recorder  LockoutRecorder
	logger    *slog.Logger
	threshold int
	duration  time.Duration
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(repo users.Repository, rdb *redis.Client, recorder LockoutRecorder, logger *slog.Logger, threshold int, duration time.Duration) *Service {
	return &Service{
		repo:      repo,
		rdb:       rdb,
		recorder:  recorder,
		logger:    logger,
		threshold: threshold,
		duration:  duration,
		now:       time.Now,
	}
}

// WithClock replaces the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	return &clone
}

// Authenticate verifies email and password and enforces account lifecycle.
// On success the failure counter resets; on failure it is incremented and
// the account locks once the threshold is crossed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (users.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return users.User{}, ErrBadCredentials
		}
		return users.User{}, err
	}

	// Lifecycle first: a locked or deactivated account is told so even
	// with a wrong password, matching what the account sees elsewhere.
	if d := access.CheckLifecycle(user.Principal(), s.now()); !d.Allow {
		return users.User{}, d.Err()
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		if err := s.recordFailure(ctx, user); err != nil {
			s.logger.Error("record login failure", slog.Any("error", err), slog.Int64("user", user.ID))
		}
		return users.User{}, ErrBadCredentials
	}

	if err := s.rdb.Del(ctx, s.failureKey(user.ID)).Err(); err != nil {
		s.logger.Error("reset login failures", slog.Any("error", err), slog.Int64("user", user.ID))
	}
	return user, nil
}

func (s *Service) recordFailure(ctx context.Context, user users.User) error {
	key := s.failureKey(user.ID)
	count, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}
	if err := s.rdb.Expire(ctx, key, s.duration).Err(); err != nil {
		return err
	}
	if int(count) < s.threshold {
		return nil
	}

	until := s.now().Add(s.duration)
	if err := s.repo.SetLock(ctx, user.ID, &until); err != nil {
		return fmt.Errorf("auth: lock account %d: %w", user.ID, err)
	}
	s.logger.Warn("account locked after failed logins",
		slog.Int64("user", user.ID), slog.Int64("attempts", count), slog.Time("until", until))
	if s.recorder != nil {
		if err := s.recorder.RecordLoginLockout(ctx, user.ID, int(count)); err != nil {
			s.logger.Error("record lockout alert", slog.Any("error", err), slog.Int64("user", user.ID))
		}
	}
	return s.rdb.Del(ctx, key).Err()
}

func (s *Service) failureKey(userID int64) string {
	return "login:failures:" + strconv.FormatInt(userID, 10)
}
