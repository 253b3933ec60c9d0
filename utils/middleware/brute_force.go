package middleware

import (
	"fmt"
	"time"

	"github.com/campusconnect/api/utils/cache"
	"github.com/campusconnect/api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// BruteForceProtection applies progressive login lockouts per client IP
type BruteForceProtection struct {
	store cache.Store
}

// NewBruteForceProtection creates a new brute force protection instance
func NewBruteForceProtection(store cache.Store) *BruteForceProtection {
	return &BruteForceProtection{store: store}
}

func attemptKey(ip string) string { return "brute_force:attempts:" + ip }
func lockKey(ip string) string    { return "brute_force:lock:" + ip }

// CheckLock rejects requests from a locked-out IP
func (b *BruteForceProtection) CheckLock() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		key := lockKey(c.IP())

		locked, err := b.store.Exists(ctx, key)
		if err != nil || !locked {
			// A cache outage never blocks logins
			return c.Next()
		}

		ttl, _ := b.store.TTL(ctx, key)
		retryAfter := int(ttl.Seconds())
		if retryAfter <= 0 {
			retryAfter = 60
		}

		c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", retryAfter))
		return response.TooManyRequests(c, fmt.Sprintf("Too many failed attempts. Try again in %d seconds", retryAfter))
	}
}

// LockoutFor maps a failed-attempt count to the lockout it triggers
func LockoutFor(attempts int64) time.Duration {
	switch {
	case attempts >= 25:
		return 24 * time.Hour
	case attempts >= 10:
		return time.Hour
	case attempts >= 5:
		return 2 * time.Minute
	default:
		return 0
	}
}

// RecordFailedAttempt records a failed login attempt and applies progressive lockouts
func (b *BruteForceProtection) RecordFailedAttempt(c *fiber.Ctx) error {
	ctx := c.UserContext()
	ip := c.IP()

	attempts, err := b.store.Increment(ctx, attemptKey(ip))
	if err != nil {
		return nil
	}
	if attempts == 1 {
		_ = b.store.Expire(ctx, attemptKey(ip), 15*time.Minute)
	}

	lock := LockoutFor(attempts)
	if lock == 0 {
		return nil
	}
	return b.store.Set(ctx, lockKey(ip), "locked", lock)
}

// RecordSuccessfulAttempt clears failed attempts on successful login
func (b *BruteForceProtection) RecordSuccessfulAttempt(c *fiber.Ctx) {
	ip := c.IP()
	_ = b.store.Delete(c.UserContext(), attemptKey(ip), lockKey(ip))
}
