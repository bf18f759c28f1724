// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/journal/internal/core"
)

// LimitStore decides whether n more hits on key fit within limit. n of 0
// reports the remaining allowance without consuming it.
type LimitStore interface {
	AllowN(
		ctx context.Context,
		key string,
		limit redis_rate.Limit,
		n int,
	) (*redis_rate.Result, error)
}

type RedisStore struct {
	limiter *redis_rate.Limiter
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{limiter: redis_rate.NewLimiter(rdb)}
}

func (s *RedisStore) AllowN(
	ctx context.Context,
	key string,
	limit redis_rate.Limit,
	n int,
) (*redis_rate.Result, error) {
	return s.limiter.AllowN(ctx, key, limit, n)
}

// FallbackStore answers from the local store whenever the primary errors.
type FallbackStore struct {
	primary  LimitStore
	fallback LimitStore
}

func NewFallbackStore(primary, fallback LimitStore) *FallbackStore {
	return &FallbackStore{primary: primary, fallback: fallback}
}

func (s *FallbackStore) AllowN(
	ctx context.Context,
	key string,
	limit redis_rate.Limit,
	n int,
) (*redis_rate.Result, error) {
	res, err := s.primary.AllowN(ctx, key, limit, n)
	if err == nil {
		return res, nil
	}

	slog.Warn("rate limit store unavailable, using local limiter",
		"error", err,
		"key", key,
	)
	return s.fallback.AllowN(ctx, key, limit, n)
}

type RateLimitConfig struct {
	Limit      redis_rate.Limit
	Store      LimitStore
	KeyFunc    func(*http.Request) string
	FailOpen   bool
	BypassFunc func(*http.Request) bool
}

type RateLimiter struct {
	config RateLimitConfig
}

func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}

	return &RateLimiter{config: cfg}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.BypassFunc != nil && rl.config.BypassFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rl.config.KeyFunc(r)
		res, err := rl.config.Store.AllowN(r.Context(), key, rl.config.Limit, 1)
		if err != nil {
			if rl.config.FailOpen {
				slog.Warn("rate limiter error, failing open",
					"error", err,
					"key", key,
				)
				next.ServeHTTP(w, r)
				return
			}
			core.InternalServerError(w, fmt.Errorf("rate limit: %w", err))
			return
		}

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			setRetryAfter(w, res)
			core.JSON(w, http.StatusTooManyRequests, core.ErrorResponse{
				Error: "Too many requests",
				Code:  "RATE_LIMITED",
			})
			return
		}

		next.ServeHTTP(w, r)
	})
}

// TierResolver reports the subscription tier used to pick a quota.
type TierResolver interface {
	Tier(ctx context.Context, email string) (string, error)
}

type QuotaConfig struct {
	Namespace string
	// PerDay maps a tier to its allowance; unknown tiers use DefaultTier.
	PerDay      map[string]int
	DefaultTier string
	Store       LimitStore
	Tiers       TierResolver
	Metrics     *core.Metrics
}

// Quota caps how often an authenticated user may hit the wrapped route per
// day. Only responses below 400 are charged against the allowance.
func Quota(cfg QuotaConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email := GetUserEmail(r.Context())
			if email == "" {
				next.ServeHTTP(w, r)
				return
			}

			tier := cfg.DefaultTier
			if cfg.Tiers != nil {
				resolved, err := cfg.Tiers.Tier(r.Context(), email)
				if err != nil {
					slog.Warn("tier lookup failed, applying default quota",
						"error", err,
						"user", email,
					)
				} else if _, ok := cfg.PerDay[resolved]; ok {
					tier = resolved
				}
			}

			limit := PerDay(cfg.PerDay[tier])
			key := fmt.Sprintf("quota:%s:%s", cfg.Namespace, email)

			res, err := cfg.Store.AllowN(r.Context(), key, limit, 0)
			if err != nil {
				core.InternalServerError(w, fmt.Errorf("quota: %w", err))
				return
			}

			w.Header().Set("X-RateLimit-Tier", tier)

			if res.Remaining < 1 {
				setRateLimitHeaders(w, res, limit)
				cfg.Metrics.QuotaRejected(cfg.Namespace, tier)
				setQuotaRetryAfter(w, res, limit)
				core.JSONError(w, core.QuotaExceededError(
					fmt.Sprintf("Daily limit of %d reached for the %s tier.", limit.Rate, tier),
				))
				return
			}

			res.Remaining--
			setRateLimitHeaders(w, res, limit)

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			if rec.status >= http.StatusBadRequest {
				return
			}

			chargeCtx := context.WithoutCancel(r.Context())
			if _, err := cfg.Store.AllowN(chargeCtx, key, limit, 1); err != nil {
				slog.Warn("quota charge failed",
					"error", err,
					"namespace", cfg.Namespace,
					"user", email,
				)
			}
		})
	}
}

func KeyByIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		ip := strings.TrimSpace(ips[len(ips)-1])
		return "ratelimit:ip:" + ip
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return "ratelimit:ip:" + xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		ip = r.RemoteAddr
	}

	return "ratelimit:ip:" + ip
}

// BypassPaths exempts exact request paths, such as probes and scrapes, from
// the global limiter.
func BypassPaths(paths ...string) func(*http.Request) bool {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return func(r *http.Request) bool {
		_, ok := set[r.URL.Path]
		return ok
	}
}

func setRateLimitHeaders(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(
		time.Now().Add(res.ResetAfter).Unix(), 10))

	windowSecs := int(limit.Period.Seconds())
	h.Set("RateLimit-Policy", fmt.Sprintf(`%d;w=%d`, limit.Rate, windowSecs))
	h.Set(
		"RateLimit",
		fmt.Sprintf(`%d;t=%d`, res.Remaining, int(res.ResetAfter.Seconds())),
	)
}

func setRetryAfter(w http.ResponseWriter, res *redis_rate.Result) {
	retryAfter := int(res.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
}

// setQuotaRetryAfter covers peeks, which report no retry time of their own.
func setQuotaRetryAfter(
	w http.ResponseWriter,
	res *redis_rate.Result,
	limit redis_rate.Limit,
) {
	if res.RetryAfter <= 0 && limit.Rate > 0 {
		res.RetryAfter = limit.Period / time.Duration(limit.Rate)
	}
	setRetryAfter(w, res)
}

type limiterEntry struct {
	limiter    *rate.Limiter
	lastAccess atomic.Int64
}

// LocalStore is an in-process token bucket per key.
type LocalStore struct {
	limiters sync.Map
}

const (
	cleanupInterval = 5 * time.Minute
	entryTTL        = 25 * time.Hour
)

// NewLocalStore evicts idle keys until ctx is done.
func NewLocalStore(ctx context.Context) *LocalStore {
	l := &LocalStore{}
	go l.cleanup(ctx)
	return l
}

func (l *LocalStore) cleanup(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.evictBefore(time.Now().Add(-entryTTL).Unix())
		}
	}
}

func (l *LocalStore) evictBefore(cutoff int64) {
	l.limiters.Range(func(key, value any) bool {
		entry, ok := value.(*limiterEntry)
		if ok && entry.lastAccess.Load() < cutoff {
			l.limiters.Delete(key)
		}
		return true
	})
}

func (l *LocalStore) AllowN(
	_ context.Context,
	key string,
	limit redis_rate.Limit,
	n int,
) (*redis_rate.Result, error) {
	if limit.Rate <= 0 || limit.Period <= 0 {
		return &redis_rate.Result{Limit: limit, RetryAfter: limit.Period}, nil
	}

	ratePerSec := float64(limit.Rate) / limit.Period.Seconds()
	now := time.Now().Unix()

	entryI, loaded := l.limiters.Load(key)
	if !loaded {
		newEntry := &limiterEntry{
			limiter: rate.NewLimiter(rate.Limit(ratePerSec), limit.Burst),
		}
		newEntry.lastAccess.Store(now)
		entryI, _ = l.limiters.LoadOrStore(key, newEntry)
	}

	entry, ok := entryI.(*limiterEntry)
	if !ok {
		return nil, fmt.Errorf("invalid limiter entry type")
	}
	entry.lastAccess.Store(now)

	allowed := n == 0 || entry.limiter.AllowN(time.Now(), n)

	remaining := int(entry.limiter.Tokens())
	if remaining < 0 {
		remaining = 0
	}

	interval := time.Duration(float64(time.Second) / ratePerSec)
	res := &redis_rate.Result{
		Limit:      limit,
		Remaining:  remaining,
		RetryAfter: -1,
		ResetAfter: interval,
	}
	switch {
	case !allowed:
		res.RetryAfter = interval
	case n > 0:
		res.Allowed = n
	}

	return res, nil
}

// PerDay allows the full daily allowance up front.
func PerDay(n int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   n,
		Burst:  n,
		Period: 24 * time.Hour,
	}
}
