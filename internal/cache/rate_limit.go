package cache

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RateLimiter : compteur fixe par fenêtre, INCR + EXPIRE dans un pipeline.
type RateLimiter struct {
	rdb *redis.Client
}

func NewRateLimiter(rdb *redis.Client) *RateLimiter {
	return &RateLimiter{rdb: rdb}
}

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

func (l *RateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (Decision, error) {
	key = "ratelimit:" + key

	pipe := l.rdb.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.TTL(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{Allowed: true}, errors.Wrap(err, "rate limit redis")
	}

	count := int(incr.Val())
	if count > limit {
		return Decision{Allowed: false, RetryAfter: ttl.Val()}, nil
	}
	return Decision{Allowed: true, Remaining: limit - count}, nil
}

// LoginGuard bloque un email après trop d'échecs de connexion.
type LoginGuard struct {
	rdb         *redis.Client
	maxAttempts int
	cooldown    time.Duration
}

func NewLoginGuard(rdb *redis.Client, maxAttempts int, cooldown time.Duration) *LoginGuard {
	return &LoginGuard{rdb: rdb, maxAttempts: maxAttempts, cooldown: cooldown}
}

// Locked retourne la durée restante du blocage, 0 si l'email n'est pas bloqué.
func (g *LoginGuard) Locked(ctx context.Context, email string) (time.Duration, error) {
	ttl, err := g.rdb.TTL(ctx, "login_cooldown:"+email).Result()
	if err != nil {
		return 0, errors.Wrap(err, "lecture cooldown")
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

func (g *LoginGuard) Fail(ctx context.Context, email string) error {
	key := "login_attempts:" + email
	attempts, err := g.rdb.Incr(ctx, key).Result()
	if err != nil {
		return errors.Wrap(err, "compteur tentatives")
	}
	g.rdb.Expire(ctx, key, g.cooldown)

	if int(attempts) >= g.maxAttempts {
		pipe := g.rdb.TxPipeline()
		pipe.Set(ctx, "login_cooldown:"+email, "1", g.cooldown)
		pipe.Del(ctx, key)
		_, err = pipe.Exec(ctx)
		return errors.Wrap(err, "activation cooldown")
	}
	return nil
}

func (g *LoginGuard) Reset(ctx context.Context, email string) error {
	return errors.Wrap(g.rdb.Del(ctx, "login_attempts:"+email, "login_cooldown:"+email).Err(), "reset tentatives")
}
