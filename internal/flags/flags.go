package flags

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/danielbnavia/navia-doc-validator/internal/config"
)

// ErrFlagsDisabled is returned by Lookup when no flag service is configured.
var ErrFlagsDisabled = errors.New("feature flag service not configured")

const dialTimeout = 3 * time.Second

// Evaluator answers boolean feature-flag questions against an external
// redis-backed flag service. It holds only configuration: each Evaluate call
// dials a fresh client, waits for it to answer a ping, queries once and
// closes the connection. Flags are advisory; no caller may treat a flag
// failure as a request failure.
type Evaluator struct {
	cfg config.FlagsConfig
}

// NewEvaluator builds an evaluator from resolved configuration. An empty
// RedisAddr is valid and means every flag evaluates to disabled.
func NewEvaluator(cfg config.FlagsConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Enabled reports whether flag lookups can reach a configured service.
func (e *Evaluator) Enabled() bool {
	return e.cfg.RedisAddr != ""
}

// Evaluate resolves a flag for the given user context. Every failure path
// degrades to false: missing configuration, an unreachable service, a
// missing key and an unrecognized value all mean disabled. Failures are
// logged here so callers can stay fire-and-forget.
func (e *Evaluator) Evaluate(ctx context.Context, flagKey, userContext string) bool {
	enabled, err := e.Lookup(ctx, flagKey, userContext)
	if err != nil && !errors.Is(err, ErrFlagsDisabled) {
		log.Printf("flag lookup failed flag=%s context=%s err=%v", flagKey, userContext, err)
	}
	return enabled
}

// Lookup performs one flag round trip and surfaces the error to the caller.
func (e *Evaluator) Lookup(ctx context.Context, flagKey, userContext string) (bool, error) {
	if !e.Enabled() {
		return false, ErrFlagsDisabled
	}

	client := redis.NewClient(&redis.Options{
		Addr:     e.cfg.RedisAddr,
		Username: e.cfg.Username,
		Password: e.cfg.Password,
		DB:       e.cfg.DB,
	})
	defer client.Close()

	pingCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return false, err
	}

	value, err := client.Get(ctx, flagCacheKey(flagKey, userContext)).Result()
	if errors.Is(err, redis.Nil) {
		// per-context override absent, fall back to the global flag value
		value, err = client.Get(ctx, flagCacheKey(flagKey, "")).Result()
	}
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return parseFlagValue(value), nil
}

// flagCacheKey builds the service key for a flag, optionally scoped to a
// user context value.
func flagCacheKey(flagKey, userContext string) string {
	if userContext == "" {
		return "flags:" + flagKey
	}
	return "flags:" + flagKey + ":" + userContext
}

func parseFlagValue(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "on", "enabled":
		return true
	default:
		return false
	}
}
