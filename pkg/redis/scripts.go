package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Each script touches KEYS[1] only, so all of them are safe on a cluster.
var (
	// ARGV[1] ttl in ms, applied by the increment that creates the key.
	incrWithTTLScript = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 and tonumber(ARGV[1]) > 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

	// ARGV[1] owner token.
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

	// ARGV[1] owner token, ARGV[2] ttl in ms.
	extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)
)

// IncrWithTTL increments key and gives it ttl on the first increment, in one
// round trip, so a day's sequence key never lives without an expiry.
func (c *Client) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	if err := c.ready(); err != nil {
		return 0, err
	}
	return incrWithTTLScript.Run(ctx, c.store, []string{key}, ttl.Milliseconds()).Int64()
}

// ReleaseIfOwner deletes key only while it still holds owner.
func (c *Client) ReleaseIfOwner(ctx context.Context, key, owner string) (bool, error) {
	return c.ownerScript(ctx, releaseScript, key, owner)
}

// ExtendIfOwner resets the ttl on key only while it still holds owner.
func (c *Client) ExtendIfOwner(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	return c.ownerScript(ctx, extendScript, key, owner, ttl.Milliseconds())
}

func (c *Client) ownerScript(ctx context.Context, script *redis.Script, key, owner string, extra ...any) (bool, error) {
	if err := c.ready(); err != nil {
		return false, err
	}
	n, err := script.Run(ctx, c.store, []string{key}, append([]any{owner}, extra...)...).Int64()
	return n == 1, err
}
