package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/homescout/internal/db"
)

// releaseScript deletes the key only while it still holds the caller's
// fencing value, so an expired-and-reacquired lock is never released by the
// previous holder. Single round trip, atomic on the server.
var releaseScript = rueidis.NewLuaScript(
	`if redis.call("GET", KEYS[1]) == ARGV[1] then return redis.call("DEL", KEYS[1]) else return 0 end`,
)

// SetNX stores value at key with a TTL only if the key does not exist.
func (s *Store) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	cmd := s.b().Set().Key(key).Value(value).Nx().Px(ttl).Build()
	err := s.do(ctx, cmd).Error()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			// SET NX answers nil when the key already exists.
			return false, nil
		}
		return false, &db.Error{Op: db.OpSetNX, Err: err}
	}
	return true, nil
}

// DelIfEqual deletes key only if it still holds value.
func (s *Store) DelIfEqual(ctx context.Context, key, value string) (bool, error) {
	n, err := releaseScript.Exec(ctx, s.client, []string{key}, []string{value}).AsInt64()
	if err != nil {
		return false, &db.Error{Op: db.OpEval, Err: err}
	}
	return n == 1, nil
}
