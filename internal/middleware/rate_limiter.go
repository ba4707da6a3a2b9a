package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"FakedIn-backend/internal/utilities"
)

// rateLimitScript counts hits in a fixed window and returns the count and
// the remaining window in milliseconds.
const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`

const redisKeyPrefix = "fakedin:ratelimit:"

func keyFunc(c *gin.Context) string {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		return "ip: " + c.ClientIP()
	}
	return "user: " + user.ID.String()
}

func errorHandler(c *gin.Context, info ratelimit.Info) {
	retry := int(math.Ceil(time.Until(info.ResetTime).Seconds()))
	c.Header("Retry-After", strconv.Itoa(max(retry, 1)))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, utilities.ErrorResponse{
		Error: "Too many requests. Please try again later.",
	})
}

// RedisStore is a gin-rate-limit store shared between api replicas. When
// redis cannot be reached the request is let through.
type RedisStore struct {
	client *redis.Client
	script *redis.Script
	rate   time.Duration
	limit  uint
}

// NewRedisStore creates a store allowing limit hits per rate for each key
func NewRedisStore(client *redis.Client, rate time.Duration, limit uint) *RedisStore {
	return &RedisStore{
		client: client,
		script: redis.NewScript(rateLimitScript),
		rate:   rate,
		limit:  limit,
	}
}

// Limit implements ratelimit.Store
func (s *RedisStore) Limit(key string, c *gin.Context) ratelimit.Info {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 250*time.Millisecond)
	defer cancel()

	res, err := s.script.Run(ctx, s.client, []string{redisKeyPrefix + key}, s.rate.Milliseconds()).Int64Slice()
	if err != nil || len(res) != 2 {
		if err != nil {
			utilities.Logger(c).Warn().Err(err).Msg("rate limiter unavailable")
		}
		return ratelimit.Info{Limit: s.limit, RemainingHits: s.limit, ResetTime: time.Now().Add(s.rate)}
	}

	hits, ttl := res[0], res[1]
	info := ratelimit.Info{
		Limit:     s.limit,
		ResetTime: time.Now().Add(time.Duration(ttl) * time.Millisecond),
	}
	if hits > int64(s.limit) {
		info.RateLimited = true
		return info
	}
	info.RemainingHits = s.limit - uint(hits)
	return info
}

// RateLimiterMiddleware allows reqPerSec requests per user, or per client ip
// before authentication. A nil client keeps counters in process memory.
func RateLimiterMiddleware(reqPerSec uint, client *redis.Client) gin.HandlerFunc {
	var store ratelimit.Store
	if client != nil {
		store = NewRedisStore(client, time.Second, reqPerSec)
	} else {
		store = ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
			Rate:  time.Second,
			Limit: reqPerSec,
		})
	}

	return ratelimit.RateLimiter(store, &ratelimit.Options{
		KeyFunc:      keyFunc,
		ErrorHandler: errorHandler,
	})
}
