package funnel

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a short-TTL Redis cache for funnel results. Failures are treated
// as misses; the engine recomputes rather than surfacing cache errors.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

func cacheKey(scope Scope, window Window) string {
	user, team, end := "-", "-", "-"
	if scope.UserID != nil {
		user = strconv.FormatInt(*scope.UserID, 10)
	}
	if scope.TeamID != nil {
		team = strconv.FormatInt(*scope.TeamID, 10)
	}
	if window.End != nil {
		end = strconv.FormatInt(window.End.Unix(), 10)
	}
	return fmt.Sprintf("funnel:u=%s:t=%s:s=%d:e=%s", user, team, window.Start.Unix(), end)
}

func (c *Cache) Get(ctx context.Context, scope Scope, window Window) (Result, bool) {
	payload, err := c.client.Get(ctx, cacheKey(scope, window)).Bytes()
	if err != nil {
		return Result{}, false
	}
	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, false
	}
	return result, true
}

func (c *Cache) Set(ctx context.Context, scope Scope, window Window, result Result) {
	payload, err := json.Marshal(result)
	if err != nil {
		return
	}
	c.client.Set(ctx, cacheKey(scope, window), payload, c.ttl)
}
