package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"hr-attendance/internal/model"
)

// AttendanceCache keeps each user's recent attendance list in Redis.
type AttendanceCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewAttendanceCache(client *redisv9.Client, ttl time.Duration) *AttendanceCache {
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &AttendanceCache{
		client: client,
		ttl:    ttl,
	}
}

// GetRecent returns the cached page and the generation it was looked up
// under. Pass that generation back to SetRecent.
func (c *AttendanceCache) GetRecent(ctx context.Context, userID uint, limit int) ([]model.Attendance, int64, bool, error) {
	gen, err := c.generation(ctx, userID)
	if err != nil {
		return nil, 0, false, err
	}

	raw, err := c.client.Get(ctx, c.recentKey(userID, gen, limit)).Result()
	if err == redisv9.Nil {
		return nil, gen, false, nil
	}
	if err != nil {
		return nil, 0, false, fmt.Errorf("redis get recent attendance failed: %w", err)
	}

	var records []model.Attendance
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, 0, false, fmt.Errorf("unmarshal cached attendance failed: %w", err)
	}
	return records, gen, true, nil
}

// SetRecent stores records under gen. A fill that raced an Invalidate writes
// to a generation nobody reads any more and simply expires.
func (c *AttendanceCache) SetRecent(ctx context.Context, userID uint, gen int64, limit int, records []model.Attendance) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("marshal attendance cache failed: %w", err)
	}
	if err := c.client.Set(ctx, c.recentKey(userID, gen, limit), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set recent attendance failed: %w", err)
	}
	return nil
}

// Invalidate bumps the user's generation, orphaning every cached page.
func (c *AttendanceCache) Invalidate(ctx context.Context, userID uint) error {
	if err := c.client.Incr(ctx, c.generationKey(userID)).Err(); err != nil {
		return fmt.Errorf("redis bump attendance cache generation failed: %w", err)
	}
	return nil
}

func (c *AttendanceCache) generation(ctx context.Context, userID uint) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(userID)).Int64()
	if err == redisv9.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get attendance cache generation failed: %w", err)
	}
	return gen, nil
}

func (c *AttendanceCache) recentKey(userID uint, gen int64, limit int) string {
	return fmt.Sprintf("attendance:recent:%d:g%d:%d", userID, gen, limit)
}

func (c *AttendanceCache) generationKey(userID uint) string {
	return fmt.Sprintf("attendance:recent:gen:%d", userID)
}
