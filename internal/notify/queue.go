package notify

import (
	"context"
	"strconv"
	"time"

	"geo-reminders/internal/config"

	"github.com/redis/go-redis/v9"
)

const (
	notificationsKey = "notifications:pending"
	triggersKey      = "reminders:triggers"
)

// Queue is the Redis-backed handoff between the dispatcher and the
// delivery worker, plus the trigger-activity window used for stats.
type Queue struct {
	client *redis.Client
}

func NewQueue(ctx context.Context, cfg config.RedisConfig) (*Queue, error) {
	if cfg.DialTimeout == 0 {
		cfg.DialTimeout = 5 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 3 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		Username:     cfg.User,
		DB:           cfg.DB,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.Timeout,
		WriteTimeout: cfg.Timeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &Queue{client: client}, nil
}

func (q *Queue) Push(ctx context.Context, payload []byte) error {
	return q.client.LPush(ctx, notificationsKey, payload).Err()
}

// Pop blocks up to timeout for the next pending notification. Returns
// redis.Nil when the queue stays empty.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.client.BLPop(ctx, timeout, notificationsKey).Result()
	if err != nil {
		return "", err
	}
	// BLPop returns [key, value]
	return res[1], nil
}

func (q *Queue) RecordTrigger(ctx context.Context, reminderID string, at time.Time) error {
	return q.client.ZAdd(ctx, triggersKey, redis.Z{
		Score:  float64(at.UnixNano()),
		Member: reminderID + ":" + at.UTC().Format(time.RFC3339Nano),
	}).Err()
}

func (q *Queue) CountTriggersSince(ctx context.Context, since time.Time) (int, error) {
	n, err := q.client.ZCount(ctx, triggersKey,
		strconv.FormatInt(since.UnixNano(), 10), "+inf").Result()
	return int(n), err
}

func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *Queue) Close() error {
	return q.client.Close()
}
