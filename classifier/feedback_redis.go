package classifier

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions configures a RedisFeedbackStore.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379").
	URL string

	// Key is the list holding feedback records. Default: "triage:feedback".
	Key string

	// TLS configuration for secure connections.
	TLS *tls.Config

	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration

	Logger *slog.Logger
}

// RedisFeedbackStore keeps feedback as JSON records in a Redis list, so
// corrections from several engines accumulate in one place.
type RedisFeedbackStore struct {
	client *redis.Client
	key    string
	logger *slog.Logger
}

// NewRedisFeedbackStore connects to Redis and verifies the connection.
func NewRedisFeedbackStore(opts RedisOptions) (*RedisFeedbackStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.Key == "" {
		opts.Key = "triage:feedback"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = 5 * time.Second
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.TLSConfig = opts.TLS
	redisOpts.DialTimeout = opts.ConnectTimeout
	redisOpts.ReadTimeout = opts.ReadTimeout
	redisOpts.WriteTimeout = opts.WriteTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisFeedbackStore{client: client, key: opts.Key, logger: opts.Logger}, nil
}

// Add implements FeedbackStore.
func (s *RedisFeedbackStore) Add(ctx context.Context, fb Feedback) error {
	data, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}
	if err := s.client.RPush(ctx, s.key, data).Err(); err != nil {
		return fmt.Errorf("failed to push feedback: %w", err)
	}
	return nil
}

// List implements FeedbackStore. Records that fail to decode are skipped.
func (s *RedisFeedbackStore) List(ctx context.Context) ([]Feedback, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback: %w", err)
	}

	out := make([]Feedback, 0, len(raw))
	for i, r := range raw {
		var fb Feedback
		if err := json.Unmarshal([]byte(r), &fb); err != nil {
			s.logger.Warn("skipping undecodable feedback record", "key", s.key, "index", i, "error", err)
			continue
		}
		out = append(out, fb)
	}
	return out, nil
}

// Clear implements FeedbackStore.
func (s *RedisFeedbackStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to clear feedback: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (s *RedisFeedbackStore) Close() error {
	return s.client.Close()
}
