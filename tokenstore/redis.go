package tokenstore

import (
	"context"
	"fmt"
	"time"

	redis "github.com/go-redis/redis/v8"

	"github.com/leeforge/giftstudio/json"
)

type RedisConfig struct {
	Host     string        `mapstructure:"host" json:"host" yaml:"host" default:"127.0.0.1"`
	Port     string        `mapstructure:"port" json:"port" yaml:"port" default:"6379"`
	Password string        `mapstructure:"password" json:"-" yaml:"password"`
	DB       int           `mapstructure:"db" json:"db" yaml:"db"`
	Prefix   string        `mapstructure:"prefix" json:"prefix" yaml:"prefix" default:"studio:tokens:"`
	TTL      time.Duration `mapstructure:"ttl" json:"ttl" yaml:"ttl" default:"168h"`
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// LogFields renders the connection settings with the password redacted.
func (c *RedisConfig) LogFields() string {
	return fmt.Sprintf("addr=%s db=%d password=%s", c.Addr(), c.DB, redactedPassword(c.Password))
}

func redactedPassword(password string) string {
	if password == "" {
		return "<empty>"
	}
	return "[REDACTED]"
}

// NewRedisClient connects and pings the server.
func NewRedisClient(ctx context.Context, cnf RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cnf.Addr(),
		Password: cnf.Password,
		DB:       cnf.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping (%s): %w", cnf.LogFields(), err)
	}
	return client, nil
}

// RedisStore keeps tokens as JSON values under prefix+key.
type RedisStore struct {
	client redis.Cmdable
	prefix string
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, prefix string, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) Load(ctx context.Context, key string) (Tokens, error) {
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return Tokens{}, errNotFound(key)
	}
	if err != nil {
		return Tokens{}, fmt.Errorf("load tokens: %w", err)
	}

	var t Tokens
	if err := json.Unmarshal(raw, &t); err != nil {
		return Tokens{}, fmt.Errorf("decode tokens: %w", err)
	}
	return t, nil
}

func (s *RedisStore) Save(ctx context.Context, key string, t Tokens) error {
	raw, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode tokens: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("save tokens: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}
