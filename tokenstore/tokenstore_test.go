package tokenstore

import (
	"context"
	"net"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	apperrors "github.com/leeforge/giftstudio/errors"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(time.Hour)
	now := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if _, err := s.Load(ctx, "sess"); !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Fatalf("Load() on empty store err = %v", err)
	}

	want := Tokens{Access: "a1", Refresh: "r1"}
	if err := s.Save(ctx, "sess", want); err != nil {
		t.Fatal(err)
	}
	got, err := s.Load(ctx, "sess")
	if err != nil || got != want {
		t.Fatalf("Load() = %+v, %v", got, err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := s.Load(ctx, "sess"); err == nil {
		t.Fatal("expired entry still loaded")
	}
}

func TestMemoryStoreCleanup(t *testing.T) {
	s := NewMemoryStore(time.Millisecond)
	_ = s.Save(context.Background(), "k", Tokens{Access: "x"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Cleanup(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for {
		s.mu.RLock()
		n := len(s.items)
		s.mu.RUnlock()
		if n == 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("cleanup did not remove expired entry")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	<-done
}

func TestBound(t *testing.T) {
	ctx := context.Background()
	b := Bind(NewMemoryStore(0), "session-1")

	tok, err := b.Tokens(ctx)
	if err != nil || !tok.Empty() {
		t.Fatalf("Tokens() on empty = %+v, %v", tok, err)
	}

	_ = b.SetTokens(ctx, Tokens{Access: "a", Refresh: "r"})
	tok, _ = b.Tokens(ctx)
	if tok.Access != "a" {
		t.Fatalf("Tokens() = %+v", tok)
	}

	_ = b.ClearTokens(ctx)
	tok, _ = b.Tokens(ctx)
	if !tok.Empty() {
		t.Fatalf("tokens survived Clear: %+v", tok)
	}
}

func TestRedisConfigLogFields_RedactsPassword(t *testing.T) {
	config := RedisConfig{Host: "127.0.0.1", Port: "6379", Password: "super-secret", DB: 2}

	logFields := config.LogFields()
	if strings.Contains(logFields, config.Password) {
		t.Fatalf("log fields leak password: %s", logFields)
	}
	if !strings.Contains(logFields, "password=[REDACTED]") {
		t.Fatalf("log fields should contain redaction marker, got: %s", logFields)
	}

	empty := RedisConfig{Host: "::1", Port: "6379"}
	if !strings.Contains(empty.LogFields(), "addr=::1:6379 db=0 password=<empty>") {
		t.Fatalf("unexpected log fields: %s", empty.LogFields())
	}
}

func TestNewRedisClient_UnreachablePort(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := NewRedisClient(ctx, RedisConfig{Host: "127.0.0.1", Port: "1"})
	if err == nil {
		t.Fatal("NewRedisClient() should fail when port is unreachable")
	}
}

func integrationRedisConfig(t *testing.T) RedisConfig {
	t.Helper()

	addr := strings.TrimSpace(os.Getenv("REDIS_TEST_ADDR"))
	if addr == "" {
		t.Skip("set REDIS_TEST_ADDR to run redis integration tests")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("invalid REDIS_TEST_ADDR %q: %v", addr, err)
	}

	db := 0
	if dbRaw := strings.TrimSpace(os.Getenv("REDIS_TEST_DB")); dbRaw != "" {
		parsed, parseErr := strconv.Atoi(dbRaw)
		if parseErr != nil {
			t.Fatalf("invalid REDIS_TEST_DB %q: %v", dbRaw, parseErr)
		}
		db = parsed
	}

	return RedisConfig{
		Host:     host,
		Port:     port,
		Password: os.Getenv("REDIS_TEST_PASSWORD"),
		DB:       db,
	}
}

func TestRedisStore(t *testing.T) {
	config := integrationRedisConfig(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := NewRedisClient(ctx, config)
	if err != nil {
		t.Fatalf("NewRedisClient() failed: %v", err)
	}
	defer client.Close()

	s := NewRedisStore(client, "studio:test:tokens:", time.Minute)
	key := "session-" + strconv.FormatInt(time.Now().UnixNano(), 36)
	defer s.Clear(ctx, key)

	if _, err := s.Load(ctx, key); !apperrors.IsType(err, apperrors.ErrorTypeNotFound) {
		t.Fatalf("Load() missing key err = %v", err)
	}

	want := Tokens{Access: "a", Refresh: "r", ExpiresAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	if err := s.Save(ctx, key, want); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	got, err := s.Load(ctx, key)
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if got.Access != want.Access || got.Refresh != want.Refresh || !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Errorf("Load() = %+v, want %+v", got, want)
	}

	if err := s.Clear(ctx, key); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if _, err := s.Load(ctx, key); err == nil {
		t.Error("key survived Clear")
	}
}
